package services

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "pocketnote/pkg/errors"
	"pocketnote/pkg/models"
	"pocketnote/pkg/performance"
	"pocketnote/pkg/storage"
	"pocketnote/pkg/utils"
)

// initState tracks the service's startup lifecycle.
type initState int

const (
	stateUninitialized initState = iota
	stateInitializing
	stateReady
)

// NoteService is the single authoritative holder of the in-memory note
// collection, the custom-category registry, the theme flag, and the current
// filter/search selection. It is the only component permitted to mutate the
// collection; frontends read derived state and issue commands.
//
// Mutations run synchronously against in-memory state and schedule — but do
// not wait for — a write of the affected record. Only Initialize and
// ResetAppData perform storage I/O before returning.
type NoteService struct {
	mu      sync.Mutex
	gateway *storage.Gateway
	writes  *performance.WriteQueue
	logger  zerolog.Logger

	// Injectable for tests; default to the real clock and generator.
	now   func() time.Time
	newID func() string

	state            initState
	notes            []models.Note
	customCategories []string
	darkMode         bool
	activeFilter     models.CategoryFilter
	searchQuery      string
	filtered         []models.Note
	pendingNotice    *models.StorageNotice
}

// NewNoteService creates an uninitialized service on top of a persistence
// gateway. Call Initialize before issuing commands.
func NewNoteService(gateway *storage.Gateway) *NoteService {
	return &NoteService{
		gateway: gateway,
		writes:  performance.NewWriteQueue(),
		logger:  log.With().Str("component", "notes").Logger(),
		now:     time.Now,
		newID:   utils.NewNoteID,
	}
}

// Initialize loads persisted state through the gateway and seeds the
// in-memory collection. Idempotent: calling it again once Ready is a no-op.
// It never leaves the service unready; every failure path ends Ready with an
// empty collection and a pending storage notice for the UI to consume once.
func (s *NoteService) Initialize() {
	s.mu.Lock()
	if s.state != stateUninitialized {
		s.mu.Unlock()
		s.logger.Debug().Msg("initialize called after ready, ignoring")
		return
	}
	s.state = stateInitializing
	s.mu.Unlock()

	result := s.loadGuarded()

	s.mu.Lock()
	defer s.mu.Unlock()

	if result.StorageError {
		// The gateway may already have wiped on the too-large signature;
		// clearing again is harmless and covers the generic failure path.
		s.gateway.Clear()
		s.notes = nil
		s.customCategories = nil
		s.darkMode = false
		s.pendingNotice = &models.StorageNotice{Message: result.ErrorMessage}
		s.logger.Warn().Str("reason", result.ErrorMessage).
			Msg("starting with an empty collection after storage error")
	} else {
		s.notes = result.Notes
		s.customCategories = result.Categories
		s.darkMode = result.DarkMode
	}

	s.activeFilter = models.FilterAll
	s.searchQuery = ""
	s.recomputeLocked()
	s.state = stateReady
}

// loadGuarded shields Initialize from anything the load path might throw.
func (s *NoteService) loadGuarded() (result models.LoadResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("unexpected failure while loading")
			result = models.LoadResult{
				StorageError: true,
				ErrorMessage: apperrors.ErrStorageLoadFailed.GetUserMessage(),
			}
		}
	}()
	return s.gateway.Load()
}

// Ready reports whether initialization has completed.
func (s *NoteService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateReady
}

// ConsumeStorageError hands the pending storage notice to the caller exactly
// once. Subsequent calls report none until another storage failure occurs.
func (s *NoteService) ConsumeStorageError() (models.StorageNotice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingNotice == nil {
		return models.StorageNotice{}, false
	}
	notice := *s.pendingNotice
	s.pendingNotice = nil
	return notice, true
}

// Notes returns a copy of the whole collection, soft-deleted notes included.
func (s *NoteService) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNotes(s.notes)
}

// TrashedNotes returns a copy of the soft-deleted notes only.
func (s *NoteService) TrashedNotes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	trashed := make([]models.Note, 0)
	for _, note := range s.notes {
		if note.IsDeleted {
			trashed = append(trashed, note)
		}
	}
	return trashed
}

// FilteredNotes returns a copy of the current derived view.
func (s *NoteService) FilteredNotes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNotes(s.filtered)
}

// View returns the full derived view state.
func (s *NoteService) View() models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ViewState{
		ActiveFilter:  s.activeFilter,
		SearchQuery:   s.searchQuery,
		FilteredNotes: cloneNotes(s.filtered),
	}
}

// DarkMode returns the current theme flag.
func (s *NoteService) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}

// CustomCategories returns a copy of the custom-category registry.
func (s *NoteService) CustomCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.customCategories...)
}

// AddNote assigns a fresh ID and timestamps to the draft, prepends it to the
// collection (newest first), registers any novel custom category, recomputes
// the view, and schedules a persistence write.
func (s *NoteService) AddNote(draft models.NoteDraft) models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyLocked("addNote") {
		return models.Note{}
	}

	now := s.now().UTC()
	note := models.Note{
		ID:        s.newID(),
		Title:     draft.Title,
		Content:   draft.Content,
		Category:  draft.Category,
		IsPinned:  draft.IsPinned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.notes = append([]models.Note{note}, s.notes...)
	s.registerCategoryLocked(note.Category)
	s.recomputeLocked()
	s.scheduleNotesSaveLocked()

	s.logger.Info().Str("id", note.ID).Str("category", note.Category.Name()).Msg("note created")
	return note
}

// UpdateNote merges the patch into the note with the given id and bumps
// UpdatedAt. A missing id is a logged no-op, not an error.
func (s *NoteService) UpdateNote(id string, patch models.NotePatch) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyLocked("updateNote") {
		return models.Note{}, false
	}

	idx := s.findLocked(id)
	if idx < 0 {
		s.logNotFoundLocked("updateNote", id)
		return models.Note{}, false
	}

	patch.Apply(&s.notes[idx])
	s.notes[idx].UpdatedAt = s.now().UTC()
	s.registerCategoryLocked(s.notes[idx].Category)
	s.recomputeLocked()
	s.scheduleNotesSaveLocked()

	return s.notes[idx], true
}

// DeleteNote soft-deletes a note; it stays in the collection until
// permanently removed.
func (s *NoteService) DeleteNote(id string) bool {
	return s.setFlag("deleteNote", id, func(n *models.Note) { n.IsDeleted = true })
}

// RestoreNote clears the soft-delete flag.
func (s *NoteService) RestoreNote(id string) bool {
	return s.setFlag("restoreNote", id, func(n *models.Note) { n.IsDeleted = false })
}

// PinNote marks the note pinned; pinned notes sort before unpinned ones.
func (s *NoteService) PinNote(id string) bool {
	return s.setFlag("pinNote", id, func(n *models.Note) { n.IsPinned = true })
}

// UnpinNote clears the pinned flag.
func (s *NoteService) UnpinNote(id string) bool {
	return s.setFlag("unpinNote", id, func(n *models.Note) { n.IsPinned = false })
}

// setFlag applies a flag mutation to the note with the given id, then
// recomputes and schedules persistence. Missing ids are logged no-ops.
func (s *NoteService) setFlag(op, id string, mutate func(*models.Note)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyLocked(op) {
		return false
	}

	idx := s.findLocked(id)
	if idx < 0 {
		s.logNotFoundLocked(op, id)
		return false
	}

	mutate(&s.notes[idx])
	s.recomputeLocked()
	s.scheduleNotesSaveLocked()
	return true
}

// PermanentlyDeleteNote removes the note from the collection entirely.
// Irreversible; a later restore of the same id is a no-op.
func (s *NoteService) PermanentlyDeleteNote(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyLocked("permanentlyDeleteNote") {
		return false
	}

	idx := s.findLocked(id)
	if idx < 0 {
		s.logNotFoundLocked("permanentlyDeleteNote", id)
		return false
	}

	s.notes = append(s.notes[:idx], s.notes[idx+1:]...)
	s.recomputeLocked()
	s.scheduleNotesSaveLocked()

	s.logger.Info().Str("id", id).Msg("note permanently deleted")
	return true
}

// AddCustomCategory registers a user-defined category name. Blank input,
// reserved names, built-ins, and duplicates are no-ops.
func (s *NoteService) AddCustomCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyLocked("addCustomCategory") {
		return false
	}

	if strings.TrimSpace(name) == "" {
		s.logger.Debug().Msg("ignoring blank category name")
		return false
	}
	if models.IsReservedName(name) {
		s.logger.Debug().Str("name", name).Msg("ignoring reserved category name")
		return false
	}

	category := models.NewCategory(name)
	if !category.IsCustom() {
		return false
	}
	return s.registerCategoryLocked(category)
}

// RemoveCustomCategory removes a name from the registry. Notes already
// tagged with it keep their category; orphaned tags are tolerated and
// rendered with a derived fallback color.
func (s *NoteService) RemoveCustomCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyLocked("removeCustomCategory") {
		return false
	}

	for i, existing := range s.customCategories {
		if existing == name {
			s.customCategories = append(s.customCategories[:i], s.customCategories[i+1:]...)
			s.scheduleCategoriesSaveLocked()
			return true
		}
	}
	return false
}

// registerCategoryLocked appends a novel custom category to the registry as
// a mutation side effect. The check and append share the service mutex, so
// two near-simultaneous mutations cannot both register the same name.
func (s *NoteService) registerCategoryLocked(category models.Category) bool {
	if !category.IsCustom() {
		return false
	}

	name := category.Name()
	for _, existing := range s.customCategories {
		if existing == name {
			return false
		}
	}

	s.customCategories = append(s.customCategories, name)
	s.scheduleCategoriesSaveLocked()
	s.logger.Info().Str("category", name).Msg("custom category registered")
	return true
}

// SetActiveCategory updates the category selector and recomputes the view.
// View state is session-only; nothing is persisted.
func (s *NoteService) SetActiveCategory(filter models.CategoryFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeFilter = filter
	s.recomputeLocked()
}

// SetSearchQuery updates the search selector and recomputes the view.
func (s *NoteService) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searchQuery = query
	s.recomputeLocked()
}

// ToggleTheme flips the dark-mode flag and schedules a persistence write.
// Notes are untouched.
func (s *NoteService) ToggleTheme() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.darkMode = !s.darkMode
	darkMode := s.darkMode
	s.writes.Schedule(storage.KeyTheme, func() {
		s.gateway.SaveTheme(darkMode)
	})
	return darkMode
}

// ResetAppData clears storage and re-seeds empty in-memory state, keeping
// the service Ready. The gateway's success is reported to the caller.
func (s *NoteService) ResetAppData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.gateway.Clear()

	s.notes = nil
	s.customCategories = nil
	s.darkMode = false
	s.activeFilter = models.FilterAll
	s.searchQuery = ""
	s.recomputeLocked()

	if !ok {
		apperrors.ErrStorageClearFailed.Log()
	}
	return ok
}

// Flush blocks until every scheduled persistence write has completed. Meant
// for shutdown and tests; mutations must have stopped.
func (s *NoteService) Flush() {
	s.writes.Flush()
}

// recomputeLocked re-derives the filtered view from the current collection
// and selectors. Runs after every structural mutation and selector change,
// always against the full current collection.
func (s *NoteService) recomputeLocked() {
	s.filtered = ComputeView(s.notes, s.activeFilter, s.searchQuery)
}

// scheduleNotesSaveLocked snapshots the collection and queues a
// fire-and-forget write of the whole notes record.
func (s *NoteService) scheduleNotesSaveLocked() {
	snapshot := cloneNotes(s.notes)
	s.writes.Schedule(storage.KeyNotes, func() {
		s.gateway.SaveNotes(snapshot)
	})
}

func (s *NoteService) scheduleCategoriesSaveLocked() {
	snapshot := append([]string(nil), s.customCategories...)
	s.writes.Schedule(storage.KeyCategories, func() {
		s.gateway.SaveCategories(snapshot)
	})
}

func (s *NoteService) findLocked(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *NoteService) notReadyLocked(op string) bool {
	if s.state == stateReady {
		return false
	}
	s.logger.Warn().Str("op", op).Msg("command issued before initialization, ignoring")
	return true
}

func (s *NoteService) logNotFoundLocked(op, id string) {
	apperrors.ErrNoteNotFound.WithContext("op", op).WithContext("noteId", id).Log()
}

func cloneNotes(notes []models.Note) []models.Note {
	if len(notes) == 0 {
		return []models.Note{}
	}
	return append([]models.Note(nil), notes...)
}
