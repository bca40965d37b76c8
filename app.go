package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"pocketnote/pkg/config"
	"pocketnote/pkg/models"
	"pocketnote/pkg/services"
	"pocketnote/pkg/storage"
)

// App wires the note core to a frontend. It owns the constructed service
// and exposes the query/command surface the UI layer drives; no package
// holds singleton state.
type App struct {
	cfg     *config.Config
	kv      storage.KV
	gateway *storage.Gateway
	notes   *services.NoteService
}

// NewApp builds the storage backend, gateway, and note service from
// configuration.
func NewApp(cfg *config.Config) (*App, error) {
	kv, err := storage.Open(cfg.Backend, cfg.DataDir, cfg.MaxRecordSizeBytes())
	if err != nil {
		return nil, fmt.Errorf("open storage backend: %w", err)
	}

	gateway := storage.NewGateway(kv, filepath.Join(cfg.DataDir, "corrupted"))

	return &App{
		cfg:     cfg,
		kv:      kv,
		gateway: gateway,
		notes:   services.NewNoteService(gateway),
	}, nil
}

// Startup initializes the note service and returns the storage-error banner
// to show once, or the empty string when the load was clean. The UI awaits
// this call so it can render a loading state.
func (a *App) Startup() string {
	a.notes.Initialize()

	log.Info().
		Str("backend", a.cfg.Backend).
		Str("dataDir", a.cfg.DataDir).
		Int("notes", len(a.notes.Notes())).
		Msg("note store initialized")

	if notice, ok := a.notes.ConsumeStorageError(); ok {
		return notice.Message
	}
	return ""
}

// Shutdown flushes pending persistence writes and releases the backend.
func (a *App) Shutdown() error {
	a.notes.Flush()
	return a.kv.Close()
}

// Query surface

func (a *App) GetNotes() []models.Note         { return a.notes.Notes() }
func (a *App) GetFilteredNotes() []models.Note { return a.notes.FilteredNotes() }
func (a *App) GetTrashedNotes() []models.Note  { return a.notes.TrashedNotes() }
func (a *App) GetView() models.ViewState       { return a.notes.View() }
func (a *App) GetCustomCategories() []string   { return a.notes.CustomCategories() }
func (a *App) IsDarkMode() bool                { return a.notes.DarkMode() }

// Command surface

func (a *App) AddNote(draft models.NoteDraft) models.Note {
	return a.notes.AddNote(draft)
}

func (a *App) UpdateNote(id string, patch models.NotePatch) (models.Note, bool) {
	return a.notes.UpdateNote(id, patch)
}

func (a *App) DeleteNote(id string) bool            { return a.notes.DeleteNote(id) }
func (a *App) RestoreNote(id string) bool           { return a.notes.RestoreNote(id) }
func (a *App) PermanentlyDeleteNote(id string) bool { return a.notes.PermanentlyDeleteNote(id) }
func (a *App) PinNote(id string) bool               { return a.notes.PinNote(id) }
func (a *App) UnpinNote(id string) bool             { return a.notes.UnpinNote(id) }

func (a *App) AddCustomCategory(name string) bool    { return a.notes.AddCustomCategory(name) }
func (a *App) RemoveCustomCategory(name string) bool { return a.notes.RemoveCustomCategory(name) }

func (a *App) SetActiveCategory(filter models.CategoryFilter) { a.notes.SetActiveCategory(filter) }
func (a *App) SetSearchQuery(query string)                    { a.notes.SetSearchQuery(query) }

func (a *App) ToggleTheme() bool  { return a.notes.ToggleTheme() }
func (a *App) ResetAppData() bool { return a.notes.ResetAppData() }
