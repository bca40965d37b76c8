package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "pocketnote/pkg/errors"
	"pocketnote/pkg/models"
)

// Gateway persists the three application records (note collection, dark-mode
// flag, custom-category list) through an opaque KV backend. The three records
// are written independently; a crash between writes can leave them
// inconsistent, which is an accepted tradeoff.
type Gateway struct {
	kv            KV
	quarantineDir string
	logger        zerolog.Logger
}

// NewGateway wraps a KV backend. quarantineDir, when non-empty, receives a
// best-effort copy of readable raw records before a recovery wipe.
func NewGateway(kv KV, quarantineDir string) *Gateway {
	return &Gateway{
		kv:            kv,
		quarantineDir: quarantineDir,
		logger:        log.With().Str("component", "gateway").Logger(),
	}
}

// Load reads all three records, substituting type-appropriate empty defaults
// for absent ones. It never lets an error escape: every failure is converted
// into the result's StorageError fields. On the known payload-too-large
// signature it proactively quarantines what it can and wipes all storage.
func (g *Gateway) Load() (result models.LoadResult) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Interface("panic", r).Msg("unexpected failure during load")
			result = models.LoadResult{
				StorageError: true,
				ErrorMessage: apperrors.ErrStorageLoadFailed.GetUserMessage(),
			}
		}
	}()

	raw, ok, err := g.kv.Get(KeyNotes)
	if err != nil {
		return g.failLoad(KeyNotes, err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &result.Notes); err != nil {
			return g.failLoad(KeyNotes, err)
		}
	}

	raw, ok, err = g.kv.Get(KeyTheme)
	if err != nil {
		return g.failLoad(KeyTheme, err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &result.DarkMode); err != nil {
			return g.failLoad(KeyTheme, err)
		}
	}

	raw, ok, err = g.kv.Get(KeyCategories)
	if err != nil {
		return g.failLoad(KeyCategories, err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &result.Categories); err != nil {
			return g.failLoad(KeyCategories, err)
		}
	}

	return result
}

// failLoad converts a load failure into an error result. The too-large
// signature triggers the recovery wipe here; any other failure is reported
// and left to the caller to decide whether to wipe.
func (g *Gateway) failLoad(key string, err error) models.LoadResult {
	if errors.Is(err, ErrValueTooLarge) {
		g.logger.Error().Str("key", key).
			Msg("stored record exceeds storage engine limit, wiping storage")
		g.quarantine()
		g.Clear()
		return models.LoadResult{
			StorageError: true,
			ErrorMessage: apperrors.ErrRecordTooLarge.GetUserMessage(),
		}
	}

	g.logger.Error().Err(err).Str("key", key).Msg("failed to load stored record")
	return models.LoadResult{
		StorageError: true,
		ErrorMessage: apperrors.ErrStorageLoadFailed.GetUserMessage(),
	}
}

// quarantine copies every still-readable raw record into the quarantine
// directory so a recovery wipe is not silently destructive. Best-effort.
func (g *Gateway) quarantine() {
	if g.quarantineDir == "" {
		return
	}

	rescued := make(map[string]string)
	for _, key := range RecordKeys {
		raw, ok, err := g.kv.Get(key)
		if err != nil || !ok {
			continue
		}
		rescued[key] = raw
	}
	if len(rescued) == 0 {
		return
	}

	if err := os.MkdirAll(g.quarantineDir, 0755); err != nil {
		g.logger.Warn().Err(err).Msg("could not create quarantine directory")
		return
	}

	data, err := json.MarshalIndent(rescued, "", "  ")
	if err != nil {
		return
	}

	timestamp := time.Now().Format("20060102-1504")
	path := filepath.Join(g.quarantineDir, fmt.Sprintf("recovery-%s.json", timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("could not write quarantine file")
		return
	}

	g.logger.Info().Str("path", path).Int("records", len(rescued)).
		Msg("raw records quarantined before wipe")
}

// SaveNotes serializes and writes the whole note collection. Failures are
// logged and reported as false, never thrown to the caller.
func (g *Gateway) SaveNotes(notes []models.Note) bool {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to serialize note collection")
		return false
	}
	return g.setRecord(KeyNotes, string(data))
}

// SaveTheme writes the dark-mode flag.
func (g *Gateway) SaveTheme(darkMode bool) bool {
	data, err := json.Marshal(darkMode)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to serialize theme flag")
		return false
	}
	return g.setRecord(KeyTheme, string(data))
}

// SaveCategories writes the custom-category list.
func (g *Gateway) SaveCategories(categories []string) bool {
	if categories == nil {
		categories = []string{}
	}
	data, err := json.Marshal(categories)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to serialize category list")
		return false
	}
	return g.setRecord(KeyCategories, string(data))
}

func (g *Gateway) setRecord(key, value string) bool {
	if err := g.kv.Set(key, value); err != nil {
		if errors.Is(err, ErrValueTooLarge) {
			g.logger.Error().Str("key", key).Int("size", len(value)).
				Msg("record rejected by storage engine size limit; avoid embedding large media in notes")
		} else {
			g.logger.Warn().Err(err).Str("key", key).Msg("failed to write record")
		}
		return false
	}
	return true
}

// Clear erases the three record keys and defensively clears the whole store.
// Tolerant of partial failure: if the bulk clear fails it falls back to
// individual key removal, logging rather than escalating.
func (g *Gateway) Clear() bool {
	err := g.kv.Clear()
	if err == nil {
		return true
	}
	g.logger.Warn().Err(err).Msg("bulk clear failed, removing records individually")

	ok := true
	for _, key := range RecordKeys {
		if err := g.kv.Remove(key); err != nil {
			g.logger.Error().Err(err).Str("key", key).Msg("failed to remove record")
			ok = false
		}
	}
	return ok
}
