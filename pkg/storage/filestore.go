package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pocketnote/pkg/utils"
)

// FileStore is a KV backend that keeps one JSON file per record key in a
// data directory. Records are cached in memory; a file system watcher keeps
// the cache in sync with external edits while modification-time bookkeeping
// filters out the store's own writes.
type FileStore struct {
	dataDir      string
	mu           sync.RWMutex
	values       map[string]string
	modTimes     map[string]time.Time
	watcher      *fsnotify.Watcher
	maxValueSize int
	logger       zerolog.Logger
}

// OpenFileStore opens (or creates) a file-backed store in dataDir and
// hydrates the cache from any record files already present. maxValueSize of
// 0 disables the size limit.
func OpenFileStore(dataDir string, maxValueSize int) (*FileStore, error) {
	store := &FileStore{
		dataDir:      dataDir,
		values:       make(map[string]string),
		modTimes:     make(map[string]time.Time),
		maxValueSize: maxValueSize,
		logger:       log.With().Str("component", "filestore").Logger(),
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if err := store.hydrate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		store.logger.Warn().Err(err).Msg("could not create file watcher")
	} else {
		store.watcher = watcher
		if err := watcher.Add(dataDir); err != nil {
			store.logger.Warn().Err(err).Msg("could not watch data directory")
		}
		go store.watch()
	}

	return store, nil
}

// hydrate loads every record file in the data directory into the cache.
func (s *FileStore) hydrate() error {
	files, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return fmt.Errorf("read data directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, file := range files {
		filename := filepath.Base(file)
		if !utils.IsValidRecordFilename(filename) {
			s.logger.Debug().Str("file", filename).Msg("ignoring file with invalid name pattern")
			continue
		}

		fileInfo, err := os.Stat(file)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", file).Msg("stat failed during hydrate")
			continue
		}

		data, err := os.ReadFile(file)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", file).Msg("read failed during hydrate")
			continue
		}

		key := strings.TrimSuffix(filename, ".json")
		s.values[key] = string(data)
		s.modTimes[file] = fileInfo.ModTime()
	}

	return nil
}

// watch processes file system events until the watcher closes.
func (s *FileStore) watch() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			filename := filepath.Base(event.Name)
			if !utils.IsValidRecordFilename(filename) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				s.handleFileWrite(event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				s.handleFileRemove(event.Name)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// handleFileWrite refreshes the cache from an externally modified record.
func (s *FileStore) handleFileWrite(filePath string) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", filePath).Msg("stat failed for changed file")
		return
	}

	s.mu.Lock()
	lastModTime, seen := s.modTimes[filePath]
	currentModTime := fileInfo.ModTime()

	// Same modification time as the one we recorded: probably our own write.
	if seen && !currentModTime.After(lastModTime) {
		s.mu.Unlock()
		return
	}
	s.modTimes[filePath] = currentModTime
	s.mu.Unlock()

	data, err := os.ReadFile(filePath)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", filePath).Msg("read failed for changed file")
		return
	}

	key := strings.TrimSuffix(filepath.Base(filePath), ".json")

	s.mu.Lock()
	s.values[key] = string(data)
	s.mu.Unlock()

	s.logger.Info().Str("key", key).Msg("record updated from external file change")
}

// handleFileRemove drops a record whose file disappeared.
func (s *FileStore) handleFileRemove(filePath string) {
	key := strings.TrimSuffix(filepath.Base(filePath), ".json")

	s.mu.Lock()
	_, existed := s.values[key]
	delete(s.values, key)
	delete(s.modTimes, filePath)
	s.mu.Unlock()

	if existed {
		s.logger.Info().Str("key", key).Msg("record removed due to external file deletion")
	}
}

func (s *FileStore) recordPath(key string) string {
	return filepath.Join(s.dataDir, key+".json")
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", false, nil
	}
	if s.maxValueSize > 0 && len(value) > s.maxValueSize {
		return "", true, ErrValueTooLarge
	}
	return value, true, nil
}

func (s *FileStore) Set(key, value string) error {
	if s.maxValueSize > 0 && len(value) > s.maxValueSize {
		return ErrValueTooLarge
	}

	path := s.recordPath(key)
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = value
	// Record our own write's modification time so the watcher skips it.
	if fileInfo, err := os.Stat(path); err == nil {
		s.modTimes[path] = fileInfo.ModTime()
	}
	s.mu.Unlock()

	return nil
}

func (s *FileStore) Remove(key string) error {
	path := s.recordPath(key)

	s.mu.Lock()
	delete(s.values, key)
	delete(s.modTimes, path)
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Clear() error {
	files, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return fmt.Errorf("list record files: %w", err)
	}

	var firstErr error
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			s.logger.Warn().Err(err).Str("file", file).Msg("failed to remove record file")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.mu.Lock()
	s.values = make(map[string]string)
	s.modTimes = make(map[string]time.Time)
	s.mu.Unlock()

	return firstErr
}

// Close stops the file watcher.
func (s *FileStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
