package storage

import (
	"errors"
	"fmt"
)

// Fixed keys for the three persisted records.
const (
	KeyNotes      = "notes"
	KeyTheme      = "darkMode"
	KeyCategories = "customCategories"
)

// RecordKeys lists every key the gateway owns, in clear order.
var RecordKeys = []string{KeyNotes, KeyTheme, KeyCategories}

// ErrValueTooLarge is the known "payload too large for the storage engine"
// signature. Backends return it from both Set and Get when a record exceeds
// their configured size limit.
var ErrValueTooLarge = errors.New("record exceeds storage size limit")

// KV is the opaque key-value contract the gateway persists through. The core
// depends only on this interface, never on a specific engine.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	// Clear erases the whole store.
	Clear() error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open constructs the KV backend selected by name. dataDir is the directory
// file-based backends live in; maxValueSize of 0 disables the size limit.
func Open(name, dataDir string, maxValueSize int) (KV, error) {
	switch name {
	case BackendFile, "":
		return OpenFileStore(dataDir, maxValueSize)
	case BackendSQLite:
		return OpenSQLiteStore(dataDir, maxValueSize)
	case BackendMemory:
		return NewMemStore(maxValueSize), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", name)
}
