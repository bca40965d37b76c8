package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var recordFilenamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// IsValidRecordFilename checks if the filename matches the record file pattern
// used by the file storage backend.
func IsValidRecordFilename(filename string) bool {
	filename = strings.TrimSuffix(filename, ".json")
	return recordFilenamePattern.MatchString(filename)
}

// NewNoteID generates a collision-resistant opaque note ID: a millisecond
// timestamp prefix plus a uuid-derived random suffix. No global coordination
// is required.
func NewNoteID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

// fallbackPalette holds the colors assigned to category names that have no
// registry entry anymore (orphaned custom tags).
var fallbackPalette = [...]string{
	"#e57373", "#ffb74d", "#fff176", "#aed581",
	"#4dd0e1", "#7986cb", "#ba68c8", "#f06292",
}

// CategoryColor derives a stable display color for a category name. The same
// name always maps to the same palette entry.
func CategoryColor(name string) string {
	// FNV-1a
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return fallbackPalette[h%uint32(len(fallbackPalette))]
}
