package services

import (
	"sort"
	"strings"

	"pocketnote/pkg/models"
)

// ComputeView derives the visible note list from the full collection and the
// current selectors. It is a pure function: the input slice is never mutated
// and the result is freshly allocated.
//
// Steps, in order: soft-deleted notes are excluded, the category filter is
// applied exactly, the trimmed search query is matched as a case-insensitive
// substring of title or content, and the survivors are stably sorted with
// pinned notes first and newest creation first within each pinned group.
func ComputeView(notes []models.Note, filter models.CategoryFilter, query string) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))

	visible := make([]models.Note, 0, len(notes))
	for _, note := range notes {
		if note.IsDeleted {
			continue
		}
		if !filter.Matches(note.Category) {
			continue
		}
		if q != "" && !matchesQuery(note, q) {
			continue
		}
		visible = append(visible, note)
	}

	// Stable, so identical timestamps keep their collection order across
	// re-filtering.
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsPinned != visible[j].IsPinned {
			return visible[i].IsPinned
		}
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	return visible
}

func matchesQuery(note models.Note, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(note.Title), loweredQuery) ||
		strings.Contains(strings.ToLower(note.Content), loweredQuery)
}
