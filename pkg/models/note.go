package models

import "time"

// Note represents a single user-authored note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // rich-text markup, may embed inline media
	Category  Category  `json:"category"`
	IsPinned  bool      `json:"isPinned"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteDraft carries the user-supplied fields for a new note. ID and
// timestamps are assigned by the store on creation.
type NoteDraft struct {
	Title    string
	Content  string
	Category Category
	IsPinned bool
}

// NotePatch describes a partial update to an existing note. Nil fields are
// left untouched.
type NotePatch struct {
	Title    *string
	Content  *string
	Category *Category
	IsPinned *bool
}

// Apply merges the patch into the note. It does not touch timestamps; the
// store owns those.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Category != nil {
		n.Category = *p.Category
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
}
