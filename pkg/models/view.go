package models

// ViewState is the derived, session-only selection state. It is always a
// pure function of the collection and the two selectors and is recomputed
// after every mutation; it is never persisted.
type ViewState struct {
	ActiveFilter  CategoryFilter
	SearchQuery   string
	FilteredNotes []Note
}

// LoadResult is the triple of persisted records plus the gateway's error
// verdict. When StorageError is set the record fields hold their
// type-appropriate empty defaults.
type LoadResult struct {
	Notes        []Note
	DarkMode     bool
	Categories   []string
	StorageError bool
	ErrorMessage string
}

// StorageNotice is the one-shot payload the UI surfaces (for example as a
// dismissible banner) after a storage failure during startup.
type StorageNotice struct {
	Message string
}
