package models

import "strings"

const (
	builtinPersonal = "personal"
	builtinWork     = "work"
	builtinFamily   = "family"

	// reservedFilterName is the synthetic "show everything" selector. It is
	// only representable as a CategoryFilter, never as a stored category.
	reservedFilterName = "all"
)

// Category is the tag attached to a note: one of the three built-ins or a
// user-defined custom name. The zero value is the personal built-in.
type Category struct {
	name string
}

var (
	CategoryPersonal = Category{}
	CategoryWork     = Category{builtinWork}
	CategoryFamily   = Category{builtinFamily}
)

// NewCategory maps a raw name to a category. Built-in names yield the
// corresponding built-in; the reserved filter name and blank input fall back
// to the default built-in; anything else is a custom category.
func NewCategory(name string) Category {
	name = strings.TrimSpace(name)
	switch name {
	case "", builtinPersonal, reservedFilterName:
		return CategoryPersonal
	case builtinWork:
		return CategoryWork
	case builtinFamily:
		return CategoryFamily
	}
	return Category{name: name}
}

// IsReservedName reports whether name is the filter-only selector that must
// never be stored on a note. Callers use it to log coerced input.
func IsReservedName(name string) bool {
	return strings.TrimSpace(name) == reservedFilterName
}

// Name returns the category's display name.
func (c Category) Name() string {
	if c.name == "" {
		return builtinPersonal
	}
	return c.name
}

func (c Category) String() string { return c.Name() }

// IsBuiltin reports whether the category is one of the three fixed tags.
func (c Category) IsBuiltin() bool {
	switch c.name {
	case "", builtinWork, builtinFamily:
		return true
	}
	return false
}

// IsCustom reports whether the category is a user-defined name.
func (c Category) IsCustom() bool { return !c.IsBuiltin() }

// BuiltinCategories returns the three fixed tags in display order.
func BuiltinCategories() []Category {
	return []Category{CategoryPersonal, CategoryWork, CategoryFamily}
}

// MarshalText stores the category as its plain name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Name()), nil
}

// UnmarshalText parses a stored category name. Parsing is best-effort: the
// reserved filter name is normalized to the default built-in rather than
// failing the whole record.
func (c *Category) UnmarshalText(data []byte) error {
	*c = NewCategory(string(data))
	return nil
}

// CategoryFilter selects which categories are visible in the derived view.
// The zero value selects every category.
type CategoryFilter struct {
	category Category
	narrowed bool
}

// FilterAll shows notes of every category.
var FilterAll = CategoryFilter{}

// FilterBy shows only notes tagged with exactly c.
func FilterBy(c Category) CategoryFilter {
	return CategoryFilter{category: c, narrowed: true}
}

// ParseFilter maps a raw selector name to a filter. Blank input and the
// reserved name select everything.
func ParseFilter(name string) CategoryFilter {
	name = strings.TrimSpace(name)
	if name == "" || name == reservedFilterName {
		return FilterAll
	}
	return FilterBy(NewCategory(name))
}

// All reports whether the filter is the show-everything selector.
func (f CategoryFilter) All() bool { return !f.narrowed }

// Category returns the selected category and whether the filter is narrowed.
func (f CategoryFilter) Category() (Category, bool) {
	return f.category, f.narrowed
}

// Matches reports whether a note with category c passes the filter.
// Matching is exact: custom names are case-sensitive.
func (f CategoryFilter) Matches(c Category) bool {
	return !f.narrowed || f.category == c
}

func (f CategoryFilter) String() string {
	if !f.narrowed {
		return reservedFilterName
	}
	return f.category.Name()
}
