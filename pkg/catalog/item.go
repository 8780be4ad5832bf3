package catalog

const (
	// DefaultTitle is used when a record has no title.
	DefaultTitle = "Untitled"
	// DefaultCategory groups records that do not declare a category.
	DefaultCategory = "Uncategorized"
	// DefaultThemeColor is the accent color shown when no item provides one.
	DefaultThemeColor = "#e50914"
)

// Source represents a playable media location.
type Source struct {
	URL string `json:"url"`
}

// Item represents a canonical catalog record, as persisted and displayed.
type Item struct {
	// ID is the primary key, stable across sessions.
	ID string `json:"id"`
	// Title is never empty.
	Title string `json:"title"`
	// Year is the release year, when known.
	Year *int `json:"year,omitempty"`
	// Description defaults to an empty string.
	Description string `json:"description"`
	// Poster is an image URL, or empty.
	Poster string `json:"poster"`
	// Category groups items for display.
	Category string `json:"category"`
	// ThemeColor is an optional accent color. Its presence makes the item eligible as hero.
	ThemeColor *string `json:"themeColor,omitempty"`
	// Sources is ordered; an empty list means the item is not playable.
	Sources []Source `json:"sources"`
}

// Playable reports whether the item has at least one source.
func (i *Item) Playable() bool {
	return len(i.Sources) > 0
}

// HasThemeColor reports whether the item declares an accent color.
func (i *Item) HasThemeColor() bool {
	return i.ThemeColor != nil
}
