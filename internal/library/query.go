package library

import (
	"strings"

	"github.com/ogero/mediacatalog/pkg/catalog"
)

// RowWidth is the number of slots in a display row.
const RowWidth = 8

const moreSuffix = " (more)"

// Row is one display row. Placeholder slots are nil.
type Row struct {
	Label string          `json:"label"`
	Items []*catalog.Item `json:"items"`
}

// Group holds the rows of one category.
type Group struct {
	Label string `json:"label"`
	Rows  []Row  `json:"rows"`
}

// View is what the rendering layer consumes.
type View struct {
	Hero   catalog.Item `json:"hero"`
	Groups []Group      `json:"groups"`
}

// NoContentHero returns the hero shown when the catalog is empty.
func NoContentHero() catalog.Item {
	color := catalog.DefaultThemeColor
	return catalog.Item{
		Title:       "No content",
		Description: "The catalog is empty. Check the manifest source and restart.",
		Category:    "",
		ThemeColor:  &color,
		Sources:     []catalog.Source{},
	}
}

// IsNoContent reports whether hero is the empty-catalog placeholder.
func IsNoContent(hero catalog.Item) bool {
	return hero.ID == ""
}

// ComputeView selects the hero from all items and groups the items matching query into
// paginated rows. Blank query means no filter. The result depends only on its inputs.
func ComputeView(items []catalog.Item, query string) View {
	return View{
		Hero:   SelectHero(items),
		Groups: GroupRows(Filter(items, query), RowWidth),
	}
}

// SelectHero returns the first item with a theme color, else the first item,
// else NoContentHero.
func SelectHero(items []catalog.Item) catalog.Item {
	for _, item := range items {
		if item.HasThemeColor() {
			return item
		}
	}
	if len(items) > 0 {
		return items[0]
	}
	return NoContentHero()
}

// Filter keeps the items whose searchable text contains query, ignoring case.
// Order is preserved.
func Filter(items []catalog.Item, query string) []catalog.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	matches := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		if Matches(item, q) {
			matches = append(matches, item)
		}
	}
	return matches
}

// Matches reports whether a lower-cased query occurs in the searchable text of item.
func Matches(item catalog.Item, lowerQuery string) bool {
	return strings.Contains(SearchText(item), lowerQuery)
}

// SearchText is the lower-cased title, description and category of item joined by single spaces.
// A query may span field boundaries but never fuses the last word of one field with the next.
func SearchText(item catalog.Item) string {
	return strings.ToLower(item.Title + " " + item.Description + " " + item.Category)
}

// GroupRows partitions items by category in first-seen order and chunks every category
// into rows of exactly width slots, padding the last row with nil placeholders.
func GroupRows(items []catalog.Item, width int) []Group {
	if width <= 0 {
		width = RowWidth
	}

	var order []string
	byCategory := map[string][]catalog.Item{}
	for _, item := range items {
		if _, seen := byCategory[item.Category]; !seen {
			order = append(order, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	groups := make([]Group, 0, len(order))
	for _, category := range order {
		members := byCategory[category]

		rowCount := (len(members) + width - 1) / width
		rows := make([]Row, 0, rowCount)
		for r := 0; r < rowCount; r++ {
			label := category
			if r > 0 {
				label = category + moreSuffix
			}

			slots := make([]*catalog.Item, width)
			for i := 0; i < width; i++ {
				idx := r*width + i
				if idx >= len(members) {
					break
				}
				item := members[idx]
				slots[i] = &item
			}
			rows = append(rows, Row{Label: label, Items: slots})
		}

		groups = append(groups, Group{Label: category, Rows: rows})
	}

	return groups
}
