package library

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ogero/mediacatalog/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func categorized(category string, n int) []catalog.Item {
	out := make([]catalog.Item, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", strings.ToLower(category), i)
		out = append(out, catalog.Item{ID: id, Title: id, Category: category, Sources: []catalog.Source{}})
	}
	return out
}

func realCount(row Row) int {
	n := 0
	for _, slot := range row.Items {
		if slot != nil {
			n++
		}
	}
	return n
}

func TestComputeView_NineDramaItems(t *testing.T) {
	view := ComputeView(categorized("Drama", 9), "")

	require.Len(t, view.Groups, 1)
	group := view.Groups[0]
	assert.Equal(t, "Drama", group.Label)
	require.Len(t, group.Rows, 2)

	assert.Equal(t, "Drama", group.Rows[0].Label)
	assert.Len(t, group.Rows[0].Items, RowWidth)
	assert.Equal(t, 8, realCount(group.Rows[0]))

	assert.Equal(t, "Drama (more)", group.Rows[1].Label)
	assert.Len(t, group.Rows[1].Items, RowWidth)
	assert.Equal(t, 1, realCount(group.Rows[1]))
	assert.Equal(t, "drama-8", group.Rows[1].Items[0].ID)
	for _, slot := range group.Rows[1].Items[1:] {
		assert.Nil(t, slot)
	}
}

func TestComputeView_GroupsInFirstSeenOrder(t *testing.T) {
	in := []catalog.Item{
		{ID: "1", Category: "Comedy"},
		{ID: "2", Category: "Drama"},
		{ID: "3", Category: "Comedy"},
		{ID: "4", Category: "Anime"},
		{ID: "5", Category: "Drama"},
	}

	got := ComputeView(in, "").Groups

	want := []Group{
		{Label: "Comedy", Rows: []Row{{Label: "Comedy", Items: padded(in[0], in[2])}}},
		{Label: "Drama", Rows: []Row{{Label: "Drama", Items: padded(in[1], in[4])}}},
		{Label: "Anime", Rows: []Row{{Label: "Anime", Items: padded(in[3])}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func padded(items ...catalog.Item) []*catalog.Item {
	slots := make([]*catalog.Item, RowWidth)
	for i := range items {
		slots[i] = &items[i]
	}
	return slots
}

func TestComputeView_ExactMultipleHasNoPaddingRow(t *testing.T) {
	view := ComputeView(categorized("Drama", 16), "")

	require.Len(t, view.Groups, 1)
	require.Len(t, view.Groups[0].Rows, 2)
	assert.Equal(t, RowWidth, realCount(view.Groups[0].Rows[1]))
}

func TestSelectHero(t *testing.T) {
	tests := []struct {
		name   string
		items  []catalog.Item
		wantID string
	}{
		{
			name: "themed item wins over earlier plain item",
			items: []catalog.Item{
				{ID: "plain"},
				{ID: "themed", ThemeColor: ptr("#123456")},
			},
			wantID: "themed",
		},
		{
			name: "first themed item wins",
			items: []catalog.Item{
				{ID: "a", ThemeColor: ptr("#111111")},
				{ID: "b", ThemeColor: ptr("#222222")},
			},
			wantID: "a",
		},
		{
			name:   "no theme falls back to first item",
			items:  []catalog.Item{{ID: "first"}, {ID: "second"}},
			wantID: "first",
		},
		{
			name:   "empty theme string still counts as present",
			items:  []catalog.Item{{ID: "first"}, {ID: "blank", ThemeColor: ptr("")}},
			wantID: "blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, SelectHero(tt.items).ID)
		})
	}
}

func TestSelectHero_Empty(t *testing.T) {
	hero := SelectHero(nil)

	assert.True(t, IsNoContent(hero))
	assert.Equal(t, "No content", hero.Title)
	require.NotNil(t, hero.ThemeColor)
	assert.Equal(t, catalog.DefaultThemeColor, *hero.ThemeColor)
}

func TestFilter(t *testing.T) {
	in := []catalog.Item{
		{ID: "1", Title: "The Matrix", Description: "Neo wakes up", Category: "Sci-Fi"},
		{ID: "2", Title: "Amélie", Description: "A whimsical Parisian", Category: "Comedy"},
		{ID: "3", Title: "Heat", Description: "Cops and robbers", Category: "Crime"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"   ", []string{"1", "2", "3"}},
		{"matrix", []string{"1"}},
		{"MATRIX", []string{"1"}},
		{"  neo ", []string{"1"}},
		{"comedy", []string{"2"}},
		{"AMÉLIE", []string{"2"}},
		{"c", []string{"1", "2", "3"}},
		{"robbers", []string{"3"}},
		{"matrixneo", nil},
		{"matrix neo", []string{"1"}},
		{"robbers crime", []string{"3"}},
		{"zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, item := range Filter(in, tt.query) {
				got = append(got, item.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeView_NoResults(t *testing.T) {
	view := ComputeView(categorized("Drama", 3), "nothing matches this")

	assert.Empty(t, view.Groups)
	assert.Equal(t, "drama-0", view.Hero.ID)
}

func genItems(t *rapid.T) []catalog.Item {
	categories := []string{"Drama", "Comedy", "Anime", "Kids", ""}
	words := []string{"alpha", "Beta", "gamma", "DELTA", "noir", "space", ""}

	n := rapid.IntRange(0, 60).Draw(t, "n")
	out := make([]catalog.Item, 0, n)
	for i := 0; i < n; i++ {
		item := catalog.Item{
			ID:          fmt.Sprintf("id-%d", i),
			Title:       rapid.SampledFrom(words).Draw(t, "title") + " " + rapid.SampledFrom(words).Draw(t, "title2"),
			Description: rapid.SampledFrom(words).Draw(t, "description"),
			Category:    rapid.SampledFrom(categories).Draw(t, "category"),
			Sources:     []catalog.Source{},
		}
		if rapid.Bool().Draw(t, "themed") {
			item.ThemeColor = ptr(rapid.SampledFrom([]string{"#000000", "#ffffff"}).Draw(t, "color"))
		}
		out = append(out, item)
	}
	return out
}

func TestProperty_Pagination(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genItems(t)
		view := ComputeView(in, "")

		counts := map[string]int{}
		for _, item := range in {
			counts[item.Category]++
		}
		if len(view.Groups) != len(counts) {
			t.Fatalf("got %d groups, want %d", len(view.Groups), len(counts))
		}

		for _, group := range view.Groups {
			n := counts[group.Label]
			wantRows := (n + RowWidth - 1) / RowWidth
			if len(group.Rows) != wantRows {
				t.Fatalf("%q: got %d rows, want ceil(%d/%d)=%d", group.Label, len(group.Rows), n, RowWidth, wantRows)
			}
			for r, row := range group.Rows {
				if len(row.Items) != RowWidth {
					t.Fatalf("%q row %d has %d slots", group.Label, r, len(row.Items))
				}
				wantLabel := group.Label
				if r > 0 {
					wantLabel = group.Label + " (more)"
				}
				if row.Label != wantLabel {
					t.Fatalf("row label %q, want %q", row.Label, wantLabel)
				}
				filled := realCount(row)
				last := r == len(group.Rows)-1
				switch {
				case !last && filled != RowWidth:
					t.Fatalf("%q row %d is not full: %d", group.Label, r, filled)
				case last && n%RowWidth != 0 && filled != n%RowWidth:
					t.Fatalf("%q last row has %d items, want %d", group.Label, filled, n%RowWidth)
				case last && n%RowWidth == 0 && filled != RowWidth:
					t.Fatalf("%q last row has %d items, want full", group.Label, filled)
				}
				for i := filled; i < RowWidth; i++ {
					if row.Items[i] != nil {
						t.Fatalf("placeholder expected at %d", i)
					}
				}
			}
		}
	})
}

func TestProperty_SearchNarrowing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genItems(t)
		q := rapid.SampledFrom([]string{"", " ", "a", "AL", "beta", "noir", "drama", "e", "zz"}).Draw(t, "q")

		view := ComputeView(in, q)
		lq := strings.ToLower(strings.TrimSpace(q))

		for _, group := range view.Groups {
			for _, row := range group.Rows {
				for _, slot := range row.Items {
					if slot == nil {
						continue
					}
					if !Matches(*slot, lq) {
						t.Fatalf("item %q does not contain %q", slot.ID, q)
					}
				}
			}
		}

		if strings.TrimSpace(q) == "" {
			if diff := cmp.Diff(ComputeView(in, ""), view); diff != "" {
				t.Fatalf("blank query differs from unfiltered view:\n%s", diff)
			}
		}
	})
}

func TestProperty_HeroIgnoresQuery(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genItems(t)
		q := rapid.StringMatching(`[a-z ]{0,6}`).Draw(t, "q")

		if diff := cmp.Diff(ComputeView(in, "").Hero, ComputeView(in, q).Hero); diff != "" {
			t.Fatalf("hero changed under query %q:\n%s", q, diff)
		}
	})
}

func TestProperty_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genItems(t)
		q := rapid.StringMatching(`[a-z]{0,3}`).Draw(t, "q")

		if diff := cmp.Diff(ComputeView(in, q), ComputeView(in, q)); diff != "" {
			t.Fatalf("view not reproducible:\n%s", diff)
		}
	})
}
