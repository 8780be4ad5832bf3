package catalog_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ogero/mediacatalog/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T {
	return &v
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alpha", "alpha"},
		{"The Big  Lebowski", "the-big-lebowski"},
		{"Amélie (2001)", "am-lie-2001-"},
		{"--x--", "-x-"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.Slug(tt.in))
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	tests := []struct {
		name string
		raw  catalog.RawItem
		want catalog.Item
	}{
		{
			name: "empty record",
			raw:  catalog.RawItem{},
			want: catalog.Item{
				ID:       "item-1",
				Title:    catalog.DefaultTitle,
				Category: catalog.DefaultCategory,
				Sources:  []catalog.Source{},
			},
		},
		{
			name: "title only",
			raw:  catalog.RawItem{Title: ptr("Alpha")},
			want: catalog.Item{
				ID:       "alpha-1",
				Title:    "Alpha",
				Category: catalog.DefaultCategory,
				Sources:  []catalog.Source{},
			},
		},
		{
			name: "explicit id wins over title",
			raw:  catalog.RawItem{ID: ptr("tt0111161"), Title: ptr("Shawshank")},
			want: catalog.Item{
				ID:       "tt0111161",
				Title:    "Shawshank",
				Category: catalog.DefaultCategory,
				Sources:  []catalog.Source{},
			},
		},
		{
			name: "empty strings are defaulted",
			raw:  catalog.RawItem{ID: ptr(""), Title: ptr(""), Category: ptr("")},
			want: catalog.Item{
				ID:       "item-1",
				Title:    catalog.DefaultTitle,
				Category: catalog.DefaultCategory,
				Sources:  []catalog.Source{},
			},
		},
		{
			name: "full record",
			raw: catalog.RawItem{
				ID:          ptr("x1"),
				Title:       ptr("X"),
				Year:        ptr(1999),
				Description: ptr("desc"),
				Poster:      ptr("https://img/x.jpg"),
				Category:    ptr("Drama"),
				ThemeColor:  ptr("#123456"),
				Sources:     []catalog.Source{{URL: "https://cdn/a.mp4"}, {URL: "https://cdn/b.mp4"}},
			},
			want: catalog.Item{
				ID:          "x1",
				Title:       "X",
				Year:        ptr(1999),
				Description: "desc",
				Poster:      "https://img/x.jpg",
				Category:    "Drama",
				ThemeColor:  ptr("#123456"),
				Sources:     []catalog.Source{{URL: "https://cdn/a.mp4"}, {URL: "https://cdn/b.mp4"}},
			},
		},
		{
			name: "legacy source is wrapped",
			raw:  catalog.RawItem{ID: ptr("x2"), Source: &catalog.Source{URL: "https://cdn/legacy.mp4"}},
			want: catalog.Item{
				ID:       "x2",
				Title:    catalog.DefaultTitle,
				Category: catalog.DefaultCategory,
				Sources:  []catalog.Source{{URL: "https://cdn/legacy.mp4"}},
			},
		},
		{
			name: "sources array wins over legacy source",
			raw: catalog.RawItem{
				ID:      ptr("x3"),
				Sources: []catalog.Source{},
				Source:  &catalog.Source{URL: "https://cdn/legacy.mp4"},
			},
			want: catalog.Item{
				ID:       "x3",
				Title:    catalog.DefaultTitle,
				Category: catalog.DefaultCategory,
				Sources:  []catalog.Source{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := catalog.NewNormalizer(catalog.CounterSuffix(0))
			got := n.Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_Normalize_DistinctIDsForRepeatedTitles(t *testing.T) {
	n := catalog.NewNormalizer(nil)

	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		item := n.Normalize(catalog.RawItem{Title: ptr("Same Title")})
		require.True(t, strings.HasPrefix(item.ID, "same-title-"), item.ID)
		_, dup := seen[item.ID]
		require.False(t, dup, "duplicate id %s", item.ID)
		seen[item.ID] = struct{}{}
	}
}

func TestNormalizer_Normalize_FromManifestJSON(t *testing.T) {
	var raws []catalog.RawItem
	err := json.Unmarshal([]byte(`[{"title":"Alpha"}]`), &raws)
	require.NoError(t, err)
	require.Len(t, raws, 1)

	item := catalog.NewNormalizer(nil).Normalize(raws[0])

	assert.True(t, strings.HasPrefix(item.ID, "alpha-"), item.ID)
	assert.Greater(t, len(item.ID), len("alpha-"))
	assert.Equal(t, "Alpha", item.Title)
	assert.Equal(t, catalog.DefaultCategory, item.Category)
	assert.Empty(t, item.Sources)
	assert.NotNil(t, item.Sources)
	assert.False(t, item.Playable())
}
