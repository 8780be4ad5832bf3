package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

var slugSeparatorRE = regexp.MustCompile(`[^a-z0-9]+`)

// SuffixFunc returns a token that is unique among the calls made during one pipeline run.
type SuffixFunc func() string

// UUIDSuffix returns time-ordered UUIDv7 tokens, falling back to random UUIDs.
func UUIDSuffix() SuffixFunc {
	return func() string {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.NewString()
		}
		return id.String()
	}
}

// CounterSuffix returns base-36 tokens from a monotonic counter starting after start.
func CounterSuffix(start int64) SuffixFunc {
	var n atomic.Int64
	n.Store(start)
	return func() string {
		return strconv.FormatInt(n.Add(1), 36)
	}
}

// Normalizer converts raw manifest records into canonical items.
type Normalizer struct {
	suffix SuffixFunc
}

// NewNormalizer creates a Normalizer. A nil suffix defaults to UUIDSuffix.
func NewNormalizer(suffix SuffixFunc) *Normalizer {
	if suffix == nil {
		suffix = UUIDSuffix()
	}
	return &Normalizer{suffix: suffix}
}

// Normalize maps raw to an Item, filling defaults for every absent field. It never fails.
func (n *Normalizer) Normalize(raw RawItem) Item {
	item := Item{
		Title:       DefaultTitle,
		Description: stringOr(raw.Description, ""),
		Poster:      stringOr(raw.Poster, ""),
		Category:    stringOr(raw.Category, DefaultCategory),
		Sources:     []Source{},
	}

	switch {
	case raw.ID != nil && *raw.ID != "":
		item.ID = *raw.ID
	case raw.Title != nil && *raw.Title != "":
		item.ID = Slug(*raw.Title) + "-" + n.suffix()
	default:
		item.ID = "item-" + n.suffix()
	}

	if raw.Title != nil && *raw.Title != "" {
		item.Title = *raw.Title
	}
	if item.Category == "" {
		item.Category = DefaultCategory
	}
	if raw.Year != nil {
		year := *raw.Year
		item.Year = &year
	}
	if raw.ThemeColor != nil {
		color := *raw.ThemeColor
		item.ThemeColor = &color
	}

	switch {
	case raw.Sources != nil:
		item.Sources = append(item.Sources, raw.Sources...)
	case raw.Source != nil:
		item.Sources = append(item.Sources, *raw.Source)
	}

	return item
}

// Slug lower-cases s and replaces every run of characters outside [a-z0-9] with a single '-'.
func Slug(s string) string {
	return slugSeparatorRE.ReplaceAllString(strings.ToLower(s), "-")
}

func stringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
