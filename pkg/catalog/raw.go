package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawItem is an untrusted manifest record. Every field is optional: a field that is missing,
// null or of an unexpected JSON type is left nil.
type RawItem struct {
	ID          *string
	Title       *string
	Year        *int
	Description *string
	Poster      *string
	Category    *string
	ThemeColor  *string
	// Sources is non-nil only when the record carried a "sources" array.
	Sources []Source
	// Source holds the legacy singular "source" field.
	Source *Source
}

// UnmarshalJSON decodes a record field by field, so a malformed field never rejects the whole record.
// Non-object input decodes to an empty RawItem.
func (r *RawItem) UnmarshalJSON(data []byte) error {
	*r = RawItem{}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	r.ID = rawString(fields["id"])
	r.Title = rawString(fields["title"])
	r.Year = rawInt(fields["year"])
	r.Description = rawString(fields["description"])
	r.Poster = rawString(fields["poster"])
	r.Category = rawString(fields["category"])
	r.ThemeColor = rawString(fields["themeColor"])

	if sources, ok := rawSources(fields["sources"]); ok {
		r.Sources = sources
	}
	if source := rawSource(fields["source"]); source != nil {
		r.Source = source
	}

	return nil
}

// MarshalJSON writes only the fields that are present.
func (r RawItem) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if r.ID != nil {
		out["id"] = *r.ID
	}
	if r.Title != nil {
		out["title"] = *r.Title
	}
	if r.Year != nil {
		out["year"] = *r.Year
	}
	if r.Description != nil {
		out["description"] = *r.Description
	}
	if r.Poster != nil {
		out["poster"] = *r.Poster
	}
	if r.Category != nil {
		out["category"] = *r.Category
	}
	if r.ThemeColor != nil {
		out["themeColor"] = *r.ThemeColor
	}
	if r.Sources != nil {
		out["sources"] = r.Sources
	}
	if r.Source != nil {
		out["source"] = r.Source
	}
	return json.Marshal(out)
}

func isAbsent(msg json.RawMessage) bool {
	msg = bytes.TrimSpace(msg)
	return len(msg) == 0 || bytes.Equal(msg, []byte("null"))
}

func rawString(msg json.RawMessage) *string {
	if isAbsent(msg) {
		return nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return nil
	}
	return &s
}

func rawInt(msg json.RawMessage) *int {
	if isAbsent(msg) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err == nil {
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return nil
		}
		v := int(f)
		return &v
	}
	if s := rawString(msg); s != nil {
		if v, err := strconv.Atoi(strings.TrimSpace(*s)); err == nil {
			return &v
		}
	}
	return nil
}

// rawSources reports ok only when msg is a JSON array. Elements without a URL are skipped.
func rawSources(msg json.RawMessage) ([]Source, bool) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || msg[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(msg, &elems); err != nil {
		return nil, false
	}
	sources := make([]Source, 0, len(elems))
	for _, elem := range elems {
		if source := rawSource(elem); source != nil {
			sources = append(sources, *source)
		}
	}
	return sources, true
}

// rawSource accepts either {"url": "..."} or a bare URL string.
func rawSource(msg json.RawMessage) *Source {
	if isAbsent(msg) {
		return nil
	}
	if s := rawString(msg); s != nil {
		if *s == "" {
			return nil
		}
		return &Source{URL: *s}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil
	}
	u := rawString(obj["url"])
	if u == nil || *u == "" {
		return nil
	}
	return &Source{URL: *u}
}
