package imdb

import (
	"context"
	"regexp"
)

var titleIDRE = regexp.MustCompile(`^tt\d+$`)

// Title holds the metadata the catalog can borrow from IMDb.
type Title struct {
	Name string
	Year int
}

// IMDB looks up titles by their IMDb identifier.
type IMDB interface {
	// GetTitle gets a Title by its ID.
	GetTitle(ctx context.Context, imdbID string) (*Title, error)
}

// IsTitleID reports whether id has the shape of an IMDb title id ("tt" followed by digits).
func IsTitleID(id string) bool {
	return titleIDRE.MatchString(id)
}
