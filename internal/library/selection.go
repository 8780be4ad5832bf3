package library

import (
	"errors"

	"github.com/ogero/mediacatalog/pkg/catalog"
)

var (
	// ErrItemNotFound is returned when the selected id is not in the cache.
	ErrItemNotFound = errors.New("item not found")
	// ErrNotPlayable is returned when the selected item has no sources.
	ErrNotPlayable = errors.New("item has no playable source")
)

// PlaybackURL returns the URL handed to the player for item: its first source.
func PlaybackURL(item catalog.Item) (string, error) {
	if !item.Playable() {
		return "", ErrNotPlayable
	}
	return item.Sources[0].URL, nil
}

// Select resolves id against the cache and returns its playback URL.
func (s *Session) Select(id string) (catalog.Item, string, error) {
	item, ok := s.cache.Get(id)
	if !ok {
		return catalog.Item{}, "", ErrItemNotFound
	}
	url, err := PlaybackURL(item)
	if err != nil {
		return item, "", err
	}
	return item, url, nil
}
