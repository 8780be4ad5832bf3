package common

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength bounds the free-text search input accepted by the API.
const MaxQueryLength = 256

// MaxItemIDLength bounds item ids accepted by the API.
const MaxItemIDLength = 512

// ValidateItemID checks that an item id taken from a request is usable as a store key.
func ValidateItemID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("invalid item id, empty")
	}
	if len(id) > MaxItemIDLength {
		return errors.New("invalid item id, too long")
	}
	if !utf8.ValidString(id) {
		return errors.New("invalid item id, not UTF-8")
	}
	return nil
}

// ValidateQuery checks the free-text search input. Empty input is valid and means no filter.
func ValidateQuery(q string) error {
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return errors.New("invalid query, too long")
	}
	if !utf8.ValidString(q) {
		return errors.New("invalid query, not UTF-8")
	}
	return nil
}
