package library

import (
	"context"
	"fmt"

	"github.com/ogero/mediacatalog/pkg/catalog"
	"github.com/ogero/mediacatalog/pkg/imdb"
)

// Enricher fills gaps in a normalized item before it is first stored.
type Enricher interface {
	Enrich(ctx context.Context, item catalog.Item) (catalog.Item, error)
}

type imdbEnricher struct {
	imdb imdb.IMDB
}

// NewIMDBEnricher creates an Enricher that looks up items whose id is an IMDb title id and
// fills a missing year, and a defaulted title, from IMDb.
func NewIMDBEnricher(client imdb.IMDB) Enricher {
	return &imdbEnricher{imdb: client}
}

func (e *imdbEnricher) Enrich(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	if !imdb.IsTitleID(item.ID) {
		return item, nil
	}
	if item.Year != nil && item.Title != catalog.DefaultTitle {
		return item, nil
	}

	title, err := e.imdb.GetTitle(ctx, item.ID)
	if err != nil {
		return item, fmt.Errorf("failed to imdb.IMDB.GetTitle: %w", err)
	}

	if item.Year == nil && title.Year > 0 {
		year := title.Year
		item.Year = &year
	}
	if item.Title == catalog.DefaultTitle && title.Name != "" {
		item.Title = title.Name
	}

	return item, nil
}
