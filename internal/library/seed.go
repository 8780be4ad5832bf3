package library

import (
	"context"
	"fmt"

	"github.com/ogero/mediacatalog/internal/common"
	"github.com/ogero/mediacatalog/pkg/catalog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ManifestFetcher retrieves the raw records used to seed an empty store.
type ManifestFetcher interface {
	Fetch(ctx context.Context) ([]catalog.RawItem, error)
}

// SeedResult describes what a call to EnsureSeeded did.
type SeedResult struct {
	// Skipped is set when the cache already held items and nothing was fetched.
	Skipped bool `json:"skipped"`
	// FetchFailed is set when the manifest could not be retrieved.
	FetchFailed bool `json:"fetchFailed"`
	// Fetched is the number of manifest records received.
	Fetched int `json:"fetched"`
	// Stored is the number of successful puts.
	Stored int `json:"stored"`
	// Failed is the number of rejected puts.
	Failed int `json:"failed"`
}

// SeedPartialFailure reports that some puts failed while seeding. The cache was still reloaded.
type SeedPartialFailure struct {
	Failed int
	Stored int
	Errs   []error
}

func (e *SeedPartialFailure) Error() string {
	return fmt.Sprintf("seed partially failed: %d of %d puts failed", e.Failed, e.Failed+e.Stored)
}

func (e *SeedPartialFailure) Unwrap() []error {
	return e.Errs
}

// EnsureSeeded seeds the store from the manifest when, and only when, the cache is empty.
//
// A manifest fetch failure is logged and leaves the cache as it was; it is not returned as an error.
// Each record is normalized and put independently; if any put fails the result is returned
// together with a *SeedPartialFailure. The cache is reloaded from the store after all puts.
func (s *Session) EnsureSeeded(ctx context.Context, fetcher ManifestFetcher) (SeedResult, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "library.Session.EnsureSeeded")
	defer span.End()

	if n := s.cache.Len(); n > 0 {
		common.Log.DebugContext(ctx, "Catalog already seeded", "items", n)
		span.SetAttributes(attribute.Bool("seed.skipped", true))
		return SeedResult{Skipped: true}, nil
	}

	raws, err := fetcher.Fetch(ctx)
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to fetch catalog manifest, continuing with an empty catalog", "err", err)
		span.RecordError(err)
		return SeedResult{FetchFailed: true}, nil
	}

	result := SeedResult{Fetched: len(raws)}
	var putErrs []error
	for _, raw := range raws {
		item := s.normalizer.Normalize(raw)

		if s.enricher != nil {
			enriched, err := s.enricher.Enrich(ctx, item)
			if err != nil {
				common.Log.WarnContext(ctx, "Failed to library.Enricher.Enrich", "id", item.ID, "err", err)
			} else {
				item = enriched
			}
		}

		if err := s.store.Put(ctx, item); err != nil {
			common.Log.ErrorContext(ctx, "Failed to store.Store.Put", "id", item.ID, "err", err)
			common.SeedPutsTotalIncr(ctx, "error")
			putErrs = append(putErrs, err)
			result.Failed++
			continue
		}
		common.SeedPutsTotalIncr(ctx, "ok")
		result.Stored++
	}

	span.SetAttributes(
		attribute.Int("seed.fetched", result.Fetched),
		attribute.Int("seed.stored", result.Stored),
		attribute.Int("seed.failed", result.Failed),
	)

	if err := s.Load(ctx); err != nil {
		return result, err
	}

	common.Log.InfoContext(ctx, "Seeded catalog", "fetched", result.Fetched, "stored", result.Stored, "failed", result.Failed)

	if result.Failed > 0 {
		return result, &SeedPartialFailure{Failed: result.Failed, Stored: result.Stored, Errs: putErrs}
	}

	return result, nil
}
