// Package library owns the seed, cache and query lifecycle of the local media catalog.
package library

import (
	"context"
	"fmt"

	"github.com/ogero/mediacatalog/internal/cache"
	"github.com/ogero/mediacatalog/internal/store"
	"github.com/ogero/mediacatalog/pkg/catalog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Session is the context object shared by seeding and querying: it owns the store handle
// and the cache snapshot mirrored from it.
type Session struct {
	store      store.Store
	cache      *cache.Cache
	normalizer *catalog.Normalizer
	enricher   Enricher
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *catalog.Normalizer) SessionOption {
	return func(s *Session) {
		s.normalizer = n
	}
}

// WithEnricher sets an enricher applied to each normalized item before it is stored.
func WithEnricher(e Enricher) SessionOption {
	return func(s *Session) {
		s.enricher = e
	}
}

// NewSession creates a Session with an empty cache over st.
func NewSession(st store.Store, opts ...SessionOption) *Session {
	s := &Session{
		store:      st,
		cache:      cache.New(),
		normalizer: catalog.NewNormalizer(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the session cache.
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// Load rebuilds the cache from the store.
func (s *Session) Load(ctx context.Context) error {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "library.Session.Load")
	defer span.End()

	if err := s.cache.Load(ctx, s.store); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load catalog cache: %w", err)
	}
	span.SetAttributes(attribute.Int("cache.items", s.cache.Len()))

	return nil
}

// Start runs the session-start sequence: load the cache, then seed it if the store is empty.
// It returns only after the final cache reload, so views computed afterwards see the seeded catalog.
func (s *Session) Start(ctx context.Context, fetcher ManifestFetcher) (SeedResult, error) {
	if err := s.Load(ctx); err != nil {
		return SeedResult{}, err
	}
	return s.EnsureSeeded(ctx, fetcher)
}

// View computes the hero and grouped rows for query against the current cache snapshot.
func (s *Session) View(query string) View {
	return ComputeView(s.cache.Items(), query)
}
