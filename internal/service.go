package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/ogero/mediacatalog/internal/common"
	"github.com/ogero/mediacatalog/internal/library"
	"github.com/ogero/mediacatalog/internal/loki"
	"github.com/ogero/mediacatalog/pkg/catalog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stats is the catalog summary published on the stats websocket channel.
type Stats struct {
	// ItemCount is the number of items in the cache.
	ItemCount int `json:"itemCount"`
	// CategoryCount is the number of distinct categories in the cache.
	CategoryCount int `json:"categoryCount"`
	// LastSeed is the outcome of the session-start seeding decision.
	LastSeed *library.SeedResult `json:"lastSeed,omitempty"`
	// ViewsCount24 is the number of view requests served in the last 24 hours.
	ViewsCount24 int `json:"viewsCount24"`
	// PlaysCount24 is the number of play requests served in the last 24 hours.
	PlaysCount24 int `json:"playsCount24"`
	// TitleInstant is the title of the item most recently selected for playback.
	TitleInstant string `json:"titleInstant"`
}

// CatalogService exposes the catalog session to the HTTP layer and publishes its stats.
type CatalogService interface {
	// Handler handles incoming HTTP requests via a websocket handler
	http.Handler
	// Start loads the cache and seeds the store from fetcher when it is empty.
	Start(ctx context.Context, fetcher library.ManifestFetcher) (library.SeedResult, error)
	// View computes the view for query.
	View(ctx context.Context, query string) library.View
	// Select resolves an item id to its playback URL.
	Select(ctx context.Context, id string) (catalog.Item, string, error)
	// Stats returns a copy of the current stats.
	Stats() Stats
	// BroadcastStats updates and publishes statistical data to a websocket channel.
	// Accepts a function to modify stats and returns an error if updating or publishing fails.
	BroadcastStats(statsUpdater func(stats *Stats) error) error
	// StartPollingStats refreshes and broadcasts the stats every interval until ctx is done.
	StartPollingStats(ctx context.Context, interval time.Duration)
	// Shutdown stops the websocket node.
	Shutdown(ctx context.Context) error
}

type catalogService struct {
	statsWebsocketChannel string
	session               *library.Session
	loki                  loki.Loki

	node             *centrifuge.Node
	websocketHandler *centrifuge.WebsocketHandler
	statsMutex       *sync.Mutex
	stats            Stats
}

// NewCatalogService creates a CatalogService over session. lokiClient may be nil, in which case
// the 24h counters are never refreshed.
func NewCatalogService(statsWebsocketChannel string, session *library.Session, lokiClient loki.Loki) (CatalogService, error) {
	svc := &catalogService{
		statsWebsocketChannel: statsWebsocketChannel,
		session:               session,
		loki:                  lokiClient,

		statsMutex: &sync.Mutex{},
	}

	node, err := centrifuge.New(centrifuge.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to centrifuge.New: %w", err)
	}
	svc.node = node

	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		return centrifuge.ConnectReply{}, nil
	})

	node.OnConnect(func(client *centrifuge.Client) {
		client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
			if e.Channel != statsWebsocketChannel {
				cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
				return
			}

			cb(centrifuge.SubscribeReply{
				Options: centrifuge.SubscribeOptions{},
			}, nil)

			// Todo: Avoid broadcasting to all clients
			go func() {
				err := svc.BroadcastStats(func(data *Stats) error { return nil })
				if err != nil {
					common.Log.Warn("Failed to internal.CatalogService.BroadcastStats", "err", err)
				}
			}()
		})
	})

	if err := node.Run(); err != nil {
		return nil, fmt.Errorf("failed to centrifuge.Node.Run: %w", err)
	}

	svc.websocketHandler = centrifuge.NewWebsocketHandler(node, centrifuge.WebsocketConfig{
		ReadBufferSize:     1024,
		UseWriteBufferPool: true,
	})

	return svc, nil
}

func (s *catalogService) Start(ctx context.Context, fetcher library.ManifestFetcher) (library.SeedResult, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.CatalogService.Start")
	defer span.End()

	result, err := s.session.Start(ctx, fetcher)

	var partial *library.SeedPartialFailure
	if err != nil && !errors.As(err, &partial) {
		span.RecordError(err)
		return result, err
	}

	bErr := s.BroadcastStats(func(stats *Stats) error {
		stats.LastSeed = &result
		s.countItems(stats)
		return nil
	})
	if bErr != nil {
		common.Log.WarnContext(ctx, "Failed to internal.CatalogService.BroadcastStats", "err", bErr)
	}

	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

func (s *catalogService) View(ctx context.Context, query string) library.View {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.CatalogService.View")
	defer span.End()

	filtered := strings.TrimSpace(query) != ""
	view := s.session.View(query)

	span.SetAttributes(
		attribute.String("query", query),
		attribute.Int("view.groups", len(view.Groups)),
		attribute.Bool("view.no-content", library.IsNoContent(view.Hero)),
	)
	common.ViewsTotalIncr(ctx, filtered)

	return view
}

func (s *catalogService) Select(ctx context.Context, id string) (catalog.Item, string, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.CatalogService.Select")
	defer span.End()

	span.SetAttributes(attribute.String("item.id", id))

	item, url, err := s.session.Select(id)
	switch {
	case errors.Is(err, library.ErrItemNotFound):
		common.PlaysTotalIncr(ctx, "not_found")
		return item, "", err
	case errors.Is(err, library.ErrNotPlayable):
		common.PlaysTotalIncr(ctx, "not_playable")
		common.Log.InfoContext(ctx, "Item is not playable", "id", id)
		return item, "", err
	case err != nil:
		span.RecordError(err)
		return item, "", err
	}
	common.PlaysTotalIncr(ctx, "ok")

	go func() {
		err := s.BroadcastStats(func(data *Stats) error {
			data.TitleInstant = item.Title
			return nil
		})
		if err != nil {
			common.Log.WarnContext(ctx, "Failed to internal.CatalogService.BroadcastStats", "err", err)
		}
	}()

	return item, url, nil
}

func (s *catalogService) Stats() Stats {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	return s.stats
}

func (s *catalogService) BroadcastStats(statsUpdater func(stats *Stats) error) error {
	stats, err := func() (Stats, error) {
		s.statsMutex.Lock()
		defer s.statsMutex.Unlock()
		err := statsUpdater(&s.stats)
		if err != nil {
			return Stats{}, err
		}
		return s.stats, nil
	}()
	if err != nil {
		return fmt.Errorf("failed to statsUpdater: %w", err)
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to json.Marshal: %w", err)
	}

	_, err = s.node.Publish(s.statsWebsocketChannel, b)
	if err != nil {
		return fmt.Errorf("failed to centrifuge.Node.Publish: %w", err)
	}

	return nil
}

func (s *catalogService) StartPollingStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.pollStats(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *catalogService) pollStats(ctx context.Context) {
	var views, plays int
	if s.loki != nil {
		var err error
		views, err = s.loki.GetViews24(ctx)
		if err != nil {
			common.Log.ErrorContext(ctx, "Failed to loki.Loki.GetViews24", "err", err)
		}
		plays, err = s.loki.GetPlays24(ctx)
		if err != nil {
			common.Log.ErrorContext(ctx, "Failed to loki.Loki.GetPlays24", "err", err)
		}
	}

	err := s.BroadcastStats(func(stats *Stats) error {
		s.countItems(stats)
		if views != 0 {
			stats.ViewsCount24 = views
		}
		if plays != 0 {
			stats.PlaysCount24 = plays
		}
		return nil
	})
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to internal.CatalogService.BroadcastStats", "err", err)
	}
}

func (s *catalogService) countItems(stats *Stats) {
	items := s.session.Cache().Items()
	categories := make(map[string]struct{}, len(items))
	for _, item := range items {
		categories[item.Category] = struct{}{}
	}
	stats.ItemCount = len(items)
	stats.CategoryCount = len(categories)
}

func (s *catalogService) Shutdown(ctx context.Context) error {
	if err := s.node.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to centrifuge.Node.Shutdown: %w", err)
	}
	return nil
}

// ServeHTTP handles incoming HTTP requests via a websocket handler
func (s *catalogService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	newCtx := centrifuge.SetCredentials(ctx, &centrifuge.Credentials{})
	r = r.WithContext(newCtx)

	s.websocketHandler.ServeHTTP(w, r)
}
