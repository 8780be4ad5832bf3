package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/ogero/mediacatalog/internal/common"
	"github.com/ogero/mediacatalog/internal/library"
	slogchi "github.com/samber/slog-chi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// App holds the HTTP handlers of the catalog API.
type App struct {
	CatalogService CatalogService
	AddonHost      string
}

// PlayResponse is the body returned for a playable selection.
type PlayResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ErrorResponse is the body returned with client errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewApp creates a new instance of the App struct.
func NewApp(catalogService CatalogService, addonHost string) *App {
	return &App{
		CatalogService: catalogService,
		AddonHost:      addonHost,
	}
}

// Router mounts the API routes. viewLimiter bounds the view endpoint; nil disables limiting.
func (a *App) Router(viewLimiter *rate.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(EscapedPath)
	r.Use(slogchi.New(common.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Requested-With",
			"Accept",
			"Accept-Language",
			"Accept-Encoding",
			"Content-Language",
			"Origin",
		},
		MaxAge: 300,
	}))

	r.With(RateLimit(viewLimiter)).Get("/api/view", a.ViewHandler)
	r.Get("/api/items/{id}/play", a.PlayHandler)
	r.Get("/api/stats", a.StatsHandler)
	r.Get("/connection/websocket", a.WebsocketHandler)
	r.Get("/healthz", a.HealthHandler)

	return r
}

// EscapedPath makes chi route on the escaped path, so URL params are always still encoded and
// handlers unescape them exactly once.
func EscapedPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.RawPath = r.URL.EscapedPath()
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests with 429 once limiter runs out of tokens.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				common.Log.WarnContext(r.Context(), "Rate limit exceeded", "path", r.URL.Path)
				writeJSON(w, r, http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ViewHandler returns the hero and grouped rows for the q query parameter.
func (a *App) ViewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "ViewHandler")

	query := r.URL.Query().Get("q")
	if err := common.ValidateQuery(query); err != nil {
		common.Log.WarnContext(ctx, "Failed to common.ValidateQuery", "err", err)
		span.RecordError(err)
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	span.SetAttributes(attribute.String("params.q", query))

	view := a.CatalogService.View(ctx, query)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, http.StatusOK, view)
}

// PlayHandler resolves an item to the URL handed to the player.
func (a *App) PlayHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	common.Log.DebugContext(ctx, "PlayHandler")

	paramsID, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		common.Log.WarnContext(ctx, "Failed to url.PathUnescape", "err", err)
		span.RecordError(err)
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return
	}
	if err := common.ValidateItemID(paramsID); err != nil {
		common.Log.WarnContext(ctx, "Failed to common.ValidateItemID", "err", err)
		span.RecordError(err)
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	span.SetAttributes(attribute.String("param.id", paramsID))

	item, playURL, err := a.CatalogService.Select(ctx, paramsID)
	switch {
	case errors.Is(err, library.ErrItemNotFound):
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "item not found"})
		return
	case errors.Is(err, library.ErrNotPlayable):
		writeJSON(w, r, http.StatusConflict, ErrorResponse{Error: "not playable"})
		return
	case err != nil:
		common.Log.ErrorContext(ctx, "Failed to CatalogService.Select", "err", err)
		span.RecordError(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, PlayResponse{ID: item.ID, Title: item.Title, URL: playURL})
}

// StatsHandler returns the current catalog stats.
func (a *App) StatsHandler(w http.ResponseWriter, r *http.Request) {
	common.Log.DebugContext(r.Context(), "StatsHandler")

	writeJSON(w, r, http.StatusOK, a.CatalogService.Stats())
}

// HealthHandler reports liveness.
func (a *App) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// WebsocketHandler handles WebSocket connections
func (a *App) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	common.Log.DebugContext(ctx, "WebsocketHandler")

	a.CatalogService.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		common.Log.ErrorContext(ctx, "Failed to write response", "err", err)
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
