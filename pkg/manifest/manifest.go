package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/ogero/mediacatalog/pkg/catalog"
	"github.com/ogero/mediacatalog/pkg/transport"
	"github.com/wlynxg/chardet"
	"github.com/wlynxg/chardet/consts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultMaxBytes caps the manifest body size when no limit is configured.
const DefaultMaxBytes = 8 << 20

// ManifestFetchError reports a network failure, a non-success status or an undecodable body.
type ManifestFetchError struct {
	URL string
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *ManifestFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("manifest fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("manifest fetch %s: %v", e.URL, e.Err)
}

func (e *ManifestFetchError) Unwrap() error {
	return e.Err
}

// Fetcher defines how the remote catalog manifest is retrieved.
type Fetcher interface {
	// Fetch retrieves the manifest records. Any failure is a *ManifestFetchError.
	Fetch(ctx context.Context) ([]catalog.RawItem, error)
}

// Option configures the HTTP fetcher.
type Option func(*httpFetcher)

// WithTimeout bounds a single fetch, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(f *httpFetcher) {
		f.httpClient.Timeout = timeout
	}
}

// WithMaxBytes caps the accepted body size.
func WithMaxBytes(n int64) Option {
	return func(f *httpFetcher) {
		f.maxBytes = n
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *httpFetcher) {
		f.httpClient = c
	}
}

type httpFetcher struct {
	httpClient *http.Client
	url        string
	maxBytes   int64
}

// NewHTTPFetcher creates a Fetcher issuing a single GET against url.
func NewHTTPFetcher(url string, opts ...Option) Fetcher {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxIdleConnsPerHost = 10

	rt := transport.NewModifyHeadersRoundTripper(t,
		transport.WithAccept("application/json"),
		transport.WithUserAgent("mediacatalog/1.0"),
	)

	f := &httpFetcher{
		httpClient: &http.Client{
			Timeout:   time.Second * 10,
			Transport: rt,
		},
		url:      url,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and decodes the manifest. The body must be a JSON array; individual
// records are decoded leniently and never rejected.
func (f *httpFetcher) Fetch(ctx context.Context) ([]catalog.RawItem, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "manifest.Fetcher.Fetch")
	defer span.End()

	span.SetAttributes(attribute.String("manifest.url", f.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &ManifestFetchError{URL: f.url, Err: fmt.Errorf("failed to http.NewRequestWithContext: %w", err)}
	}

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &ManifestFetchError{URL: f.url, Err: fmt.Errorf("failed to http.Client.Do: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &ManifestFetchError{URL: f.url, StatusCode: res.StatusCode, Err: fmt.Errorf("invalid status code")}
	}

	body, err := io.ReadAll(LimitReader(res.Body, f.maxBytes, ErrManifestTooLarge))
	if err != nil {
		return nil, &ManifestFetchError{URL: f.url, StatusCode: res.StatusCode, Err: fmt.Errorf("failed to io.ReadAll: %w", err)}
	}
	span.SetAttributes(attribute.Int("manifest.size", len(body)))

	body, err = toUTF8(body)
	if err != nil {
		return nil, &ManifestFetchError{URL: f.url, StatusCode: res.StatusCode, Err: err}
	}

	records, err := Decode(body)
	if err != nil {
		return nil, &ManifestFetchError{URL: f.url, StatusCode: res.StatusCode, Err: err}
	}
	span.SetAttributes(attribute.Int("manifest.records", len(records)))

	return records, nil
}

// Decode parses a manifest body. Anything other than a JSON array is an error.
func Decode(body []byte) ([]catalog.RawItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("manifest is not a JSON array")
	}

	var records []catalog.RawItem
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to json.Unmarshal: %w", err)
	}

	return records, nil
}

// toUTF8 transcodes Latin-1 bodies, which some static hosts still serve, to UTF-8.
func toUTF8(body []byte) ([]byte, error) {
	if utf8.Valid(body) {
		return body, nil
	}
	if chardet.Detect(body).Encoding == consts.UTF8 {
		return body, nil
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to transform.Bytes: %w", err)
	}
	return out, nil
}
