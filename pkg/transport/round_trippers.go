package transport

import (
	"net/http"
)

// HeaderOption sets a header on every outgoing request.
type HeaderOption func(h http.Header)

type modifyHeadersRoundTripper struct {
	roundTripper http.RoundTripper
	options      []HeaderOption
}

// NewModifyHeadersRoundTripper wraps rt so that every request carries the headers set by opts.
// The request is cloned before modification, as http.RoundTripper requires.
func NewModifyHeadersRoundTripper(rt http.RoundTripper, opts ...HeaderOption) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &modifyHeadersRoundTripper{roundTripper: rt, options: opts}
}

func (rt *modifyHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for _, opt := range rt.options {
		opt(req.Header)
	}
	return rt.roundTripper.RoundTrip(req)
}

// WithHeader sets an arbitrary header.
func WithHeader(key, value string) HeaderOption {
	return func(h http.Header) {
		h.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) HeaderOption {
	return WithHeader("User-Agent", userAgent)
}

// WithAccept sets the Accept header.
func WithAccept(accept string) HeaderOption {
	return WithHeader("Accept", accept)
}

// WithAcceptLanguage sets the Accept-Language header.
func WithAcceptLanguage(acceptLanguage string) HeaderOption {
	return WithHeader("Accept-Language", acceptLanguage)
}
