package loki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loki/api/v1/query", r.URL.Path)
		if gotQuery != nil {
			*gotQuery = r.URL.Query().Get("query")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoki_GetViews24(t *testing.T) {
	var query string
	srv := newServer(t, http.StatusOK,
		`{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1718000000,"42"]}]}}`, &query)

	n, err := NewLoki(srv.URL, nil).GetViews24(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.True(t, strings.Contains(query, `service_name="mediacatalog"`), query)
	assert.True(t, strings.Contains(query, "ViewHandler"), query)
}

func TestLoki_GetPlays24(t *testing.T) {
	var query string
	srv := newServer(t, http.StatusOK,
		`{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1718000000,"7"]}]}}`, &query)

	n, err := NewLoki(srv.URL, nil).GetPlays24(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.True(t, strings.Contains(query, "PlayHandler"), query)
}

func TestLoki_EmptyVectorIsZero(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"status":"success","data":{"resultType":"vector","result":[]}}`, nil)

	n, err := NewLoki(srv.URL, nil).GetViews24(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoki_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status code", http.StatusBadGateway, ``},
		{"malformed", http.StatusOK, `{`},
		{"failed status", http.StatusOK, `{"status":"error"}`},
		{"matrix result", http.StatusOK, `{"status":"success","data":{"resultType":"matrix","result":[]}}`},
		{"numeric value", http.StatusOK, `{"status":"success","data":{"resultType":"vector","result":[{"value":[1,2]}]}}`},
		{"non integer value", http.StatusOK, `{"status":"success","data":{"resultType":"vector","result":[{"value":[1,"x"]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)
			_, err := NewLoki(srv.URL, nil).GetViews24(context.Background())
			assert.Error(t, err)
		})
	}
}
