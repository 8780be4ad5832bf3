package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ogero/mediacatalog/internal/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `[
	{"id":"heat","title":"Heat","year":1995,"category":"Crime","sources":[{"url":"https://cdn.example.com/heat.mp4"}]},
	{"id":"amelie","title":"Amélie","category":"Comedy","themeColor":"#00ff00","sources":[{"url":"https://cdn.example.com/amelie.mp4"}]},
	{"id":"trailer","title":"Trailer","category":"Crime"}
]`

type cliTestEnv struct {
	configPath    string
	manifestCalls *atomic.Int32
}

func setupCLITestEnv(t *testing.T, driver string) *cliTestEnv {
	t.Helper()

	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(testManifest))
	}))
	t.Cleanup(srv.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "catalog.toml")
	content := fmt.Sprintf("store_driver = %q\nstore_path = %q\nmanifest_url = %q\n",
		driver, filepath.Join(base, "store"), srv.URL+"/catalog.json")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return &cliTestEnv{configPath: configPath, manifestCalls: calls}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedCommand(t *testing.T) {
	for _, driver := range []string{"badger", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			env := setupCLITestEnv(t, driver)

			out, err := env.run(t, "seed")
			require.NoError(t, err)
			assert.Equal(t, "Fetched 3, stored 3, failed 0\n", out)

			out, err = env.run(t, "seed")
			require.NoError(t, err)
			assert.Contains(t, out, "Seed skipped")
			assert.Equal(t, int32(1), env.manifestCalls.Load())
		})
	}
}

func TestViewCommand(t *testing.T) {
	env := setupCLITestEnv(t, "sqlite")

	out, err := env.run(t, "view")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Amélie [Comedy] amelie", lines[0])
	assert.Contains(t, out, "Crime")
	assert.Contains(t, out, "Heat")
	assert.Contains(t, out, "Trailer")

	out, err = env.run(t, "view", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No results")
}

func TestViewCommand_JSON(t *testing.T) {
	env := setupCLITestEnv(t, "badger")

	out, err := env.run(t, "view", "--json", "heat")
	require.NoError(t, err)

	var view library.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "amelie", view.Hero.ID)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "heat", view.Groups[0].Rows[0].Items[0].ID)
}

func TestPlayCommand(t *testing.T) {
	env := setupCLITestEnv(t, "sqlite")

	out, err := env.run(t, "play", "heat")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/heat.mp4\n", out)

	_, err = env.run(t, "play", "trailer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not playable")

	_, err = env.run(t, "play", "missing")
	assert.ErrorIs(t, err, library.ErrItemNotFound)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`store_driver = "postgres"`), 0o644))

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "seed"})

	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
