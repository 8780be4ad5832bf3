package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ogero/mediacatalog/internal/config"
	"github.com/ogero/mediacatalog/internal/library"
	"github.com/ogero/mediacatalog/internal/store"
	"github.com/ogero/mediacatalog/pkg/imdb"
	"github.com/ogero/mediacatalog/pkg/manifest"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// openSession opens the configured store and builds a session over it. The caller closes the store.
func (c *commandContext) openSession() (*library.Session, store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store.Open: %w", err)
	}

	var opts []library.SessionOption
	if cfg.EnrichIMDB {
		opts = append(opts, library.WithEnricher(library.NewIMDBEnricher(imdb.NewStalkrIMDB(cfg.ManifestTimeout.Std()))))
	}

	return library.NewSession(st, opts...), st, nil
}

func (c *commandContext) manifestFetcher() (library.ManifestFetcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	manifestURL, err := cfg.ResolvedManifestURL()
	if err != nil {
		return nil, err
	}

	return manifest.NewHTTPFetcher(manifestURL,
		manifest.WithTimeout(cfg.ManifestTimeout.Std()),
		manifest.WithMaxBytes(cfg.ManifestMaxBytes),
	), nil
}

// startSession runs the session-start sequence used by the one-shot commands.
func (c *commandContext) startSession(ctx context.Context) (*library.Session, store.Store, library.SeedResult, error) {
	session, st, err := c.openSession()
	if err != nil {
		return nil, nil, library.SeedResult{}, err
	}

	fetcher, err := c.manifestFetcher()
	if err != nil {
		_ = st.Close()
		return nil, nil, library.SeedResult{}, err
	}

	// The store stays open on error; a partially seeded session is still usable.
	result, err := session.Start(ctx, fetcher)
	return session, st, result, err
}
