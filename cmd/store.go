package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/database/mariadb"
	"github.com/kozaktomas/visual-search/internal/database/postgres"
	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/logging"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

// storeOpener is replaced in tests to run commands against an in-memory store.
var storeOpener = openStore

// openStore connects the configured database backend and returns its
// product writer. The closer releases the connection pool.
func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (database.ProductWriter, io.Closer, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	var closer io.Closer
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Initialize(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		closer = pool
	case config.DriverMySQL:
		pool, err := mariadb.Initialize(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		closer = pool
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	store, err := database.GetProductWriter(ctx)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("failed to get product store: %w", err)
	}
	logger.DebugContext(ctx, "database backend ready", "driver", database.BackendName())
	return store, closer, nil
}

// newGenerator builds the fingerprint generator for the configured hash size.
func newGenerator(cfg *config.Config) (*fingerprint.Generator, error) {
	gen, err := fingerprint.NewGenerator(fingerprint.WithSize(cfg.Hash.Width, cfg.Hash.Height))
	if err != nil {
		return nil, fmt.Errorf("invalid hash configuration: %w", err)
	}
	return gen, nil
}

// newService wires the generator, ranker and database into a catalog service.
func newService(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*catalog.Service, io.Closer, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, closer, err := storeOpener(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ranker := &ranking.Ranker{
		Workers:           cfg.Search.Workers,
		ParallelThreshold: cfg.Search.ParallelThreshold,
	}
	return catalog.NewService(gen, ranker, store, catalog.WithLogger(logger)), closer, nil
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// formatDuration renders a duration for human-readable summaries.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
