// Package mariadb stores the product catalog in MariaDB or MySQL.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/database"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool. DATETIME columns are always
// parsed into time.Time regardless of the DSN.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	dsn, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	dsn.ParseTime = true

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

const createProductsTable = `
	CREATE TABLE IF NOT EXISTS products (
		id           VARCHAR(64) NOT NULL PRIMARY KEY,
		name         VARCHAR(255) NOT NULL,
		category     VARCHAR(100) NOT NULL,
		category_key VARCHAR(100) NOT NULL,
		image_url    MEDIUMTEXT NOT NULL,
		image_hash   VARCHAR(1024) NOT NULL,
		hash_bits    INT NOT NULL,
		created_at   DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at   DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		INDEX products_category_key_idx (category_key),
		INDEX products_created_at_id_idx (created_at, id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// Bootstrap creates the products table if it does not exist.
func (p *Pool) Bootstrap(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

// Initialize connects, bootstraps the schema and registers the product
// repository as the active storage backend.
func Initialize(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	repo := NewProductRepository(pool)
	database.RegisterBackend(config.DriverMySQL, func() database.ProductWriter { return repo })
	return pool, nil
}
