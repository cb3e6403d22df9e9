// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names
const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
	DriverSQLite   = "sqlite3"
)

// Config describes how to reach the relational store
type Config struct {
	Driver string

	// PostgreSQL (postgres and pgx drivers)
	Host               string
	Port               int
	Username           string
	Password           string
	Database           string
	Schema             string
	SSLMode            string
	ConnectTimeout     int
	MaxOpenConnections int
	MaxIdleConnections int
	MaxLifetime        time.Duration

	// SQLite
	Path string
}

// Client wraps sqlx.DB and provides connection pooling, health checks, and transaction management
type Client struct {
	db     *sqlx.DB
	schema string
}

// NewClient opens a connection pool for the configured driver and pings it
func NewClient(ctx context.Context, config Config) (*Client, error) {
	connStr, err := buildConnectionString(config)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, config.Driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Driver, err)
	}

	if config.Driver == DriverSQLite {
		// SQLite allows one writer at a time; a single connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if config.MaxOpenConnections > 0 {
			db.SetMaxOpenConns(config.MaxOpenConnections)
		}
		if config.MaxIdleConnections > 0 {
			db.SetMaxIdleConns(config.MaxIdleConnections)
		}
		if config.MaxLifetime > 0 {
			db.SetConnMaxLifetime(config.MaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Driver, err)
	}

	return &Client{db: db, schema: config.Schema}, nil
}

// buildConnectionString builds the driver specific DSN
func buildConnectionString(config Config) (string, error) {
	switch config.Driver {
	case DriverPostgres, DriverPGX:
		var parts []string
		parts = append(parts, fmt.Sprintf("host=%s", config.Host))
		parts = append(parts, fmt.Sprintf("port=%d", config.Port))
		parts = append(parts, fmt.Sprintf("dbname=%s", config.Database))
		if config.Username != "" {
			parts = append(parts, fmt.Sprintf("user=%s", config.Username))
		}
		if config.Password != "" {
			parts = append(parts, fmt.Sprintf("password=%s", config.Password))
		}
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		parts = append(parts, fmt.Sprintf("sslmode=%s", sslMode))
		if config.ConnectTimeout > 0 {
			parts = append(parts, fmt.Sprintf("connect_timeout=%d", config.ConnectTimeout))
		}
		// search_path as a runtime parameter applies to every pooled connection
		if config.Schema != "" {
			parts = append(parts, fmt.Sprintf("search_path=%s", config.Schema))
		}
		return strings.Join(parts, " "), nil
	case DriverSQLite:
		if config.Path == "" {
			return "", fmt.Errorf("sqlite path is required")
		}
		params := url.Values{}
		params.Set("_foreign_keys", "on")
		params.Set("_busy_timeout", "5000")
		params.Set("_journal_mode", "WAL")
		params.Set("_txlock", "immediate")
		return fmt.Sprintf("file:%s?%s", config.Path, params.Encode()), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", config.Driver)
	}
}

// DB returns the underlying *sqlx.DB connection
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// DriverName returns the database/sql driver in use
func (c *Client) DriverName() string {
	return c.db.DriverName()
}

// Schema returns the PostgreSQL schema the client is pinned to, if any
func (c *Client) Schema() string {
	return c.schema
}

// IsPostgres reports whether the client talks to PostgreSQL through either driver
func (c *Client) IsPostgres() bool {
	name := c.DriverName()
	return name == DriverPostgres || name == DriverPGX
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// BeginTxx starts a new transaction with the given context
func (c *Client) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return c.db.BeginTxx(ctx, opts)
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// HealthCheck performs a health check on the database connection
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx)
}
