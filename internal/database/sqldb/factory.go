// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sqldb

import (
	platformconfig "github.com/qolzam/telar/apps/social/internal/platform/config"
)

// ConfigFromPlatform maps the DB_* / POSTGRES_* / SQLITE_* settings onto a client Config
func ConfigFromPlatform(db platformconfig.DatabaseConfig) Config {
	if db.Driver == DriverSQLite {
		return Config{Driver: db.Driver, Path: db.SQLite.Path}
	}
	return Config{
		Driver:             db.Driver,
		Host:               db.Postgres.Host,
		Port:               db.Postgres.Port,
		Username:           db.Postgres.Username,
		Password:           db.Postgres.Password,
		Database:           db.Postgres.Database,
		Schema:             db.Postgres.Schema,
		SSLMode:            db.Postgres.SSLMode,
		ConnectTimeout:     db.Postgres.ConnectTimeout,
		MaxOpenConnections: db.Postgres.MaxOpenConns,
		MaxIdleConnections: db.Postgres.MaxIdleConns,
		MaxLifetime:        db.Postgres.ConnMaxLifetime,
	}
}
