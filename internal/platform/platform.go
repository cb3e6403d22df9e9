// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package platform opens the shared infrastructure every binary needs.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/qolzam/telar/apps/social/internal/cache"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/pkg/log"
	platformconfig "github.com/qolzam/telar/apps/social/internal/platform/config"
)

// Platform bundles the database client, the snapshot cache and the id codec
type Platform struct {
	Config *platformconfig.Config
	DB     *sqldb.Client
	Cache  *cache.GenericCacheService
	Codec  globalid.Codec
}

// Options tweaks what New sets up
type Options struct {
	// SkipMigrate leaves the schema untouched
	SkipMigrate bool
	// DisableCache skips the cache backend entirely
	DisableCache bool
}

// New connects to the database, migrates it and opens the cache.
// A cache backend that cannot be reached is logged and disabled; the database is required.
func New(ctx context.Context, cfg *platformconfig.Config, opts Options) (*Platform, error) {
	if cfg == nil {
		return nil, fmt.Errorf("platform configuration is required")
	}

	codec, err := globalid.NewCodec(cfg.App.IDEncoding)
	if err != nil {
		return nil, err
	}

	client, err := sqldb.NewClient(ctx, sqldb.ConfigFromPlatform(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !opts.SkipMigrate {
		if err := sqldb.Migrate(ctx, client); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	p := &Platform{Config: cfg, DB: client, Codec: codec}
	if !opts.DisableCache && cfg.Cache.Enabled {
		p.Cache = openCache(ctx, cfg.Cache)
	}
	return p, nil
}

func openCache(ctx context.Context, cfg platformconfig.CacheConfig) *cache.GenericCacheService {
	cacheConfig := cache.ConfigFromPlatform(cfg)
	backend, err := cache.NewCache(ctx, cacheConfig)
	if err != nil {
		log.Warn("Cache backend %s unavailable, continuing without cache: %v", cacheConfig.Backend, err)
		return nil
	}
	log.Info("Cache backend %s ready", cacheConfig.Backend)
	return cache.NewGenericCacheService(backend, cacheConfig)
}

// HealthCheck reports whether the database answers
func (p *Platform) HealthCheck(ctx context.Context) error {
	return p.DB.HealthCheck(ctx)
}

// Close releases the cache and the database pool
func (p *Platform) Close() error {
	var errs []error
	if p.Cache != nil {
		if err := p.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if err := p.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
