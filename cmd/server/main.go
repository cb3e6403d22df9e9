package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qolzam/telar/apps/social/engagement"
	engagementHandlers "github.com/qolzam/telar/apps/social/engagement/handlers"
	engagementRepository "github.com/qolzam/telar/apps/social/engagement/repository"
	engagementServices "github.com/qolzam/telar/apps/social/engagement/services"
	"github.com/qolzam/telar/apps/social/internal/middleware/authjwt"
	"github.com/qolzam/telar/apps/social/internal/pkg/log"
	"github.com/qolzam/telar/apps/social/internal/platform"
	platformconfig "github.com/qolzam/telar/apps/social/internal/platform/config"
	"github.com/qolzam/telar/apps/social/internal/server"
	"github.com/qolzam/telar/apps/social/posts"
	postsHandlers "github.com/qolzam/telar/apps/social/posts/handlers"
	postsRepository "github.com/qolzam/telar/apps/social/posts/repository"
	postsServices "github.com/qolzam/telar/apps/social/posts/services"
	usersRepository "github.com/qolzam/telar/apps/social/users/repository"
)

func main() {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load platform config: %v", err)
		os.Exit(1)
	}
	if err := cfg.ValidateForServer(); err != nil {
		log.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	if cfg.Server.Debug {
		log.InfoStruct(cfg.Server, cfg.Engagement, cfg.Reconcile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := platform.New(ctx, cfg, platform.Options{})
	if err != nil {
		log.Error("Failed to start platform: %v", err)
		os.Exit(1)
	}
	defer p.Close()

	postRepo := postsRepository.NewSQLRepository(p.DB)
	userRepo := usersRepository.NewSQLUserRepository(p.DB)
	store := engagementRepository.NewSQLInteractionStore(p.DB)

	postService := postsServices.NewPostService(postRepo, p.Codec, p.Cache)
	gateway := engagementServices.NewGateway(store, postRepo, userRepo, p.Codec, postService, engagementServices.GatewayConfig{
		CommentMaxLength: cfg.Engagement.CommentMaxLength,
		ConflictRetries:  cfg.Engagement.ConflictRetries,
	})

	app := server.New(server.Config{
		AppName:     cfg.App.Name,
		WebDomain:   cfg.Server.WebDomain,
		HealthCheck: p.HealthCheck,
		Cache:       p.Cache,
	})
	app.Use(authjwt.New(authjwt.Config{
		PublicKey: cfg.JWT.PublicKey,
		ClaimKey:  cfg.JWT.ClaimKey,
		Optional:  true,
	}))

	posts.RegisterRoutes(app, &posts.PostsHandlers{
		PostHandler: postsHandlers.NewPostHandler(postService, p.Codec),
	})
	engagement.RegisterRoutes(app, &engagement.EngagementHandlers{
		EngagementHandler: engagementHandlers.NewEngagementHandler(gateway, p.Codec),
	})

	if cfg.Reconcile.Interval > 0 {
		reconciler := engagementServices.NewReconciler(postRepo, engagementServices.NewCounterProjector(store, postRepo), postService)
		go runReconcileLoop(ctx, reconciler, cfg.Reconcile)
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Shutdown failed: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Listening on %s (driver=%s, cache=%t)", addr, cfg.Database.Driver, p.Cache.IsEnabled())
	if err := app.Listen(addr); err != nil {
		log.Error("Server stopped: %v", err)
	}
}

func runReconcileLoop(ctx context.Context, reconciler *engagementServices.Reconciler, cfg platformconfig.ReconcileConfig) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reconciler.Reconcile(ctx, engagementServices.ReconcileOptions{
				BatchSize:   cfg.BatchSize,
				Concurrency: cfg.Concurrency,
			}); err != nil {
				log.Error("Reconcile aborted: %v", err)
			}
		}
	}
}
