package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dedication-board/api"
	"dedication-board/handlers"
	"dedication-board/storage"
	"dedication-board/utils"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

// newRouter monta middleware, API, feed live e interfaccia web.
// La pulizia del rate limiter si ferma con ctx.
func newRouter(ctx context.Context, cfg *utils.Config, store storage.Backend, hub *handlers.Hub, moderator *handlers.Moderator, log logrus.FieldLogger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(log), handlers.Metrics())

	if !cfg.Server.TrustedProxyHeaders {
		if err := router.SetTrustedProxies(nil); err != nil {
			return nil, err
		}
	}

	limiter := handlers.NewRateLimiter(cfg.Server.RateLimitPerMinute)
	limiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)

	opts := handlers.Options{
		Store:       store,
		Hub:         hub,
		Moderator:   moderator,
		Logger:      log,
		RateLimiter: limiter,
	}
	if cfg.Spotify.OEmbedURL != "" {
		opts.Songs = api.NewSpotifyClient(cfg.Spotify.OEmbedURL, cfg.Spotify.Timeout, log)
	}

	handlers.SetupAPIRoutes(router, opts)
	handlers.SetupRoutes(router, cfg.Server.WebDir, log)
	return router, nil
}
