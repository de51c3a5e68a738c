// Package app boots the credits API server.
package app

import (
	"context"
	"net/http"
	"path"

	"github.com/excing/credits-starter-kit/internal/ai"
	"github.com/excing/credits-starter-kit/internal/billing"
	"github.com/excing/credits-starter-kit/internal/config"
	"github.com/excing/credits-starter-kit/internal/db"
	"github.com/excing/credits-starter-kit/internal/http/api/admin"
	"github.com/excing/credits-starter-kit/internal/http/api/front"
	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/excing/credits-starter-kit/internal/ledger/cache"
	"github.com/excing/credits-starter-kit/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs schema migrations.
func Migrate(_ context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP server with all components wired.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	l := ledger.New(conn)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if errPing := client.Ping(ctx).Err(); errPing != nil {
			log.WithError(errPing).Warn("app: redis unreachable, balance cache disabled")
		} else {
			l = l.WithCache(cache.NewRedisBalanceCache(client))
		}
	}

	registry := billing.NewRegistry(
		billing.Route{
			PathPattern: "/api/chat",
			Method:      http.MethodPost,
			Shape:       billing.ResponseShapeStreaming,
			Strategy: billing.MeteredStrategy{
				StrategyName:      "chat",
				Label:             "Chat completion",
				InputPer1K:        cfg.Billing.ChatInputPer1K,
				OutputPer1K:       cfg.Billing.ChatOutputPer1K,
				MinimumCharge:     cfg.Billing.ChatMinimumCharge,
				PrecheckThreshold: cfg.Billing.ChatPrecheckThreshold,
			},
		},
		billing.Route{
			PathPattern: "/api/upload-image",
			Method:      http.MethodPost,
			Shape:       billing.ResponseShapeStandard,
			Strategy: billing.FixedStrategy{
				StrategyName: "upload",
				Label:        "Image upload",
				Cost:         cfg.Billing.UploadCost,
			},
		},
	)
	orchestrator := billing.NewOrchestrator(registry, l, cfg.Billing.UsageWaitTimeout())

	chatClient := ai.NewClient(cfg.OpenAI)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.Static("/uploads", path.Clean(cfg.Upload.Dir))

	front.RegisterRoutes(engine, conn, cfg, l, orchestrator.Middleware(), chatClient)
	admin.RegisterRoutes(engine, conn, cfg, l)

	log.WithField("listen", cfg.Server.Listen).Info("app: server starting")
	return engine.Run(cfg.Server.Listen)
}
