package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/weiawesome/wes-io-chat/internal/auth"
	"github.com/weiawesome/wes-io-chat/internal/cache"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/gateway"
	"github.com/weiawesome/wes-io-chat/internal/handler"
	"github.com/weiawesome/wes-io-chat/internal/hub"
	"github.com/weiawesome/wes-io-chat/internal/kafka"
	"github.com/weiawesome/wes-io-chat/internal/repository"
	"github.com/weiawesome/wes-io-chat/internal/service"
	"github.com/weiawesome/wes-io-chat/pkg/jwt"
	pkglog "github.com/weiawesome/wes-io-chat/pkg/log"
	"github.com/weiawesome/wes-io-chat/pkg/middleware"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(configFrom(cmd.Context()))
		},
	}
}

func serve(cfg *config.Config) error {
	logger := pkglog.L()

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	jwtManager, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("failed to create jwt manager: %w", err)
	}

	// Redis and Kafka are optional; the gateway works without either.
	var identityCache cache.IdentityCache
	if cfg.Redis.Enabled {
		c, err := cache.NewRedisIdentityCache(cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, identity cache disabled")
		} else {
			defer c.Close()
			identityCache = c
			logger.Info().Str("address", cfg.Redis.Address).Msg("redis identity cache connected")
		}
	}

	var producer kafka.EventProducer
	if cfg.Kafka.Enabled {
		p, err := kafka.NewConfluentProducer(cfg.Kafka)
		if err != nil {
			logger.Warn().Err(err).Msg("kafka unavailable, chat event stream disabled")
		} else {
			defer p.Close()
			producer = p
			logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
		}
	}

	authenticator := auth.NewAuthenticator(jwtManager, auth.NewGormUserStore(db), identityCache, cfg.Redis.IdentityTTL, cfg.Auth.CookieName)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()
	defer wsHub.Stop()

	chatRepo := repository.NewGormChatRepository(db, cfg.Chat.CascadeDelete)
	chatSvc := service.NewChatService(chatRepo, wsHub, producer)
	router := gateway.NewRouter(wsHub, authenticator)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": wsHub.ClientCount()})
	})

	handler.NewHandler(chatSvc, middleware.NewAuthMiddleware(authenticator)).RegisterRoutes(r)
	handler.NewWSHandler(wsHub, router, cfg.Auth.CookieName, cfg.WebSocket).RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Bool("cascade_delete", cfg.Chat.CascadeDelete).Msg("chat gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down chat gateway")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("chat gateway stopped")
	return nil
}
