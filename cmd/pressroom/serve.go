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

	"github.com/dfryer1193/pressroom/auth"
	"github.com/dfryer1193/pressroom/blog/application"
	"github.com/dfryer1193/pressroom/blog/persistence"
	"github.com/dfryer1193/pressroom/internal/middleware"
	"github.com/dfryer1193/pressroom/internal/rest"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	database, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()
	log.Info().Str("dsnType", string(dbType())).Msg("Connected to database")

	gate, err := newGate()
	if err != nil {
		return err
	}

	renderer, err := application.NewMarkdownRenderer(application.RendererConfig{
		UploadBaseURL: cfg.UploadBaseURL,
		SummaryLines:  cfg.SummaryLines,
		CacheSize:     cfg.RenderCacheSize,
	})
	if err != nil {
		return err
	}

	conn := database.DB()
	postRepo := persistence.NewPostRepository(conn)
	categoryRepo := persistence.NewCategoryRepository(conn)
	imageRepo := persistence.NewImageRepository(conn, cfg.UploadDir)

	handlers := rest.NewHandlers(
		application.NewPostService(conn, postRepo, categoryRepo),
		application.NewCategoryService(conn, categoryRepo),
		application.NewImageService(imageRepo, cfg.UploadBaseURL, cfg.UploadMaxBytes),
		renderer,
		gate,
		rest.Options{
			LoginPath:      cfg.LoginPath,
			UploadRoute:    cfg.UploadBaseURL,
			UploadDir:      cfg.UploadDir,
			MaxUploadBytes: cfg.UploadMaxBytes,
		},
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(router, handlers)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newGate() (*auth.Gate, error) {
	generated, err := cfg.EnsureTokenSecret()
	if err != nil {
		return nil, err
	}
	if generated {
		log.Warn().Msg("TOKEN_SECRET not set; using a random key, admin sessions end when the process exits")
	}

	if cfg.AdminSecretHash == "" {
		log.Warn().Msg("ADMIN_SECRET is plaintext; set ADMIN_SECRET_HASH from `pressroom hash-secret` in production")
	}

	hash, err := cfg.SecretHash()
	if err != nil {
		return nil, err
	}

	return auth.NewGate(auth.Config{
		AdminID:      cfg.AdminID,
		SecretHash:   hash,
		TokenSecret:  []byte(cfg.TokenSecret),
		TokenTTL:     cfg.TokenTTL,
		CookieSecure: cfg.CookieSecure,
	})
}
