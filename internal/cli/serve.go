package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"patient-intake-server/internal/analysis"
	"patient-intake-server/internal/auth"
	"patient-intake-server/internal/checkins"
	"patient-intake-server/internal/events"
	"patient-intake-server/internal/logging"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/patients"
	"patient-intake-server/internal/reports"
	"patient-intake-server/internal/routes"
	"patient-intake-server/internal/speech"
	"patient-intake-server/internal/storage"
	"patient-intake-server/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if cfg.SeedDemoData {
		if err := models.SeedDemoData(db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	analyzer, err := analysis.New(cfg.Analysis, logger)
	if err != nil {
		return err
	}
	publisher, err := events.New(ctx, cfg.Events, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	directory := patients.NewDirectory(db, logger)
	generator := reports.NewGenerator(store, logger)
	recorder := checkins.NewRecorder(db, checkins.NewExtractor(cfg.Database.Driver), logger)
	authService := auth.NewService(db, auth.NewTokens(cfg), logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		Config:   cfg,
		DB:       db,
		Auth:     authService,
		Patients: directory,
		Analyzer: analyzer,
		Reports:  generator,
		CheckIns: recorder,
		Sessions: workflow.NewManager(workflow.Dependencies{
			Patients: directory,
			Analyzer: analyzer,
			Reports:  generator,
			CheckIns: recorder,
			Events:   publisher,
			Logger:   logger,
		}, workflow.WithSessionLimit(cfg.SessionLimit)),
		Speech: speech.New(cfg.Speech, logger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running",
			zap.String("port", cfg.Port),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("analysis", cfg.Analysis.Provider),
			zap.String("events", cfg.Events.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
