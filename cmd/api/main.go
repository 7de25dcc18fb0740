package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/madhus/roadwatch/internal/application"
	apppipeline "github.com/madhus/roadwatch/internal/application/pipeline"
	appreports "github.com/madhus/roadwatch/internal/application/reports"
	"github.com/madhus/roadwatch/internal/config"
	aiclient "github.com/madhus/roadwatch/internal/infra/ai/openai"
	mysqlp "github.com/madhus/roadwatch/internal/infra/db/mysql"
	pgp "github.com/madhus/roadwatch/internal/infra/db/postgres"
	"github.com/madhus/roadwatch/internal/infra/httpserver"
	medialoader "github.com/madhus/roadwatch/internal/infra/media"
	"github.com/madhus/roadwatch/internal/infra/sightengine"
	minioStore "github.com/madhus/roadwatch/internal/infra/storage"
	"github.com/madhus/roadwatch/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect MySQL (reports + analysis)
	db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql connect error: %v", err)
	}
	defer db.Close()

	reportRepo := mysqlp.NewReportRepository(db)
	analysisRepo := mysqlp.NewAnalysisRepository(db)
	errorRepo := mysqlp.NewPipelineErrorRepository(db)

	// connect vehicle registry (Postgres, read-only)
	regDB, err := pgp.Connect(ctx, cfg.RegistryDSN())
	if err != nil {
		log.Fatalf("registry connect error: %v", err)
	}
	defer regDB.Close()
	registry := pgp.NewVehicleRepository(regDB)

	// init minio (evidence media bucket)
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// AI pipeline dependencies
	vision := aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	synthetic := sightengine.New(
		cfg.Sightengine.APIUser,
		cfg.Sightengine.APISecret,
		cfg.Sightengine.Endpoint,
		cfg.Pipeline.CallTimeout(),
	)
	loader := medialoader.NewLoader(
		cfg.Pipeline.FetchTimeout(),
		cfg.Pipeline.MaxInlineBytes,
		cfg.Pipeline.MaxImageDimension,
	)

	pipelineSvc := &apppipeline.Service{
		Images:    loader,
		Vision:    vision,
		Synthetic: synthetic,
		Registry:  registry,
		Analyses:  analysisRepo,
		Reports:   reportRepo,
		Errors:    errorRepo,
		Clock:     application.SystemClock{},
		Config:    cfg.Pipeline,
	}

	reportsSvc := &appreports.Service{
		Repo:  reportRepo,
		Clock: application.SystemClock{},
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(30, 10))
	if len(cfg.Server.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Server.APIKeys))
	}
	checkers := map[string]middleware.HealthChecker{
		"mysql":    &middleware.DatabaseHealthChecker{DB: db},
		"registry": &middleware.DatabaseHealthChecker{DB: regDB},
	}
	mux.Mount("/", httpserver.NewRouter(reportsSvc, pipelineSvc, registry, store, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
