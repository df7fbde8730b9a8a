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

	"github.com/bhargavn/se-synth/internal/application"
	appsynthesis "github.com/bhargavn/se-synth/internal/application/synthesis"
	"github.com/bhargavn/se-synth/internal/config"
	aiclient "github.com/bhargavn/se-synth/internal/infra/ai/openai"
	mysqlp "github.com/bhargavn/se-synth/internal/infra/db/mysql"
	postgresp "github.com/bhargavn/se-synth/internal/infra/db/postgres"
	"github.com/bhargavn/se-synth/internal/infra/httpserver"
	"github.com/bhargavn/se-synth/internal/infra/storage"
	"github.com/bhargavn/se-synth/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect the systems-engineering graph store (read-only)
	graphDB, err := postgresp.Connect(ctx, cfg.GraphDSN())
	if err != nil {
		log.Fatalf("graph db connect error: %v", err)
	}
	defer graphDB.Close()
	graphRepo := postgresp.NewGraphRepository(graphDB)

	// connect the document parameter store (read-only)
	paramDB, err := mysqlp.Connect(ctx, cfg.ParamDSN())
	if err != nil {
		log.Fatalf("param db connect error: %v", err)
	}
	defer paramDB.Close()
	paramRepo := mysqlp.NewParameterRepository(paramDB)

	// optional diagram archive
	var archive appsynthesis.DiagramArchive
	if cfg.Minio.Endpoint != "" {
		store, err := storage.New(ctx,
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
		archive = store
	}

	reasoner := aiclient.NewClient(cfg.OpenAIKey(), cfg.OpenAI.Model)

	orch := &appsynthesis.Orchestrator{
		Retriever: &appsynthesis.Retriever{
			Graph:         graphRepo,
			Params:        paramRepo,
			MaxDepth:      cfg.Synthesis.MaxDepth,
			MaxFanOut:     cfg.Synthesis.MaxFanOut,
			FallbackTopN:  cfg.Synthesis.FallbackTopN,
			ParamRowLimit: cfg.Synthesis.ParamRowLimit,
		},
		Composer: &appsynthesis.Composer{MaxBytes: cfg.Synthesis.MaxPromptBytes},
		Reasoner: reasoner,
		Synth:    &appsynthesis.Synthesizer{},
		Viz:      &appsynthesis.Visualizer{},
		Archive:  archive,
		Timeout:  cfg.ReasoningTimeout(),
		Clock:    application.SystemClock{},
	}

	checkers := map[string]middleware.HealthChecker{
		"graphdb": &middleware.DatabaseHealthChecker{DB: graphDB},
		"paramdb": &middleware.DatabaseHealthChecker{DB: paramDB},
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(orch, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // reasoning calls can take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

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
