package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/config"
	"github.com/blacx/annotator/internal/export"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/media"
	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/internal/query"
	"github.com/blacx/annotator/internal/queue"
	"github.com/blacx/annotator/internal/services"
	"github.com/blacx/annotator/internal/storage"
	"github.com/blacx/annotator/internal/tracing"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.WithError(err).Warn("failed to initialize tracer, continuing without tracing")
		} else {
			defer closer.Close()
		}
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c, err = cache.NewCache(cfg.Cache.Host, cfg.Cache.Port, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
		if err != nil {
			log.Fatalf("failed to connect to cache: %v", err)
		}
		defer c.Close()
	}

	var stor *storage.Storage
	if cfg.Storage.Enabled {
		stor, err = storage.New(cfg.Storage)
		if err != nil {
			log.Fatalf("failed to initialize storage: %v", err)
		}
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatalf("failed to connect to queue: %v", err)
	}
	defer q.Close()

	cli := services.NewOpenAIClient(cfg.OpenAI)
	sampler := media.NewSampler(cfg.Sampler)
	visual := pipeline.NewVisualAnalyzer(
		services.NewOpenAIVision(cli, cfg.OpenAI.VisionModel, cfg.Pipeline.VisionCallTimeout),
		c, cfg.Pipeline.VisionFanOut, log,
	)
	translator := services.NewOpenAITranslator(cli, cfg.OpenAI.TranslationModel, cfg.Pipeline.AudioCallTimeout, cfg.Pipeline.FallbackLanguage, log)
	audio := pipeline.NewAudioAnnotator(
		sampler.FFmpeg(),
		services.NewOpenAITranscription(cli, cfg.OpenAI.TranscriptionModel, cfg.Pipeline.AudioCallTimeout),
		translator,
		translator,
		c, cfg.Sampler.TempDir, log,
	)
	pipe := pipeline.NewService(sampler, visual, audio, pipeline.NewAggregator(cfg.Pipeline.TimecodeFPS), stor, c, log)

	assistant := services.NewOpenAIAssistant(cli, cfg.OpenAI.AssistantModel, cfg.Pipeline.QueryPollInterval, cfg.Pipeline.QueryPollLimit)
	api := &API{
		cfg:      cfg,
		log:      log,
		cache:    c,
		storage:  stor,
		queue:    q,
		pipeline: pipe,
		engine:   query.NewEngine(assistant, log),
		exporter: export.NewExporter(cfg.Pipeline.TimecodeFPS),
		sessions: newSessionStore(),
	}

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsSrv.Start(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("metrics server failed")
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      setupRouter(api),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if metricsSrv != nil {
		metricsSrv.Shutdown(ctx)
	}
	log.Info("server stopped")
}
