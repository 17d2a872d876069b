package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/config"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/media"
	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/internal/queue"
	"github.com/blacx/annotator/internal/services"
	"github.com/blacx/annotator/internal/storage"
	"github.com/blacx/annotator/internal/tracing"
	"github.com/blacx/annotator/pkg/models"
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
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName+"-worker", cfg.Tracing.JaegerEndpoint)
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

	workerLog := log.WithWorkerID(pipe.WorkerID())

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsSrv.Start(); err != nil && err != http.ErrServerClosed {
				workerLog.WithError(err).Error("metrics server failed")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		workerLog.Info("shutting down worker gracefully")
		cancel()
	}()

	go reportQueueDepth(ctx, q)

	handler := func(job *models.AnnotationJob) error {
		return processJob(ctx, pipe, c, workerLog, job)
	}

	workerLog.Info("worker started, waiting for jobs")
	if err := q.ConsumeJobs(ctx, handler); err != nil {
		workerLog.Fatalf("failed to consume jobs: %v", err)
	}

	<-ctx.Done()
	workerLog.Info("worker stopped")
}

func processJob(ctx context.Context, pipe *pipeline.Service, c *cache.Cache, log *logging.Logger, job *models.AnnotationJob) error {
	jobLog := log.WithJobID(job.ID)
	jobLog.Infof("processing job for %s", job.VideoPath)

	now := time.Now().UTC()
	job.Status = models.JobStatusProcessing
	job.WorkerID = pipe.WorkerID()
	job.StartedAt = &now
	job.Progress = 0
	saveJob(ctx, c, jobLog, job)

	onProgress := func(p float64) {
		metrics.RunProgress.WithLabelValues(job.ID).Set(p)
		if c != nil {
			c.SetJobProgress(ctx, job.ID, p)
		}
	}
	defer metrics.RunProgress.DeleteLabelValues(job.ID)

	session := pipeline.NewSession()
	result, err := pipe.Run(ctx, session, job.VideoPath, job.IntervalSeconds, onProgress)
	done := time.Now().UTC()
	job.CompletedAt = &done

	if err != nil {
		job.Status = models.JobStatusFailed
		job.ErrorMsg = err.Error()
		saveJob(ctx, c, jobLog, job)
		jobLog.WithError(err).Error("job failed")
		return err
	}

	job.Status = models.JobStatusCompleted
	job.Progress = models.ProgressDone
	job.RecordID = result.Record.ID
	saveJob(ctx, c, jobLog, job)
	jobLog.WithRecordID(result.Record.ID).Info("job completed")
	return nil
}

func saveJob(ctx context.Context, c *cache.Cache, log *logging.Logger, job *models.AnnotationJob) {
	if c == nil {
		return
	}
	if err := c.SetJob(ctx, job); err != nil {
		log.WithError(err).Warn("failed to persist job state")
	}
}

func reportQueueDepth(ctx context.Context, q *queue.Queue) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if depth, err := q.GetQueueDepth(); err == nil {
				metrics.JobsQueueDepth.Set(float64(depth))
			}
		}
	}
}
