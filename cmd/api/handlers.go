package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/config"
	"github.com/blacx/annotator/internal/export"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/internal/query"
	"github.com/blacx/annotator/internal/queue"
	"github.com/blacx/annotator/internal/storage"
	"github.com/blacx/annotator/pkg/models"
)

// API bundles the dependencies of the HTTP handlers.
type API struct {
	cfg      *config.Config
	log      *logging.Logger
	cache    *cache.Cache
	storage  *storage.Storage
	queue    *queue.Queue
	pipeline *pipeline.Service
	engine   *query.Engine
	exporter *export.Exporter
	sessions *sessionStore
}

type annotateRequest struct {
	VideoPath       string  `json:"video_path" binding:"required"`
	IntervalSeconds float64 `json:"interval_seconds"`
}

func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// annotate runs the pipeline synchronously and returns the session holding
// the record. Long videos belong on the job queue instead.
func (a *API) annotate(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IntervalSeconds <= 0 {
		req.IntervalSeconds = a.cfg.Sampler.IntervalSeconds
	}

	session := a.sessions.Create()
	result, err := a.pipeline.Run(c.Request.Context(), session, req.VideoPath, req.IntervalSeconds, nil)
	if err != nil {
		a.sessions.Delete(session.ID())
		a.log.WithError(err).Error("annotation run failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID(),
		"record":     result.Record,
		"stages":     result.Stages,
	})
}

// enqueueJob queues an annotation run for a worker and returns immediately.
func (a *API) enqueueJob(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IntervalSeconds <= 0 {
		req.IntervalSeconds = a.cfg.Sampler.IntervalSeconds
	}

	job := &models.AnnotationJob{
		ID:              uuid.New().String(),
		VideoPath:       req.VideoPath,
		IntervalSeconds: req.IntervalSeconds,
		Status:          models.JobStatusQueued,
		CreatedAt:       time.Now().UTC(),
	}
	if a.cache != nil {
		if err := a.cache.SetJob(c.Request.Context(), job); err != nil {
			a.log.WithError(err).Warn("failed to cache job")
		}
	}
	if err := a.queue.PublishJob(c.Request.Context(), job); err != nil {
		a.log.WithError(err).Error("failed to publish job")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to queue job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (a *API) getJob(c *gin.Context) {
	if a.cache == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "job tracking requires the cache"})
		return
	}

	job, err := a.cache.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	if progress, err := a.cache.GetJobProgress(c.Request.Context(), job.ID); err == nil && progress > job.Progress {
		job.Progress = progress
	}
	c.JSON(http.StatusOK, job)
}

func (a *API) getRecord(c *gin.Context) {
	if a.cache == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "record lookup requires the cache"})
		return
	}

	record, err := a.cache.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (a *API) getSession(c *gin.Context) {
	session, ok := a.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":  session.ID(),
		"created_at":  session.CreatedAt(),
		"has_record":  session.Record() != nil,
		"has_context": session.HasContext(),
	})
}

func (a *API) deleteSession(c *gin.Context) {
	session, ok := a.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.Close()
	a.sessions.Delete(session.ID())
	c.Status(http.StatusNoContent)
}

func (a *API) sessionStats(c *gin.Context) {
	session, ok := a.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	record := session.Record()
	if record == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "session has no record yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id":          record.ID,
		"duration":           record.Source.Duration,
		"event_count":        len(record.Events()),
		"subtitle_languages": record.SubtitleLanguages(),
		"subtitles_error":    record.Source.SubtitlesError,
		"scene_distribution": session.SceneDistribution(),
		"object_tally":       session.ObjectTally(),
	})
}

// createContext uploads the session's record as background knowledge for
// subsequent queries.
func (a *API) createContext(c *gin.Context) {
	session, ok := a.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if err := a.engine.CreateContext(c.Request.Context(), session); err != nil {
		if errors.Is(err, query.ErrNoRecord) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		a.log.WithError(err).Error("failed to create query context")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"context_id": session.ContextID()})
}

type queryRequest struct {
	Question string `json:"question" binding:"required"`
}

func (a *API) askQuery(c *gin.Context) {
	session, ok := a.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := a.engine.Ask(c.Request.Context(), session, req.Question)
	if err != nil {
		if errors.Is(err, query.ErrNoContext) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		var aerr *pipeline.AssistantError
		if errors.As(err, &aerr) {
			// Backend failures still produce an answer-shaped response.
			c.JSON(http.StatusOK, query.FailedAnswer(err))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (a *API) exportRecord(c *gin.Context) {
	session, ok := a.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	record := session.Record()
	if record == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "session has no record yet"})
		return
	}

	format := c.DefaultQuery("format", export.FormatStructuredJSON)
	data, err := a.exporter.Export(record, format)
	if err != nil {
		var ferr *pipeline.ExportFormatError
		if errors.As(err, &ferr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             ferr.Error(),
				"supported_formats": export.Formats(),
			})
			return
		}
		a.log.WithError(err).Error("export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	if a.storage != nil && c.Query("store") == "true" {
		if object, err := a.storage.UploadExport(c.Request.Context(), record.ID, format, data); err == nil {
			c.Header("X-Export-Object", object)
		} else {
			a.log.WithError(err).Warn("failed to store export")
		}
	}

	c.Data(http.StatusOK, exportMIME(format), data)
}

func (a *API) listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": export.Formats()})
}

func exportMIME(format string) string {
	switch format {
	case export.FormatTabularCSV:
		return "text/csv"
	case export.FormatTabularExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}
