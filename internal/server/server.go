// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/decision"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// maxBatchDocuments bounds one /v1/analyze request.
const maxBatchDocuments = 500

// Server serves the pipeline's operations as JSON endpoints.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// New creates a Server for p.
func New(p *pipeline.Pipeline, logger *slog.Logger) *Server {
	return &Server{
		pipeline: p,
		logger:   common.OrDefault(logger),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/anonymize", s.Anonymize)
	v1.POST("/sentiment/segmented", s.SegmentedSentiment)
	v1.POST("/sentiment/full", s.FullSentiment)
	v1.POST("/analyze", s.Analyze)

	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request served",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// statusFor maps collaborator failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrCollaboratorUnavailable), errors.Is(err, common.ErrMaxRetries):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		common.LogError(err, "unexpected request failure", common.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
	} else {
		s.logger.Warn("request failed",
			"request_id", c.GetString("request_id"),
			"path", c.FullPath(),
			"status", status,
			"error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

// AnonymizeRequest is the body of POST /v1/anonymize.
type AnonymizeRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

// ItemFailure describes one failed element of a batch response.
type ItemFailure struct {
	Error string `json:"error"`
	Index int    `json:"index"`
}

// AnonymizeResponse is index-aligned with the request texts.
type AnonymizeResponse struct {
	Texts    []string      `json:"texts"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

// Anonymize handles POST /v1/anonymize. Partial failures still return 200
// with the failing indices listed.
func (s *Server) Anonymize(c *gin.Context) {
	var req AnonymizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	texts, err := s.pipeline.Anonymize(c.Request.Context(), req.Texts)
	resp := AnonymizeResponse{Texts: texts}
	if err != nil {
		var batchErr *common.BatchError
		if !errors.As(err, &batchErr) {
			s.fail(c, err)
			return
		}
		for _, f := range batchErr.Failures {
			resp.Failures = append(resp.Failures, ItemFailure{Index: f.Index, Error: f.Err.Error()})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// TextRequest is the body of the sentiment endpoints. Text is expected to be
// anonymized already.
type TextRequest struct {
	Text string `json:"text"`
}

// SegmentedResponse is the body returned by POST /v1/sentiment/segmented.
// Results is index-aligned with Segments; a failed segment has a zero result
// and an entry in Failures, and the trend is then unavailable.
type SegmentedResponse struct {
	Segments       []model.Segment         `json:"segments"`
	Results        []model.SentimentResult `json:"results"`
	Failures       []ItemFailure           `json:"failures,omitempty"`
	Trend          []model.TrendPoint      `json:"trend"`
	TrendAvailable bool                    `json:"trend_available"`
}

// SegmentedSentiment handles POST /v1/sentiment/segmented. Failing segments
// still return 200 with the failing indices listed, unless every segment
// failed.
func (s *Server) SegmentedSentiment(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	segments, results, err := s.pipeline.SegmentedSentiment(c.Request.Context(), req.Text)
	resp := SegmentedResponse{Segments: segments, Results: results}
	if err != nil {
		var batchErr *common.BatchError
		if !errors.As(err, &batchErr) || len(batchErr.Failures) == len(segments) {
			s.fail(c, err)
			return
		}
		for _, f := range batchErr.Failures {
			resp.Failures = append(resp.Failures, ItemFailure{Index: f.Index, Error: f.Err.Error()})
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Trend, resp.TrendAvailable = decision.Trend(results)
	c.JSON(http.StatusOK, resp)
}

// FullResponse is the body returned by POST /v1/sentiment/full.
type FullResponse struct {
	Verdict model.Verdict         `json:"verdict"`
	Result  model.SentimentResult `json:"result"`
}

// FullSentiment handles POST /v1/sentiment/full.
func (s *Server) FullSentiment(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.pipeline.FullSentiment(c.Request.Context(), req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, FullResponse{Result: result, Verdict: decision.Verdict(result)})
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Documents []DocumentInput `json:"documents" binding:"required"`
}

// DocumentInput is one raw conversation.
type DocumentInput struct {
	ID     string       `json:"id"`
	Source string       `json:"source"`
	Origin model.Origin `json:"origin"`
	Text   string       `json:"text"`
}

// Analyze handles POST /v1/analyze, running the whole pipeline on raw text.
func (s *Server) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Documents) > maxBatchDocuments {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("at most %d documents per request", maxBatchDocuments),
		})
		return
	}

	convs := make([]model.Conversation, len(req.Documents))
	for i, doc := range req.Documents {
		origin := doc.Origin
		if origin == "" {
			origin = model.OriginTyped
		}
		convs[i] = model.Conversation{ID: doc.ID, Source: doc.Source, Origin: origin, Text: doc.Text}
	}

	c.JSON(http.StatusOK, s.pipeline.ProcessBatch(c.Request.Context(), convs))
}
