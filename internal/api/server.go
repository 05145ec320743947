// Package api exposes the translation model over HTTP: a teacher-forced
// logits endpoint, translation with a short-lived result store, model
// metadata and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/samcharles93/transl8/internal/logger"
	"github.com/samcharles93/transl8/internal/version"
)

type Server struct {
	service *TranslationService
	store   *TranslationStore
	metrics *Metrics
	log     logger.Logger
}

func NewServer(service *TranslationService, store *TranslationStore, log logger.Logger) *Server {
	if store == nil {
		store = NewTranslationStore(0)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{service: service, store: store, metrics: NewMetrics(store), log: log}
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModel)
	e.POST("/v1/logits", s.handleLogits)
	e.POST("/v1/translate", s.handleTranslate)
	e.GET("/v1/translations/:id", s.handleGetTranslation)
	e.GET("/metrics", s.handleMetrics)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleModel(c *echo.Context) error {
	if s.service == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translation service not configured", "", "")
	}
	cfg, params := s.service.Describe()
	return c.JSON(http.StatusOK, ModelResponse{
		Object:     "model",
		Config:     cfg,
		Parameters: params,
		Version:    version.String(),
	})
}

func (s *Server) handleLogits(c *echo.Context) error {
	if s.service == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translation service not configured", "", "")
	}
	start := time.Now()
	req, err := decodeJSON[LogitsRequest](c.Request().Body)
	if err != nil {
		s.metrics.RequestsTotal.WithLabelValues("logits", "invalid").Inc()
		return writeBadRequest(c, err.Error())
	}
	resp, err := s.service.Logits(c.Request().Context(), &req)
	s.metrics.observe("logits", start, err)
	if err != nil {
		return s.writeServiceError(c, err)
	}
	s.metrics.countTokens(countIDs(req.Src)+countIDs(req.Tgt), 0)
	s.log.Debug("logits computed", "id", resp.ID, "shape", resp.Shape)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTranslate(c *echo.Context) error {
	if s.service == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translation service not configured", "", "")
	}
	start := time.Now()
	req, err := decodeJSON[TranslateRequest](c.Request().Body)
	if err != nil {
		s.metrics.RequestsTotal.WithLabelValues("translate", "invalid").Inc()
		return writeBadRequest(c, err.Error())
	}
	resp, err := s.service.Translate(c.Request().Context(), &req)
	s.metrics.observe("translate", start, err)
	if err != nil {
		return s.writeServiceError(c, err)
	}
	s.store.Save(*resp)
	s.metrics.countTokens(countIDs(req.Src), countIDs(resp.Translations))
	s.log.Debug("translation finished", "id", resp.ID, "batch", len(resp.Translations))
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetTranslation(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "translation "+id+" not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetrics(c *echo.Context) error {
	s.metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *Server) writeServiceError(c *echo.Context, err error) error {
	switch {
	case isClientError(err):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return writeError(c, http.StatusServiceUnavailable, "timeout_error", err.Error(), "", "")
	default:
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func countIDs(rows [][]int) int {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	return n
}

// decodeJSON decodes a single JSON value and rejects unknown fields.
func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
