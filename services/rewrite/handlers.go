// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/graft/services/rewrite/ast"
	"github.com/AleutianAI/graft/services/rewrite/engine"
)

// upgrader upgrades event stream requests to websocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// Handlers holds the HTTP handlers for the rewrite service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers around a service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleRewriteSource handles POST /v1/rewrite/source.
//
// Description:
//
//	Rewrites a single in-memory source payload and returns the output
//	without touching the filesystem.
//
// Request Body:
//
//	RewriteSourceRequest
//
// Response:
//
//	200 OK: RewriteSourceResponse
//	400 Bad Request: Validation or parse error
//	413 Request Entity Too Large: Source exceeds the size limit
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleRewriteSource(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRewriteSource")

	var req RewriteSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	res, err := h.svc.RewriteSource(c.Request.Context(), req.Path, req.Content)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "REWRITE_FAILED"

		if errors.Is(err, ErrSourceTooLarge) {
			statusCode = http.StatusRequestEntityTooLarge
			errCode = "SOURCE_TOO_LARGE"
		} else if engine.IsUnsupportedFile(err) {
			statusCode = http.StatusBadRequest
			errCode = "UNSUPPORTED_FILE"
		} else if ast.IsParseError(err) {
			statusCode = http.StatusBadRequest
			errCode = "PARSE_FAILED"
		} else if errors.Is(err, context.DeadlineExceeded) {
			statusCode = http.StatusGatewayTimeout
			errCode = "REWRITE_TIMEOUT"
		}

		logger.Error("Rewrite failed", "path", req.Path, "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Source rewritten",
		"path", res.Path,
		"recorded", res.Recorded,
		"applied", res.Applied,
		"changed", res.Changed,
		"cache_hit", res.CacheHit)

	c.JSON(http.StatusOK, RewriteSourceResponse{
		Path:       res.Path,
		Output:     string(res.Output),
		Recorded:   res.Recorded,
		Applied:    res.Applied,
		Changed:    res.Changed,
		CacheHit:   res.CacheHit,
		DurationMs: res.Duration.Milliseconds(),
	})
}

// HandleRewrite handles POST /v1/rewrite.
//
// Description:
//
//	Rewrites a batch of files on disk. Per-file failures are reported
//	in the response body, so a batch with failures still returns 200.
//	Only validation and cancellation fail the request.
//
// Request Body:
//
//	RewriteBatchRequest
//
// Response:
//
//	200 OK: RewriteBatchResponse
//	400 Bad Request: Validation error
//	500 Internal Server Error: Processing error
//	504 Gateway Timeout: Batch exceeded the run deadline
func (h *Handlers) HandleRewrite(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRewrite")

	var req RewriteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Rewriting batch", "files", len(req.Paths), "write", req.Write)

	resp, err := h.svc.RewriteBatch(c.Request.Context(), req.Paths, req.Write)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "BATCH_FAILED"

		if errors.Is(err, ErrEmptyBatch) {
			statusCode = http.StatusBadRequest
			errCode = "EMPTY_BATCH"
		} else if errors.Is(err, ErrBatchTooLarge) {
			statusCode = http.StatusBadRequest
			errCode = "BATCH_TOO_LARGE"
		} else if errors.Is(err, ErrRelativePath) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_PATH"
		} else if errors.Is(err, ErrPathTraversal) {
			statusCode = http.StatusBadRequest
			errCode = "PATH_TRAVERSAL"
		} else if errors.Is(err, ErrPathNotAllowed) {
			statusCode = http.StatusBadRequest
			errCode = "PATH_NOT_ALLOWED"
		} else if errors.Is(err, context.DeadlineExceeded) {
			statusCode = http.StatusGatewayTimeout
			errCode = "BATCH_TIMEOUT"
		}

		logger.Error("Batch rewrite failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Batch rewritten",
		"run_id", resp.RunID,
		"files", len(req.Paths),
		"changed", resp.FilesChanged,
		"failures", len(resp.Failures))

	c.JSON(http.StatusOK, resp)
}

// HandleParse handles POST /v1/parse.
//
// Description:
//
//	Parses a source payload and returns its node listing, so rule
//	authors can see the kinds and spans their matchers will run
//	against.
//
// Request Body:
//
//	ParseRequest
//
// Response:
//
//	200 OK: ParseResponse
//	400 Bad Request: Validation or parse error
//	413 Request Entity Too Large: Source exceeds the size limit
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleParse(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleParse")

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.svc.ParseSource(c.Request.Context(), req.Path, req.Content)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "PARSE_ERROR"

		if errors.Is(err, ErrSourceTooLarge) {
			statusCode = http.StatusRequestEntityTooLarge
			errCode = "SOURCE_TOO_LARGE"
		} else if engine.IsUnsupportedFile(err) {
			statusCode = http.StatusBadRequest
			errCode = "UNSUPPORTED_FILE"
		} else if ast.IsParseError(err) {
			statusCode = http.StatusBadRequest
			errCode = "PARSE_FAILED"
		}

		logger.Error("Parse failed", "path", req.Path, "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Source parsed",
		"path", req.Path,
		"language", resp.Language,
		"nodes", resp.NodeCount)

	c.JSON(http.StatusOK, resp)
}

// HandleRules handles GET /v1/rules.
//
// Response:
//
//	200 OK: RulesResponse
func (h *Handlers) HandleRules(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Rules())
}

// HandleHealth handles GET /health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /ready.
//
// Description:
//
//	Reports whether the service can serve rewrites. The service is
//	ready once the engine holds at least one rule.
//
// Response:
//
//	200 OK: ReadyResponse
//	503 Service Unavailable: No rules loaded
func (h *Handlers) HandleReady(c *gin.Context) {
	resp := h.svc.Ready()
	if !resp.Ready {
		c.Header("Retry-After", "30")
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleEvents handles GET /v1/events.
//
// Description:
//
//	Upgrades the request to a websocket and streams rewrite events
//	until the client disconnects. The first message is a subscribed
//	event carrying the session ID.
func (h *Handlers) HandleEvents(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade event stream", "error", err)
		return
	}
	defer ws.Close()

	sessionID := uuid.NewString()
	if err := ws.WriteJSON(Event{
		Type:      EventSubscribed,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		slog.Warn("Failed to greet event subscriber", "error", err)
		return
	}

	hub := h.svc.Hub()
	hub.Add(ws)
	defer hub.Remove(ws)
	slog.Info("Event subscriber connected", "session_id", sessionID)

	// Subscribers only listen. The read loop exists to notice the
	// disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			slog.Info("Event subscriber disconnected", "session_id", sessionID)
			return
		}
	}
}

// getOrCreateRequestID returns the request ID from the X-Request-ID
// header, or generates a new one. The ID is echoed back on the
// response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
