// internal/api/handlers.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"billing-chart-workers/internal/chart/assistant"
	"billing-chart-workers/internal/chart/conversation"
	"billing-chart-workers/internal/chart/summary"
)

type ChatRequest struct {
	Message string              `json:"message"`
	History []conversation.Turn `json:"history,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) bindMessage(c *gin.Context) (*ChatRequest, bool) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Request body must be JSON with a message field.", RequestID: requestID(c)})
		return nil, false
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message is required.", RequestID: requestID(c)})
		return nil, false
	}
	if len(req.Message) > maxMessageLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message is too long.", RequestID: requestID(c)})
		return nil, false
	}
	return &req, true
}

// Chat answers one assistant turn: a chart, a chart error or text.
func (s *Server) Chat(c *gin.Context) {
	req, ok := s.bindMessage(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
	defer cancel()

	resp, err := s.opts.Assistant.Respond(ctx, assistant.Request{Message: req.Message, History: req.History})
	if err != nil {
		s.unavailable(c, err)
		return
	}
	s.recordChart(c, resp)
	c.JSON(http.StatusOK, resp)
}

// Chart always takes the chart path.
func (s *Server) Chart(c *gin.Context) {
	req, ok := s.bindMessage(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
	defer cancel()

	resp, err := s.opts.Assistant.Chart(ctx, req.Message)
	if err != nil {
		s.unavailable(c, err)
		return
	}
	s.recordChart(c, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) Summary(c *gin.Context) {
	records, err := s.opts.Store.FetchAllRecords(c.Request.Context())
	if err != nil {
		s.logger.Error("billing summary fetch failed", map[string]interface{}{
			"requestId": requestID(c),
			"error":     err.Error(),
		})
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Billing data is temporarily unavailable.", RequestID: requestID(c)})
		return
	}

	result, err := summary.Build(records, s.opts.PaymentStatuses, s.opts.RecentRecords)
	if errors.Is(err, summary.ErrNoData) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No billing data available.", RequestID: requestID(c)})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Billing summary could not be built.", RequestID: requestID(c)})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) recordChart(c *gin.Context, resp *assistant.Response) {
	if s.opts.Charts == nil || resp.Chart == nil {
		return
	}
	s.opts.Charts.RecordChartBuilt(c.Request.Context(), string(resp.Chart.ChartType), string(resp.Source))
}

// unavailable answers with the plain-language apology; the cause is only
// logged.
func (s *Server) unavailable(c *gin.Context, err error) {
	s.logger.Warn("assistant request abandoned", map[string]interface{}{
		"requestId": requestID(c),
		"error":     err.Error(),
	})
	code := http.StatusServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
	}
	c.JSON(code, ErrorResponse{Error: conversation.Apology, RequestID: requestID(c)})
}
