package server

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jabiru-analytics/jabiru/internal/ai"
	"github.com/jabiru-analytics/jabiru/internal/analysis"
	"github.com/jabiru-analytics/jabiru/internal/chat"
)

const insightSampleRows = 10

type chatRequest struct {
	Message             string                `json:"message"`
	ConversationHistory []chat.HistoryMessage `json:"conversation_history"`
}

type chatResponse struct {
	Message string        `json:"message"`
	Usage   ai.TokenUsage `json:"usage"`
	Cost    float64       `json:"cost"`
	Cached  bool          `json:"cached"`
}

// aiOr503 reports whether a completion service is configured.
func (s *Server) aiOr503(w http.ResponseWriter) bool {
	if s.ai == nil {
		s.respondError(w, http.StatusServiceUnavailable, "AI service not configured")
		return false
	}
	return true
}

func (s *Server) complete(r *http.Request, msgs []ai.Message) (*ai.CompletionResult, error) {
	return s.ai.Complete(r.Context(), ai.CompletionRequest{
		Messages:    msgs,
		Temperature: s.cfg.ChatTemperature,
		MaxTokens:   s.cfg.ChatMaxTokens,
	})
}

// completionError maps upstream failures: throttling is passed on as 429,
// everything else is a bad gateway.
func (s *Server) completionError(w http.ResponseWriter, prefix string, err error) {
	status := http.StatusBadGateway
	var rl *ai.RateLimitError
	var quota *ai.QuotaExceededError
	if errors.As(err, &rl) || errors.As(err, &quota) {
		status = http.StatusTooManyRequests
	}
	s.logger.Warn("completion failed", zap.Error(err))
	s.respondError(w, status, prefix+err.Error())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectOr404(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "message must not be empty")
		return
	}
	if !s.aiOr503(w) {
		return
	}

	projectContext := ""
	if p.Context != nil {
		projectContext = *p.Context
	}
	res, err := s.complete(r, chat.BuildMessages(req.Message, projectContext, req.ConversationHistory))
	if err != nil {
		s.completionError(w, "Error processing chat request: ", err)
		return
	}
	s.respondJSON(w, http.StatusOK, chatResponse{
		Message: res.Content,
		Usage:   res.Usage,
		Cost:    res.Cost,
		Cached:  res.Cached,
	})
}

func (s *Server) handleChatHealth(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.projectOr404(w, r); !ok {
		return
	}
	if s.ai == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "OpenAI API key not configured"})
		return
	}
	if s.ai.HealthCheck(r.Context()) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": "Chat service is operational"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "Cannot connect to OpenAI API"})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileOr404(w, r)
	if !ok {
		return
	}
	if !s.aiOr503(w) {
		return
	}
	frame, meta, ok := s.loadFrame(w, f, analysis.Options{}, "Insights")
	if !ok {
		return
	}
	prompt, err := chat.InsightsPrompt(meta.Columns, meta.TotalRows, analysis.Summarize(f.Filename, frame, insightSampleRows))
	if err != nil {
		s.internalError(w, "build insights prompt", err)
		return
	}

	projectContext := ""
	if p, err := s.store.GetProject(r.Context(), f.ProjectID, currentUser(r).ID); err == nil && p.Context != nil {
		projectContext = *p.Context
	}
	res, err := s.complete(r, chat.BuildMessages(prompt, projectContext, nil))
	if err != nil {
		s.completionError(w, "Error generating insights: ", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"insights": chat.ParseInsights(res.Content),
		"content":  res.Content,
		"usage":    res.Usage,
		"cost":     res.Cost,
		"cached":   res.Cached,
	})
}

type chartRequest struct {
	Request string `json:"request"`
}

func (s *Server) handleChartSuggestion(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileOr404(w, r)
	if !ok {
		return
	}
	var req chartRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		s.respondError(w, http.StatusBadRequest, "request must not be empty")
		return
	}
	if !s.aiOr503(w) {
		return
	}
	_, meta, ok := s.loadFrame(w, f, analysis.Options{}, "Chart suggestions")
	if !ok {
		return
	}
	prompt, err := chat.AnalyzeRequestPrompt(req.Request, meta.Columns)
	if err != nil {
		s.internalError(w, "build chart prompt", err)
		return
	}
	res, err := s.complete(r, []ai.Message{{Role: "user", Content: prompt}})
	if err != nil {
		s.completionError(w, "Error suggesting chart: ", err)
		return
	}
	suggestion, err := chat.ParseChartSuggestion(res.Content, meta.Columns)
	if err != nil {
		s.logger.Warn("unusable chart suggestion", zap.String("file_id", f.ID), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "Could not interpret chart suggestion: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"suggestion": suggestion,
		"usage":      res.Usage,
		"cost":       res.Cost,
		"cached":     res.Cached,
	})
}
