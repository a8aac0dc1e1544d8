package server

import "net/http"

func (s *Server) handleAIHealth(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{
			"status":  "not_configured",
			"message": "OpenAI API key not configured",
		})
		return
	}
	if s.ai.HealthCheck(r.Context()) {
		s.respondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"message": "AI service is operational",
			"model":   s.ai.Model(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "unhealthy",
		"message": "AI service is not responding",
	})
}

func (s *Server) handleAIUsage(w http.ResponseWriter, r *http.Request) {
	if !s.aiOr503(w) {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"cache":   s.ai.CacheStats(),
		"model":   s.ai.Model(),
		"pricing": s.ai.Prices().PriceFor(s.ai.Model()),
	})
}

func (s *Server) handleAIClearCache(w http.ResponseWriter, r *http.Request) {
	if !s.aiOr503(w) {
		return
	}
	s.ai.ClearCache()
	s.respondJSON(w, http.StatusOK, map[string]string{"detail": "Cache cleared"})
}
