package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
	"github.com/picklevibe/bookings-crawler/internal/runstate"
	"github.com/picklevibe/bookings-crawler/internal/stats"
	"github.com/picklevibe/bookings-crawler/internal/storage"
)

const runHistoryLimit = 50

type statusResponse struct {
	domain.RunStatus
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, statusResponse{
		RunStatus: s.state.Snapshot(),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, _ *http.Request) {
	if err := s.trigger("manual"); err != nil {
		if errors.Is(err, runstate.ErrAlreadyRunning) {
			s.respondWithJSON(w, http.StatusConflict, map[string]any{
				"error":  "Scraping is already in progress",
				"status": s.state.Snapshot(),
			})
			return
		}
		s.logger.Error("failed to start manual scrape", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Failed to initiate scraping")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"message":          "Scraping started successfully",
		"status":           "started",
		"nextScheduledRun": s.state.Snapshot().NextScheduledAt,
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.store.Read(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			s.respondWithJSON(w, http.StatusNotFound, map[string]string{
				"error":   "No scraped data available",
				"message": "Run a scraping operation first",
			})
			return
		}
		s.logger.Error("failed to read snapshot", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(dataset),
		"data":      dataset,
		"timestamp": s.state.Snapshot().LastRunAt,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.store.Read(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			s.respondWithJSON(w, http.StatusNotFound, map[string]string{
				"error":   "No data available for statistics",
				"message": "Run a scraping operation first",
			})
			return
		}
		s.logger.Error("failed to read snapshot", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Failed to calculate statistics")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"stats":       stats.Compute(dataset),
		"lastUpdated": s.state.Snapshot().LastRunAt,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.history.RecentRuns(r.Context(), runHistoryLimit)
	if err != nil {
		s.logger.Error("failed to read run history", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve run history")
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(runs),
		"runs":    runs,
	})
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
