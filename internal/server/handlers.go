package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/MeKo-Tech/lapwatch/internal/report"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
	"github.com/MeKo-Tech/lapwatch/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", errTypeInvalidRequest, http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Version:     version.Version,
		Time:        s.clock.Now().UTC().Format(time.RFC3339),
		Stopwatches: s.registry.Len(),
	})
}

// stopwatchesHandler lists stopwatches (GET) or creates one (POST).
func (s *Server) stopwatchesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries := s.list()
		s.writeJSON(w, http.StatusOK, ListResponse{
			Success:     true,
			Stopwatches: entries,
			Count:       len(entries),
		})
	case http.MethodPost:
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), errTypeInvalidRequest, http.StatusBadRequest)
			return
		}
		entry, err := s.create(req.ID)
		if err != nil {
			s.writeStopwatchError(w, err)
			return
		}
		slog.Info("Stopwatch created", "id", req.ID)
		s.writeJSON(w, http.StatusCreated, StopwatchResponse{Success: true, Stopwatch: &entry})
	default:
		s.writeErrorResponse(w, "Method not allowed", errTypeInvalidRequest, http.StatusMethodNotAllowed)
	}
}

// stopwatchHandler returns the state of one stopwatch.
func (s *Server) stopwatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", errTypeInvalidRequest, http.StatusMethodNotAllowed)
		return
	}

	entry, err := s.get(r.PathValue("id"))
	if err != nil {
		s.writeStopwatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StopwatchResponse{Success: true, Stopwatch: &entry})
}

// operationHandler returns a handler that applies op to the stopwatch named
// by the {id} path segment.
func (s *Server) operationHandler(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeErrorResponse(w, "Method not allowed", errTypeInvalidRequest, http.StatusMethodNotAllowed)
			return
		}

		id := r.PathValue("id")
		entry, err := s.perform(op, id)
		if err != nil {
			s.writeStopwatchError(w, err)
			return
		}
		slog.Debug("Stopwatch operation", "op", op, "id", id, "laps", len(entry.Laps))
		s.writeJSON(w, http.StatusOK, StopwatchResponse{Success: true, Stopwatch: &entry})
	}
}

// lapsHandler renders the laps of one stopwatch as text, json or csv.
func (s *Server) lapsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, "Method not allowed", errTypeInvalidRequest, http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	if !slices.Contains(report.Formats, format) {
		s.writeErrorResponse(w, "Unsupported format: "+format, errTypeInvalidRequest, http.StatusBadRequest)
		return
	}

	sw, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeStopwatchError(w, err)
		return
	}

	out, err := report.Format([]stopwatch.Snapshot{sw.Snapshot()}, format)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to render laps: %v", err), errTypeInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out)); err != nil {
		slog.Error("Failed to write laps response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeStopwatchError writes err with the status its type maps to.
func (s *Server) writeStopwatchError(w http.ResponseWriter, err error) {
	status, errType := classifyError(err)
	s.writeErrorResponse(w, err.Error(), errType, status)
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, message, errType string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorType: errType,
	})
}
