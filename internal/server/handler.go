package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"opinionpulse/internal/analysis"
	"opinionpulse/internal/reportstore"
	"opinionpulse/internal/schedule"
)

// Handler exposes the analysis pipeline over HTTP/JSON.
type Handler struct {
	Runner *schedule.Runner
	Store  *reportstore.Store
	Hub    *RunHub
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	mux.HandleFunc("GET /api/reports/{topic}", h.handleReports)
	mux.HandleFunc("GET /api/runs/{run_id}", h.handleRun)
	mux.HandleFunc("GET /api/watch", h.handleWatch)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type analyzeRequest struct {
	Topic string          `json:"topic"`
	Posts []analysis.Post `json:"posts,omitempty"`
	Limit int             `json:"limit,omitempty"`
	Async bool            `json:"async,omitempty"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	in.Topic = strings.TrimSpace(in.Topic)
	if in.Topic == "" && len(in.Posts) == 0 {
		httpError(w, http.StatusBadRequest, "topic or posts is required")
		return
	}

	posts := in.Posts
	if len(posts) == 0 {
		collected, err := h.Runner.Collector.Collect(r.Context(), in.Topic, in.Limit)
		if err != nil {
			httpError(w, http.StatusBadGateway, err.Error())
			return
		}
		posts = collected
	}

	runID := schedule.NewRunID()
	if in.Async {
		go h.runAsync(runID, in.Topic, posts)
		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
		return
	}

	stored, err := h.runnerFor(runID).RunPosts(r.Context(), runID, in.Topic, posts)
	if err != nil {
		var perr *analysis.PipelineError
		if errors.As(err, &perr) {
			httpError(w, http.StatusBadGateway, perr.Error())
			return
		}
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// runAsync executes the run detached from the request, reporting progress
// through the hub. The pipeline's own timeout bounds the background
// context.
func (h *Handler) runAsync(runID, topic string, posts []analysis.Post) {
	stored, err := h.runnerFor(runID).RunPosts(context.Background(), runID, topic, posts)
	if err != nil {
		log.Printf("async run %s failed: %v", runID, err)
		h.Hub.Finish(runID, "failed")
		return
	}
	h.Hub.Finish(runID, string(stored.Report.Status))
}

// runnerFor clones the shared runner with a pipeline that publishes this
// run's stage transitions to the hub.
func (h *Handler) runnerFor(runID string) *schedule.Runner {
	if h.Hub == nil {
		return h.Runner
	}
	runner := *h.Runner
	pipeline := *h.Runner.Pipeline
	pipeline.Progress = func(stage, event string) {
		h.Hub.Publish(runID, stage, event)
	}
	runner.Pipeline = &pipeline
	return &runner
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.PathValue("topic"))
	if topic == "" {
		httpError(w, http.StatusBadRequest, "topic is required")
		return
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("history")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httpError(w, http.StatusBadRequest, "history must be a positive integer")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"topic":   topic,
			"reports": h.Store.History(topic, limit),
		})
		return
	}
	stored, ok := h.Store.Latest(topic)
	if !ok {
		httpError(w, http.StatusNotFound, "no report for topic")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		httpError(w, http.StatusBadRequest, "run_id is required")
		return
	}
	stored, ok := h.Store.Get(runID)
	if !ok {
		httpError(w, http.StatusNotFound, "no report for run")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
