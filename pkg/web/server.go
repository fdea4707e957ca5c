// Package web serves the analysis results over HTTP: JSON endpoints for
// the graph, the cycle list and the run summary, plus SSE streams that
// follow a run as it progresses.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/rogersrj/cycle-analyzer/pkg/logging"
	"github.com/rogersrj/cycle-analyzer/pkg/model"
	"github.com/rogersrj/cycle-analyzer/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// Server holds the latest run results and streams progress events.
// Setters may be called from the analysis goroutine while handlers read
// concurrently.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu       sync.RWMutex
	snapshot *model.GraphSnapshot
	cycles   []model.CycleRecord
	summary  *model.RunSummary
}

// NewServer creates the server with its routes and SSE topics set up.
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// A late subscriber only needs the current run state, not its history.
	ssePublisher.ConfigureTopic(pubsub.TopicRunStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	ssePublisher.ConfigureTopic(pubsub.TopicCycleStream, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetSnapshot stores the graph as loaded, before the search consumes it.
func (s *Server) SetSnapshot(snap model.GraphSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &snap
}

// AddCycle appends one discovered cycle to the served list.
func (s *Server) AddCycle(rec model.CycleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, rec)
}

// ResetCycles clears the cycle list at the start of a fresh run.
func (s *Server) ResetCycles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = nil
}

// SetSummary stores the finished run's summary.
func (s *Server) SetSummary(sum model.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &sum
}

// PublishRunStatus announces a run state change to subscribers.
func (s *Server) PublishRunStatus(state, message string, step, total int) error {
	return s.publisher.Publish(pubsub.TopicRunStatus, state, pubsub.RunStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	})
}

// PublishCycleProgress announces the running cycle count.
func (s *Server) PublishCycleProgress(found int, complete bool) error {
	eventType := "cycle"
	if complete {
		eventType = "done"
	}
	return s.publisher.Publish(pubsub.TopicCycleStream, eventType, pubsub.CycleStreamData{
		Found:    found,
		Complete: complete,
	})
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/run_status", s.handleSubscribe(pubsub.TopicRunStatus)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/cycle_stream", s.handleSubscribe(pubsub.TopicCycleStream)).Methods("GET")

	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/cycles", s.handleCycles).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static assets missing from build", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment establishes the stream (Safari compatibility).
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.ErrorContext(r.Context(), "failed to write SSE event", "topic", topic, "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	summary := s.summary
	s.mu.RUnlock()

	if summary == nil {
		http.Error(w, "no run has completed yet", http.StatusServiceUnavailable)
		return
	}
	json.NewEncoder(w).Encode(summary)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()

	if snapshot == nil {
		json.NewEncoder(w).Encode(model.GraphSnapshot{
			Nodes: []model.VertexRef{},
			Edges: []model.EdgeRef{},
		})
		return
	}
	json.NewEncoder(w).Encode(snapshot)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	records := make([]model.CycleRecord, len(s.cycles))
	copy(records, s.cycles)
	s.mu.RUnlock()

	json.NewEncoder(w).Encode(records)
}

// Start serves on the given port and blocks.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}
