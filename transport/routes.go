package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/lab1702/oort-sim/metrics"
	"github.com/lab1702/oort-sim/scenario"
	"github.com/lab1702/oort-sim/sim"
)

// Server is the process-wide HTTP/WS surface: a scenario catalog and a
// registry of in-flight simulation runs, chi-routed the way the pack's
// fight-club-go wires its API (see DESIGN.md).
type Server struct {
	registry *scenario.Registry
	tickRate time.Duration
	metrics  *metrics.Collectors

	mu   sync.RWMutex
	runs map[string]*RunHandle

	createLimiter *rate.Limiter
}

// NewServer builds the HTTP surface over reg, driving every run's tick
// loop at tickRate. m may be nil to disable metrics collection.
func NewServer(reg *scenario.Registry, tickRate time.Duration, m *metrics.Collectors) *Server {
	return &Server{
		registry:      reg,
		tickRate:      tickRate,
		metrics:       m,
		runs:          make(map[string]*RunHandle),
		createLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Routes builds the chi router: CORS, the scenario catalog, simulation
// lifecycle, the per-run websocket feed, and the Prometheus scrape
// endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/scenarios", s.handleListScenarios)
	r.Get("/api/scenarios/{name}", s.handleGetScenario)
	r.Post("/api/sims", s.handleCreateSim)
	r.Get("/api/sims/{id}", s.handleGetSim)
	r.Get("/ws/{id}", s.handleWebSocket)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, err := s.registry.Load(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":          def.Name,
		"max_ticks":     def.MaxTicks,
		"is_tournament": def.IsTournament,
	})
}

// createSimRequest is the POST /api/sims body: a scenario name, a seed,
// and per-team compiled controller code.
type createSimRequest struct {
	Scenario string           `json:"scenario"`
	Seed     uint64           `json:"seed"`
	Codes    map[string][]byte `json:"codes"`
}

func (s *Server) handleCreateSim(w http.ResponseWriter, r *http.Request) {
	if !s.createLimiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many simulation creation requests"})
		return
	}

	var req createSimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	def, err := s.registry.Load(req.Scenario)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	codes := make(map[int][]byte, len(req.Codes))
	for teamStr, code := range req.Codes {
		var team int
		if _, err := fmt.Sscanf(teamStr, "%d", &team); err != nil {
			continue
		}
		codes[team] = code
	}

	instance := sim.New(def, req.Seed, codes)
	id := uuid.New().String()
	handle := NewRunHandle(id, instance, s.tickRate, s.metrics)

	s.mu.Lock()
	s.runs[id] = handle
	s.mu.Unlock()

	go handle.Run()

	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "ws": "/ws/" + id})
}

func (s *Server) handleGetSim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	handle, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown simulation id"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "tick": handle.Status()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	handle, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	handle.ServeWebSocket(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
