package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"styx/internal/domain"
)

// Server is an in-memory relay: it stores prekey bundles and queues
// envelopes until recipients fetch and ack them. It never sees plaintext
// or key material beyond the public bundles.
type Server struct {
	mu      sync.Mutex
	bundles map[string]domain.PrekeyBundle
	queues  map[string][]domain.Envelope

	router *mux.Router
}

// NewServer returns a Server with empty state and its routes wired.
func NewServer() *Server {
	s := &Server{
		bundles: make(map[string]domain.PrekeyBundle),
		queues:  make(map[string][]domain.Envelope),
		router:  mux.NewRouter(),
	}
	s.router.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/prekey/{username}", s.handleBundle).Methods(http.MethodGet)
	s.router.HandleFunc("/msg/{username}", s.handleSend).Methods(http.MethodPost)
	s.router.HandleFunc("/msg/{username}", s.handleFetch).Methods(http.MethodGet)
	s.router.HandleFunc("/msg/{username}/ack", s.handleAck).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (s *Server) handleRegister(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	var b domain.PrekeyBundle
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.bundles[b.Username] = b
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"username": b.Username,
		"one_time": len(b.OneTime),
	}).Info("bundle registered")
	w.WriteHeader(http.StatusOK)
}

// handleBundle serves the stored bundle with at most one one-time prekey,
// which is removed from the stored copy so no two initiators receive the
// same one.
func (s *Server) handleBundle(w http.ResponseWriter, req *http.Request) {
	username := mux.Vars(req)["username"]

	s.mu.Lock()
	b, ok := s.bundles[username]
	out := b
	if ok && len(b.OneTime) > 0 {
		out.OneTime = []domain.OneTimePub{b.OneTime[0]}
		b.OneTime = b.OneTime[1:]
		s.bundles[username] = b
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleSend(w http.ResponseWriter, req *http.Request) {
	username := mux.Vars(req)["username"]
	defer req.Body.Close()
	var env domain.Envelope
	if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env.To = username

	s.mu.Lock()
	s.queues[env.To] = append(s.queues[env.To], env)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"from": env.From,
		"to":   env.To,
	}).Debug("envelope queued")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFetch(w http.ResponseWriter, req *http.Request) {
	username := mux.Vars(req)["username"]
	limit := 0
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	q := s.queues[username]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	out := make([]domain.Envelope, len(q))
	copy(out, q)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleAck(w http.ResponseWriter, req *http.Request) {
	username := mux.Vars(req)["username"]
	defer req.Body.Close()
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	q := s.queues[username]
	if body.Count > len(q) {
		body.Count = len(q)
	}
	s.queues[username] = q[body.Count:]
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}
