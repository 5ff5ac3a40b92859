// Package target is a small HTTP server that HTTP benchmarks can be pointed
// at when no real service is at hand. Each endpoint has a predictable cost.
package target

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// MaxItems caps the size of an /items response.
const MaxItems = 10000

type Server struct {
	mux       *http.ServeMux
	requestID atomic.Int64
}

func NewServer() *Server {
	s := &Server{mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status/{code}", s.handleStatus)
	s.mux.HandleFunc("GET /delay/{ms}", s.handleDelay)
	s.mux.HandleFunc("GET /random-delay", s.handleRandomDelay)
	s.mux.HandleFunc("POST /echo", s.handleEcho)
	s.mux.HandleFunc("GET /items", s.handleItems)
	s.mux.HandleFunc("GET /hash", s.handleHash)
	s.mux.HandleFunc("GET /users/{id}", s.handleUser)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Requests returns how many requests carried an id so far.
func (s *Server) Requests() int64 {
	return s.requestID.Load()
}

// Endpoints describes the routes for the serve command banner.
func Endpoints() []string {
	return []string{
		"GET  /health              health check",
		"GET  /status/{code}       respond with the given status",
		"GET  /delay/{ms}          respond after ms milliseconds",
		"GET  /random-delay        respond after a random delay (?min=50&max=200)",
		"POST /echo                echo the request body",
		"GET  /items               JSON list of ?n items",
		"GET  /hash                sha256 chained ?rounds times",
		"GET  /users/{id}          JSON user record",
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(r.PathValue("ms"))
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}
	if !sleep(r, time.Duration(ms)*time.Millisecond) {
		return
	}
	fmt.Fprintf(w, "delayed %dms", ms)
}

func (s *Server) handleRandomDelay(w http.ResponseWriter, r *http.Request) {
	minMs := queryInt(r, "min", 0)
	maxMs := queryInt(r, "max", minMs+100)
	if maxMs < minMs {
		maxMs = minMs + 100
	}
	delay := minMs
	if maxMs > minMs {
		delay = minMs + rand.IntN(maxMs-minMs)
	}
	if !sleep(r, time.Duration(delay)*time.Millisecond) {
		return
	}
	fmt.Fprintf(w, "delayed %dms (range: %d-%d)", delay, minMs, maxMs)
}

// sleep waits for d or until the client goes away.
func sleep(r *http.Request, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.Context().Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type item struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// handleItems returns ?n items (default 10) so response size can be varied
// per scenario.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	n := min(queryInt(r, "n", 10), MaxItems)
	items := make([]item, n)
	for i := range items {
		items[i] = item{ID: i + 1, Name: fmt.Sprintf("item-%d", i+1), Price: float64(i%100) + 0.99}
	}
	writeJSON(w, map[string]any{
		"id":    s.requestID.Add(1),
		"count": n,
		"items": items,
	})
}

// handleHash burns CPU proportional to ?rounds.
func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	rounds := min(queryInt(r, "rounds", 1000), 1_000_000)
	sum := sha256.Sum256([]byte(r.URL.RawQuery))
	for i := 1; i < rounds; i++ {
		sum = sha256.Sum256(sum[:])
	}
	writeJSON(w, map[string]any{
		"id":     s.requestID.Add(1),
		"rounds": rounds,
		"digest": hex.EncodeToString(sum[:]),
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"id":            s.requestID.Add(1),
		"user_id":       r.PathValue("id"),
		"name":          "Test User",
		"email":         "test@example.com",
		"authenticated": r.Header.Get("Authorization") != "",
	})
}
