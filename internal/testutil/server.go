package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Server serves fixed bodies by path and counts GETs per path.
// Unknown paths return 404.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	routes    map[string][]byte
	hits      map[string]int
	noLength  bool
	userAgent string
}

// NewServer starts a Server closed automatically when the test ends.
func NewServer(t *testing.T, routes map[string][]byte) *Server {
	t.Helper()

	s := &Server{routes: make(map[string][]byte), hits: make(map[string]int)}
	for p, body := range routes {
		s.routes[p] = body
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.userAgent = r.Header.Get("User-Agent")
	body, ok := s.routes[r.URL.Path]
	noLength := s.noLength
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if !noLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	} else if f, ok := w.(http.Flusher); ok {
		// Flushing before writing forces chunked encoding.
		w.WriteHeader(http.StatusOK)
		f.Flush()
	}
	_, _ = w.Write(body)
}

// Set replaces the body served at path.
func (s *Server) Set(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = body
}

// OmitContentLength makes responses use chunked encoding.
func (s *Server) OmitContentLength() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noLength = true
}

// Hits returns the number of requests for path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests for all paths.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}

// LastUserAgent returns the User-Agent of the latest request.
func (s *Server) LastUserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAgent
}
