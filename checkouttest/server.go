package checkouttest

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/adamwoolhether/checkout/digest"
)

const (
	// ContentType is the media type the server accepts and returns.
	ContentType = "application/vnd.klarna.checkout.aggregated-order-v2+json"

	ordersPath = "/checkout/orders"
	maxBody    = 1 << 20
)

// Route names used by [Server.Requests].
const (
	RouteCreate = "POST " + ordersPath
	RouteFetch  = "GET " + ordersPath + "/{id}"
	RouteUpdate = "POST " + ordersPath + "/{id}"
)

type redirect struct {
	status   int
	location string
}

// Server is a fake checkout API backed by an [httptest.Server].
type Server struct {
	*httptest.Server

	secret      []byte
	hasher      *digest.Hasher
	contentType string

	mu        sync.Mutex
	counter   int
	orders    map[string]map[string]any
	redirects map[string]redirect
	hits      map[string]int
}

// Option configures a [Server].
type Option func(*Server)

// WithHasher verifies signatures with h instead of SHA-256.
func WithHasher(h *digest.Hasher) Option {
	return func(s *Server) {
		s.hasher = h
	}
}

// WithContentType changes the accepted media type.
func WithContentType(contentType string) Option {
	return func(s *Server) {
		s.contentType = contentType
	}
}

// NewServer starts a server that accepts requests signed with secret.
// Callers must Close it.
func NewServer(secret string, opts ...Option) *Server {
	s := Server{
		secret:      []byte(secret),
		hasher:      digest.SHA256(),
		contentType: ContentType,
		orders:      make(map[string]map[string]any),
		redirects:   make(map[string]redirect),
		hits:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(&s)
	}

	r := chi.NewRouter()
	r.Use(s.count)
	r.Route(ordersPath, func(r chi.Router) {
		r.Use(s.authenticate)
		r.With(s.requireContentType).Post("/", s.create)
		r.Get("/{id}", s.fetch)
		r.With(s.requireContentType).Post("/{id}", s.update)
	})

	s.Server = httptest.NewServer(r)

	return &s
}

// OrdersURL is the collection orders are created in.
func (s *Server) OrdersURL() string {
	return s.URL + ordersPath
}

// OrderURL is the location of order id.
func (s *Server) OrderURL(id string) string {
	return s.URL + ordersPath + "/" + id
}

// Order returns a copy of the stored order id.
func (s *Server) Order(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	return maps.Clone(o), ok
}

// Move relocates order id to newID. Later requests for id answer
// 301 Moved Permanently pointing at newID.
func (s *Server) Move(id, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orders[id]; ok {
		o["id"] = newID
		s.orders[newID] = o
		delete(s.orders, id)
	}
	s.redirects[id] = redirect{status: http.StatusMovedPermanently, location: s.OrderURL(newID)}
}

// SeeOther makes requests for order id answer 303 See Other to url.
func (s *Server) SeeOther(id, url string) {
	s.setRedirect(id, http.StatusSeeOther, url)
}

// Found makes requests for order id answer 302 Found to url.
func (s *Server) Found(id, url string) {
	s.setRedirect(id, http.StatusFound, url)
}

// Requests returns how many requests reached route, one of the Route
// constants.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[route]
}

func (s *Server) setRedirect(id string, status int, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.redirects[id] = redirect{status: status, location: url}
}

// /////////////////////////////////////////////////////////////////
// Handlers

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	data, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	s.counter++
	id := fmt.Sprintf("order_%06d", s.counter)
	data["id"] = id
	s.orders[id] = data
	s.mu.Unlock()

	w.Header().Set("Location", s.OrderURL(id))
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.redirected(w, id) {
		return
	}

	o, ok := s.Order(id)
	if !ok {
		s.fail(w, http.StatusNotFound, "order "+id+" not found")
		return
	}

	s.respond(w, o)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.redirected(w, id) {
		return
	}

	data, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	o, found := s.orders[id]
	if found {
		maps.Copy(o, data)
		o["id"] = id
		o = maps.Clone(o)
	}
	s.mu.Unlock()

	if !found {
		s.fail(w, http.StatusNotFound, "order "+id+" not found")
		return
	}

	s.respond(w, o)
}

func (s *Server) redirected(w http.ResponseWriter, id string) bool {
	s.mu.Lock()
	rd, ok := s.redirects[id]
	s.mu.Unlock()

	if !ok {
		return false
	}

	w.Header().Set("Location", rd.location)
	w.WriteHeader(rd.status)
	return true
}

func (s *Server) respond(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", s.contentType)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(data)
}

// fail writes an error body in the shape of the live API.
func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"http_status_code":    status,
		"http_status_message": http.StatusText(status),
		"internal_message":    msg,
	})
}

// /////////////////////////////////////////////////////////////////
// Middleware

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == ordersPath+"/" {
			pattern = ordersPath
		}

		s.mu.Lock()
		s.hits[r.Method+" "+pattern]++
		s.mu.Unlock()
	})
}

// authenticate checks Authorization against the digest of the body
// followed by the secret.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			s.fail(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		exp := "Klarna " + s.hasher.Digest(append(body, s.secret...))
		got := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(exp), []byte(got)) != 1 {
			s.fail(w, http.StatusUnauthorized, "bad shared secret")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != s.contentType {
			s.fail(w, http.StatusUnsupportedMediaType, "unsupported content type "+ct)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		s.fail(w, http.StatusBadRequest, "body must be a JSON object")
		return nil, false
	}
	return data, true
}
