package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"weekum/internal/ledger"
	"weekum/internal/log"
)

// writesPerMinute is the per-client cap on mutating requests.
const writesPerMinute = 120

// Server serves the ledger over JSON.
type Server struct {
	http.Server

	store   *ledger.Store
	coord   *ledger.Coordinator
	logger  *log.Logger
	limiter *writeLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store *ledger.Store, coord *ledger.Coordinator, logger *log.Logger) *Server {
	s := &Server{
		store:   store,
		coord:   coord,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: newWriteLimiter(writesPerMinute),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", handleHealth)

	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", s.handleListBudgets)
		r.Post("/", s.handleCreateBudget)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBudget)
			r.Delete("/", s.handleDeleteBudget)
			r.Post("/expenses", s.handleCreateExpense)
			r.Post("/reset", s.handleResetBudget)
		})
	})
	r.Delete("/expenses/{id}", s.handleRemoveExpense)

	r.Route("/week", func(r chi.Router) {
		r.Post("/renew", s.handleRenew)
		r.Post("/clear", s.handleClear)
		r.Post("/restart", s.handleRestart)
	})
	r.Post("/admin/purge", s.handlePurge)

	r.Route("/selection", func(r chi.Router) {
		r.Get("/", s.handleGetSelection)
		r.Put("/", s.handleSelect)
		r.Delete("/", s.handleClearSelection)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for " + r.Method + " " + r.URL.Path).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// fail writes the error response for err and logs anything that is not the
// caller's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	resp.Write(w)
}
