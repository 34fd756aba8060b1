package handler

import (
	"net/http"

	"iptrack/internal/auth"
	"iptrack/internal/domains"
	"iptrack/internal/middleware"
	"iptrack/internal/visit"
	"iptrack/pkg/logger"
	"iptrack/pkg/validator"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Auth        *auth.Service
	Visits      *visit.Service
	Domains     *domains.Service
	System      *SystemHandler
	Idempotency *middleware.IdempotencyMiddleware
	Validator   *validator.Validator
	Logger      logger.Logger
	CORSOrigins []string
}

// NewRouter wires routes and middleware. Mutating routes sit behind the
// bearer gate; reads are public.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	users := NewUserHandler(cfg.Auth, cfg.Validator, log)
	visits := NewVisitHandler(cfg.Visits, cfg.Validator, log)
	domainHandler := NewDomainHandler(cfg.Domains, cfg.Validator, log)

	gate := middleware.NewAuthMiddleware(cfg.Auth, log).Authenticate
	logging := middleware.NewLoggingMiddleware(log).Log
	idempotent := func(h http.Handler) http.Handler { return h }
	if cfg.Idempotency != nil {
		idempotent = cfg.Idempotency.Apply
	}
	protect := func(h http.HandlerFunc) http.Handler { return gate(h) }

	r := mux.NewRouter()
	r.Use(logging)
	r.NotFoundHandler = logging(http.HandlerFunc(notFound))
	r.MethodNotAllowedHandler = logging(http.HandlerFunc(notFound))

	// Preflight requests that carry no CORS headers still get an answer.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.System != nil {
		r.HandleFunc("/health", cfg.System.Health).Methods(http.MethodGet)
	}
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/users/signup", users.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/users/login", users.Login).Methods(http.MethodPost)
	api.Handle("/users/{id:[0-9]+}", protect(users.GetUser)).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}", protect(users.UpdateUser)).Methods(http.MethodPatch)

	api.HandleFunc("/data", visits.List).Methods(http.MethodGet)
	api.Handle("/data", gate(idempotent(http.HandlerFunc(visits.Create)))).Methods(http.MethodPost)
	api.HandleFunc("/data/{id:[0-9]+}", visits.Get).Methods(http.MethodGet)
	api.Handle("/data/{id:[0-9]+}", protect(visits.Delete)).Methods(http.MethodDelete)

	api.HandleFunc("/domains", domainHandler.List).Methods(http.MethodGet)
	api.Handle("/domains", protect(domainHandler.Create)).Methods(http.MethodPost)
	api.HandleFunc("/domains/{id:[0-9]+}", domainHandler.Get).Methods(http.MethodGet)
	api.Handle("/domains/{id:[0-9]+}", protect(domainHandler.Delete)).Methods(http.MethodDelete)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization",
			"X-Request-ID", "Idempotency-Key"},
		ExposedHeaders: []string{"X-Request-ID", "Idempotent-Replayed"},
		MaxAge:         3600,
	})

	var h http.Handler = r
	h = middleware.SecurityHeaders(h)
	h = middleware.Recovery(log)(h)
	h = middleware.CorrelationID(h)
	return corsHandler(h)
}
