package apiv1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"act-companion/internal/infra/api"
	"act-companion/internal/infra/notify"
	"act-companion/internal/usecase"
)

var _ ServerInterface = (*Server)(nil)

type Server struct {
	reg   *usecase.Registry
	guide *usecase.RitualGuide
	sync  *usecase.SyncService // nil when cloud sync is off
	inbox *notify.Inbox
	auth  *api.AuthManager
	log   *zerolog.Logger
}

func NewServer(reg *usecase.Registry, guide *usecase.RitualGuide, sync *usecase.SyncService, inbox *notify.Inbox, auth *api.AuthManager, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "APIv1").Logger()
	return &Server{reg: reg, guide: guide, sync: sync, inbox: inbox, auth: auth, log: &l}
}

// RegisterAPIV1 mounts health, metrics and the generated /api/v1 routes on r.
// Operations the contract secures go through secured.
func RegisterAPIV1(r chi.Router, s *Server, timeout time.Duration) {
	r.Use(
		api.TraceID(s.log),
		api.Recover(s.log),
		api.RequestLog(s.log),
	)
	r.Get("/health", api.Health)
	r.Handle("/metrics", promhttp.Handler())

	HandlerWithOptions(s, ChiServerOptions{
		BaseURL:          "/api/v1",
		BaseRouter:       r,
		Middlewares:      []MiddlewareFunc{s.secured(timeout)},
		ErrorHandlerFunc: s.badParam,
	})
}

// secured applies auth and the request timeout when the operation
// declares a security requirement.
func (s *Server) secured(timeout time.Duration) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		guarded := api.Chain(next, api.RequireUser(s.auth, s.log), api.Timeout(timeout))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Context().Value(BearerAuthScopes) == nil {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func (s *Server) badParam(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, Error{Error: err.Error()})
}

// NewRouter builds a chi router with all routes registered.
func NewRouter(s *Server, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	RegisterAPIV1(r, s, timeout)
	return r
}
