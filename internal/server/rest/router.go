package rest

import (
	"net/http"

	"github.com/dmitrijs2005/gophbooks/internal/logging"
	"github.com/dmitrijs2005/gophbooks/internal/server/metrics"
)

// RouterConfig holds what the HTTP router needs.
type RouterConfig struct {
	Users   UserService
	Logger  logging.Logger
	Metrics *metrics.Metrics

	// CORSAllowedOrigins is the CORS allowlist; empty disables CORS headers.
	CORSAllowedOrigins []string
}

// NewRouter registers the routes and wraps them in the middleware chain:
// Recover -> CORS -> RequestID -> AccessLog -> mux.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := NewHandler(cfg.Users, cfg.Logger, cfg.Metrics)
	gate := RequireUser(cfg.Users, cfg.Logger, cfg.Metrics)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)

	mux.Handle("GET /book/{book_id}", gate(http.HandlerFunc(h.GetBook)))
	mux.Handle("GET /users/me", gate(http.HandlerFunc(h.Me)))

	mux.HandleFunc("GET /healthCheck", h.HealthCheck)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	return Chain(mux,
		Recover(cfg.Logger),
		CORS(cfg.CORSAllowedOrigins),
		RequestID(),
		AccessLog(cfg.Logger, cfg.Metrics),
	)
}
