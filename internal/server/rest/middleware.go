package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/dmitrijs2005/gophbooks/internal/logging"
	"github.com/dmitrijs2005/gophbooks/internal/server/metrics"
	"github.com/dmitrijs2005/gophbooks/internal/server/models"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUser      ctxKey = "user"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recover turns a panic into a generic 500.
func Recover(logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Error(r.Context(), "panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"panic", p,
						"path", r.URL.Path,
					)
					writeInternal(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers for the allowed origins only. "*" allows any origin; an empty
// list disables CORS headers altogether.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Max-Age", "600")
				h.Add("Vary", "Origin")

				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID keeps a caller supplied X-Request-ID or generates one, echoes it
// back and stores it in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(common.RequestIDHeaderName)
			if requestID == "" || len(requestID) > 128 {
				id, err := common.MakeRandHexString(8)
				if err != nil {
					id = "unknown"
				}
				requestID = id
			}

			w.Header().Set(common.RequestIDHeaderName, requestID)

			ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request and feeds the request metrics.
func AccessLog(logger logging.Logger, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if m != nil {
				m.RecordRequest(r.Method, route, rec.status, elapsed)
			}

			logger.Info(r.Context(), "request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed,
			)
		})
	}
}

// UserResolver maps a bearer token to its user.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (*models.User, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func RequireUser(resolver UserResolver, logger logging.Logger, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				recordAuth(m, metrics.OperationResolve, metrics.OutcomeRejected)
				writeUnauthorized(w, detailCouldNotValidate)
				return
			}

			user, err := resolver.ResolveUser(r.Context(), token)
			if err != nil {
				if !isUnauthorized(err) {
					logger.Error(r.Context(), "resolve user failed", errorFields(r.Context(), err)...)
					recordAuth(m, metrics.OperationResolve, metrics.OutcomeError)
					writeInternal(w)
					return
				}
				logger.Debug(r.Context(), "bearer token rejected",
					"request_id", RequestIDFromContext(r.Context()),
					"reason", err.Error(),
				)
				recordAuth(m, metrics.OperationResolve, metrics.OutcomeRejected)
				writeUnauthorized(w, detailCouldNotValidate)
				return
			}

			recordAuth(m, metrics.OperationResolve, metrics.OutcomeSuccess)
			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(*models.User)
	return user, ok && user != nil
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

func recordAuth(m *metrics.Metrics, operation, outcome string) {
	if m != nil {
		m.RecordAuth(operation, outcome)
	}
}
