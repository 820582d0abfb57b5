package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/dmitrijs2005/gophbooks/internal/logging"
	"github.com/dmitrijs2005/gophbooks/internal/server/metrics"
	"github.com/dmitrijs2005/gophbooks/internal/server/models"
	"github.com/dmitrijs2005/gophbooks/internal/server/validation"
)

const maxBodyBytes = 1 << 20

// UserService is the part of services.UserService the HTTP API needs.
type UserService interface {
	UserResolver
	Register(ctx context.Context, in models.RegistrationInput) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*models.Token, error)
}

type Handler struct {
	users   UserService
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewHandler(users UserService, logger logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{users: users, logger: logger, metrics: m}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in models.RegistrationInput
	if !h.decode(w, r, &in) {
		return
	}

	if err := validation.ValidateEmail(in.Email); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, inputDetail(err))
		return
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, inputDetail(err))
		return
	}

	user, err := h.users.Register(ctx, in)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.Is(err, common.ErrDuplicateKey):
			recordAuth(h.metrics, metrics.OperationRegister, metrics.OutcomeRejected)
			writeDetail(w, http.StatusConflict, detailEmailRegistered)
		case errors.Is(err, common.ErrPasswordMismatch):
			recordAuth(h.metrics, metrics.OperationRegister, metrics.OutcomeRejected)
			writeDetail(w, http.StatusBadRequest, detailPasswordMismatch)
		case errors.As(err, &verr):
			recordAuth(h.metrics, metrics.OperationRegister, metrics.OutcomeRejected)
			writeDetail(w, http.StatusUnprocessableEntity, verr.Violations)
		case errors.Is(err, common.ErrInvalidInput):
			recordAuth(h.metrics, metrics.OperationRegister, metrics.OutcomeRejected)
			writeDetail(w, http.StatusUnprocessableEntity, inputDetail(err))
		default:
			recordAuth(h.metrics, metrics.OperationRegister, metrics.OutcomeError)
			h.logger.Error(ctx, "register failed", errorFields(ctx, err)...)
			writeInternal(w)
		}
		return
	}

	recordAuth(h.metrics, metrics.OperationRegister, metrics.OutcomeSuccess)
	h.logger.Info(ctx, "user registered", "request_id", RequestIDFromContext(ctx))
	writeJSON(w, http.StatusOK, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in models.LoginInput
	if !h.decode(w, r, &in) {
		return
	}

	if err := validation.ValidateEmail(in.Email); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, inputDetail(err))
		return
	}

	token, err := h.users.Login(ctx, in.Email, in.Password)
	if err != nil {
		if isUnauthorized(err) {
			recordAuth(h.metrics, metrics.OperationLogin, metrics.OutcomeRejected)
			writeUnauthorized(w, detailIncorrectCredentials)
			return
		}
		recordAuth(h.metrics, metrics.OperationLogin, metrics.OutcomeError)
		h.logger.Error(ctx, "login failed", errorFields(ctx, err)...)
		writeInternal(w)
		return
	}

	recordAuth(h.metrics, metrics.OperationLogin, metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, token)
}

// GetBook handles GET /book/{book_id}. It only proves the gate let the
// request through.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	if _, err := strconv.Atoi(r.PathValue("book_id")); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, detailInvalidBookID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "working"})
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, detailCouldNotValidate)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HealthCheck handles GET /healthCheck.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug(r.Context(), "health check")
	writeJSON(w, http.StatusOK, map[string]string{"status": "Site Working"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, detailInvalidBody)
		return false
	}
	return true
}

func isUnauthorized(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized)
}
