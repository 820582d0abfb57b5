package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/dmitrijs2005/gophbooks/internal/server/metrics"
	"github.com/dmitrijs2005/gophbooks/internal/server/models"
	"github.com/dmitrijs2005/gophbooks/internal/server/validation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserService struct {
	fakeResolver

	registerOut *models.PublicUser
	registerErr error
	registered  []models.RegistrationInput

	loginOut *models.Token
	loginErr error
}

func (f *fakeUserService) Register(ctx context.Context, in models.RegistrationInput) (*models.PublicUser, error) {
	f.registered = append(f.registered, in)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerOut, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*models.Token, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginOut, nil
}

func newTestRouter(t *testing.T, svc *fakeUserService) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewRouter(&RouterConfig{
		Users:              svc,
		Logger:             discardLogger(),
		Metrics:            m,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}), m
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

const registerBody = `{"email":"alice@example.com","full_name":"Alice","password":"GoodPass1!","confirm_password":"GoodPass1!"}`

func TestRegisterHandler_Success(t *testing.T) {
	svc := &fakeUserService{registerOut: &models.PublicUser{Email: "alice@example.com", FullName: "Alice"}}
	h, m := newTestRouter(t, svc)

	rec := do(h, http.MethodPost, "/auth/register", registerBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"alice@example.com","full_name":"Alice"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	require.Len(t, svc.registered, 1)
	assert.Equal(t, "GoodPass1!", svc.registered[0].ConfirmPassword)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues(metrics.OperationRegister, metrics.OutcomeSuccess)))
}

func TestRegisterHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantBody string
	}{
		{
			name:     "duplicate",
			err:      common.ErrDuplicateKey,
			status:   http.StatusConflict,
			wantBody: `{"detail":"Email already registered"}`,
		},
		{
			name:     "mismatch",
			err:      common.ErrPasswordMismatch,
			status:   http.StatusBadRequest,
			wantBody: `{"detail":"Password and Confirm Password mismatch"}`,
		},
		{
			name:     "policy",
			err:      validation.Validate("thisispass12"),
			status:   http.StatusUnprocessableEntity,
			wantBody: `{"detail":[{"rule":"uppercase","message":"Password must contain at least one uppercase letter"},{"rule":"special","message":"Password must contain at least one special character"}]}`,
		},
		{
			name:     "too long",
			err:      fmt.Errorf("%w: %w", common.ErrInvalidInput, errors.New("password is too long")),
			status:   http.StatusUnprocessableEntity,
			wantBody: `{"detail":"password is too long"}`,
		},
		{
			name:     "internal",
			err:      fmt.Errorf("%w: connection reset by peer", common.ErrorInternal),
			status:   http.StatusInternalServerError,
			wantBody: `{"detail":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, &fakeUserService{registerErr: tt.err})

			rec := do(h, http.MethodPost, "/auth/register", registerBody)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRegisterHandler_RequestShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `email=a@b.co`},
		{name: "bad email", body: `{"email":"not-an-email","full_name":"A","password":"GoodPass1!","confirm_password":"GoodPass1!"}`},
		{name: "missing email", body: `{"full_name":"A","password":"GoodPass1!","confirm_password":"GoodPass1!"}`},
		{name: "long name", body: `{"email":"a@b.co","full_name":"` + strings.Repeat("n", 29) + `","password":"GoodPass1!","confirm_password":"GoodPass1!"}`},
		{name: "blank name", body: `{"email":"a@b.co","full_name":"  ","password":"GoodPass1!","confirm_password":"GoodPass1!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeUserService{}
			h, _ := newTestRouter(t, svc)

			rec := do(h, http.MethodPost, "/auth/register", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.IsType(t, "", body["detail"])
			assert.Empty(t, svc.registered, "service must not be called")
		})
	}
}

func TestLoginHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeUserService{loginOut: &models.Token{AccessToken: "tok", TokenType: "Bearer"}}
		h, _ := newTestRouter(t, svc)

		rec := do(h, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"GoodPass1!"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"access_token":"tok","token_type":"Bearer"}`, rec.Body.String())
	})

	t.Run("unauthorized", func(t *testing.T) {
		h, m := newTestRouter(t, &fakeUserService{loginErr: common.ErrorUnauthorized})

		rec := do(h, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"detail":"Incorrect email or password"}`, rec.Body.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues(metrics.OperationLogin, metrics.OutcomeRejected)))
	})

	t.Run("internal", func(t *testing.T) {
		h, _ := newTestRouter(t, &fakeUserService{loginErr: fmt.Errorf("%w: db down", common.ErrorInternal)})

		rec := do(h, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"GoodPass1!"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
	})

	t.Run("invalid email", func(t *testing.T) {
		h, _ := newTestRouter(t, &fakeUserService{})

		rec := do(h, http.MethodPost, "/auth/login", `{"email":"alice","password":"GoodPass1!"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestBookHandler(t *testing.T) {
	alice := &models.User{Email: "alice@example.com", FullName: "Alice", IsActive: true}
	svc := &fakeUserService{fakeResolver: fakeResolver{users: map[string]*models.User{"good": alice}}}
	h, _ := newTestRouter(t, svc)

	t.Run("authorized", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/book/2", "", "Authorization", "Bearer good")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"working"}`, rec.Body.String())
	})

	t.Run("non integer id", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/book/abc", "", "Authorization", "Bearer good")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("gate runs before id check", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/book/abc", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/book/2", "", "Authorization", "Bearer test_token1243^&5")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})
}

func TestMeHandler(t *testing.T) {
	alice := &models.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: []byte("$2a$hash"), IsActive: true}
	svc := &fakeUserService{fakeResolver: fakeResolver{users: map[string]*models.User{"good": alice}}}
	h, _ := newTestRouter(t, svc)

	rec := do(h, http.MethodGet, "/users/me", "", "Authorization", "Bearer good")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"alice@example.com","full_name":"Alice"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestHealthCheckHandler(t *testing.T) {
	h, _ := newTestRouter(t, &fakeUserService{})

	rec := do(h, http.MethodGet, "/healthCheck", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Site Working"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, &fakeUserService{})

	rec := do(h, http.MethodGet, "/auth/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, &fakeUserService{})

	do(h, http.MethodGet, "/healthCheck", "")
	rec := do(h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gophbooks_http_requests_total{method="GET",route="GET /healthCheck",status="200"} 1`)
}

func TestRegister_InternalErrorLogsCode(t *testing.T) {
	logs := &syncBuffer{}
	svc := &fakeUserService{
		registerErr: oops.Code("USER_CREATE_FAILED").With("dialect", "sqlite3").Wrap(errors.New("disk I/O error")),
	}
	h := NewRouter(&RouterConfig{Users: svc, Logger: bufferLogger(logs), Metrics: metrics.New()})

	rec := do(h, http.MethodPost, "/auth/register", registerBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk I/O")

	out := logs.String()
	assert.Contains(t, out, `"msg":"register failed"`)
	assert.Contains(t, out, `"code":"USER_CREATE_FAILED"`)
	assert.Contains(t, out, `"dialect":"sqlite3"`)
	assert.NotContains(t, out, "GoodPass1!")
}

func TestErrorFields_PlainError(t *testing.T) {
	kv := errorFields(context.Background(), errors.New("boom"))
	assert.Equal(t, []any{"request_id", "", "error", "boom"}, kv)
}
