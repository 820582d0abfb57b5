package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuth(t *testing.T) {
	m := New()

	m.RecordAuth(OperationLogin, OutcomeSuccess)
	m.RecordAuth(OperationLogin, OutcomeRejected)
	m.RecordAuth(OperationLogin, OutcomeRejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues(OperationLogin, OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues(OperationLogin, OutcomeRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues(OperationRegister, OutcomeError)))
}

func TestRecordRequest(t *testing.T) {
	m := New()

	m.RecordRequest(http.MethodPost, "POST /auth/login", http.StatusUnauthorized, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "POST /auth/login", "401")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestHandler_ExposesInstruments(t *testing.T) {
	m := New()
	m.RecordAuth(OperationRegister, OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "gophbooks_auth_attempts_total"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
