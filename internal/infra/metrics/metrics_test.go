package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveAuth(t *testing.T) {
	m := New()

	m.ObserveAuth("login", nil)
	m.ObserveAuth("login", customErrors.ErrInvalidCredentials)
	m.ObserveAuth("login", customErrors.ErrInvalidCredentials)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("login", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("login", "invalid_credentials")))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("POST", "/api/login", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/login", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.latency))
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"success":             nil,
		"invalid_argument":    customErrors.NewInvalidArgument("x"),
		"already_exists":      customErrors.ErrAlreadyExists,
		"invalid_token":       customErrors.ErrInvalidToken,
		"not_found":           customErrors.ErrNotFound,
		"unavailable":         customErrors.WrapUnavailable(errors.New("refused"), "op"),
		"internal":            errors.New("boom"),
		"invalid_credentials": customErrors.ErrInvalidCredentials,
	}
	for want, err := range cases {
		assert.Equal(t, want, Outcome(err))
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAuth("register", nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `auth_operations_total{operation="register",outcome="success"} 1`)
}
