package obs

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Idempotent(t *testing.T) {
	require.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestCounters(t *testing.T) {
	Init()

	before := testutil.ToFloat64(verificationOutcomes.WithLabelValues("ok"))
	CountVerification("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(verificationOutcomes.WithLabelValues("ok")))

	before = testutil.ToFloat64(redemptionOutcomes.WithLabelValues("rejected"))
	CountRedemption("rejected")
	assert.Equal(t, before+1, testutil.ToFloat64(redemptionOutcomes.WithLabelValues("rejected")))
}

func TestHandler_Serves(t *testing.T) {
	Init()
	ObserveRequest("GET", "/ping", "200", 0.01)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
