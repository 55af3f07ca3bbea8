package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("healthz")
		IncRealtime("bookings", "BookingUpdated")
	})

	before := testutil.ToFloat64(backendRequests.WithLabelValues("GET /getApplicants", "ok"))
	ObserveBackend("GET /getApplicants", "ok", 20*time.Millisecond)
	after := testutil.ToFloat64(backendRequests.WithLabelValues("GET /getApplicants", "ok"))
	assert.Equal(t, before+1, after)
}
