package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPointOperation(t *testing.T) {
	before := testutil.ToFloat64(pointOperations.WithLabelValues("CHARGE", "exceed"))

	RecordPointOperation("CHARGE", "exceed", time.Millisecond)

	after := testutil.ToFloat64(pointOperations.WithLabelValues("CHARGE", "exceed"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesPointMetrics(t *testing.T) {
	RecordPointOperation("USE", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "point_service_points_operations_total"))
}

func TestInstrumentHandlerUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "418"))

	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/point/1", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "418")))
}
