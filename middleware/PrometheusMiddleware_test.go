package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Netcracker/qubership-marketplace-cleanup/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(PrometheusMiddleware)
	r.HandleFunc("/api/v1/cleanup/jobs/{jobName}/run", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodPost)

	counter := metrics.TotalRequests.WithLabelValues("/api/v1/cleanup/jobs/{jobName}/run", "202", http.MethodPost)
	before := testutil.ToFloat64(counter)

	for _, job := range []string{"expire_listings", "cleanup_reports"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cleanup/jobs/"+job+"/run", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
