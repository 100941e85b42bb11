package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/tasks/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	before := counterValue(t, httpRequestsTotal.WithLabelValues("GET", "/api/tasks/:id", "204"))
	unmatchedBefore := counterValue(t, httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	for _, path := range []string{"/api/tasks/a", "/api/tasks/b", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, counterValue(t, httpRequestsTotal.WithLabelValues("GET", "/api/tasks/:id", "204")))
	assert.Equal(t, unmatchedBefore+1, counterValue(t, httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveAuthEvent(t *testing.T) {
	before := counterValue(t, authEvents.WithLabelValues("login", ResultFailure))
	ObserveAuthEvent("login", ResultFailure)
	assert.Equal(t, before+1, counterValue(t, authEvents.WithLabelValues("login", ResultFailure)))
}

func TestObserveTaskOperation(t *testing.T) {
	before := counterValue(t, taskOperations.WithLabelValues("delete", ResultRejected))
	ObserveTaskOperation("delete", ResultRejected)
	assert.Equal(t, before+1, counterValue(t, taskOperations.WithLabelValues("delete", ResultRejected)))
}
