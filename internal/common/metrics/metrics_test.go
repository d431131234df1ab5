package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware)
	r.GET("/hooks/:name", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/hooks/:name", "204"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hooks/payment-charge", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/hooks/:name", "204"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware)

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
