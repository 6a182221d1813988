package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/v1/products/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/products/:id", "204"))
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/products/:id", "204"))
	assert.Equal(t, before+2, after)
}

func TestObserveCheckout(t *testing.T) {
	before := testutil.ToFloat64(ordersPlaced.WithLabelValues("ok"))
	ObserveCheckout("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(ordersPlaced.WithLabelValues("ok")))
}

func TestHandler_ServesMetrics(t *testing.T) {
	IncBlobDeleteFailure()
	e := echo.New()
	e.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shop_blob_delete_failures_total"))
}
