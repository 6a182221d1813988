package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	ordersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_orders_placed_total",
		Help: "Checkout attempts by result",
	}, []string{"result"})

	imagesUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_images_uploaded_total",
		Help: "Image uploads by result",
	}, []string{"result"})

	blobDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_blob_delete_failures_total",
		Help: "Best-effort blob deletions that failed and were skipped",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveCheckout counts a checkout by result (ok, empty_basket,
// missing_product, error).
func ObserveCheckout(result string) {
	ordersPlaced.WithLabelValues(result).Inc()
}

// ObserveImageUpload counts an upload by result (ok, invalid, error).
func ObserveImageUpload(result string) {
	imagesUploaded.WithLabelValues(result).Inc()
}

// IncBlobDeleteFailure counts a swallowed blob deletion error.
func IncBlobDeleteFailure() {
	blobDeleteFailures.Inc()
}

// Middleware records count and latency per route template (c.Path()), so
// /v1/products/1 and /v1/products/2 share one series.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = 500
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			ObserveHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
