package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menu_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menu_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "db_error" etc.
	)

	// Restaurant operation counter
	RestaurantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_restaurant_operations_total",
			Help: "Total number of restaurant operations",
		},
		[]string{"operation"}, // operation can be "create", "get", "update", "slug_lookup", etc.
	)

	// Dish operation counter
	DishOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_dish_operations_total",
			Help: "Total number of dish operations",
		},
		[]string{"operation"}, // operation can be "create", "list", "update", "delete", "toggle_visibility", etc.
	)

	// Upload operation counter
	UploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_uploads_total",
			Help: "Total number of asset uploads by kind",
		},
		[]string{"kind"}, // kind is "image" or "model"
	)

	// Upload error counter
	UploadErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_upload_errors_total",
			Help: "Total number of rejected or failed uploads",
		},
		[]string{"kind", "reason"}, // reason can be "invalid_type", "too_large", "write_failed" etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menu_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menu_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "menu_active_tokens",
			Help: "Number of currently active authentication tokens",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "menu_info",
			Help: "Information about the menu service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(RestaurantOperationCounter)
	prometheus.MustRegister(DishOperationCounter)
	prometheus.MustRegister(UploadCounter)
	prometheus.MustRegister(UploadErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError increments the authentication error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordRestaurantOperation increments the restaurant operation counter
func RecordRestaurantOperation(operation string) {
	RestaurantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordDishOperation increments the dish operation counter
func RecordDishOperation(operation string) {
	DishOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordUpload increments the upload counter for the given asset kind
func RecordUpload(kind string) {
	UploadCounter.With(prometheus.Labels{"kind": kind}).Inc()
}

// RecordUploadError increments the upload error counter
func RecordUploadError(kind, reason string) {
	UploadErrorCounter.With(prometheus.Labels{"kind": kind, "reason": reason}).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
