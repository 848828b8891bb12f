package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeease_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homeease_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homeease_bookings_created_total",
		Help: "Bookings created",
	})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeease_booking_transitions_total",
		Help: "Booking status transitions",
	}, []string{"from", "to"})

	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeease_auth_failures_total",
		Help: "Rejected logins and bearer tokens by error kind",
	}, []string{"kind"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeease_event_publish_failures_total",
		Help: "Events that could not be published",
	}, []string{"topic"})
)

// Middleware records request count and latency keyed by the matched route
// pattern, so path parameters do not explode label cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		var ae *apperr.Error
		switch {
		case errors.As(err, &ae):
			status = ae.HTTPStatus()
		case errors.As(err, &fe):
			status = fe.Code
		case err != nil:
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		method := c.Method()

		HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
