package telemetry

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-service/internal/platform/logging"
)

const meterName = "github.com/jsamuelsen/quote-service/telemetry"

// HeaderTraceID is set on every traced response.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests no route matched, keeping raw paths out of
// metric attributes.
const unmatchedRoute = "unmatched"

type serverMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newServerMetrics(meter metric.Meter) (*serverMetrics, error) {
	var (
		m    serverMetrics
		errs [3]error
	)

	m.duration, errs[0] = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	m.requests, errs[1] = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("HTTP requests by route and status"),
	)
	m.inFlight, errs[2] = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("HTTP requests being served"),
	)

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}

	return &m, nil
}

// Middleware returns otelgin tracing followed by Instrument on the global
// meter provider. Register both with engine.Use(telemetry.Middleware(name)...).
func Middleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		Instrument(otel.Meter(meterName)),
	}
}

// Instrument records request metrics on meter, echoes the trace ID in
// X-Trace-ID and adds it to the request logger. It must run after the
// tracing middleware so the span already exists. If the instruments cannot
// be created the error goes to the otel error handler and only the trace
// tagging remains.
func Instrument(meter metric.Meter) gin.HandlerFunc {
	m, err := newServerMetrics(meter)
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()

		tagTrace(c)

		if m == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		method := attribute.String("http.method", c.Request.Method)
		route := attribute.String("http.route", routeOf(c))

		m.inFlight.Add(ctx, 1, metric.WithAttributes(method, route))
		defer m.inFlight.Add(ctx, -1, metric.WithAttributes(method, route))

		c.Next()

		done := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.requests.Add(ctx, 1, done)
	}
}

func tagTrace(c *gin.Context) {
	ctx := c.Request.Context()

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return
	}

	traceID := sc.TraceID().String()
	c.Header(HeaderTraceID, traceID)
	c.Request = c.Request.WithContext(logging.WithTraceID(ctx, traceID))
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}

	return unmatchedRoute
}
