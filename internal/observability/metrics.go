// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the report server and the ingest service.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Parse outcomes used as the "result" label of radiomobile_report_parses_total.
const (
	ParseOK          = "ok"
	ParseFormatError = "format_error"
	ParseValueError  = "value_error"
	ParseReadError   = "read_error"
)

// ReportCollector bundles the Prometheus metrics of the report server and
// provides helpers to wire them into gRPC servers and HTTP handlers.
type ReportCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Parses        *prometheus.CounterVec
	ParseDuration prometheus.Histogram

	Reports        prometheus.Gauge
	ReportEntities *prometheus.GaugeVec
}

// NewReportCollector registers the metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil. Registering twice
// against the same registry reuses the existing collectors.
func NewReportCollector(reg prometheus.Registerer) (*ReportCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radiomobile_rpc_requests_total",
		Help: "Total number of handled report service RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "radiomobile_rpc_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radiomobile_rpc_duration_seconds",
		Help:    "Report service RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"}), "radiomobile_rpc_duration_seconds")
	if err != nil {
		return nil, err
	}

	parses, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radiomobile_report_parses_total",
		Help: "Report parse attempts, labeled by result.",
	}, []string{"result"}), "radiomobile_report_parses_total")
	if err != nil {
		return nil, err
	}

	parseDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radiomobile_report_parse_duration_seconds",
		Help:    "Time spent decoding and parsing one report.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}), "radiomobile_report_parse_duration_seconds")
	if err != nil {
		return nil, err
	}

	reports, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "radiomobile_reports",
		Help: "Number of reports currently held in the catalog.",
	}), "radiomobile_reports")
	if err != nil {
		return nil, err
	}

	entities, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "radiomobile_report_entities",
		Help: "Units, systems, nets and links of each catalog report.",
	}, []string{"report", "kind"}), "radiomobile_report_entities")
	if err != nil {
		return nil, err
	}

	return &ReportCollector{
		gatherer:       gatherer,
		RPCRequests:    requests,
		RPCDurations:   durations,
		Parses:         parses,
		ParseDuration:  parseDuration,
		Reports:        reports,
		ReportEntities: entities,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *ReportCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ReportCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveParse records one parse attempt.
func (c *ReportCollector) ObserveParse(result string, d time.Duration) {
	if c == nil {
		return
	}
	c.Parses.WithLabelValues(result).Inc()
	c.ParseDuration.Observe(d.Seconds())
}

// SetReportCounts publishes the entity counts of one catalog report.
func (c *ReportCollector) SetReportCounts(report string, units, systems, nets, links int) {
	if c == nil {
		return
	}
	c.ReportEntities.WithLabelValues(report, "units").Set(float64(units))
	c.ReportEntities.WithLabelValues(report, "systems").Set(float64(systems))
	c.ReportEntities.WithLabelValues(report, "nets").Set(float64(nets))
	c.ReportEntities.WithLabelValues(report, "links").Set(float64(links))
}

// DeleteReport drops the per-report series of a removed report.
func (c *ReportCollector) DeleteReport(report string) {
	if c == nil {
		return
	}
	c.ReportEntities.DeletePartialMatch(prometheus.Labels{"report": report})
}

// SetReports sets the catalog size gauge.
func (c *ReportCollector) SetReports(n int) {
	if c == nil {
		return
	}
	c.Reports.Set(float64(n))
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

// register adds c to reg, returning the already registered collector of the
// same type when one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	return register(reg, vec, name)
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	return register(reg, vec, name)
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	return register(reg, vec, name)
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	return register(reg, h, name)
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	return register(reg, gauge, name)
}
