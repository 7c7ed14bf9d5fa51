package nbi

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/radiomobile/internal/logging"
	"github.com/signalsfoundry/radiomobile/internal/observability"
)

// ServerOptions returns the interceptor chain and stats handler shared by
// every report server: request ids first, then tracing, metrics and status
// mapping. collector may be nil.
func ServerOptions(log logging.Logger, collector *observability.ReportCollector) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RequestIDUnaryServerInterceptor(log),
			TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
			StatusUnaryServerInterceptor(),
		),
	}
}
