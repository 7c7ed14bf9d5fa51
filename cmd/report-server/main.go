// Command report-server keeps a catalog of parsed RadioMobile reports and
// serves it over gRPC, with Prometheus metrics on a separate HTTP listener.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/signalsfoundry/radiomobile/internal/config"
	"github.com/signalsfoundry/radiomobile/internal/ingest"
	"github.com/signalsfoundry/radiomobile/internal/logging"
	"github.com/signalsfoundry/radiomobile/internal/nbi"
	"github.com/signalsfoundry/radiomobile/internal/observability"
	"github.com/signalsfoundry/radiomobile/kb"
)

func main() {
	configPath := flag.String("config", "", "optional YAML configuration file")
	grpcAddr := flag.String("grpc-addr", "", "TCP address the gRPC server listens on (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	reports := flag.String("reports", "", "comma separated report files to serve (overrides config)")
	reload := flag.Duration("reload", -1, "report reload interval, 0 disables (overrides config)")
	encoding := flag.String("encoding", "", "report encoding (overrides config)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error(ctx, "failed to load configuration", logging.Err(err))
			os.Exit(1)
		}
		cfg = loaded
	}
	if *grpcAddr != "" {
		cfg.GRPCAddr = *grpcAddr
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *reports != "" {
		cfg.Reports = strings.Split(*reports, ",")
	}
	if *reload >= 0 {
		cfg.ReloadInterval = *reload
	}
	if *encoding != "" {
		cfg.Encoding = *encoding
	}
	cfg.Tracing = observability.ApplyTracingEnv(cfg.Tracing)
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "invalid configuration", logging.Err(err))
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(stopCtx, cfg, log, lis); err != nil {
		log.Error(ctx, "report server failed", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then stops gracefully. Reports that
// fail to load at startup are logged and retried on the next reload.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	enc, err := ingest.ParseEncoding(cfg.Encoding)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewReportCollector(nil)
	if err != nil {
		return err
	}
	metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log)

	store := kb.NewKnowledgeBase()
	loader := ingest.NewLoader(store, collector, log, enc)
	if err := loader.Reload(ctx, cfg.Reports); err != nil {
		log.Warn(ctx, "some reports failed to load", logging.Err(err))
	}
	log.Info(ctx, "catalog ready", logging.Int("reports", store.Len()))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	var watchDone <-chan struct{}
	if cfg.ReloadInterval > 0 && len(cfg.Reports) > 0 {
		watchDone = loader.Watch(watchCtx, cfg.Reports, cfg.ReloadInterval)
	}

	server := grpc.NewServer(nbi.ServerOptions(log, collector)...)
	nbi.NewReportService(store, loader, log).Register(server)

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting report gRPC server", logging.String("addr", lis.Addr().String()))
	go func() {
		serveErr <- server.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	log.Info(context.Background(), "shutting down report server")
	server.GracefulStop()
	stopWatch()
	if watchDone != nil {
		<-watchDone
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func serveMetrics(addr string, collector *observability.ReportCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
