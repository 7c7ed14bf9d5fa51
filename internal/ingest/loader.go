// Package ingest reads report files, decodes them, parses them and keeps
// the catalog up to date.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/radiomobile/core"
	"github.com/signalsfoundry/radiomobile/internal/logging"
	"github.com/signalsfoundry/radiomobile/internal/observability"
	"github.com/signalsfoundry/radiomobile/kb"
	"github.com/signalsfoundry/radiomobile/model"
	"github.com/signalsfoundry/radiomobile/timectrl"
)

const tracerName = "github.com/signalsfoundry/radiomobile/internal/ingest"

// Loader turns report files into catalog entries.
type Loader struct {
	store    *kb.KnowledgeBase
	metrics  *observability.ReportCollector
	log      logging.Logger
	encoding Encoding
	tracer   trace.Tracer
}

// NewLoader wires a loader to the catalog. metrics and log may be nil. The
// loader keeps the catalog gauges of metrics in sync with store.
func NewLoader(store *kb.KnowledgeBase, metrics *observability.ReportCollector, log logging.Logger, enc Encoding) *Loader {
	if log == nil {
		log = logging.Noop()
	}
	l := &Loader{
		store:    store,
		metrics:  metrics,
		log:      log,
		encoding: enc,
		tracer:   otel.Tracer(tracerName),
	}
	if store != nil && metrics != nil {
		store.Subscribe(l.onCatalogEvent)
	}
	return l
}

func (l *Loader) onCatalogEvent(ev kb.Event) {
	l.metrics.SetReports(l.store.Len())
	if ev.Type == kb.EventReportRemoved {
		l.metrics.DeleteReport(ev.Entry.Name)
		return
	}
	r := ev.Entry.Report
	l.metrics.SetReportCounts(ev.Entry.Name, r.Units.Len(), r.Systems.Len(), r.Nets.Len(), countLinks(r))
}

// LoadFile reads, parses and stores the report at path under the path name.
// A file whose content did not change since the last load is not parsed
// again.
func (l *Loader) LoadFile(ctx context.Context, path string) (kb.Entry, error) {
	ctx, span := l.tracer.Start(ctx, "ingest.LoadFile", trace.WithAttributes(attribute.String("report.path", path)))
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		l.metrics.ObserveParse(observability.ParseReadError, 0)
		span.SetStatus(codes.Error, err.Error())
		return kb.Entry{}, fmt.Errorf("read report %s: %w", path, err)
	}

	if prev, err := l.store.GetReport(path); err == nil && prev.Digest == digest(data) {
		l.log.Debug(ctx, "report unchanged", logging.Report(path))
		span.SetAttributes(attribute.Bool("report.unchanged", true))
		return prev, nil
	}
	return l.LoadBytes(ctx, path, data)
}

// LoadBytes parses data and stores it under name.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (kb.Entry, error) {
	report, err := l.ParseBytes(ctx, name, data)
	if err != nil {
		return kb.Entry{}, err
	}
	entry, err := l.store.PutReport(name, digest(data), report)
	if err != nil {
		return kb.Entry{}, fmt.Errorf("store report %s: %w", name, err)
	}
	l.log.Info(ctx, "report loaded",
		logging.Report(name),
		logging.ReportID(entry.ID),
		logging.Int("units", report.Units.Len()),
		logging.Int("nets", report.Nets.Len()),
	)
	return entry, nil
}

// ParseBytes decodes and parses data without touching the catalog.
func (l *Loader) ParseBytes(ctx context.Context, name string, data []byte) (*model.Report, error) {
	_, span := l.tracer.Start(ctx, "ingest.Parse", trace.WithAttributes(
		attribute.String("report.name", name),
		attribute.Int("report.bytes", len(data)),
	))
	defer span.End()

	start := time.Now()
	text, err := Decode(data, l.encoding)
	if err != nil {
		l.metrics.ObserveParse(observability.ParseReadError, time.Since(start))
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("decode report %s: %w", name, err)
	}
	report, err := core.ParseString(text)
	l.metrics.ObserveParse(parseResult(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, fmt.Errorf("parse report %s: %w", name, err)
	}
	span.SetAttributes(
		attribute.Int("report.units", report.Units.Len()),
		attribute.Int("report.nets", report.Nets.Len()),
	)
	return report, nil
}

// Reload loads every path. A failing path keeps its previous catalog entry;
// the failures are returned joined.
func (l *Loader) Reload(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if _, err := l.LoadFile(ctx, p); err != nil {
			l.log.Warn(ctx, "report reload failed", logging.Report(p), logging.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch reloads paths every interval until ctx is cancelled. The returned
// channel is closed when watching stops.
func (l *Loader) Watch(ctx context.Context, paths []string, interval time.Duration) <-chan struct{} {
	tc := timectrl.NewTimeController(time.Now(), interval)
	tc.AddListener(func(time.Time) {
		_ = l.Reload(ctx, paths)
	})
	return tc.Start(ctx, 0)
}

func parseResult(err error) string {
	var fe *core.FormatError
	var ve *core.ValueError
	switch {
	case err == nil:
		return observability.ParseOK
	case errors.As(err, &ve):
		return observability.ParseValueError
	case errors.As(err, &fe):
		return observability.ParseFormatError
	}
	return observability.ParseReadError
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func countLinks(r *model.Report) int {
	n := 0
	for _, net := range r.Nets.All() {
		n += len(net.Links)
	}
	return n
}
