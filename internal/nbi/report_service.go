// Package nbi exposes the report catalog over gRPC. The service is defined
// in proto/radiomobile/v1/report_service.proto with protobuf well-known types
// as messages, so its descriptor is written out here and no generated message
// code is needed on either side.
package nbi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/radiomobile/internal/ingest"
	"github.com/signalsfoundry/radiomobile/internal/logging"
	"github.com/signalsfoundry/radiomobile/kb"
	"github.com/signalsfoundry/radiomobile/model"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "radiomobile.v1.ReportService"

// Full method names, as seen by interceptors.
const (
	MethodListReports        = "/" + ServiceName + "/ListReports"
	MethodGetReport          = "/" + ServiceName + "/GetReport"
	MethodParseReport        = "/" + ServiceName + "/ParseReport"
	MethodGetMembersWithRole = "/" + ServiceName + "/GetMembersWithRole"
)

// ReportServer is the server side of radiomobile.v1.ReportService.
//
// GetReport and ParseReport answer with the JSON document of the report.
// Stored reports are addressed by catalog name or by entry ID.
// GetMembersWithRole takes a struct with "report", "net" and an optional
// "roles" list.
type ReportServer interface {
	ListReports(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetReport(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	ParseReport(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetMembersWithRole(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

// ReportService serves the catalog held by a KnowledgeBase.
type ReportService struct {
	store  *kb.KnowledgeBase
	loader *ingest.Loader
	log    logging.Logger
}

// NewReportService wires the service to the catalog. loader parses
// ParseReport payloads; log may be nil.
func NewReportService(store *kb.KnowledgeBase, loader *ingest.Loader, log logging.Logger) *ReportService {
	if log == nil {
		log = logging.Noop()
	}
	return &ReportService{store: store, loader: loader, log: log}
}

// Register adds the service to srv.
func (s *ReportService) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(&reportServiceDesc, s)
}

func (s *ReportService) ensureReady() error {
	if s == nil || s.store == nil || s.loader == nil {
		return fmt.Errorf("report service is not initialised")
	}
	return nil
}

func (s *ReportService) ListReports(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, ToStatusError(err)
	}
	entries := s.store.ListReports()
	values := make([]*structpb.Value, 0, len(entries))
	for _, e := range entries {
		info, err := structpb.NewStruct(infoFromEntry(e).fields())
		if err != nil {
			return nil, ToStatusError(err)
		}
		values = append(values, structpb.NewStructValue(info))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *ReportService) GetReport(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, ToStatusError(err)
	}
	if req.GetValue() == "" {
		return nil, ToStatusError(fmt.Errorf("%w: report name is required", ErrInvalidArgument))
	}
	_, span := startChildSpan(ctx, "catalog.GetReport", req.GetValue())
	defer span.End()

	entry, err := s.lookup(req.GetValue())
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encodeReport(entry.Report)
}

// lookup resolves ref as a catalog name first and then as an entry ID.
func (s *ReportService) lookup(ref string) (kb.Entry, error) {
	if e, err := s.store.GetReport(ref); err == nil {
		return e, nil
	}
	if e, err := s.store.GetReportByID(ref); err == nil {
		return e, nil
	}
	return kb.Entry{}, fmt.Errorf("%w: report %q", ErrNotFound, ref)
}

func (s *ReportService) ParseReport(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, ToStatusError(err)
	}
	if len(req.GetValue()) == 0 {
		return nil, ToStatusError(fmt.Errorf("%w: report content is required", ErrInvalidArgument))
	}
	report, err := s.loader.ParseBytes(ctx, "rpc", req.GetValue())
	if err != nil {
		return nil, ToStatusError(err)
	}
	s.log.Debug(ctx, "report parsed",
		logging.Int("bytes", len(req.GetValue())),
		logging.Int("nets", report.Nets.Len()),
	)
	return encodeReport(report)
}

func (s *ReportService) GetMembersWithRole(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, ToStatusError(err)
	}
	q, err := membersQueryFromStruct(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	_, span := startChildSpan(ctx, "catalog.MembersWithRole", q.Report, attribute.String("net", q.Net))
	defer span.End()

	entry, err := s.lookup(q.Report)
	if err != nil {
		return nil, ToStatusError(err)
	}
	names, err := entry.Report.MembersWithRole(q.Net, q.Roles...)
	if err != nil {
		return nil, ToStatusError(err)
	}
	s.log.Debug(ctx, "members lookup",
		logging.Report(entry.Name),
		logging.ReportID(entry.ID),
		logging.Net(q.Net),
		logging.Int("members", len(names)),
	)
	values := make([]*structpb.Value, 0, len(names))
	for _, n := range names {
		values = append(values, structpb.NewStringValue(n))
	}
	return &structpb.ListValue{Values: values}, nil
}

func encodeReport(r *model.Report) (*wrapperspb.BytesValue, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("encode report: %w", err))
	}
	return wrapperspb.Bytes(data), nil
}

// ReportInfo describes a catalog entry without its content.
type ReportInfo struct {
	ID       string
	Name     string
	Digest   string
	LoadedAt time.Time
	Units    int
	Systems  int
	Nets     int
}

func infoFromEntry(e kb.Entry) ReportInfo {
	return ReportInfo{
		ID:       e.ID,
		Name:     e.Name,
		Digest:   e.Digest,
		LoadedAt: e.LoadedAt,
		Units:    e.Report.Units.Len(),
		Systems:  e.Report.Systems.Len(),
		Nets:     e.Report.Nets.Len(),
	}
}

func (i ReportInfo) fields() map[string]any {
	return map[string]any{
		"id":        i.ID,
		"name":      i.Name,
		"digest":    i.Digest,
		"loaded_at": i.LoadedAt.UTC().Format(time.RFC3339Nano),
		"units":     i.Units,
		"systems":   i.Systems,
		"nets":      i.Nets,
	}
}

func infoFromStruct(s *structpb.Struct) (ReportInfo, error) {
	f := s.GetFields()
	loaded, err := time.Parse(time.RFC3339Nano, f["loaded_at"].GetStringValue())
	if err != nil {
		return ReportInfo{}, fmt.Errorf("report info loaded_at: %w", err)
	}
	return ReportInfo{
		ID:       f["id"].GetStringValue(),
		Name:     f["name"].GetStringValue(),
		Digest:   f["digest"].GetStringValue(),
		LoadedAt: loaded,
		Units:    int(f["units"].GetNumberValue()),
		Systems:  int(f["systems"].GetNumberValue()),
		Nets:     int(f["nets"].GetNumberValue()),
	}, nil
}

type membersQuery struct {
	Report string
	Net    string
	Roles  []model.Role
}

func (q membersQuery) toStruct() (*structpb.Struct, error) {
	roles := make([]any, 0, len(q.Roles))
	for _, r := range q.Roles {
		roles = append(roles, string(r))
	}
	return structpb.NewStruct(map[string]any{
		"report": q.Report,
		"net":    q.Net,
		"roles":  roles,
	})
}

func membersQueryFromStruct(s *structpb.Struct) (membersQuery, error) {
	f := s.GetFields()
	q := membersQuery{
		Report: f["report"].GetStringValue(),
		Net:    f["net"].GetStringValue(),
	}
	if q.Report == "" || q.Net == "" {
		return q, fmt.Errorf("%w: report and net are required", ErrInvalidArgument)
	}
	for _, v := range f["roles"].GetListValue().GetValues() {
		role, err := model.ParseRole(v.GetStringValue())
		if err != nil {
			return q, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		q.Roles = append(q.Roles, role)
	}
	return q, nil
}

var reportServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReportServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListReports", Handler: listReportsHandler},
		{MethodName: "GetReport", Handler: getReportHandler},
		{MethodName: "ParseReport", Handler: parseReportHandler},
		{MethodName: "GetMembersWithRole", Handler: getMembersWithRoleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "radiomobile/v1/report_service.proto",
}

func listReportsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(ReportServer).ListReports(ctx, req.(*emptypb.Empty))
	}
	return unary(ctx, srv, in, MethodListReports, call, interceptor)
}

func getReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(ReportServer).GetReport(ctx, req.(*wrapperspb.StringValue))
	}
	return unary(ctx, srv, in, MethodGetReport, call, interceptor)
}

func parseReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(ReportServer).ParseReport(ctx, req.(*wrapperspb.BytesValue))
	}
	return unary(ctx, srv, in, MethodParseReport, call, interceptor)
}

func getMembersWithRoleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(ReportServer).GetMembersWithRole(ctx, req.(*structpb.Struct))
	}
	return unary(ctx, srv, in, MethodGetMembersWithRole, call, interceptor)
}

func unary(ctx context.Context, srv, in any, method string, call grpc.UnaryHandler, interceptor grpc.UnaryServerInterceptor) (any, error) {
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
	return interceptor(ctx, in, info, call)
}
