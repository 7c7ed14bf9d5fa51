package nbi

import (
	"context"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/radiomobile/internal/ingest"
	"github.com/signalsfoundry/radiomobile/internal/logging"
	"github.com/signalsfoundry/radiomobile/internal/observability"
	"github.com/signalsfoundry/radiomobile/kb"
	"github.com/signalsfoundry/radiomobile/model"
)

const fixtureName = "cusco"

type serviceTestEnv struct {
	ctx     context.Context
	client  *Client
	store   *kb.KnowledgeBase
	metrics *observability.ReportCollector
	fixture []byte
}

func newServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	fixture, err := os.ReadFile("../../core/testdata/report.txt")
	if err != nil {
		cancel()
		t.Fatalf("read fixture: %v", err)
	}

	metrics, err := observability.NewReportCollector(prometheus.NewRegistry())
	if err != nil {
		cancel()
		t.Fatalf("NewReportCollector: %v", err)
	}
	store := kb.NewKnowledgeBase()
	loader := ingest.NewLoader(store, metrics, logging.Noop(), ingest.EncodingAuto)
	if _, err := loader.LoadBytes(ctx, fixtureName, fixture); err != nil {
		cancel()
		t.Fatalf("LoadBytes: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		t.Fatalf("net.Listen: %v", err)
	}
	server := grpc.NewServer(ServerOptions(logging.Noop(), metrics)...)
	NewReportService(store, loader, logging.Noop()).Register(server)
	go func() { _ = server.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		cancel()
		t.Fatalf("grpc.NewClient: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		server.GracefulStop()
		cancel()
	})

	return &serviceTestEnv{
		ctx:     ctx,
		client:  NewClient(conn),
		store:   store,
		metrics: metrics,
		fixture: fixture,
	}
}

func TestListReports(t *testing.T) {
	env := newServiceTestEnv(t)

	infos, err := env.client.ListReports(env.ctx)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("ListReports returned %d reports, want 1", len(infos))
	}
	entry, _ := env.store.GetReport(fixtureName)
	got := infos[0]
	if got.ID != entry.ID || got.Name != fixtureName || got.Digest != entry.Digest {
		t.Fatalf("ListReports[0] = %+v, want entry %s", got, entry.ID)
	}
	if got.Units != 4 || got.Systems != 7 || got.Nets != 2 {
		t.Fatalf("counts = %d/%d/%d, want 4/7/2", got.Units, got.Systems, got.Nets)
	}
	if !got.LoadedAt.Equal(entry.LoadedAt) {
		t.Fatalf("LoadedAt = %v, want %v", got.LoadedAt, entry.LoadedAt)
	}
}

func TestGetReportRoundTrip(t *testing.T) {
	env := newServiceTestEnv(t)

	got, err := env.client.GetReport(env.ctx, fixtureName)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	entry, _ := env.store.GetReport(fixtureName)
	want := entry.Report

	if !got.GeneratedOn.Equal(want.GeneratedOn) {
		t.Fatalf("GeneratedOn = %v, want %v", got.GeneratedOn, want.GeneratedOn)
	}
	if !reflect.DeepEqual(got.Units.Keys(), want.Units.Keys()) {
		t.Fatalf("unit order = %v, want %v", got.Units.Keys(), want.Units.Keys())
	}
	if !reflect.DeepEqual(got.Units.Values(), want.Units.Values()) {
		t.Fatalf("units differ after round trip")
	}
	if !reflect.DeepEqual(got.Systems.Values(), want.Systems.Values()) {
		t.Fatalf("systems differ after round trip")
	}
	for name, n := range want.Nets.All() {
		gn, ok := got.Nets.Get(name)
		if !ok {
			t.Fatalf("net %q missing after round trip", name)
		}
		if !reflect.DeepEqual(gn.Links, n.Links) || !reflect.DeepEqual(gn.Members.Items(), n.Members.Items()) {
			t.Fatalf("net %q differs after round trip", name)
		}
	}
}

func TestGetReportErrors(t *testing.T) {
	env := newServiceTestEnv(t)

	_, err := env.client.GetReport(env.ctx, "missing")
	if status.Code(err) != codes.NotFound {
		t.Fatalf("GetReport(missing) code = %v, want NotFound", status.Code(err))
	}
	_, err = env.client.GetReport(env.ctx, "")
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("GetReport(\"\") code = %v, want InvalidArgument", status.Code(err))
	}

	got := testutil.ToFloat64(env.metrics.RPCRequests.WithLabelValues("ReportService", "GetReport", codes.NotFound.String()))
	if got != 1 {
		t.Fatalf("NotFound GetReport count = %v, want 1", got)
	}
}

func TestGetReportByID(t *testing.T) {
	env := newServiceTestEnv(t)

	infos, err := env.client.ListReports(env.ctx)
	if err != nil || len(infos) != 1 {
		t.Fatalf("ListReports = %v, %v", infos, err)
	}
	id := infos[0].ID

	got, err := env.client.GetReport(env.ctx, id)
	if err != nil {
		t.Fatalf("GetReport(%s): %v", id, err)
	}
	if !reflect.DeepEqual(got.Nets.Keys(), []string{"Josjo1-Josjo2 [wifi]", "Josjo1 AP - Huiracochan, Ur [wimax]"}) {
		t.Fatalf("GetReport(id) nets = %v", got.Nets.Keys())
	}

	var header metadata.MD
	members, err := env.client.MembersWithRole(env.ctx, id, "Josjo1-Josjo2 [wifi]", model.CoordinatorRoles, grpc.Header(&header))
	if err != nil {
		t.Fatalf("MembersWithRole(id): %v", err)
	}
	if want := []string{"JOSJOJAHUARINA 1"}; !reflect.DeepEqual(members, want) {
		t.Fatalf("MembersWithRole(id) = %q, want %q", members, want)
	}
	if len(header.Get(requestIDMetadataKey)) == 0 {
		t.Fatalf("call options were not applied: header = %v", header)
	}
}

func TestParseReport(t *testing.T) {
	env := newServiceTestEnv(t)

	r, err := env.client.ParseReport(env.ctx, env.fixture)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if r.Units.Len() != 4 || r.Nets.Len() != 2 {
		t.Fatalf("ParseReport units/nets = %d/%d, want 4/2", r.Units.Len(), r.Nets.Len())
	}
	if env.store.Len() != 1 {
		t.Fatalf("ParseReport must not store the report")
	}

	_, err = env.client.ParseReport(env.ctx, []byte("not a report"))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("ParseReport(garbage) code = %v, want InvalidArgument", status.Code(err))
	}
	_, err = env.client.ParseReport(env.ctx, nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("ParseReport(nil) code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestMembersWithRole(t *testing.T) {
	env := newServiceTestEnv(t)
	const net = "Josjo1 AP - Huiracochan, Ur [wimax]"

	got, err := env.client.MembersWithRole(env.ctx, fixtureName, net, model.SubordinateRoles)
	if err != nil {
		t.Fatalf("MembersWithRole: %v", err)
	}
	if want := []string{"URPAY", "HUIRACOCHAN"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("MembersWithRole = %v, want %v", got, want)
	}

	all, err := env.client.MembersWithRole(env.ctx, fixtureName, net, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("MembersWithRole(no roles) = %v, %v, want 3 members", all, err)
	}

	none, err := env.client.MembersWithRole(env.ctx, fixtureName, net, []model.Role{model.RoleSlave})
	if err != nil || len(none) != 0 {
		t.Fatalf("MembersWithRole(Slave) = %v, %v, want empty", none, err)
	}

	if _, err := env.client.MembersWithRole(env.ctx, fixtureName, "nope", nil); status.Code(err) != codes.NotFound {
		t.Fatalf("unknown net code = %v, want NotFound", status.Code(err))
	}
	if _, err := env.client.MembersWithRole(env.ctx, fixtureName, net, []model.Role{"Boss"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("unknown role code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestRequestIDEchoed(t *testing.T) {
	env := newServiceTestEnv(t)

	ctx := metadata.AppendToOutgoingContext(env.ctx, requestIDMetadataKey, "req-42")
	var header metadata.MD
	if _, err := env.client.GetReport(ctx, fixtureName, grpc.Header(&header)); err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got := firstHeader(header, requestIDMetadataKey); got != "req-42" {
		t.Fatalf("x-request-id = %q, want req-42", got)
	}
}
