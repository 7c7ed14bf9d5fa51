package nbi

import (
	"os"
	"reflect"
	"regexp"
	"testing"

	"google.golang.org/protobuf/proto"
)

var rpcRe = regexp.MustCompile(`rpc (\w+)\(([\w.]+)\) returns \(([\w.]+)\);`)

func TestReportServiceDescMatchesProto(t *testing.T) {
	src, err := os.ReadFile("../../proto/radiomobile/v1/report_service.proto")
	if err != nil {
		t.Fatalf("read proto: %v", err)
	}
	if got := reportServiceDesc.Metadata; got != "radiomobile/v1/report_service.proto" {
		t.Fatalf("Metadata = %v", got)
	}

	rpcs := rpcRe.FindAllStringSubmatch(string(src), -1)
	if len(rpcs) != len(reportServiceDesc.Methods) {
		t.Fatalf("proto declares %d rpcs, descriptor has %d methods", len(rpcs), len(reportServiceDesc.Methods))
	}

	iface := reflect.TypeOf((*ReportServer)(nil)).Elem()
	for i, rpc := range rpcs {
		name, in, out := rpc[1], rpc[2], rpc[3]
		if got := reportServiceDesc.Methods[i].MethodName; got != name {
			t.Fatalf("method %d = %s, want %s", i, got, name)
		}
		m, ok := iface.MethodByName(name)
		if !ok {
			t.Fatalf("ReportServer has no method %s", name)
		}
		if got := messageName(m.Type.In(1)); got != in {
			t.Fatalf("%s request = %s, want %s", name, got, in)
		}
		if got := messageName(m.Type.Out(0)); got != out {
			t.Fatalf("%s response = %s, want %s", name, got, out)
		}
	}
}

func messageName(typ reflect.Type) string {
	msg := reflect.New(typ.Elem()).Interface().(proto.Message)
	return string(proto.MessageName(msg))
}
