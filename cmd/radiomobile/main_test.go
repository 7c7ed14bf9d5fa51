package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixture = "../../core/testdata/report.txt"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunOutputs(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"text", "JOSJOJAHUARINA 1 <-> JOSJOJAHUARINA 2"},
		{"summary", "Netfile: CUSCO-NW.NET"},
		{"csv", "net,peer_a,peer_b,quality,max_quality,distance_m"},
		{"scenario", `"interface_a": "URPAY/if1"`},
	}
	for _, tc := range tests {
		t.Run(tc.output, func(t *testing.T) {
			code, out, errOut := runCLI(t, "-output", tc.output, fixture)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr = %s", code, errOut)
			}
			if !strings.Contains(out, tc.want) {
				t.Fatalf("output missing %q:\n%s", tc.want, out)
			}
		})
	}
}

func TestRunJSONKeepsUnitOrder(t *testing.T) {
	code, out, errOut := runCLI(t, "-output", "json", fixture)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	units := string(doc["units"])
	if strings.Index(units, `"URPAY"`) > strings.Index(units, `"JOSJOJAHUARINA 2"`) {
		t.Fatalf("units out of file order: %s", units)
	}
}

func TestRunMembers(t *testing.T) {
	code, out, errOut := runCLI(t, "-net", "Josjo1 AP - Huiracochan, Ur [wimax]", "-roles", "Terminal, Slave", fixture)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if out != "URPAY\nHUIRACOCHAN\n" {
		t.Fatalf("members = %q", out)
	}

	if code, _, _ := runCLI(t, "-net", "nope", fixture); code != 1 {
		t.Fatalf("unknown net exit code = %d, want 1", code)
	}
	if code, _, _ := runCLI(t, "-net", "Josjo1-Josjo2 [wifi]", "-roles", "Boss", fixture); code != 1 {
		t.Fatalf("unknown role exit code = %d, want 1", code)
	}
}

func TestRunXLSXToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	code, out, errOut := runCLI(t, "-output", "xlsx", "-o", path, fixture)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if out != "" {
		t.Fatalf("stdout should stay empty with -o, got %d bytes", len(out))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("xlsx output is not a zip archive")
	}
}

func TestRunFailures(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no arguments exit code = %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "-encoding", "ebcdic", fixture); code != 2 {
		t.Fatalf("bad encoding exit code = %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "-output", "pdf", fixture); code != 1 {
		t.Fatalf("unknown output exit code = %d, want 1", code)
	}
	if code, _, _ := runCLI(t, filepath.Join(t.TempDir(), "missing.txt")); code != 1 {
		t.Fatalf("missing file exit code = %d, want 1", code)
	}

	bad := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(bad, []byte("garbage\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if code, _, _ := runCLI(t, bad); code != 1 {
		t.Fatalf("bad report exit code = %d, want 1", code)
	}
}
