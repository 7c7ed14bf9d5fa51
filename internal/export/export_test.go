package export

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/signalsfoundry/radiomobile/core"
	"github.com/signalsfoundry/radiomobile/model"
)

func loadFixture(t *testing.T) *model.Report {
	t.Helper()
	data, err := os.ReadFile("../../core/testdata/report.txt")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	r, err := core.ParseString(string(data))
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return r
}

func TestLinksCSV(t *testing.T) {
	data, err := LinksCSV(loadFixture(t))
	if err != nil {
		t.Fatalf("LinksCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"net,peer_a,peer_b,quality,max_quality,distance_m",
		"Josjo1-Josjo2 [wifi],JOSJOJAHUARINA 1,JOSJOJAHUARINA 2,45,50,14392",
		`"Josjo1 AP - Huiracochan, Ur [wimax]",URPAY,JOSJOJAHUARINA 1,50,50,10756`,
		`"Josjo1 AP - Huiracochan, Ur [wimax]",HUIRACOCHAN,JOSJOJAHUARINA 1,50,50,4696`,
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("LinksCSV =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}

	rows, err := ReadLinksCSV(data)
	if err != nil {
		t.Fatalf("ReadLinksCSV: %v", err)
	}
	if !reflect.DeepEqual(rows, LinkRows(loadFixture(t))) {
		t.Fatalf("ReadLinksCSV = %+v", rows)
	}
}

func TestLinksCSVWithoutLinks(t *testing.T) {
	data, err := LinksCSV(model.NewReport())
	if err != nil {
		t.Fatalf("LinksCSV: %v", err)
	}
	if got := string(data); got != "net,peer_a,peer_b,quality,max_quality,distance_m\n" {
		t.Fatalf("LinksCSV = %q, want header only", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, loadFixture(t)); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got, want := f.GetSheetList(), []string{SheetUnits, SheetSystems, SheetMembers, SheetLinks}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}

	units, err := f.GetRows(SheetUnits)
	if err != nil {
		t.Fatalf("GetRows(units): %v", err)
	}
	if len(units) != 5 {
		t.Fatalf("units rows = %d, want 5", len(units))
	}
	if got := units[2]; got[0] != "HUIRACOCHAN" || got[4] != "3650" || got[5] != "8263" || got[6] != "4671" {
		t.Fatalf("HUIRACOCHAN row = %v", got)
	}

	systems, err := f.GetRows(SheetSystems)
	if err != nil {
		t.Fatalf("GetRows(systems): %v", err)
	}
	if len(systems) != 8 || systems[1][1] != "0.032W" {
		t.Fatalf("systems rows = %v", systems)
	}

	links, err := f.GetRows(SheetLinks)
	if err != nil {
		t.Fatalf("GetRows(links): %v", err)
	}
	if len(links) != 4 || links[2][1] != "URPAY" || links[2][5] != "10756" {
		t.Fatalf("links rows = %v", links)
	}

	members, err := f.GetRows(SheetMembers)
	if err != nil {
		t.Fatalf("GetRows(members): %v", err)
	}
	if len(members) != 6 || members[5][2] != "Node" {
		t.Fatalf("members rows = %v", members)
	}
}
