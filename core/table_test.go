package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestKeyify(t *testing.T) {
	tests := map[string]string{
		"Name":                "name",
		"Pwr Tx":              "pwr_tx",
		"Loss (+)":            "loss_(+)",
		"Rx thr.":             "rx_thr",
		"Ant. G.":             "ant_g",
		"Ant.  Type":          "ant_type",
		"Net members:":        "net_members",
		"#  1  2  3":          "#_1_2_3",
		"General information": "general_information",
	}
	for in, want := range tests {
		if got := Keyify(in); got != want {
			t.Errorf("Keyify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindColumns(t *testing.T) {
	header := "Name    Loss    Loss (+)   Rx thr."
	got, err := FindColumns(header, []string{"Name", "Loss", "Loss (+)", "Rx thr."})
	if err != nil {
		t.Fatalf("FindColumns error: %v", err)
	}
	want := []Column{{"Name", 0}, {"Loss", 8}, {"Loss (+)", 16}, {"Rx thr.", 27}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindColumns = %+v, want %+v", got, want)
	}
}

func TestFindColumnsCountsCharacters(t *testing.T) {
	// "°" is two bytes in UTF-8 but one column.
	header := "Pos°  Elev"
	got, err := FindColumns(header, []string{"Pos°", "Elev"})
	if err != nil {
		t.Fatalf("FindColumns error: %v", err)
	}
	if got[1].Offset != 6 {
		t.Fatalf("Elev offset = %d, want 6", got[1].Offset)
	}
}

func TestFindColumnsMissing(t *testing.T) {
	_, err := FindColumns("Name   Location", []string{"Name", "Elevation"})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FormatError", err)
	}
	// Fields must appear in order.
	if _, err := FindColumns("Location Name", []string{"Name", "Location"}); err == nil {
		t.Fatalf("out of order columns should fail")
	}
}

func TestParseTableSlicesByOffset(t *testing.T) {
	lines := []string{
		"",
		"Name                Location            Elevation",
		"JOSJOJAHUARINA 1    13°37'55\"S x y z    3900.0m",
		"",
		"SHORT",
		"B                   somewhere",
	}
	got, err := ParseTable(lines, []string{"Name", "Location", "Elevation"})
	if err != nil {
		t.Fatalf("ParseTable error: %v", err)
	}
	want := []Record{
		{"name": "JOSJOJAHUARINA 1", "location": "13°37'55\"S x y z", "elevation": "3900.0m"},
		{"name": "SHORT", "location": "", "elevation": ""},
		{"name": "B", "location": "somewhere", "elevation": ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseTable = %v, want %v", got, want)
	}
}

func TestParseTableNoHeader(t *testing.T) {
	_, err := ParseTable([]string{"", "  "}, []string{"Name"})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FormatError", err)
	}
}
