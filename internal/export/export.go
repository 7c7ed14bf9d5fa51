// Package export writes report tables in spreadsheet formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"

	"github.com/signalsfoundry/radiomobile/model"
)

// LinkRow is one link of one net, flattened for CSV.
type LinkRow struct {
	Net        string `csv:"net"`
	PeerA      string `csv:"peer_a"`
	PeerB      string `csv:"peer_b"`
	Quality    int    `csv:"quality"`
	MaxQuality int    `csv:"max_quality"`
	DistanceM  int    `csv:"distance_m"`
}

// LinkRows flattens the links of every net in report order.
func LinkRows(r *model.Report) []LinkRow {
	var rows []LinkRow
	for name, n := range r.Nets.All() {
		for _, l := range n.Links {
			rows = append(rows, LinkRow{
				Net:        name,
				PeerA:      l.Peers[0],
				PeerB:      l.Peers[1],
				Quality:    l.Quality,
				MaxQuality: n.MaxQuality,
				DistanceM:  l.Distance,
			})
		}
	}
	return rows
}

// LinksCSV renders LinkRows with a header line.
func LinksCSV(r *model.Report) ([]byte, error) {
	rows := LinkRows(r)
	if len(rows) == 0 {
		header, err := csvutil.Header(LinkRow{}, "csv")
		if err != nil {
			return nil, err
		}
		return []byte(strings.Join(header, ",") + "\n"), nil
	}
	return csvutil.Marshal(rows)
}

// ReadLinksCSV parses the output of LinksCSV.
func ReadLinksCSV(data []byte) ([]LinkRow, error) {
	var rows []LinkRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode links csv: %w", err)
	}
	return rows, nil
}

// Sheet names of the workbook written by WriteXLSX.
const (
	SheetUnits   = "units"
	SheetSystems = "systems"
	SheetMembers = "members"
	SheetLinks   = "links"
)

// WriteXLSX writes a workbook with one sheet per report table.
func WriteXLSX(w io.Writer, r *model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetUnits); err != nil {
		return err
	}
	for _, name := range []string{SheetSystems, SheetMembers, SheetLinks} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	units := [][]any{{"Name", "Location", "Latitude", "Longitude", "Elevation (m)", "X (m)", "Y (m)"}}
	for name, u := range r.Units.All() {
		units = append(units, []any{name, u.Location, u.Coords.Latitude, u.Coords.Longitude, u.Elevation, u.Meters.X, u.Meters.Y})
	}

	systems := [][]any{{"Name", "Pwr Tx", "Loss", "Loss (+)", "Rx thr.", "Ant. G.", "Ant. Type"}}
	for name, s := range r.Systems.All() {
		systems = append(systems, []any{name, s.PwrTx, s.Loss, s.LossPlus, s.RxThr, s.AntG, s.AntType})
	}

	members := [][]any{{"Net", "Member", "Role", "System", "Antenna"}}
	for net, n := range r.Nets.All() {
		for name, m := range n.Members.All() {
			members = append(members, []any{net, name, string(m.Role), m.System, m.Antenna})
		}
	}

	links := [][]any{{"Net", "Peer A", "Peer B", "Quality", "Max quality", "Distance (m)"}}
	for _, l := range LinkRows(r) {
		links = append(links, []any{l.Net, l.PeerA, l.PeerB, l.Quality, l.MaxQuality, l.DistanceM})
	}

	for sheet, rows := range map[string][][]any{
		SheetUnits:   units,
		SheetSystems: systems,
		SheetMembers: members,
		SheetLinks:   links,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
