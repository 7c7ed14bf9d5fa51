package core

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/signalsfoundry/radiomobile/model"
	"github.com/signalsfoundry/radiomobile/orderedmap"
)

const sectionUnits = "active_units_information"

var unitColumns = []string{"Name", "Location", "Elevation"}

var leadingNumberRe = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)

// parseUnits reads the units table and projects every unit against the
// first one.
func parseUnits(lines []string) (*orderedmap.Map[string, model.Unit], error) {
	records, err := ParseTable(lines, unitColumns)
	if err != nil {
		return nil, inSection(err, sectionUnits)
	}

	units := orderedmap.New[string, model.Unit]()
	for _, rec := range records {
		name := rec["name"]
		if name == "" {
			return nil, formatErrorf(sectionUnits, rec["location"], "unit without name")
		}
		if units.Has(name) {
			return nil, formatErrorf(sectionUnits, name, "duplicate unit")
		}
		coords, err := DecodeCoordinate(rec["location"])
		if err != nil {
			return nil, inSection(err, sectionUnits)
		}
		elevation, err := parseElevation(rec["elevation"])
		if err != nil {
			return nil, err
		}
		units.Set(name, model.Unit{
			Name:      name,
			Location:  rec["location"],
			Coords:    coords,
			Elevation: elevation,
		})
	}

	if units.Len() == 0 {
		return units, nil
	}
	ref := NewReferenceFrame(units.Values()[0].Coords)
	for name, u := range units.All() {
		u.Meters = ref.Project(u.Coords)
		units.Set(name, u)
	}
	return units, nil
}

// parseElevation reads the number at the start of a cell like "3420.0m"
// and truncates it to whole metres.
func parseElevation(cell string) (int, error) {
	num := leadingNumberRe.FindString(cell)
	if num == "" {
		num = cell
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &ValueError{Field: "elevation", Value: cell, Err: err}
	}
	return int(v), nil
}

// inSection fills in the section of a FormatError raised by a helper that
// does not know where it was called from.
func inSection(err error, section string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Section == "" {
		fe.Section = section
	}
	return err
}
