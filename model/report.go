package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/radiomobile/orderedmap"
)

// ErrNetNotFound is returned when a query names a net the report lacks.
var ErrNetNotFound = errors.New("net not found")

// Report is the parsed content of a RadioMobile text report. All
// collections keep the declaration order of the source file. A Report is
// built once by the parser and is not modified afterwards.
type Report struct {
	GeneratedOn        time.Time                       `json:"generated_on"`
	GeneralInformation []string                        `json:"general_information"`
	Units              *orderedmap.Map[string, Unit]   `json:"units"`
	Systems            *orderedmap.Map[string, System] `json:"systems"`
	Nets               *orderedmap.Map[string, Net]    `json:"nets"`
}

// NewReport returns a report with empty collections.
func NewReport() *Report {
	return &Report{
		Units:   orderedmap.New[string, Unit](),
		Systems: orderedmap.New[string, System](),
		Nets:    orderedmap.New[string, Net](),
	}
}

// MembersWithRole returns the members of the named net holding any of roles,
// in member table order. With no roles every member is returned.
func (r *Report) MembersWithRole(net string, roles ...Role) ([]string, error) {
	n, ok := r.Nets.Get(net)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNetNotFound, net)
	}
	return n.MembersWithRole(roles...), nil
}
