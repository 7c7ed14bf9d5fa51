// Package summary renders the short plain-text digest of a report that is
// handed to simulation operators: where the net file came from, every node
// with its position, and every net with the distance of each member to the
// coordinator.
package summary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/signalsfoundry/radiomobile/core"
	"github.com/signalsfoundry/radiomobile/model"
)

// Mode is the link technology encoded in a net name, e.g. "Backbone [wifi]".
type Mode string

const (
	ModeWiFi  Mode = "wifi"
	ModeWiMAX Mode = "wimax"
)

// RoleNames maps a member role to the label used for mode.
func RoleNames(mode Mode) (coordinator, subordinate string, err error) {
	switch mode {
	case ModeWiFi:
		return "AP", "STA", nil
	case ModeWiMAX:
		return "BS", "SS", nil
	}
	return "", "", fmt.Errorf("unknown mode %q: known modes are %q and %q", mode, ModeWiFi, ModeWiMAX)
}

var (
	netNameRe = regexp.MustCompile(`^(.*?)\s*\[(.*)\]$`)
	netFileRe = regexp.MustCompile(`^Net file\s+.*\\(.*)$`)
)

// SplitNetName splits "Name [mode]" into its parts.
func SplitNetName(full string) (string, Mode, error) {
	m := netNameRe.FindStringSubmatch(full)
	if m == nil {
		return "", "", fmt.Errorf("net %q: name must look like 'Name [mode]'", full)
	}
	return m[1], Mode(m[2]), nil
}

// MemberMode returns the per-member mode carried by a system name, which is
// its last " - " separated part.
func MemberMode(system string) string {
	parts := strings.Split(system, " - ")
	return parts[len(parts)-1]
}

type section struct {
	title string
	lines []string
}

// Generate renders r. It fails when the general information lacks a net
// file line or when a net does not carry a known mode, exactly one
// coordinator and at least one subordinate.
func Generate(r *model.Report) (string, error) {
	info, err := generalInformation(r)
	if err != nil {
		return "", err
	}
	nets, err := netLines(r)
	if err != nil {
		return "", err
	}
	return render([]section{
		{title: "General information", lines: info},
		{title: "Nodes", lines: nodeLines(r)},
		{title: "Nets", lines: nets},
	}), nil
}

func generalInformation(r *model.Report) ([]string, error) {
	var netFile string
	for _, line := range r.GeneralInformation {
		if m := netFileRe.FindStringSubmatch(line); m != nil {
			netFile = m[1]
			break
		}
	}
	if netFile == "" {
		return nil, fmt.Errorf("general information has no net file line")
	}
	return []string{
		"Netfile: " + netFile,
		"Generated: " + r.GeneratedOn.Format("2006-01-02T15:04:05"),
	}, nil
}

func nodeLines(r *model.Report) []string {
	lines := make([]string, 0, r.Units.Len())
	for name, u := range r.Units.All() {
		lines = append(lines, strings.Join([]string{
			name,
			strconv.Itoa(u.Elevation),
			fmt.Sprintf("%0.5f,%0.5f", u.Coords.Latitude, u.Coords.Longitude),
			fmt.Sprintf("%d,%d", u.Meters.X, u.Meters.Y),
		}, "\t"))
	}
	return lines
}

func netLines(r *model.Report) ([]string, error) {
	var lines []string
	for full, n := range r.Nets.All() {
		name, mode, err := SplitNetName(full)
		if err != nil {
			return nil, err
		}
		coordLabel, subLabel, err := RoleNames(mode)
		if err != nil {
			return nil, fmt.Errorf("net %q: %w", full, err)
		}
		coord, err := n.Coordinator()
		if err != nil {
			return nil, err
		}
		if len(n.MembersWithRole(model.SubordinateRoles...)) == 0 {
			return nil, fmt.Errorf("net %q: need at least one subordinate", full)
		}
		coordUnit, ok := r.Units.Get(coord)
		if !ok {
			return nil, fmt.Errorf("net %q: coordinator %q is not a unit", full, coord)
		}

		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines,
			"== "+name, "",
			"Mode: "+string(mode), "",
			strings.Join([]string{"Node", "Role", "Distance to " + coordLabel, "Mode"}, "\t"),
		)
		for member, m := range n.Members.All() {
			unit, ok := r.Units.Get(member)
			if !ok {
				return nil, fmt.Errorf("net %q: member %q is not a unit", full, member)
			}
			distance, label := 0, coordLabel
			if member != coord {
				distance = core.GreatCircleDistance(coordUnit.Coords, unit.Coords)
			}
			if m.Role.IsSubordinate() {
				label = subLabel
			}
			lines = append(lines, strings.Join([]string{
				member, label, strconv.Itoa(distance), MemberMode(m.System),
			}, "\t"))
		}
	}
	return lines, nil
}

func render(sections []section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, strings.Join(append([]string{"= " + s.title, ""}, s.lines...), "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n"
}
