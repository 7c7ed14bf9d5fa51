// Package scenario turns a parsed report into a network simulation
// scenario: one node per unit with its ECEF position, one wireless
// interface per net membership addressed inside the net's subnet, and one
// link per planned member pair.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/signalsfoundry/radiomobile/core"
	"github.com/signalsfoundry/radiomobile/model"
)

// MediumWireless is the only medium a RadioMobile plan describes.
const MediumWireless = "wireless"

// QualityClass is a coarse reading of a link quality relative to the net's
// maximum quality.
type QualityClass string

const (
	QualityDown      QualityClass = "down"
	QualityPoor      QualityClass = "poor"
	QualityFair      QualityClass = "fair"
	QualityGood      QualityClass = "good"
	QualityExcellent QualityClass = "excellent"
)

// ClassifyQuality buckets quality as a share of maxQuality.
func ClassifyQuality(quality, maxQuality int) QualityClass {
	if quality <= 0 || maxQuality <= 0 {
		return QualityDown
	}
	switch pct := 100 * quality / maxQuality; {
	case pct < 25:
		return QualityPoor
	case pct < 50:
		return QualityFair
	case pct < 80:
		return QualityGood
	}
	return QualityExcellent
}

// Scenario is the simulation input derived from one report.
type Scenario struct {
	GeneratedOn time.Time           `json:"generated_on"`
	Nodes       []Node              `json:"nodes"`
	Interfaces  []Interface         `json:"interfaces"`
	Links       []Link              `json:"links"`
	Positions   map[string]Position `json:"positions"`
}

// Node is a radio site.
type Node struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation int     `json:"elevation_m"`
}

// Interface is the device a node uses to take part in one net.
type Interface struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Medium       string `json:"medium"`
	ParentNodeID string `json:"parent_node_id"`
	Net          string `json:"net"`
	Role         string `json:"role"`
	System       string `json:"system"`
	Antenna      string `json:"antenna"`
	Address      string `json:"address"`
}

// Link is a planned radio link between two interfaces of the same net.
type Link struct {
	ID           string       `json:"id"`
	InterfaceA   string       `json:"interface_a"`
	InterfaceB   string       `json:"interface_b"`
	Medium       string       `json:"medium"`
	Quality      int          `json:"quality"`
	QualityClass QualityClass `json:"quality_class"`
	DistanceM    int          `json:"distance_m"`
	SlantRangeKm float64      `json:"slant_range_km"`
	ElevationDeg float64      `json:"elevation_deg"`
	LineOfSight  bool         `json:"line_of_sight"`
}

// Position is an ECEF position in kilometres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// InterfaceID names the interface unit uses in the net at netIndex.
func InterfaceID(unit string, netIndex int) string {
	return fmt.Sprintf("%s/if%d", unit, netIndex)
}

// Subnet returns 10.1.<netIndex>.0/24.
func Subnet(netIndex int) (netip.Prefix, error) {
	if netIndex < 0 || netIndex > 255 {
		return netip.Prefix{}, fmt.Errorf("net index %d has no 10.1.x.0/24 subnet", netIndex)
	}
	return netip.PrefixFrom(netip.AddrFrom4([4]byte{10, 1, byte(netIndex), 0}), 24), nil
}

// Build derives the scenario for r. Nets without a coordinator are left
// out; a net with more than one coordinator is an error. Inside a net the
// coordinator takes the first host address and subordinates follow in
// member table order.
func Build(r *model.Report) (*Scenario, error) {
	s := &Scenario{
		GeneratedOn: r.GeneratedOn,
		Positions:   make(map[string]Position, r.Units.Len()),
	}
	ecef := make(map[string]core.Vec3, r.Units.Len())
	for name, u := range r.Units.All() {
		v := core.ECEF(u.Coords, u.Elevation)
		ecef[name] = v
		s.Nodes = append(s.Nodes, Node{
			ID:        name,
			Latitude:  u.Coords.Latitude,
			Longitude: u.Coords.Longitude,
			Elevation: u.Elevation,
		})
		s.Positions[name] = Position{X: v.X, Y: v.Y, Z: v.Z}
	}

	i := -1
	for name, n := range r.Nets.All() {
		i++
		coords := n.MembersWithRole(model.CoordinatorRoles...)
		if len(coords) == 0 {
			continue
		}
		if len(coords) > 1 {
			return nil, fmt.Errorf("net %q: want exactly one coordinator, found %d", name, len(coords))
		}
		subnet, err := Subnet(i)
		if err != nil {
			return nil, fmt.Errorf("net %q: %w", name, err)
		}

		addr := subnet.Addr()
		members := append(coords, n.MembersWithRole(model.SubordinateRoles...)...)
		for _, member := range members {
			m, _ := n.Members.Get(member)
			addr = addr.Next()
			if !subnet.Contains(addr) {
				return nil, fmt.Errorf("net %q: subnet %s exhausted", name, subnet)
			}
			s.Interfaces = append(s.Interfaces, Interface{
				ID:           InterfaceID(member, i),
				Name:         member,
				Medium:       MediumWireless,
				ParentNodeID: member,
				Net:          name,
				Role:         string(m.Role),
				System:       m.System,
				Antenna:      m.Antenna,
				Address:      netip.PrefixFrom(addr, subnet.Bits()).String(),
			})
		}

		for _, l := range n.Links {
			a, okA := ecef[l.Peers[0]]
			b, okB := ecef[l.Peers[1]]
			if !okA || !okB {
				return nil, fmt.Errorf("net %q: link %s-%s references an unknown unit", name, l.Peers[0], l.Peers[1])
			}
			s.Links = append(s.Links, Link{
				ID:           fmt.Sprintf("%s<->%s", InterfaceID(l.Peers[0], i), InterfaceID(l.Peers[1], i)),
				InterfaceA:   InterfaceID(l.Peers[0], i),
				InterfaceB:   InterfaceID(l.Peers[1], i),
				Medium:       MediumWireless,
				Quality:      l.Quality,
				QualityClass: ClassifyQuality(l.Quality, n.MaxQuality),
				DistanceM:    l.Distance,
				SlantRangeKm: a.DistanceTo(b),
				ElevationDeg: core.ElevationDegrees(a, b),
				LineOfSight:  core.HasLineOfSight(a, b),
			})
		}
	}
	return s, nil
}

// Write encodes s as indented JSON.
func (s *Scenario) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	return nil
}

// Read decodes a scenario document and checks that every interface and
// link has an id and that links only reference known interfaces.
func Read(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	known := make(map[string]bool, len(s.Interfaces))
	for _, intf := range s.Interfaces {
		if intf.ID == "" {
			return nil, fmt.Errorf("scenario: interface with empty id")
		}
		known[intf.ID] = true
	}
	for _, l := range s.Links {
		if l.ID == "" {
			return nil, fmt.Errorf("scenario: link with empty id")
		}
		if !known[l.InterfaceA] || !known[l.InterfaceB] {
			return nil, fmt.Errorf("scenario: link %s references an unknown interface", l.ID)
		}
	}
	return &s, nil
}
