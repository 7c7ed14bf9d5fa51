package model

import (
	"fmt"
	"slices"

	"github.com/signalsfoundry/radiomobile/orderedmap"
)

// Role is the part a unit plays inside a net.
type Role string

const (
	RoleNode     Role = "Node"
	RoleMaster   Role = "Master"
	RoleTerminal Role = "Terminal"
	RoleSlave    Role = "Slave"
)

// ParseRole maps a role label from the member table to a Role.
func ParseRole(label string) (Role, error) {
	switch r := Role(label); r {
	case RoleNode, RoleMaster, RoleTerminal, RoleSlave:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", label)
}

// IsCoordinator reports whether r leads a net (access point or base station).
func (r Role) IsCoordinator() bool { return r == RoleNode || r == RoleMaster }

// IsSubordinate reports whether r attaches to a coordinator.
func (r Role) IsSubordinate() bool { return r == RoleTerminal || r == RoleSlave }

// CoordinatorRoles and SubordinateRoles are convenience sets for
// MembersWithRole.
var (
	CoordinatorRoles = []Role{RoleNode, RoleMaster}
	SubordinateRoles = []Role{RoleTerminal, RoleSlave}
)

// NetMember is one row of a net member table. Name and System refer to
// entries of the owning report by name.
type NetMember struct {
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	System  string `json:"system"`
	Antenna string `json:"antenna"`
}

// Link joins two members of the same net. Peers follow member table order.
type Link struct {
	Peers    [2]string `json:"peers"`
	Quality  int       `json:"quality"`
	Distance int       `json:"distance"` // metres
}

// Net is a planned radio network.
type Net struct {
	Name       string                             `json:"name"`
	MaxQuality int                                `json:"max_quality"`
	Members    *orderedmap.Map[string, NetMember] `json:"members"`
	Links      []Link                             `json:"links"`
}

// MembersWithRole returns the names of members holding any of roles, in
// member table order. With no roles every member name is returned.
func (n Net) MembersWithRole(roles ...Role) []string {
	var out []string
	for name, m := range n.Members.All() {
		if len(roles) == 0 || slices.Contains(roles, m.Role) {
			out = append(out, name)
		}
	}
	return out
}

// Coordinator returns the single coordinator of the net. It fails when the
// net has none or more than one.
func (n Net) Coordinator() (string, error) {
	names := n.MembersWithRole(CoordinatorRoles...)
	if len(names) != 1 {
		return "", fmt.Errorf("net %q: want exactly one coordinator, found %d", n.Name, len(names))
	}
	return names[0], nil
}

// Distance returns the stored link distance between two members of a net.
// ok is false when the pair is not linked.
func (n Net) Distance(a, b string) (int, bool) {
	for _, l := range n.Links {
		if (l.Peers[0] == a && l.Peers[1] == b) || (l.Peers[0] == b && l.Peers[1] == a) {
			return l.Distance, true
		}
	}
	return 0, false
}
