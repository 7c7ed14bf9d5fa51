package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/signalsfoundry/radiomobile/model"
	"github.com/signalsfoundry/radiomobile/orderedmap"
)

const sectionNets = "active_nets_information"

// Nets are separated by two or more blank lines. A single blank line is
// part of the net block.
const netSeparatorRun = 2

// gridCellWidth is the width of one quality grid cell and of the row label
// that precedes the cells.
const gridCellWidth = 3

const membersLabel = "Net members:"

var (
	gridLabelRe = regexp.MustCompile(`Net members:\s*(.*?)\s*Role:`)
	qualityRe   = regexp.MustCompile(`^\s*Quality\s*=\s*(\d+)\s*$`)
)

func parseNets(lines []string, units *orderedmap.Map[string, model.Unit], systems *orderedmap.Map[string, model.System]) (*orderedmap.Map[string, model.Net], error) {
	nets := orderedmap.New[string, model.Net]()
	for _, block := range SplitBlocks(lines, IsBlankLine, netSeparatorRun) {
		net, err := parseNet(block, units, systems)
		if err != nil {
			return nil, err
		}
		// A repeated name replaces the earlier net in place.
		nets.Set(net.Name, net)
	}
	return nets, nil
}

func parseNet(block []string, units *orderedmap.Map[string, model.Unit], systems *orderedmap.Map[string, model.System]) (model.Net, error) {
	name := strings.TrimSpace(block[0])

	start := -1
	for i, line := range block {
		if strings.Contains(line, membersLabel) {
			start = i
			break
		}
	}
	if start < 0 {
		return model.Net{}, formatErrorf(sectionNets, name, "net without member table")
	}
	if start == 0 {
		return model.Net{}, formatErrorf(sectionNets, block[0], "net without name")
	}
	header := block[start]
	m := gridLabelRe.FindStringSubmatch(header)
	if m == nil || m[1] == "" {
		return model.Net{}, formatErrorf(sectionNets, header, "net %q: missing quality grid label", name)
	}
	gridLabel := m[1]

	end, maxQuality := -1, 0
	for i := start + 1; i < len(block); i++ {
		if q := qualityRe.FindStringSubmatch(block[i]); q != nil {
			v, err := strconv.Atoi(q[1])
			if err != nil {
				return model.Net{}, &ValueError{Field: "quality", Value: q[1], Err: err}
			}
			end, maxQuality = i, v
			break
		}
	}
	if end < 0 {
		return model.Net{}, formatErrorf(sectionNets, name, "net without Quality line")
	}

	rows, err := ParseTable(block[start:end], []string{membersLabel, gridLabel, "Role:", "System:", "Antenna:"})
	if err != nil {
		return model.Net{}, inSection(err, sectionNets)
	}

	net := model.Net{
		Name:       name,
		MaxQuality: maxQuality,
		Members:    orderedmap.New[string, model.NetMember](),
	}
	memberKey, gridKey := Keyify(membersLabel), Keyify(gridLabel)
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		member, err := netMember(row, memberKey, units, systems)
		if err != nil {
			return model.Net{}, err
		}
		if net.Members.Has(member.Name) {
			return model.Net{}, formatErrorf(sectionNets, member.Name, "net %q: duplicate member", name)
		}
		net.Members.Set(member.Name, member)
		order = append(order, member.Name)
	}

	for i, row := range rows {
		qualities, err := gridQualities(row[gridKey])
		if err != nil {
			return model.Net{}, err
		}
		for j, q := range qualities {
			if q == 0 || i >= j {
				continue
			}
			if j >= len(order) {
				return model.Net{}, formatErrorf(sectionNets, row[gridKey], "net %q: quality grid refers to row %d of %d", name, j+1, len(order))
			}
			if q < 0 || q > maxQuality {
				return model.Net{}, formatErrorf(sectionNets, row[gridKey], "net %q: quality %d outside 1..%d", name, q, maxQuality)
			}
			a, _ := units.Get(order[i])
			b, _ := units.Get(order[j])
			net.Links = append(net.Links, model.Link{
				Peers:    [2]string{order[i], order[j]},
				Quality:  q,
				Distance: GreatCircleDistance(a.Coords, b.Coords),
			})
		}
	}
	return net, nil
}

func netMember(row Record, memberKey string, units *orderedmap.Map[string, model.Unit], systems *orderedmap.Map[string, model.System]) (model.NetMember, error) {
	name := row[memberKey]
	if !units.Has(name) {
		return model.NetMember{}, formatErrorf(sectionNets, name, "net member is not a declared unit")
	}
	role, err := model.ParseRole(row["role"])
	if err != nil {
		return model.NetMember{}, formatErrorf(sectionNets, name, "%v", err)
	}
	system := row["system"]
	if !systems.Has(system) {
		return model.NetMember{}, formatErrorf(sectionNets, system, "system of member %q is not declared", name)
	}
	return model.NetMember{
		Name:    name,
		Role:    role,
		System:  system,
		Antenna: row["antenna"],
	}, nil
}

// gridQualities decodes one row of the quality grid. The cell starts with
// the row label, followed by fixed-width cells, one per peer row. Empty
// cells are returned as 0.
func gridQualities(cell string) ([]int, error) {
	r := []rune(strings.TrimSpace(cell))
	if len(r) <= gridCellWidth {
		return nil, nil
	}
	r = r[gridCellWidth:]

	out := make([]int, 0, (len(r)+gridCellWidth-1)/gridCellWidth)
	for i := 0; i < len(r); i += gridCellWidth {
		group := strings.TrimSpace(string(r[i:min(i+gridCellWidth, len(r))]))
		if group == "" {
			out = append(out, 0)
			continue
		}
		v, err := strconv.Atoi(group)
		if err != nil {
			return nil, &ValueError{Field: "quality", Value: group, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
