// Package core parses RadioMobile text reports into a model.Report.
//
// Parsing is a pure in-memory transform: it does no I/O beyond draining the
// supplied reader, keeps no package state and never logs. Errors are
// *FormatError for structural problems and *ValueError for bad numbers.
package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/radiomobile/model"
)

const sectionGeneral = "general_information"

// requiredSections lists the sections every report must carry. Other
// sections are ignored.
var requiredSections = []string{sectionGeneral, sectionUnits, sectionSystems, sectionNets}

// Parse reads a whole report from r. The content must already be decoded
// to UTF-8.
func Parse(r io.Reader) (*model.Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses report text.
func ParseString(text string) (*model.Report, error) {
	return ParseLines(splitLines(text))
}

// ParseLines parses a report already split into lines.
func ParseLines(lines []string) (*model.Report, error) {
	groups := SplitSections(lines)
	if len(groups) == 0 {
		return nil, &FormatError{Msg: "empty report"}
	}

	generated, err := parseHeader(groups[0])
	if err != nil {
		return nil, err
	}
	sections, err := collectSections(groups[1:])
	if err != nil {
		return nil, err
	}

	report := model.NewReport()
	report.GeneratedOn = generated
	report.GeneralInformation = trimLines(sections[sectionGeneral], IsBlankLine)

	if report.Units, err = parseUnits(sections[sectionUnits]); err != nil {
		return nil, err
	}
	if report.Systems, err = parseSystems(sections[sectionSystems]); err != nil {
		return nil, err
	}
	if report.Nets, err = parseNets(sections[sectionNets], report.Units, report.Systems); err != nil {
		return nil, err
	}
	return report, nil
}

// collectSections pairs every title group with the group that follows it.
// The title is the first non-blank line of its group, keyified.
func collectSections(groups [][]string) (map[string][]string, error) {
	sections := make(map[string][]string)
	for i := 0; i < len(groups); i += 2 {
		t := firstNonBlank(groups[i])
		if t < 0 {
			continue
		}
		key := Keyify(strings.TrimSpace(groups[i][t]))
		if _, dup := sections[key]; dup {
			return nil, formatErrorf(key, groups[i][t], "duplicate section")
		}
		var body []string
		if i+1 < len(groups) {
			body = groups[i+1]
		}
		sections[key] = body
	}
	for _, key := range requiredSections {
		if _, ok := sections[key]; !ok {
			return nil, formatErrorf(key, "", "missing section")
		}
	}
	return sections, nil
}
