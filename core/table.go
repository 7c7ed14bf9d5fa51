package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Keyify normalises a column label into a record key: whitespace runs
// become "_", periods and colons are removed and the result is lower case.
// "Rx thr." becomes "rx_thr" and "Net members:" becomes "net_members".
func Keyify(label string) string {
	key := whitespaceRe.ReplaceAllString(label, "_")
	key = strings.NewReplacer(".", "", ":", "").Replace(key)
	return strings.ToLower(key)
}

// Column is a header label and its character offset in the header line.
type Column struct {
	Field  string
	Offset int // in runes
}

// FindColumns locates each field in header, left to right. Every search
// starts where the previous field ended, so offsets are strictly
// increasing.
func FindColumns(header string, fields []string) ([]Column, error) {
	cols := make([]Column, 0, len(fields))
	pos := 0
	for _, f := range fields {
		i := strings.Index(header[pos:], f)
		if f == "" || i < 0 {
			return nil, &FormatError{Line: header, Msg: "missing column " + strconv.Quote(f)}
		}
		start := pos + i
		cols = append(cols, Column{Field: f, Offset: utf8.RuneCountInString(header[:start])})
		pos = start + len(f)
	}
	return cols, nil
}

// Record is one table row keyed by Keyify(field).
type Record map[string]string

// ParseTable reads a fixed-width table. The first non-blank line is the
// header; each later non-blank line is cut at the column offsets, the last
// column running to the end of the line. Values are trimmed. Cells are never
// split on whitespace since values such as unit names contain spaces.
func ParseTable(lines []string, fields []string) ([]Record, error) {
	h := firstNonBlank(lines)
	if h < 0 {
		return nil, &FormatError{Msg: "missing table header"}
	}
	cols, err := FindColumns(lines[h], fields)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, line := range lines[h+1:] {
		if IsBlankLine(line) {
			continue
		}
		records = append(records, sliceRow([]rune(line), cols))
	}
	return records, nil
}

func sliceRow(row []rune, cols []Column) Record {
	rec := make(Record, len(cols))
	for i, c := range cols {
		end := len(row)
		if i+1 < len(cols) {
			end = min(cols[i+1].Offset, len(row))
		}
		var v string
		if c.Offset < end {
			v = strings.TrimSpace(string(row[c.Offset:end]))
		}
		rec[Keyify(c.Field)] = v
	}
	return rec
}
