package core

import (
	"regexp"
	"strings"
)

var separatorRe = regexp.MustCompile(`^\s*-{3,}\s*$`)

// IsSeparatorLine reports whether line is a row of dashes.
func IsSeparatorLine(line string) bool { return separatorRe.MatchString(line) }

// IsBlankLine reports whether line holds only whitespace.
func IsBlankLine(line string) bool { return strings.TrimSpace(line) == "" }

// SplitSections groups consecutive lines between separator lines. The
// separators themselves are dropped and no group is empty.
func SplitSections(lines []string) [][]string {
	var groups [][]string
	var cur []string
	for _, line := range lines {
		if IsSeparatorLine(line) {
			if len(cur) > 0 {
				groups = append(groups, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// SplitBlocks splits lines into blocks separated by runs of at least minRun
// consecutive boundary lines. Shorter runs are part of the surrounding
// block. Boundary lines at either end of a block are trimmed, and blocks
// that end up empty are dropped.
func SplitBlocks(lines []string, isBoundary func(string) bool, minRun int) [][]string {
	if minRun < 1 {
		minRun = 1
	}
	var blocks [][]string
	var cur []string
	flush := func() {
		if b := trimLines(cur, isBoundary); len(b) > 0 {
			blocks = append(blocks, b)
		}
		cur = nil
	}

	run := 0
	for _, line := range lines {
		if isBoundary(line) {
			run++
			cur = append(cur, line)
			continue
		}
		if run >= minRun {
			flush()
		}
		run = 0
		cur = append(cur, line)
	}
	flush()
	return blocks
}

// trimLines drops leading and trailing lines matching drop.
func trimLines(lines []string, drop func(string) bool) []string {
	start, end := 0, len(lines)
	for start < end && drop(lines[start]) {
		start++
	}
	for end > start && drop(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

// firstNonBlank returns the index of the first non-blank line, or -1.
func firstNonBlank(lines []string) int {
	for i, line := range lines {
		if !IsBlankLine(line) {
			return i
		}
	}
	return -1
}

// splitLines breaks text into lines, accepting both LF and CRLF endings.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
