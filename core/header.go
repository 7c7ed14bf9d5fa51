package core

import (
	"strings"
	"time"
)

const (
	reportTitle     = "Radio Mobile"
	timestampLayout = "15:04:05 on 01-02-2006"
)

// parseHeader checks the three header lines and returns the generation
// time found at the end of the third one.
func parseHeader(lines []string) (time.Time, error) {
	var content []string
	for _, line := range lines {
		if !IsBlankLine(line) {
			content = append(content, strings.TrimSpace(line))
		}
	}
	if len(content) != 3 {
		return time.Time{}, formatErrorf("header", "", "expected 3 header lines, got %d", len(content))
	}
	if content[1] != reportTitle {
		return time.Time{}, formatErrorf("header", content[1], "unknown report title, expected %q", reportTitle)
	}

	tokens := strings.Fields(content[2])
	if len(tokens) < 3 {
		return time.Time{}, formatErrorf("header", content[2], "missing generation timestamp")
	}
	ts, err := time.Parse(timestampLayout, strings.Join(tokens[len(tokens)-3:], " "))
	if err != nil {
		return time.Time{}, formatErrorf("header", content[2], "bad generation timestamp: %v", err)
	}
	return ts, nil
}
