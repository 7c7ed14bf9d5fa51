package core

import (
	"errors"
	"fmt"
)

// FormatError reports a structural problem in a report: a wrong title, a
// missing section or column, an unparseable coordinate, an unknown role or a
// reference to an undeclared unit or system.
type FormatError struct {
	Section string // keyified section name, empty for the header
	Line    string // offending line, if any
	Msg     string
}

func (e *FormatError) Error() string {
	msg := "radiomobile: "
	if e.Section != "" {
		msg += e.Section + ": "
	}
	msg += e.Msg
	if e.Line != "" {
		msg += fmt.Sprintf(" (line %q)", e.Line)
	}
	return msg
}

// ValueError reports a cell that has the right shape but does not hold a
// valid number.
type ValueError struct {
	Field string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("radiomobile: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// IsParseError reports whether err, or anything it wraps, came from parsing
// malformed report content.
func IsParseError(err error) bool {
	var fe *FormatError
	var ve *ValueError
	return errors.As(err, &fe) || errors.As(err, &ve)
}

func formatErrorf(section, line, format string, args ...any) error {
	return &FormatError{Section: section, Line: line, Msg: fmt.Sprintf(format, args...)}
}
