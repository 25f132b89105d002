// Package timestamp defines the canonical fixed-width log timestamp form
// "YYYY/MM/DD HH:MM:SS:mmm" and expansion of partial user input into it.
//
// All fields are fixed-width and zero-padded, so byte-wise comparison of two
// canonical timestamps is equivalent to chronological comparison.
package timestamp

import (
	"fmt"
	"regexp"
)

// Width is the size of a canonical timestamp in bytes,
// 23 for "2023/04/12 16:34:42:099".
const Width = 23

// datePrefixLen covers "YYYY/MM/DD " including the trailing space.
const datePrefixLen = 11

// Partial input shapes accepted by Normalize. The canonical form itself is
// validated positionally by Valid, not by regexp.
var (
	dateTimeSecRe = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}$`)
	dateTimeMinRe = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}$`)
	dateRe        = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)
	timeFullRe    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}:\d{3}$`)
	timeSecRe     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	timeMinRe     = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseError reports user input that could not be expanded into a canonical
// timestamp.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

// Valid reports whether b is a canonical timestamp. It is a positional byte
// check rather than a regexp match because it runs once per search probe.
func Valid(b []byte) bool {
	if len(b) != Width {
		return false
	}
	for i, c := range b {
		switch i {
		case 4, 7:
			if c != '/' {
				return false
			}
		case 10:
			if c != ' ' {
				return false
			}
		case 13, 16, 19:
			if c != ':' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// Normalize expands a full or partial time string into the canonical form.
//
// Date-bearing partials are completed by appending zeroed trailing fields.
// Time-only partials take their date from the first datePrefixLen bytes of
// ref, which must itself be canonical; ref is typically a previously
// normalized time or the first timestamp extracted from the file.
func Normalize(s, ref string) (string, error) {
	if Valid([]byte(s)) {
		return s, nil
	}

	var fixed string
	switch {
	case dateTimeSecRe.MatchString(s):
		fixed = s + ":000"
	case dateTimeMinRe.MatchString(s):
		fixed = s + ":00:000"
	case dateRe.MatchString(s):
		fixed = s + " 00:00:00:000"
	default:
		// Time-only shapes need a date from the reference timestamp.
		if !Valid([]byte(ref)) {
			return "", &ParseError{Input: s, Reason: "no reference timestamp to take the date from"}
		}
		date := ref[:datePrefixLen]
		switch {
		case timeFullRe.MatchString(s):
			fixed = date + s
		case timeSecRe.MatchString(s):
			fixed = date + s + ":000"
		case timeMinRe.MatchString(s):
			fixed = date + s + ":00:000"
		default:
			return "", &ParseError{Input: s, Reason: "unrecognized time format"}
		}
	}

	if !Valid([]byte(fixed)) {
		return "", &ParseError{Input: s, Reason: fmt.Sprintf("expansion %q is not a valid timestamp", fixed)}
	}
	return fixed, nil
}
