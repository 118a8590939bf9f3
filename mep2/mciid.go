package mep2

import (
	"regexp"
	"strings"
)

// mciidShape matches the four fixed MCI-ID shapes spec.md §4.4 recognises:
// 123-4567, 123-456-7890, 1234567, 1234567890. Grounded on
// original_source/src/address.cpp's is_mciid.
var mciidShape = regexp.MustCompile(`^(\d{3}-\d{4}|\d{3}-\d{3}-\d{4}|\d{7}|\d{10})$`)

// IsMciid reports whether s is a bare MCI-ID in one of the four fixed
// shapes, with no "MCI ID:" prefix handling.
func IsMciid(s string) bool {
	return mciidShape.MatchString(s)
}

// ParseMciid recognises an MCI-ID, with or without an explicit "MCI ID:"
// prefix. If the line carries the prefix, whatever follows it must be a
// valid MCI-ID shape or parsing fails outright (the prefix commits the
// caller to MCI-ID interpretation); without the prefix, a line that isn't a
// recognisable MCI-ID shape is simply not one, reported via ok=false so the
// caller can try alternate field grammars.
func ParseMciid(line string) (id string, ok bool) {
	explicit := false
	if strings.HasPrefix(line, "MCI ID:") {
		line = strings.TrimLeft(line[len("MCI ID:"):], " \t")
		explicit = true
	}

	if IsMciid(line) {
		return line, true
	}

	if explicit {
		xmalformedf("Invalid MCI ID after MCI ID:")
	}

	return "", false
}

// CanonicalizeMciid renders an MCI-ID in its shortest canonical form,
// stripping a leading "000" (or "000-") run from the 10- and 12-character
// shapes and re-inserting dashes into bare digit runs. Grounded on
// original_source/src/address.cpp's canonicalize_mciid; panics with a
// PDU_Syntax_Error if id is not itself a valid MCI-ID shape, mirroring the
// original's std::invalid_argument guard.
func CanonicalizeMciid(id string) string {
	if !IsMciid(id) {
		xerrorf("Invalid MCI ID format")
	}

	// 123-4567 is already canonical; note we can't bail out purely on
	// length 12 below, since 000-123-4567 (12 chars) is not canonical.
	if len(id) == 8 {
		return id
	}

	if len(id) >= 10 && strings.HasPrefix(id, "000") {
		if id[3] == '-' {
			id = id[4:]
		} else {
			id = id[3:]
		}
	}

	if len(id) == 8 || len(id) == 12 {
		return id
	}

	if len(id) == 7 {
		return id[0:3] + "-" + id[3:]
	}
	return id[0:3] + "-" + id[3:6] + "-" + id[6:]
}
