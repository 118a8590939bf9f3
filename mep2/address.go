package mep2

import (
	"strings"
)

// addressOption is one of the eight boolean recipient options, rendered in
// this fixed order by String(). Grounded on
// original_source/src/address.cpp's RawAddress::str option table.
type addressOption struct {
	get  func(*RawAddress) bool
	name string
}

var addressOptions = []addressOption{
	{func(a *RawAddress) bool { return a.Board }, "BOARD"},
	{func(a *RawAddress) bool { return a.Instant }, "INSTANT"},
	{func(a *RawAddress) bool { return a.List }, "LIST"},
	{func(a *RawAddress) bool { return a.Owner }, "OWNER"},
	{func(a *RawAddress) bool { return a.Onite }, "ONITE"},
	{func(a *RawAddress) bool { return a.Print }, "PRINT"},
	{func(a *RawAddress) bool { return a.Receipt }, "RECEIPT"},
	{func(a *RawAddress) bool { return a.NoReceipt }, "NO RECEIPT"},
}

// RawAddress is a recipient/sender address as it appears on an MEP2 address
// line, before any resolution against a real mail store. Grounded on
// original_source/include/address.hpp's RawAddress.
type RawAddress struct {
	Name         string
	ID           string
	Organization string
	Location     string

	// UnresolvedOrgLoc1/2 hold the second and third slash-separated fields
	// when neither "Org:"/"Loc:" prefix nor MCI-ID shape disambiguates them;
	// a downstream directory lookup decides which is which.
	UnresolvedOrgLoc1 string
	UnresolvedOrgLoc2 string

	Alert string

	EMS string
	MBX []string

	HasOptions bool
	Board      bool
	Instant    bool
	List       bool
	Owner      bool
	Onite      bool
	Print      bool
	Receipt    bool
	NoReceipt  bool
}

// mbxAggregateLimit is the maximum combined length of all MBX routing
// continuation values for one address, per spec.md §4.5.
const mbxAggregateLimit = 305

// ParseOrgOrLoc classifies one slash-separated field of an address's first
// line as an explicit Location, explicit Organization, or an unresolved
// org/loc slot, filling UnresolvedOrgLoc1 before UnresolvedOrgLoc2. Grounded
// on RawAddress::parse_org_or_loc.
func (a *RawAddress) ParseOrgOrLoc(line string) {
	if IsMciid(line) {
		xmalformedf("Location/Organization cannot be an MCI ID")
	}

	switch {
	case strings.HasPrefix(line, "Loc:"):
		v := strings.TrimSpace(line[4:])
		if v == "" {
			xmalformedf("Location cannot be empty")
		}
		a.Location = v
	case strings.HasPrefix(line, "Org:"):
		v := strings.TrimSpace(line[4:])
		if v == "" {
			xmalformedf("Organization cannot be empty")
		}
		a.Organization = v
	default:
		if line == "" {
			xmalformedf("Organization/Location cannot be empty")
		}
		if a.UnresolvedOrgLoc1 == "" {
			a.UnresolvedOrgLoc1 = line
		} else {
			a.UnresolvedOrgLoc2 = line
		}
	}
}

// parseOptions strips a trailing "(OPT, OPT, ...)" options group off line
// (if present) and applies it to a. Returns the line with the options group
// and any separating whitespace removed. Grounded on
// RawAddress::parse_options.
func (a *RawAddress) parseOptions(line string) string {
	if !strings.HasSuffix(line, ")") {
		return line
	}

	if strings.Count(line, "(") != 1 || strings.Count(line, ")") != 1 {
		xmalformedf("Malformed options, too many parenthesis")
	}

	start := strings.IndexByte(line, '(')
	options := strings.TrimSpace(line[start+1 : len(line)-1])
	line = strings.TrimRight(line[:start], " \t")

	for options != "" {
		var option string
		if idx := strings.IndexByte(options, ','); idx >= 0 {
			if idx == len(options)-1 {
				xmalformedf("Malformed options, trailing comma")
			}
			option = options[:idx]
			options = options[idx+1:]
		} else {
			option = options
			options = ""
		}

		if option == "" {
			xmalformedf("Malformed options, empty option")
		}
		option = strings.TrimSpace(option)

		switch option {
		case "BOARD":
			a.Board = true
		case "INSTANT":
			a.Instant = true
		case "LIST":
			a.List = true
		case "OWNER":
			a.Owner = true
		case "ONITE":
			a.Onite = true
		case "PRINT":
			a.Print = true
		case "RECEIPT":
			a.Receipt = true
		case "NO RECEIPT":
			a.NoReceipt = true
		default:
			xmalformedf("Malformed options, unknown option '%s'", option)
		}
		a.HasOptions = true
	}

	return line
}

// ParseAddressFirstLine parses the first (non-continuation) line of an
// address field: a name-or-id, then zero, one, or two slash-separated
// fields, and an optional trailing options group. Grounded on
// RawAddress::parse_first_line.
func (a *RawAddress) ParseAddressFirstLine(line string) {
	numSlashes := strings.Count(line, "/")
	if numSlashes > 2 {
		xmalformedf("Too many fields")
	}

	line = strings.TrimRight(line, " \t")
	if line == "" {
		xmalformedf("Empty address")
	}

	line = a.parseOptions(line)

	if numSlashes == 0 {
		if id, ok := ParseMciid(line); ok {
			a.ID = CanonicalizeMciid(id)
		} else {
			if line == "" {
				xmalformedf("Name cannot be empty")
			}
			a.Name = line
		}
		return
	}

	firstSlash := strings.IndexByte(line, '/')
	firstPart := strings.TrimRight(line[:firstSlash], " \t")
	if firstPart == "" {
		xmalformedf("Name/ID field invalid")
	}
	if id, ok := ParseMciid(firstPart); ok {
		// "MCIID / Org or Loc"
		a.ID = CanonicalizeMciid(id)
	} else {
		if line == "" {
			xmalformedf("Name cannot be empty")
		}
		a.Name = firstPart
	}

	rest := strings.TrimSpace(line[firstSlash+1:])
	if rest == "" {
		xmalformedf("First Organization/Location field invalid")
	}

	if numSlashes == 1 {
		if a.ID == "" {
			if id, ok := ParseMciid(rest); ok {
				// "User name / MCIID"
				a.ID = CanonicalizeMciid(id)
				return
			}
		}
		// "MCIID / Org or Loc"
		a.ParseOrgOrLoc(rest)
		return
	}

	secondSlash := strings.IndexByte(rest, '/')
	secondPart := strings.TrimSpace(rest[:secondSlash])
	thirdPart := strings.TrimSpace(rest[secondSlash+1:])

	if IsMciid(secondPart) || IsMciid(thirdPart) {
		xmalformedf("Organization/Location cannot be an MCI ID")
	}

	a.ParseOrgOrLoc(secondPart)
	a.ParseOrgOrLoc(thirdPart)
}

// ParseField applies one continuation-line field directive ("EMS:" or
// "MBX:") to a. Grounded on RawAddress::parse_field.
func (a *RawAddress) ParseField(field, information string) {
	if len(field) < 4 {
		xmalformedf("Unknown field type")
	}

	switch {
	case iHasPrefix(field, "ems:"):
		if a.EMS != "" {
			xmalformedf("Multiple EMS directive in address")
		}
		if information == "" {
			xmalformedf("EMS cannot be empty")
		}
		a.EMS = information
	case iHasPrefix(field, "mbx:"):
		if a.EMS == "" {
			xmalformedf("MBX without EMS")
		}
		if information == "" {
			xmalformedf("MBX cannot be empty")
		}
		a.MBX = append(a.MBX, information)

		total := 0
		for _, m := range a.MBX {
			total += len(m)
		}
		if total > mbxAggregateLimit {
			xmalformedf("MBX routing info larger than %d characters", mbxAggregateLimit)
		}
	default:
		xmalformedf("Unknown address field %s", field)
	}
}

// iHasPrefix reports whether s starts with prefix, ASCII case-insensitively,
// mirroring original_source/include/string_utils.hpp's icompare.
func iHasPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}

// String renders the canonical textual form of the address: "name / id"
// when both are set; otherwise the name followed by any Loc:, Org: and
// unresolved org/loc fields; with no name, the id alone (org/loc fields are
// then not rendered). The options group follows, per spec.md §4.5 and §9's
// canonical-rendering resolution. Grounded on RawAddress::str.
func (a *RawAddress) String() string {
	var b strings.Builder

	switch {
	case a.Name == "":
		b.WriteString(a.ID)
	case a.ID != "":
		b.WriteString(a.Name)
		b.WriteString(" / ")
		b.WriteString(a.ID)
	default:
		b.WriteString(a.Name)
		if a.Location != "" {
			b.WriteString(" / Loc: ")
			b.WriteString(a.Location)
		}
		if a.Organization != "" {
			b.WriteString(" / Org: ")
			b.WriteString(a.Organization)
		}
		if a.UnresolvedOrgLoc1 != "" {
			b.WriteString(" / ")
			b.WriteString(a.UnresolvedOrgLoc1)
		}
		if a.UnresolvedOrgLoc2 != "" {
			b.WriteString(" / ")
			b.WriteString(a.UnresolvedOrgLoc2)
		}
	}

	if a.HasOptions {
		b.WriteString(" (")
		first := true
		for _, opt := range addressOptions {
			if !opt.get(a) {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(opt.name)
		}
		b.WriteString(")")
	}

	return b.String()
}

// Equal compares name, id, organization, location, both unresolved
// org/loc slots, EMS, the MBX sequence, and the Board, Instant, List and
// Owner options; Alert, HasOptions and the other four options are not
// compared. Mirrors RawAddress::operator==.
func (a *RawAddress) Equal(o *RawAddress) bool {
	if a.Name != o.Name || a.ID != o.ID || a.Organization != o.Organization ||
		a.Location != o.Location || a.UnresolvedOrgLoc1 != o.UnresolvedOrgLoc1 ||
		a.UnresolvedOrgLoc2 != o.UnresolvedOrgLoc2 || a.EMS != o.EMS {
		return false
	}
	if len(a.MBX) != len(o.MBX) {
		return false
	}
	for i := range a.MBX {
		if a.MBX[i] != o.MBX[i] {
			return false
		}
	}
	return a.Board == o.Board && a.Instant == o.Instant && a.List == o.List && a.Owner == o.Owner
}
