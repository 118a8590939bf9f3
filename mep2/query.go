package mep2

import "strings"

// FolderID is the mailbox folder a Scan/Turn query targets.
type FolderID int

const (
	FolderInbox FolderID = iota
	FolderOutbox
	FolderDesk
	FolderTrash
)

// QueryState accumulates Scan/Turn option parsing. Grounded on
// original_source/include/mep2_pdu.hpp's QueryPdu.
type QueryState struct {
	Folder   FolderID
	Subject  string
	From     string
	Priority bool
}

// ParseQueryOptions parses the comma-separated KEYWORD[=VALUE] option list
// that follows a Scan/Turn PDU name. Grounded on
// original_source/src/mep2_pdu.cpp's QueryPdu::parse_options.
func (q *QueryState) ParseQueryOptions(options string) {
	q.Folder = FolderInbox

	for options != "" {
		var option string
		if idx := strings.IndexByte(options, ','); idx >= 0 {
			option = options[:idx]
			options = options[idx+1:]
		} else {
			option = options
			options = ""
		}

		var keyword, value string
		hasValue := false
		if idx := strings.IndexByte(option, '='); idx >= 0 {
			keyword = option[:idx]
			value = option[idx+1:]
			hasValue = true
			// Values of 3 bytes or fewer are rejected, "(x)" included, so a
			// value needs at least two characters inside its parentheses;
			// zero length is only valid when there was no '=' at all.
			if len(value) <= 3 {
				xerrorf("Value length invalid")
			}
		} else {
			keyword = option
		}

		if !hasValue {
			if keyword != "PRIORITY" {
				xerrorf("Missing value")
			}
			q.Priority = true
			continue
		}

		if !(strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")")) {
			xerrorf("Value must be enclosed in parenthesis")
		}
		value = value[1 : len(value)-1]
		if strings.ContainsAny(value, "()") {
			xerrorf("Value cannot contain parenthesis")
		}

		switch keyword {
		case "FOLDER":
			switch value {
			case "OUTBOX":
				q.Folder = FolderOutbox
			case "INBOX":
				q.Folder = FolderInbox
			case "DESK":
				q.Folder = FolderDesk
			case "TRASH":
				q.Folder = FolderTrash
			default:
				xmalformedf("Unknown folder type in folder query")
			}
		case "SUBJECT":
			decoded, err := DecodeText([]byte(value))
			if err != nil {
				xmalformedf("Invalid %% code in subject query")
			}
			if !IsPrintable(decoded) {
				xmalformedf("Invalid characters in subject query")
			}
			q.Subject = string(decoded)
		case "FROM":
			decoded, err := DecodeText([]byte(value))
			if err != nil {
				xmalformedf("Invalid %% code in from query")
			}
			if !IsPrintable(decoded) {
				xmalformedf("Invalid characters in from query")
			}
			q.From = string(decoded)
		case "MAXSIZE", "MINSIZE", "BEFORE", "AFTER":
			// Recognised but not acted upon, per spec.md §4.8.
		default:
			xerrorf("Unknown keyword")
		}
	}
}
