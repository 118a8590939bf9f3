package mep2

import "strings"

// ContentType is the wire content-type token of a Text PDU.
type ContentType int

const (
	ContentAscii ContentType = iota
	ContentPrintable
	ContentEnv
	ContentBinary
	ContentG3Fax
	ContentTlx
	ContentVoice
	ContentTif0
	ContentTif1
	ContentTtx
	ContentVideotex
	ContentEncrypted
	ContentSfd
	ContentRacal
)

// HandlingType is the coarse delivery handling a ContentType maps down to.
type HandlingType int

const (
	HandlingAscii HandlingType = iota
	HandlingEnv
	HandlingBinary
)

var textContentTypes = []struct {
	name     string
	ctype    ContentType
	handling HandlingType
}{
	{"ascii", ContentAscii, HandlingAscii},
	{"printable", ContentPrintable, HandlingAscii},
	{"env", ContentEnv, HandlingEnv},
	{"binary", ContentBinary, HandlingBinary},
	{"g3fax", ContentG3Fax, HandlingBinary},
	{"tlx", ContentTlx, HandlingBinary},
	{"voice", ContentVoice, HandlingBinary},
	{"tif0", ContentTif0, HandlingBinary},
	{"tif1", ContentTif1, HandlingBinary},
	{"ttx", ContentTtx, HandlingBinary},
	{"videotex", ContentVideotex, HandlingBinary},
	{"encrypted", ContentEncrypted, HandlingBinary},
	{"sfd", ContentSfd, HandlingBinary},
	{"racal", ContentRacal, HandlingBinary},
}

// TextOptions holds a Text PDU's parsed content-type/description option
// clause. Grounded on original_source/src/mep2_pdu.cpp's
// TextPdu::parse_options.
type TextOptions struct {
	ContentType ContentType
	Handling    HandlingType
	Description string
}

// ParseTextOptions parses a Text PDU's option clause: an optional
// case-insensitive content-type token, optionally followed by
// ":<description>". Defaults to ASCII when options is empty.
func (t *TextOptions) ParseTextOptions(options string) {
	t.ContentType = ContentAscii
	t.Handling = HandlingAscii

	if options == "" {
		return
	}

	options = strings.TrimLeft(options, " \t")

	matched := false
	for _, ct := range textContentTypes {
		if iHasPrefix(options, ct.name) {
			t.ContentType = ct.ctype
			t.Handling = ct.handling
			matched = true
			break
		}
	}
	if !matched {
		xmalformedf("Unknown text type")
	}

	delim := strings.IndexByte(options, ':')
	if delim < 0 || delim == len(options) {
		return
	}

	description := trimMep2(options[delim+1:])
	if description == "" {
		return
	}

	decoded, err := DecodeText([]byte(description))
	if err != nil {
		xmalformedf("%s", err)
	}
	t.Description = string(decoded)
}
