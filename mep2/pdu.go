package mep2

import "strings"

// PduKind is the closed enumeration of MEP2 PDU names, per spec.md §3.
// Grounded on original_source/include/mep2_pdu.hpp's PduType::type_id.
type PduKind int

const (
	KindBusy PduKind = iota
	KindComment
	KindCreate
	KindEnd
	KindEnv
	KindHdr
	KindInit
	KindReply
	KindReset
	KindScan
	KindSend
	KindTerm
	KindText
	KindTurn
	KindVerify
)

var pduKindNames = [...]string{
	"BUSY", "COMMENT", "CREATE", "END", "ENV", "HDR", "INIT", "REPLY",
	"RESET", "SCAN", "SEND", "TERM", "TEXT", "TURN", "VERIFY",
}

// String renders the PDU kind's canonical uppercase name.
func (k PduKind) String() string { return pduKindNames[k] }

// pduKindByName mirrors the compile-time trie of
// original_source/include/mep2_pdu_parser.hpp's create_pdu_trie: a
// case-insensitive lookup from lowercase name to kind. A Go map is the
// idiomatic stand-in for the original's hand-rolled constexpr trie — both
// are pure, fixed, startup-free lookup tables.
var pduKindByName = map[string]PduKind{
	"busy":    KindBusy,
	"comment": KindComment,
	"create":  KindCreate,
	"end":     KindEnd,
	"env":     KindEnv,
	"hdr":     KindHdr,
	"init":    KindInit,
	"reply":   KindReply,
	"reset":   KindReset,
	"scan":    KindScan,
	"send":    KindSend,
	"term":    KindTerm,
	"text":    KindText,
	"turn":    KindTurn,
	"verify":  KindVerify,
}

// IsSingleLine reports whether a PDU of this kind is entirely one line
// terminated by its own checksum, with no information lines or /END.
func (k PduKind) IsSingleLine() bool {
	switch k {
	case KindBusy, KindCreate, KindScan, KindSend, KindTerm, KindTurn:
		return true
	default:
		return false
	}
}

// HasOptions reports whether this PDU kind's start-line carries an
// options/value segment between the name and the checksum (or, for
// multi-line kinds, before the line end).
func (k PduKind) HasOptions() bool {
	switch k {
	case KindVerify, KindText, KindScan, KindTurn, KindReply:
		return true
	default:
		return false
	}
}

// isImplemented reports whether this kind has full information-line/
// finalize support. Hdr, Init, Reply, and Reset are recognised names (the
// trie matches them, so the start-line itself parses) but original_source
// never implements a content class for them — there is no HdrPdu, InitPdu,
// ReplyPdu, or ResetPdu in mep2_pdu.hpp, only the Pdu base, whose
// _parse_line/_finalize both throw "base called without implementation" if
// reached. We surface that gap as Unimplemented_Function rather than a
// panic-worthy internal error.
func (k PduKind) isImplemented() bool {
	switch k {
	case KindHdr, KindInit, KindReply, KindReset:
		return false
	default:
		return true
	}
}

// takePduName consumes the leading run of ASCII letters from line,
// case-insensitively matches it against a known PDU name, and returns the
// matched kind along with the remainder of line starting at the first
// non-letter byte. Functionally equivalent to the original's compile-time
// Trie::find: the whole contiguous letter run must equal a registered name
// exactly, not merely be prefixed by one.
func takePduName(line string) (PduKind, string, bool) {
	i := 0
	for i < len(line) && isAsciiLetter(line[i]) {
		i++
	}
	kind, ok := pduKindByName[strings.ToLower(line[:i])]
	if !ok {
		return 0, line, false
	}
	return kind, line[i:], true
}

func isAsciiLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// stripPduCRLF finds the mandatory trailing CR, discards it and any LF that
// follows, and right-strips SP/TAB from what remains. Grounded on
// original_source/src/mep2_pdu_parser.cpp's strip_pdu_crlf.
func stripPduCRLF(line string) string {
	cr := strings.IndexByte(line, '\r')
	if cr < 0 {
		xerrorf("No carriage return in PDU")
	}
	return strings.TrimRight(line[:cr], " \t")
}

// validatePduLine applies the shape checks common to every start-line and
// end-line: minimum length, leading '/', at most one '*', and no '/' other
// than the leading one. Grounded on
// original_source/src/mep2_pdu_parser.cpp's validate_pdu_line.
func validatePduLine(line string) {
	if len(line) < 5 {
		xerrorf("PDU invalid: too short")
	}
	if line[0] != '/' {
		xerrorf("PDU invalid: doesn't start with a '/'")
	}
	if strings.Count(line, "*") > 1 {
		xerrorf("Stray '*' in PDU")
	}
	if strings.Count(line, "/") > 1 {
		xerrorf("Stray '/' in PDU")
	}
}

// Pdu is one parsed PDU: the kind tag plus whichever payload fields that
// kind's grammar fills in. Rather than the original's class-hierarchy
// variant (BusyPdu, CreatePdu, ..., VerifyPdu), every kind shares one struct
// with kind-specific fields left zero-valued — the idiomatic Go rendering
// of a closed, small sum type, matching the dispatch-by-map idiom
// smtpserver.commands uses for SMTP verbs rather than emulating
// std::variant.
type Pdu struct {
	Kind PduKind

	// Scan/Turn
	Query QueryState

	// Text
	TextOpts TextOptions

	// Verify/Env
	Envelope EnvelopeHeaderState

	// Comment: the decoded, validated body is discarded once confirmed
	// well-formed, mirroring CommentPdu::_parse_line; only the kind matters
	// to callers.
}

// parseOptions validates and applies p.Kind's start-line options segment.
// Kinds with no options of their own reject any non-empty segment, mirroring
// the base Pdu::parse_options.
func (p *Pdu) parseOptions(options string) {
	switch p.Kind {
	case KindScan, KindTurn:
		p.Query.ParseQueryOptions(options)
	case KindText:
		p.TextOpts.ParseTextOptions(options)
	case KindVerify:
		p.Envelope.parseOptions(options)
	case KindEnv:
		p.Envelope.parseOptions(options)
	default:
		if options != "" {
			xerrorf("Option for non-option PDU")
		}
	}
}

// parseInformationLine feeds one content line of a multi-line PDU to
// p.Kind's grammar.
func (p *Pdu) parseInformationLine(line string) {
	switch p.Kind {
	case KindComment:
		parseCommentLine(line)
	case KindVerify:
		p.Envelope.ParseEnvelopeLine(line, true)
	case KindEnv:
		p.Envelope.ParseEnvelopeLine(line, false)
	case KindText:
		// Matches original_source/src/mep2_pdu.cpp's TextPdu::_parse_line,
		// which is an empty body: the core parser does not itself retain
		// Text content, leaving body decoding/storage to the session layer
		// that owns the catalogue and content arena.
	case KindHdr, KindInit, KindReply, KindReset:
		panic(newError(CUnimplementedFunction, "PDU type not implemented"))
	default:
		xerrorf("Parse line called on single-line PDU")
	}
}

// finalize runs p.Kind's end-of-PDU semantic check, if it has one.
func (p *Pdu) finalize() {
	switch p.Kind {
	case KindVerify, KindEnv:
		p.Envelope.finalize()
	case KindHdr, KindInit, KindReply, KindReset:
		panic(newError(CUnimplementedFunction, "PDU type not implemented"))
	}
}

// parseCommentLine validates a Comment PDU's information line: the decoded
// body is checked for well-formedness and otherwise discarded. Grounded on
// original_source/src/mep2_pdu.cpp's CommentPdu::_parse_line.
func parseCommentLine(line string) {
	decoded := xdecodeText([]byte(line))
	_ = stripPduCRLF(string(decoded))
}
