package mep2

import "strings"

// ParserState is the PDU stream parser's lifecycle position, per spec.md
// §3/§4.1.
type ParserState int

const (
	StateIdle ParserState = iota
	StateParsing
	StateComplete
)

// Parser consumes framed MEP2 lines and assembles one PDU at a time.
// Grounded on original_source/include/mep2_pdu_parser.hpp's PduParser. One
// instance serves exactly one session, single-threaded, per spec.md §5 — it
// holds no file descriptors or goroutines, so dropping it needs no
// finalization.
type Parser struct {
	state       ParserState
	currentType *PduKind
	currentPdu  Pdu
	checksum    Checksum
	deferred    error
}

// CurrentType reports the kind of the PDU presently being parsed, if any.
func (p *Parser) CurrentType() (PduKind, bool) {
	if p.currentType == nil {
		return 0, false
	}
	return *p.currentType, true
}

// IsComplete reports whether a full PDU is ready for ExtractPdu.
func (p *Parser) IsComplete() bool { return p.state == StateComplete }

// HasError reports whether a content error is pending, deferred until the
// end-line's checksum has been validated.
func (p *Parser) HasError() bool { return p.deferred != nil }

// Reset returns the parser to state idle, discarding any in-flight PDU,
// deferred error, or current-type marker. Per spec.md §8 property 6, any
// error from ParseLine leaves the parser safe to Reset and reuse.
func (p *Parser) Reset() {
	p.state = StateIdle
	p.currentType = nil
	p.currentPdu = Pdu{}
	p.checksum = 0
	p.deferred = nil
}

// ExtractPdu returns the completed PDU and resets the parser for the next
// one. Panics if called before the parser reaches StateComplete — mirroring
// the original's extract_pdu, which is a programmer error to call early, not
// a protocol error to report to a client.
func (p *Parser) ExtractPdu() Pdu {
	if p.state != StateComplete {
		panic("mep2: ExtractPdu called in invalid state")
	}
	pdu := p.currentPdu
	p.Reset()
	return pdu
}

// ParseLine feeds one raw line, CR (and optional LF) terminator included,
// into the parser. Errors are returned as Error values; deferred content errors
// surface only once the terminating /END line's checksum has validated, per
// spec.md §7. Grounded on PduParser::parse_line.
func (p *Parser) ParseLine(line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	switch p.state {
	case StateIdle:
		p.parseFirstLine(line)
	case StateParsing:
		p.parseInformationLine(line)
	case StateComplete:
		xerrorf("Unexpected data after Pdu")
	}
	return nil
}

// parseFirstLine parses a PDU's opening line, in one of two forms:
// "/<name> [options]*<checksum>CR[LF]" for single-line PDUs, or
// "/<name> [options]CR[LF]" for multi-line PDUs. Grounded on
// PduParser::parse_first_line.
func (p *Parser) parseFirstLine(line string) {
	validatePduLine(line)
	lineStrip := stripPduCRLF(line)

	rest := lineStrip[1:] // eat leading '/'
	kind, rest, ok := takePduName(rest)
	if !ok {
		xerrorf("Unknown PDU type")
	}

	rest = strings.TrimLeft(rest, " \t")

	p.currentPdu = Pdu{Kind: kind}
	p.checksum = 0
	p.currentType = &kind

	if kind.IsSingleLine() {
		p.validateChecksum(lineStrip)
		if star := strings.IndexByte(rest, '*'); star >= 0 {
			rest = rest[:star]
		}
	} else {
		if strings.Contains(line, "*") {
			xerrorf("Unexpected checksum for multi-line PDU")
		}
		p.checksum.Add([]byte(line))
	}

	rest = strings.TrimRight(rest, " \t")
	p.currentPdu.parseOptions(rest)

	if kind.IsSingleLine() {
		p.state = StateComplete
	} else {
		p.state = StateParsing
	}
}

// parseInformationLine dispatches one line of a multi-line PDU: a leading
// '/' means it is the terminating /END line, anything else is content.
// Grounded on PduParser::parse_information_line.
func (p *Parser) parseInformationLine(line string) {
	if line == "" {
		return
	}

	if line[0] == '/' {
		p.parseEndLine(line)

		if p.deferred != nil {
			err := p.deferred
			p.deferred = nil
			panic(err)
		}

		p.currentPdu.finalize()
		p.state = StateComplete
		return
	}

	p.checksum.Add([]byte(line))
	if p.deferred == nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if e, ok := r.(Error); ok {
						p.deferred = e
						return
					}
					panic(r)
				}
			}()
			p.currentPdu.parseInformationLine(line)
		}()
	}
}

// parseEndLine parses "/END <kind>*<checksum>CR[LF]" and validates it
// against the PDU currently in flight. Grounded on
// PduParser::parse_end_line.
func (p *Parser) parseEndLine(line string) {
	validatePduLine(line)
	lineStrip := stripPduCRLF(line)

	rest := lineStrip[1:]
	kind, rest, ok := takePduName(rest)
	if !ok || kind != KindEnd {
		xerrorf("Unexpected PDU, expected end")
	}

	p.validateChecksum(lineStrip)

	if star := strings.IndexByte(rest, '*'); star >= 0 {
		rest = rest[:star]
	}
	rest = strings.TrimLeft(rest, " \t")

	endKind, rest, ok := takePduName(rest)
	if !ok {
		xerrorf("Unexpected PDU, expected end %s", p.currentPdu.Kind)
	}
	if endKind != p.currentPdu.Kind {
		xerrorf("Unexpected PDU, expected end %s", p.currentPdu.Kind)
	}

	rest = strings.TrimLeft(rest, " \t")
	if rest != "" {
		xerrorf("Unexpected data after end type: '%s'", rest)
	}
}

// validateChecksum locates the mandatory '*' in line (CRLF already
// stripped), feeds everything up to and including it into the running
// checksum, and compares against the 4-character literal that follows.
// Grounded on PduParser::validate_checksum.
func (p *Parser) validateChecksum(line string) {
	star := strings.IndexByte(line, '*')
	if star < 0 {
		xerrorf("PDU line does not have a *")
	}
	if star != len(line)-5 {
		xerrorf("Checksum too short")
	}

	pduData := line[:star+1]
	senderChecksum := line[star+1 : star+5]

	p.checksum.Add([]byte(pduData))
	compareChecksum(p.checksum, senderChecksum)
}
