package mep2

import "strings"

// Priority is the envelope-level handling priority carried by Verify/Env
// start-line options.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityPostal
	PriorityOnite
)

// addressParseState tracks which slot the in-flight current address belongs
// to once it is flushed.
type addressParseState int

const (
	addressIdle addressParseState = iota
	addressParsingTo
	addressParsingCc
	addressParsingFrom
)

// uField is one custom "U-<tag>:" header, truncated per spec.md §4.6 step 10.
type uField struct {
	Tag   string
	Value string
}

// EnvelopeHeaderState accumulates the shared Verify/Env header grammar.
// Grounded on original_source/include/mep2_pdu.hpp's EnvelopeHeaderPdu;
// collapses the original's Verify/Env class-hierarchy split into one
// capability flag (addressOnly), per spec.md §9's redesign note.
type EnvelopeHeaderState struct {
	Priority Priority

	addressState   addressParseState
	currentAddress RawAddress

	From *RawAddress
	To   []RawAddress
	Cc   []RawAddress

	Date       *Date
	SourceDate *Date

	Subject   *string
	MessageID *string

	SourceMessageID []string
	UFields         []uField

	sawAnyEnvelopeData bool
}

const (
	subjectMaxLen         = 255
	messageIDMaxLen       = 100
	sourceMessageIDMaxLen = 78
	uFieldValueMaxLen     = 78
	uFieldTagMaxLen       = 20
	fifoWindow            = 5
)

// parseOptions validates a Verify/Env start-line's priority option.
// Grounded on EnvelopeHeaderPdu::parse_options.
func (e *EnvelopeHeaderState) parseOptions(options string) {
	switch options {
	case "":
		return
	case "POSTAL":
		e.Priority = PriorityPostal
	case "ONITE":
		e.Priority = PriorityOnite
	default:
		xmalformedf("Unknown priority")
	}
}

// envHeaderField is the classification of one envelope information line.
type envHeaderField int

const (
	fieldFrom envHeaderField = iota
	fieldTo
	fieldCc
	fieldDate
	fieldSourceDate
	fieldMessageID
	fieldSourceMessageID
	fieldSubject
	fieldHandling
	fieldU
	fieldAddressCont
)

// splitEnvelopeLine strips the line's trailing CR, splits it at the first
// ':' into field/information, and classifies the field. Grounded on
// original_source/src/mep2_pdu.cpp's split_envelope_line.
func splitEnvelopeLine(line string) (typ envHeaderField, field, information string) {
	line = stripPduCRLF(line)
	if line == "" {
		xmalformedf("Empty envelope line")
	}

	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		xmalformedf("Missing : in envelope line")
	}

	field = strings.TrimRight(line[:colon+1], " \t")
	information = trimMep2(line[colon+1:])

	switch {
	case iHasPrefix(line, "from:"):
		typ = fieldFrom
	case iHasPrefix(line, "to:"):
		typ = fieldTo
	case iHasPrefix(line, "cc:"):
		typ = fieldCc
	case iHasPrefix(line, "date:"):
		typ = fieldDate
	case iHasPrefix(line, "source-date:"):
		typ = fieldSourceDate
	case iHasPrefix(line, "message-id:"):
		typ = fieldMessageID
	case iHasPrefix(line, "source-message-id:"):
		typ = fieldSourceMessageID
	case iHasPrefix(line, "subject:"):
		typ = fieldSubject
	case iHasPrefix(line, "handling:"):
		typ = fieldHandling
	case iHasPrefix(line, "u-"):
		typ = fieldU
	case len(line) > 0 && (line[0] == ' ' || line[0] == '\t'):
		field = strings.TrimLeft(field, " \t")
		typ = fieldAddressCont
	default:
		xmalformedf("Invalid header type")
	}

	return typ, field, information
}

// finishCurrentAddress flushes e.currentAddress into whichever list
// e.addressState names, then returns the accumulator to idle. Grounded on
// EnvelopeHeaderPdu::finish_current_address.
func (e *EnvelopeHeaderState) finishCurrentAddress() {
	switch e.addressState {
	case addressIdle:
		return
	case addressParsingTo:
		e.To = append(e.To, e.currentAddress)
	case addressParsingCc:
		e.Cc = append(e.Cc, e.currentAddress)
	case addressParsingFrom:
		from := e.currentAddress
		e.From = &from
	}
	e.currentAddress = RawAddress{}
	e.addressState = addressIdle
}

// ParseEnvelopeLine applies one information line to e. addressOnly is set
// for Verify (only To/Cc/address-continuation lines are legal); Env accepts
// the full header grammar. Grounded on
// EnvelopeHeaderPdu::parse_envelope_line.
func (e *EnvelopeHeaderState) ParseEnvelopeLine(line string, addressOnly bool) {
	if line == "" {
		xmalformedf("Empty address line")
	}

	typ, field, information := splitEnvelopeLine(line)
	informationDecoded := string(xdecodeText([]byte(information)))

	if addressOnly {
		switch typ {
		case fieldAddressCont, fieldTo, fieldCc:
		default:
			xmalformedf("Invalid addressing type")
		}
	}

	if typ != fieldAddressCont {
		e.finishCurrentAddress()
	}

	switch typ {
	case fieldAddressCont:
		if e.addressState == addressIdle {
			xmalformedf("Invalid start of address")
		}
		if !IsPrintable([]byte(informationDecoded)) {
			xmalformedf("Invalid characters in address")
		}
		e.currentAddress.ParseField(field, informationDecoded)

	case fieldTo, fieldCc, fieldFrom:
		switch typ {
		case fieldTo:
			e.addressState = addressParsingTo
		case fieldCc:
			e.addressState = addressParsingCc
		case fieldFrom:
			if e.From != nil {
				xenvelopef("Multiple FROM: addresses")
			}
			e.addressState = addressParsingFrom
		}
		if !IsPrintable([]byte(informationDecoded)) {
			xmalformedf("Invalid characters in address")
		}
		e.currentAddress.ParseAddressFirstLine(informationDecoded)

	case fieldDate, fieldSourceDate:
		d := xparseDate(informationDecoded)
		if typ == fieldDate {
			e.Date = &d
		} else {
			e.SourceDate = &d
		}

	case fieldSubject:
		s := truncate(informationDecoded, subjectMaxLen)
		e.Subject = &s

	case fieldMessageID:
		m := truncate(informationDecoded, messageIDMaxLen)
		e.MessageID = &m

	case fieldSourceMessageID:
		if len(e.SourceMessageID) == fifoWindow {
			e.SourceMessageID = e.SourceMessageID[1:]
		}
		e.SourceMessageID = append(e.SourceMessageID, truncate(informationDecoded, sourceMessageIDMaxLen))

	case fieldU:
		if len(e.UFields) == fifoWindow {
			e.UFields = e.UFields[1:]
		}
		tag := field
		tag = strings.TrimSuffix(tag, ":")
		e.UFields = append(e.UFields, uField{
			Tag:   truncate(tag, uFieldTagMaxLen),
			Value: truncate(informationDecoded, uFieldValueMaxLen),
		})

	case fieldHandling:
		// Recognised, no effect — spec.md §4.6 carries it through
		// unexamined, same as original_source's empty case.
	}

	e.sawAnyEnvelopeData = true
}

// finalize flushes the in-flight address and checks the universal envelope
// invariants. Grounded on EnvelopeHeaderPdu::_finalize.
func (e *EnvelopeHeaderState) finalize() {
	e.finishCurrentAddress()

	if !e.sawAnyEnvelopeData {
		panic(ErrEnvelopeNoData())
	}
	if len(e.To) == 0 {
		panic(ErrEnvelopeNoTo())
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
