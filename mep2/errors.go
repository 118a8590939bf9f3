package mep2

import "fmt"

// Reply codes, as specified by the MEP2 status taxonomy. Names match the
// wire mapping table so a packet trace and this source agree on vocabulary.
const (
	CSuccess                 = 100
	CUnableToPerform         = 300
	CPduSyntaxError          = 301
	CProtocolViolation       = 302
	CMalformedData           = 303
	CUnimplementedFunction   = 304
	CEnvelopeProblem         = 310
	CEnvelopeNoData          = 311
	CEnvelopeNoTo            = 312
	CMasterMustTermPermanent = 399
	CSystemError             = 400
	CInsufficientSpace       = 401
	CChecksumError           = 403
	CSystemUnavailable       = 404
	CAccountInUse            = 407
	CConnectionsBusy         = 408
	CTimeout                 = 409
	CTooManyChecksumErrors   = 498
	CMasterMustTermTemporary = 499
)

// Error is a PDU-level protocol error: a numeric reply code plus a
// human-readable message. Parsing functions throughout this package raise
// Error values by panicking (see xerrorf and friends below), mirroring the
// teacher's smtpserver.smtpError/xsmtpUserErrorf idiom, and the outer parser
// boundary recovers them back into normal returned errors.
type Error struct {
	Code int
	Msg  string
}

func (e Error) Error() string { return e.Msg }

func newError(code int, msg string) Error { return Error{code, msg} }

// ErrPduSyntax builds a 301 PDU_Syntax_Error.
func ErrPduSyntax(context string) Error {
	return newError(CPduSyntaxError, "PDU syntax error: "+context)
}

// ErrMalformedData builds a 303 Malformed_Data error. Per spec.md §7, the
// message always carries the "Malformed data: " context prefix.
func ErrMalformedData(context string) Error {
	return newError(CMalformedData, "Malformed data: "+context)
}

// ErrEnvelopeProblem builds a 310 Envelope_Problem error.
func ErrEnvelopeProblem(context string) Error {
	return newError(CEnvelopeProblem, "At least one problem within envelope: "+context)
}

// ErrEnvelopeNoData builds a 311 Envelope_No_Data error.
func ErrEnvelopeNoData() Error {
	return newError(CEnvelopeNoData, "No envelope data received")
}

// ErrEnvelopeNoTo builds a 312 Envelope_No_To error.
func ErrEnvelopeNoTo() Error {
	return newError(CEnvelopeNoTo, "At least one To: recipient required")
}

// ErrChecksum builds a 403 Checksum_Error error.
func ErrChecksum(context string) Error {
	return newError(CChecksumError, "Checksum error: "+context)
}

// xerrorf panics with a 301 PDU_Syntax_Error built from format/args. Parsing
// helpers use this (and the sibling x* helpers below) to short-circuit deep
// validation chains without threading an error return through every step,
// the same role smtpserver/parse.go's p.xerrorf plays for SMTP command
// parsing. Callers at a package boundary must recover and convert back to a
// normal error (see the deferred recover in Parser.ParseLine).
func xerrorf(format string, args ...any) {
	panic(ErrPduSyntax(fmt.Sprintf(format, args...)))
}

func xmalformedf(format string, args ...any) {
	panic(ErrMalformedData(fmt.Sprintf(format, args...)))
}

func xenvelopef(format string, args ...any) {
	panic(ErrEnvelopeProblem(fmt.Sprintf(format, args...)))
}
