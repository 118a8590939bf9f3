package mep2

import "fmt"

// Checksum is the additive 7-bit accumulator described in spec.md §4.3: for
// every raw byte belonging to a PDU, the low 7 bits are added modulo 2^16.
// Grounded on original_source/include/mep2_pdu.hpp's PduChecksum.
type Checksum uint16

// Add folds every byte of line into the checksum, masking each to its low 7
// bits first. The caller must pass the exact wire bytes — CR/LF included —
// the sender hashed; nothing here strips or reinterprets the input.
func (c *Checksum) Add(line []byte) {
	for _, b := range line {
		*c += Checksum(b & 0x7F)
	}
}

// String renders the checksum as 4 uppercase hex digits.
func (c Checksum) String() string {
	return fmt.Sprintf("%04X", uint16(c))
}

// zzzzSentinel is the reserved checksum literal that instructs the receiver
// to skip integrity verification for the PDU (case-insensitive on the wire).
const zzzzSentinel = "ZZZZ"

// isSkipChecksum reports whether s is the ZZZZ sentinel, any case.
func isSkipChecksum(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := s[i]
		if c != 'Z' && c != 'z' {
			return false
		}
	}
	return true
}

// parseChecksumHex parses a 4-character hex literal into a Checksum. Each
// character must be [0-9A-Fa-f]; anything else fails.
func parseChecksumHex(s string) (Checksum, bool) {
	if len(s) != 4 {
		return 0, false
	}
	var v uint16
	for i := 0; i < 4; i++ {
		d, ok := hexDigit(s[i])
		if !ok {
			return 0, false
		}
		v = v<<4 | uint16(d)
	}
	return Checksum(v), true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// compareChecksum validates a sender-supplied checksum literal (the 4
// characters after '*') against the accumulated checksum. ZZZZ (any case)
// always passes. An invalid hex literal raises PDU_Syntax_Error; a mismatch
// raises Checksum_Error with the "Wanted: X, actual: Y" message spec.md §4.1
// requires.
func compareChecksum(computed Checksum, senderLiteral string) {
	if isSkipChecksum(senderLiteral) {
		return
	}
	sender, ok := parseChecksumHex(senderLiteral)
	if !ok {
		xerrorf("Checksum has invalid characters")
	}
	if sender != computed {
		panic(ErrChecksum(fmt.Sprintf("Wanted: %s, actual: %s", sender, computed)))
	}
}
