package mep2

import "testing"

func TestChecksumTurn(t *testing.T) {
	var c Checksum
	c.Add([]byte("/TURN*"))
	if got := c.String(); got != "01A2" {
		t.Fatalf("checksum of /TURN* = %s, want 01A2", got)
	}
}

func TestChecksumReplyScan(t *testing.T) {
	lines := []string{
		"/REPLY SCAN 100\r\n",
		"Request performed successfully\r\n",
		"POSTED       FROM               SUBJECT                    " + " SIZE\r\n",
		"Oct 30 15:09 Eileen Gamache     (Forwarded) CPR Training   " + "  1345\r\n",
		"Oct 31 09:56 Barbara Deniston   (Forwarded) Springs Trek   " + "  2664\r\n",
		"Oct 31 16:25 Eileen Gamache     Weekly Status Report       " + " 30435\r\n",
		"Nov 01 08:32 Dan O'Reilly       FYI - ethernet testing     " + "   660\r\n",
		"Nov 01 11:58 John Weaver        Organizational Change%2FEn " + "     869\r\n",
		"Nov 04 09:18 Eileen Gamache     Pencil Sharpener           " + "   227\r\n",
		"/END REPLY*",
	}
	var c Checksum
	for _, l := range lines {
		c.Add([]byte(l))
	}
	if got := c.String(); got != "8CF2" {
		t.Fatalf("checksum of multi-line REPLY SCAN 100 scenario = %s, want 8CF2", got)
	}
}

func TestChecksumSkipsHighBit(t *testing.T) {
	var a, b Checksum
	a.Add([]byte{0x41})
	b.Add([]byte{0xC1}) // same low 7 bits, high bit set
	if a != b {
		t.Fatalf("checksum should only fold the low 7 bits: %v != %v", a, b)
	}
}
