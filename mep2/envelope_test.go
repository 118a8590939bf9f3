package mep2

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvelopeParseOptionsPriority(t *testing.T) {
	var e EnvelopeHeaderState
	e.parseOptions("ONITE")
	if e.Priority != PriorityOnite {
		t.Fatalf("Priority = %v, want Onite", e.Priority)
	}
}

func TestEnvelopeParseOptionsUnknownPriority(t *testing.T) {
	var e EnvelopeHeaderState
	err := xcapture(func() { e.parseOptions("BOGUS") })
	var merr Error
	if !errors.As(err, &merr) || merr.Code != CMalformedData {
		t.Fatalf("err = %v, want Malformed_Data", err)
	}
}

func TestEnvelopeVerifyAddressOnlyRejectsSubject(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", true)
	err := xcapture(func() { e.ParseEnvelopeLine("Subject: hi\r\n", true) })
	var merr Error
	if !errors.As(err, &merr) || merr.Code != CMalformedData {
		t.Fatalf("err = %v, want Malformed_Data for Subject under Verify", err)
	}
}

func TestEnvelopeToFromSubject(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("From: Bilbo Baggins\r\n", false)
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	e.ParseEnvelopeLine("Subject: The Ring\r\n", false)
	e.finalize()

	if e.From == nil || e.From.Name != "Bilbo Baggins" {
		t.Fatalf("From = %+v", e.From)
	}
	if len(e.To) != 1 || e.To[0].Name != "Gandalf" {
		t.Fatalf("To = %+v", e.To)
	}
	if e.Subject == nil || *e.Subject != "The Ring" {
		t.Fatalf("Subject = %v", e.Subject)
	}
}

func TestEnvelopeAddressContinuation(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	e.ParseEnvelopeLine(" EMS: TELEX\r\n", false)
	e.finalize()

	if len(e.To) != 1 || e.To[0].EMS != "TELEX" {
		t.Fatalf("To = %+v", e.To)
	}
}

func TestEnvelopeMultipleFromRejected(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("From: Bilbo\r\n", false)
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	err := xcapture(func() { e.ParseEnvelopeLine("From: Frodo\r\n", false) })
	var merr Error
	if !errors.As(err, &merr) || merr.Code != CEnvelopeProblem {
		t.Fatalf("err = %v, want Envelope_Problem for a second FROM:", err)
	}
}

func TestEnvelopeNoDataIsRejected(t *testing.T) {
	var e EnvelopeHeaderState
	err := xcapture(func() { e.finalize() })
	var merr Error
	if !errors.As(err, &merr) || merr.Code != CEnvelopeNoData {
		t.Fatalf("err = %v, want Envelope_No_Data for an empty envelope", err)
	}
}

func TestEnvelopeNoToIsRejected(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("From: Bilbo\r\n", false)
	err := xcapture(func() { e.finalize() })
	var merr Error
	if !errors.As(err, &merr) || merr.Code != CEnvelopeNoTo {
		t.Fatalf("err = %v, want Envelope_No_To for a missing To:", err)
	}
}

func TestEnvelopeSourceMessageIDFifoWindow(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	for i := 0; i < 7; i++ {
		e.ParseEnvelopeLine("Source-Message-Id: id"+string(rune('0'+i))+"\r\n", false)
	}
	if len(e.SourceMessageID) != fifoWindow {
		t.Fatalf("len(SourceMessageID) = %d, want %d", len(e.SourceMessageID), fifoWindow)
	}
	if e.SourceMessageID[0] != "id2" {
		t.Fatalf("SourceMessageID[0] = %q, want the oldest two dropped (id2 first)", e.SourceMessageID[0])
	}
}

func TestEnvelopeUFieldFifoWindowAndTruncation(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	for i := 0; i < 6; i++ {
		e.ParseEnvelopeLine("U-Custom"+string(rune('0'+i))+": value\r\n", false)
	}
	if len(e.UFields) != fifoWindow {
		t.Fatalf("len(UFields) = %d, want %d", len(e.UFields), fifoWindow)
	}

	var e2 EnvelopeHeaderState
	e2.ParseEnvelopeLine("To: Gandalf\r\n", false)
	longVal := strings.Repeat("x", 100)
	e2.ParseEnvelopeLine("U-Tag: "+longVal+"\r\n", false)
	if len(e2.UFields[0].Value) != uFieldValueMaxLen {
		t.Fatalf("UFields[0].Value length = %d, want %d", len(e2.UFields[0].Value), uFieldValueMaxLen)
	}
}

func TestEnvelopeSubjectTruncation(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	e.ParseEnvelopeLine("Subject: "+strings.Repeat("a", 300)+"\r\n", false)
	if e.Subject == nil || len(*e.Subject) != subjectMaxLen {
		t.Fatalf("Subject length = %d, want %d", len(*e.Subject), subjectMaxLen)
	}
}

func TestEnvelopeDateAndSourceDate(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	e.ParseEnvelopeLine("Date: Sun Aug 11, 2024 12:00 AM PST\r\n", false)
	e.ParseEnvelopeLine("Source-Date: Sun Aug 11, 2024 01:00 AM PST\r\n", false)
	if e.Date == nil || e.SourceDate == nil {
		t.Fatalf("Date = %v, SourceDate = %v", e.Date, e.SourceDate)
	}
	if e.Date.Equal(*e.SourceDate) {
		t.Fatal("Date and SourceDate should differ")
	}
}

func TestEnvelopeHandlingLineIsInert(t *testing.T) {
	var e EnvelopeHeaderState
	e.ParseEnvelopeLine("To: Gandalf\r\n", false)
	e.ParseEnvelopeLine("Handling: RECEIPT\r\n", false)
	e.finalize()
	if len(e.To) != 1 {
		t.Fatalf("To = %+v", e.To)
	}
}

func TestEnvelopeMissingColonIsMalformed(t *testing.T) {
	var e EnvelopeHeaderState
	err := xcapture(func() { e.ParseEnvelopeLine("no colon here\r\n", false) })
	var merr Error
	if !errors.As(err, &merr) || merr.Code != CMalformedData {
		t.Fatalf("err = %v, want Malformed_Data", err)
	}
}
