package mep2

import "testing"

func TestAddressFirstLineNameOnly(t *testing.T) {
	var a RawAddress
	a.ParseAddressFirstLine("Frodo Baggins")
	if a.Name != "Frodo Baggins" || a.ID != "" {
		t.Fatalf("a = %+v", a)
	}
}

func TestAddressFirstLineMciidOnly(t *testing.T) {
	var a RawAddress
	a.ParseAddressFirstLine("111-1111")
	if a.ID != "111-1111" || a.Name != "" {
		t.Fatalf("a = %+v", a)
	}
}

func TestAddressFirstLineNameSlashMciid(t *testing.T) {
	var a RawAddress
	a.ParseAddressFirstLine("Gandalf/111-1111")
	if a.Name != "Gandalf" || a.ID != "111-1111" {
		t.Fatalf("a = %+v, want Name=Gandalf ID=111-1111", a)
	}
}

func TestAddressFirstLineNameSlashLoc(t *testing.T) {
	var a RawAddress
	a.ParseAddressFirstLine("Gandalf/Loc: Rivendell")
	if a.Name != "Gandalf" || a.Location != "Rivendell" {
		t.Fatalf("a = %+v", a)
	}
}

func TestAddressFirstLineNameSlashOrgSlashLoc(t *testing.T) {
	var a RawAddress
	a.ParseAddressFirstLine("Gandalf/Org: Istari/Loc: Rivendell")
	if a.Name != "Gandalf" || a.Organization != "Istari" || a.Location != "Rivendell" {
		t.Fatalf("a = %+v", a)
	}
}

func TestAddressFirstLineTooManySlashes(t *testing.T) {
	var a RawAddress
	err := xcapture(func() { a.ParseAddressFirstLine("a/b/c/d") })
	if err == nil {
		t.Fatal("expected an error for more than two slash-separated fields")
	}
}

func TestAddressOptions(t *testing.T) {
	var a RawAddress
	a.ParseAddressFirstLine("Gandalf (BOARD, RECEIPT)")
	if a.Name != "Gandalf" || !a.Board || !a.Receipt || a.Instant {
		t.Fatalf("a = %+v", a)
	}
	if got := a.String(); got != "Gandalf (BOARD, RECEIPT)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestAddressOrgLocCannotBeMciid(t *testing.T) {
	var a RawAddress
	err := xcapture(func() { a.ParseAddressFirstLine("Gandalf/111-1111/222-2222") })
	var merr Error
	if err == nil {
		t.Fatal("expected an error: second and third fields cannot both look like MCI-IDs")
	}
	_ = merr
}

func TestAddressFieldEMSThenMBX(t *testing.T) {
	var a RawAddress
	a.ParseField("EMS:", "TELEX")
	a.ParseField("MBX:", "route-a")
	a.ParseField("MBX:", "route-b")
	if a.EMS != "TELEX" || len(a.MBX) != 2 {
		t.Fatalf("a = %+v", a)
	}
}

func TestAddressFieldMBXWithoutEMS(t *testing.T) {
	var a RawAddress
	err := xcapture(func() { a.ParseField("MBX:", "route-a") })
	if err == nil {
		t.Fatal("expected an error for MBX without a preceding EMS")
	}
}

func TestAddressFieldMBXAggregateLimit(t *testing.T) {
	var a RawAddress
	a.ParseField("EMS:", "TELEX")
	long := make([]byte, 306)
	for i := range long {
		long[i] = 'x'
	}
	err := xcapture(func() { a.ParseField("MBX:", string(long)) })
	if err == nil {
		t.Fatal("expected an error for MBX routing info over 305 bytes")
	}
}
