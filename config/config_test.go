package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mjl-/sconf"
)

func TestStaticParseRoundTrip(t *testing.T) {
	const conf = `
DataDir: /var/lib/mep2d
LogLevel: info
PackageLogLevels:
	mep2: trace
Listen:
	Addr: :6060
	MaxMsgSize: 1048576
	ChecksumErrorLimit: 3
	ReadTimeout: 5m0s
Postmaster:
	Folder: Inbox
`
	var cfg Static
	if err := sconf.Parse(strings.NewReader(conf), &cfg); err != nil {
		t.Fatalf("parsing config: %v", err)
	}

	if cfg.DataDir != "/var/lib/mep2d" || cfg.LogLevel != "info" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PackageLogLevels["mep2"] != "trace" {
		t.Fatalf("PackageLogLevels = %v", cfg.PackageLogLevels)
	}
	if cfg.Listen.Addr != ":6060" || cfg.Listen.MaxMsgSize != 1048576 || cfg.Listen.ChecksumErrorLimit != 3 {
		t.Fatalf("Listen = %+v", cfg.Listen)
	}
	if cfg.Listen.ReadTimeout != 5*time.Minute {
		t.Fatalf("ReadTimeout = %v, want 5m", cfg.Listen.ReadTimeout)
	}
	if cfg.Postmaster.Folder != "Inbox" {
		t.Fatalf("Postmaster.Folder = %q", cfg.Postmaster.Folder)
	}

	var buf bytes.Buffer
	if err := sconf.Write(&buf, cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	var roundTripped Static
	if err := sconf.Parse(&buf, &roundTripped); err != nil {
		t.Fatalf("re-parsing written config: %v", err)
	}
	if roundTripped.DataDir != cfg.DataDir {
		t.Fatalf("round-tripped DataDir = %q, want %q", roundTripped.DataDir, cfg.DataDir)
	}
	if roundTripped.Listen.Addr != cfg.Listen.Addr {
		t.Fatalf("round-tripped Listen.Addr = %q, want %q", roundTripped.Listen.Addr, cfg.Listen.Addr)
	}
}

func TestStaticMinimalConfigLeavesOptionalFieldsZero(t *testing.T) {
	const conf = `
DataDir: /var/lib/mep2d
LogLevel: error
Listen:
	Addr: :6060
`
	var cfg Static
	if err := sconf.Parse(strings.NewReader(conf), &cfg); err != nil {
		t.Fatalf("parsing minimal config: %v", err)
	}
	if cfg.Listen.MaxMsgSize != 0 || cfg.Listen.ChecksumErrorLimit != 0 {
		t.Fatalf("Listen = %+v, want zero optionals so callers apply DefaultMaxMsgSize/DefaultChecksumErrorLimit", cfg.Listen)
	}
}
