package mep2server

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/retro-rabbit-hole/MCImail/config"
	"github.com/retro-rabbit-hole/MCImail/store"
)

func newTestCatalogue(t *testing.T) *store.Catalogue {
	t.Helper()
	cat, err := store.OpenCatalogue(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat
}

// startTestConn wires one in-memory connection through serve, the same
// net.Pipe harness smtpserver/server_test.go drives its own serve tests
// with, and returns the client half plus a channel closed once serve
// returns.
func startTestConn(t *testing.T, cfg config.Listener, cat *store.Catalogue) (net.Conn, chan struct{}) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		serve(1, serverConn, cfg, cat, store.FolderInbox)
		close(done)
	}()
	t.Cleanup(func() { clientConn.Close() })
	return clientConn, done
}

func readReply(t *testing.T, c net.Conn) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 512)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	return string(buf[:n])
}

func TestServeCreateReturnsSuccess(t *testing.T) {
	cat := newTestCatalogue(t)
	client, _ := startTestConn(t, config.Listener{}, cat)

	if _, err := client.Write([]byte("/CREATE*ZZZZ\r\n")); err != nil {
		t.Fatal(err)
	}
	reply := readReply(t, client)
	if !strings.HasPrefix(reply, "100 CREATE OK") {
		t.Fatalf("reply = %q, want 100 CREATE OK prefix", reply)
	}
}

func TestServeChecksumErrorReportsCode403(t *testing.T) {
	cat := newTestCatalogue(t)
	client, _ := startTestConn(t, config.Listener{}, cat)

	if _, err := client.Write([]byte("/CREATE*0000\r\n")); err != nil {
		t.Fatal(err)
	}
	reply := readReply(t, client)
	if !strings.HasPrefix(reply, "403 ") {
		t.Fatalf("reply = %q, want 403 Checksum_Error prefix", reply)
	}
}

func TestServeFiveConsecutiveChecksumErrorsDisconnects(t *testing.T) {
	cat := newTestCatalogue(t)
	client, done := startTestConn(t, config.Listener{ChecksumErrorLimit: 5}, cat)

	var last string
	for i := 0; i < 5; i++ {
		if _, err := client.Write([]byte("/CREATE*0000\r\n")); err != nil {
			t.Fatal(err)
		}
		last = readReply(t, client)
	}
	if !strings.HasPrefix(last, "498 ") {
		t.Fatalf("final reply = %q, want 498 Too_Many_Checksum_Errors", last)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after the checksum error limit was hit")
	}
}

func TestServeChecksumStreakResetsOnSuccess(t *testing.T) {
	cat := newTestCatalogue(t)
	client, done := startTestConn(t, config.Listener{ChecksumErrorLimit: 3}, cat)

	for i := 0; i < 2; i++ {
		client.Write([]byte("/CREATE*0000\r\n"))
		readReply(t, client)
	}
	// A successful PDU between bad ones should reset the streak, so two
	// more bad checksums afterward must not yet trip the limit of 3.
	client.Write([]byte("/CREATE*ZZZZ\r\n"))
	readReply(t, client)
	client.Write([]byte("/CREATE*0000\r\n"))
	reply := readReply(t, client)
	if !strings.HasPrefix(reply, "403 ") {
		t.Fatalf("reply = %q, want 403 (streak should have reset, not yet hit the limit)", reply)
	}

	select {
	case <-done:
		t.Fatal("serve returned early; the checksum streak should not have tripped the limit yet")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServeCreateVerifyTermCataloguesMessage(t *testing.T) {
	cat := newTestCatalogue(t)
	client, _ := startTestConn(t, config.Listener{}, cat)

	lines := []string{
		"/CREATE*ZZZZ\r\n",
		"/VERIFY\r\n",
		"To: Gandalf\r\n",
		"/END VERIFY*ZZZZ\r\n",
		"/TEXT\r\n",
		"Hello, Gandalf.\r\n",
		"/END TEXT*ZZZZ\r\n",
		"/TERM*ZZZZ\r\n",
	}
	for _, l := range lines {
		if _, err := client.Write([]byte(l)); err != nil {
			t.Fatal(err)
		}
		// The server replies once per completed PDU: only single-line PDUs
		// and /END lines, the lines carrying a checksum, complete one.
		if !strings.Contains(l, "*") {
			continue
		}
		reply := readReply(t, client)
		if !strings.HasPrefix(reply, "100 ") {
			t.Fatalf("line %q got reply %q, want a 100 prefix", l, reply)
		}
	}

	recs, err := cat.InFolder(store.FolderOutbox)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1 catalogued message", len(recs))
	}
	if recs[0].Size == 0 {
		t.Fatalf("rec = %+v, want a non-zero staged body size", recs[0])
	}
}

// TestServeTermWithNoRecipientFilesUnderPostmasterFolder covers
// config.Static.Postmaster.Folder: a Term with no preceding Env/Verify (or
// one with no To: address) has no resolvable recipient, and should be
// catalogued under the configured Postmaster folder rather than Outbox.
func TestServeTermWithNoRecipientFilesUnderPostmasterFolder(t *testing.T) {
	cat := newTestCatalogue(t)
	serverConn, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		serve(1, serverConn, config.Listener{}, cat, store.FolderDesk)
		close(done)
	}()
	t.Cleanup(func() { client.Close() })

	lines := []string{
		"/CREATE*ZZZZ\r\n",
		"/TEXT\r\n",
		"Nobody to send this to.\r\n",
		"/END TEXT*ZZZZ\r\n",
		"/TERM*ZZZZ\r\n",
	}
	for _, l := range lines {
		if _, err := client.Write([]byte(l)); err != nil {
			t.Fatal(err)
		}
		// One reply per completed PDU, as above.
		if !strings.Contains(l, "*") {
			continue
		}
		reply := readReply(t, client)
		if !strings.HasPrefix(reply, "100 ") {
			t.Fatalf("line %q got reply %q, want a 100 prefix", l, reply)
		}
	}

	recs, err := cat.InFolder(store.FolderDesk)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1 message filed under the configured Postmaster folder", len(recs))
	}

	outbox, err := cat.InFolder(store.FolderOutbox)
	if err != nil {
		t.Fatal(err)
	}
	if len(outbox) != 0 {
		t.Fatalf("len(outbox) = %d, want 0 — no recipient means it shouldn't land in Outbox", len(outbox))
	}
}
