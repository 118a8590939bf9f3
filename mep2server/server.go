// Package mep2server accepts MEP2 connections, frames CR(LF)-terminated
// lines off the wire, feeds them to a mep2.Parser, and persists completed
// PDUs to a store.Catalogue. Grounded on smtpserver/server.go's accept
// loop, traced-I/O wiring, and panic/recover command-cleanup idiom, adapted
// from SMTP's verb dispatch to MEP2's line-framed, checksum-terminated PDU
// stream.
package mep2server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/retro-rabbit-hole/MCImail/config"
	"github.com/retro-rabbit-hole/MCImail/mep2"
	"github.com/retro-rabbit-hole/MCImail/metrics"
	"github.com/retro-rabbit-hole/MCImail/mlog"
	"github.com/retro-rabbit-hole/MCImail/moxio"
	"github.com/retro-rabbit-hole/MCImail/store"
)

var xlog = mlog.New("mep2server")

var (
	metricConnection = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mox_mep2server_connection_total",
			Help: "Incoming MEP2 connections.",
		},
		[]string{},
	)
	metricPdus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mox_mep2server_pdu_total",
			Help: "MEP2 PDUs parsed, by kind and result code.",
		},
		[]string{
			"kind",
			"code",
		},
	)
	metricChecksumErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mox_mep2server_checksum_error_total",
			Help: "MEP2 checksum errors, consecutive runs of which disconnect a session.",
		},
		[]string{},
	)
	metricPduDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mox_mep2server_pdu_duration_seconds",
			Help:    "MEP2 time to parse and persist one PDU, by kind and result code.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{
			"kind",
			"code",
		},
	)
)

var errIO = errors.New("mep2server: io error")

// isClosed reports whether err represents a network-level connection close
// rather than a protocol or programmer error, mirroring smtpserver's own
// isClosed.
func isClosed(err error) bool {
	return errors.Is(err, errIO) || moxio.IsClosed(err)
}

var cleanClose struct{} // Sentinel panic value for a clean, voluntary disconnect.

// Listen starts accepting connections on cfg.Listen.Addr, serving each one
// in its own goroutine until l is closed. Grounded on smtpserver.Listen's
// top-level per-listener accept loop, trimmed to MEP2's single listener.
func Listen(cfg config.Static, cat *store.Catalogue) error {
	l, err := net.Listen("tcp", cfg.Listen.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Listen.Addr, err)
	}
	return Serve(l, cfg, cat)
}

// Serve accepts connections from l until it is closed or returns an error.
// Separated from Listen so tests can drive an in-memory or already-bound
// listener directly.
func Serve(l net.Listener, cfg config.Static, cat *store.Catalogue) error {
	postmasterFolder := parsePostmasterFolder(cfg.Postmaster.Folder)

	var cid int64
	for {
		nc, err := l.Accept()
		if err != nil {
			return err
		}
		cid++
		go serve(cid, nc, cfg.Listen, cat, postmasterFolder)
	}
}

// parsePostmasterFolder maps the config's Postmaster.Folder name to the
// store.FolderID unresolved-recipient messages are filed under, mirroring
// mep2.ParseQueryOptions' FOLDER= keyword vocabulary. Unset or unrecognised
// values fall back to the Inbox, per the config doc comment's stated
// default.
func parsePostmasterFolder(name string) store.FolderID {
	switch name {
	case "OUTBOX":
		return store.FolderOutbox
	case "DESK":
		return store.FolderDesk
	case "TRASH":
		return store.FolderTrash
	default:
		return store.FolderInbox
	}
}

// conn holds the state of one MEP2 connection: its framed I/O, the parser
// assembling the PDU presently in flight, and the consecutive-checksum-error
// counter that decides when to give up on the session.
type conn struct {
	cid int64
	nc  net.Conn
	r   *bufio.Reader
	w   *bufio.Writer
	tr  *moxio.TraceReader
	tw  *moxio.TraceWriter
	log *mlog.Log
	cfg              config.Listener
	cat              *store.Catalogue
	pdu              mep2.Parser
	msg              pendingMessage
	postmasterFolder store.FolderID

	checksumStreak int
}

// serve runs one connection's lifetime: greeting, line loop, and a deferred
// cleanup closure that classifies the terminating panic the same way
// smtpserver.serve does (clean quit, network close, or unhandled panic).
func serve(cid int64, nc net.Conn, lcfg config.Listener, cat *store.Catalogue, postmasterFolder store.FolderID) {
	c := &conn{
		cid:              cid,
		nc:               nc,
		cfg:              lcfg,
		cat:              cat,
		postmasterFolder: postmasterFolder,
		log:              mlog.New("mep2server").WithCid(cid),
	}
	c.tr = moxio.NewTraceReader(*c.log, "RC: ", nc)
	c.tw = moxio.NewTraceWriter(*c.log, "LS: ", nc)
	c.r = bufio.NewReader(c.tr)
	c.w = bufio.NewWriter(c.tw)

	metricConnection.WithLabelValues().Inc()
	c.log.Info("new connection", mlog.Field("remote", nc.RemoteAddr()), mlog.Field("local", nc.LocalAddr()))

	defer func() {
		nc.Close()

		x := recover()
		if x == nil || x == cleanClose {
			c.log.Info("connection closed")
		} else if err, ok := x.(error); ok && isClosed(err) {
			c.log.Infox("connection closed", err)
		} else {
			c.log.Error("unhandled panic", mlog.Field("err", x))
			debug.PrintStack()
			metrics.PanicInc("mep2server")
		}
	}()

	if lcfg.ReadTimeout > 0 {
		c.nc.SetReadDeadline(time.Now().Add(lcfg.ReadTimeout))
	}

	for {
		handleLine(c)

		n := c.r.Buffered()
		if n > 0 {
			buf, err := c.r.Peek(n)
			if err == nil && bytes.IndexByte(buf, '\n') >= 0 {
				continue
			}
		}
		c.xflush()
	}
}

// xflush flushes buffered writes to the connection, converting a write
// error into the errIO sentinel the deferred cleanup in serve recognises.
func (c *conn) xflush() {
	if err := c.w.Flush(); err != nil {
		panic(fmt.Errorf("flush: %s (%w)", err, errIO))
	}
}

// xreadline reads one PDU line, CR (and optional LF) included, applying the
// listener's idle read timeout to each read.
func (c *conn) xreadline() string {
	if c.cfg.ReadTimeout > 0 {
		c.nc.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	line, err := c.r.ReadString('\r')
	if err != nil {
		panic(fmt.Errorf("%s (%w)", err, errIO))
	}
	if b, err := c.r.Peek(1); err == nil && b[0] == '\n' {
		c.r.ReadByte()
		line += "\n"
	}
	return line
}

// writeReply writes one numeric reply line and flushes it immediately,
// mirroring smtpserver's conn.writelinef.
func (c *conn) writeReply(code int, msg string) {
	fmt.Fprintf(c.w, "%d %s\r\n", code, msg)
	c.xflush()
}
