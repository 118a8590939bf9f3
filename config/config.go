// Package config holds the mep2d configuration file definition.
package config

import "time"

// DefaultMaxMsgSize is the value mep2d fills in for Listener.MaxMsgSize when
// the configuration leaves it unset. mep2server does not read MaxMsgSize, so
// no size limit is applied to a PDU's information lines.
const DefaultMaxMsgSize = 20 * 1024 * 1024

// DefaultChecksumErrorLimit is the number of consecutive Checksum_Error
// results a connection tolerates before mep2server disconnects it with
// 498 Too_Many_Checksum_Errors, per spec.md §5's five-strikes rule.
const DefaultChecksumErrorLimit = 5

// Static is the parsed form of mep2d.conf. Unlike the teacher's own
// Static, which spans ACME, DNS, DKIM, and outgoing-transport
// configuration for a full mail server, this Static covers only what a
// single-protocol MEP2 listener needs: where to keep data, what address
// to bind, and how chatty to be.
type Static struct {
	DataDir          string            `sconf-doc:"NOTE: This config file is in 'sconf' format. Indent with tabs. Comments must be on their own line, they don't end a line. Do not escape or quote strings. Details: https://pkg.go.dev/github.com/mjl-/sconf.\n\n\nDirectory where all data is stored: the message catalogue, content arena, and its tmp staging directory. If this is a relative path, it is relative to the directory of mep2d.conf."`
	LogLevel         string            `sconf-doc:"Default log level, one of: error, info, debug, trace, traceauth, tracedata. Trace logs the raw PDU line transcript; tracedata additionally logs decoded information-line content."`
	PackageLogLevels map[string]string `sconf:"optional" sconf-doc:"Overrides of log level per package (e.g. mep2, mep2server, store)."`

	Listen Listener `sconf-doc:"The single MEP2 listener this process serves."`

	Postmaster struct {
		Folder string `sconf:"optional" sconf-doc:"Folder catalogue entries with no resolvable recipient are filed under. Default: Inbox."`
	} `sconf:"optional"`
}

// Listener is the network address and per-connection limits for the MEP2
// service. Grounded on the shape of the teacher's config.Listener, trimmed
// to the one transport MEP2 actually needs: a single plain TCP socket, no
// STARTTLS/submission/IMAP variants.
type Listener struct {
	Addr               string        `sconf-doc:"Address to listen on, e.g. :6060 or 127.0.0.1:6060."`
	MaxMsgSize         int64         `sconf:"optional" sconf-doc:"Maximum total decoded size in bytes of one PDU's information lines. Default 20MB. The listener does not enforce this value."`
	ChecksumErrorLimit int           `sconf:"optional" sconf-doc:"Number of consecutive Checksum_Error results tolerated before the connection is dropped. Default 5."`
	ReadTimeout        time.Duration `sconf:"optional" sconf-doc:"Idle read timeout per line. Zero, the default, applies no read timeout."`
}
