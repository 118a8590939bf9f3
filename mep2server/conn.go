package mep2server

import (
	"errors"
	"fmt"
	"time"

	"github.com/retro-rabbit-hole/MCImail/mep2"
	"github.com/retro-rabbit-hole/MCImail/mlog"
	"github.com/retro-rabbit-hole/MCImail/moxio"
	"github.com/retro-rabbit-hole/MCImail/store"
)

// pendingMessage accumulates the envelope and staged body of one in-progress
// Create..Term sequence. spec.md keeps message assembly out of the core
// parser's scope entirely (the parser extracts one PDU at a time); this is
// the session-level bookkeeping the teacher's smtpserver.conn does for a
// MAIL FROM..DATA transaction, adapted to MEP2's Create/Env/Text/Term
// sequence instead of SMTP commands.
type pendingMessage struct {
	envelope *mep2.EnvelopeHeaderState
	staged   *store.StagedFile
}

// abort discards any staged content file without promoting it, for use on
// a fresh Create, an explicit Reset, or connection teardown.
func (m *pendingMessage) abort() {
	if m == nil || m.staged == nil {
		return
	}
	m.staged.Abort()
	m.staged = nil
}

// handleLine reads one PDU line off the wire, feeds it to the parser, and
// reacts: content lines of an in-progress Text PDU are decoded and staged to
// the arena as they arrive (the core parser itself treats Text content as a
// no-op, per mep2.Pdu's grounding on TextPdu::_parse_line), and a completed
// PDU is either persisted (Term) or simply acknowledged. Errors become one
// reply line each; five consecutive Checksum_Errors abort the connection
// with 498, per spec.md §7's user-visible-behaviour note.
func handleLine(c *conn) {
	line := c.xreadline()

	if kind, ok := c.pdu.CurrentType(); ok && kind == mep2.KindText && !c.pdu.IsComplete() && len(line) > 0 && line[0] != '/' {
		c.stageTextLine(line)
	}

	start := time.Now()
	err := c.pdu.ParseLine(line)
	kind, _ := c.pdu.CurrentType()

	if err != nil {
		c.onError(kind, err, start)
		return
	}

	if !c.pdu.IsComplete() {
		return
	}

	pdu := c.pdu.ExtractPdu()
	c.onPdu(pdu, start)
}

// stageTextLine decodes one Text PDU content line and appends it to the
// staged file for the message presently being assembled, creating the
// staged file on the first content line if none is open yet. Decode
// failures are logged and dropped rather than aborting the connection:
// spec.md's core parser intentionally does not validate Text
// body content (see mep2.Pdu's KindText case), so a malformed content byte
// here is not a protocol error.
func (c *conn) stageTextLine(line string) {
	decoded, err := mep2.DecodeText([]byte(line))
	if err != nil {
		c.log.Debugx("dropping undecodable text content line", err)
		return
	}
	if c.msg.staged == nil {
		staged, err := c.cat.Arena.CreateStaged()
		if err != nil {
			c.log.Errorx("staging text content", err)
			return
		}
		c.msg.staged = staged
	}
	if _, err := c.msg.staged.Write(decoded); err != nil {
		if moxio.IsStorageSpace(err) {
			c.writeReply(mep2.CInsufficientSpace, "No space left to stage message content")
			c.msg.abort()
			return
		}
		c.log.Errorx("writing staged text content", err)
	}
}

// onError converts a PDU-level error into exactly one reply line, tracks the
// consecutive-Checksum_Error streak, and aborts the connection once that
// streak reaches the listener's configured limit (default
// config.DefaultChecksumErrorLimit) or when the error is itself terminal
// (399/499).
func (c *conn) onError(kind mep2.PduKind, err error, start time.Time) {
	var merr mep2.Error
	if !errors.As(err, &merr) {
		panic(err)
	}

	metricPdus.WithLabelValues(kind.String(), fmt.Sprint(merr.Code)).Inc()
	metricPduDuration.WithLabelValues(kind.String(), fmt.Sprint(merr.Code)).Observe(time.Since(start).Seconds())

	if merr.Code == mep2.CChecksumError {
		c.checksumStreak++
		metricChecksumErrors.WithLabelValues().Inc()
	} else {
		c.checksumStreak = 0
	}

	limit := c.cfg.ChecksumErrorLimit
	if limit == 0 {
		limit = 5
	}
	if c.checksumStreak >= limit {
		c.writeReply(mep2.CTooManyChecksumErrors, "Too many checksum errors")
		c.msg.abort()
		panic(cleanClose)
	}

	c.writeReply(merr.Code, merr.Msg)

	if merr.Code == mep2.CMasterMustTermPermanent || merr.Code == mep2.CMasterMustTermTemporary {
		c.msg.abort()
		panic(cleanClose)
	}

	// Per spec.md §7/§8 property 6, any error from ParseLine must leave the
	// parser ready for the next PDU's start-line: a deferred content error
	// or a finalize failure (Envelope_No_Data/No_To, Unimplemented_Function)
	// surfaces only at the /END line, after the PDU is otherwise done, so
	// without this the connection would stay wedged on the half-finished
	// PDU forever.
	c.pdu.Reset()
}

// onPdu reacts to one successfully completed PDU: Create opens a fresh
// message, Env/Verify captures envelope headers, Term promotes the staged
// body and records a catalogue entry, Scan/Turn runs the query against the
// catalogue (for its side effects on the store; per spec.md's non-goals,
// mep2server never renders a REPLY PDU body back to the client), and
// everything else is just acknowledged.
func (c *conn) onPdu(pdu mep2.Pdu, start time.Time) {
	c.checksumStreak = 0

	metricPdus.WithLabelValues(pdu.Kind.String(), fmt.Sprint(mep2.CSuccess)).Inc()
	metricPduDuration.WithLabelValues(pdu.Kind.String(), fmt.Sprint(mep2.CSuccess)).Observe(time.Since(start).Seconds())

	switch pdu.Kind {
	case mep2.KindCreate:
		c.msg.abort()
		c.msg = pendingMessage{}
	case mep2.KindVerify, mep2.KindEnv:
		env := pdu.Envelope
		c.msg.envelope = &env
	case mep2.KindTerm:
		c.commitMessage()
	case mep2.KindReset:
		c.msg.abort()
		c.msg = pendingMessage{}
	case mep2.KindScan, mep2.KindTurn:
		c.runQuery(pdu.Query)
	}

	c.writeReply(mep2.CSuccess, pdu.Kind.String()+" OK")
}

// commitMessage promotes the staged body (if any) and inserts a catalogue
// entry for the message assembled since the last Create. A Term with no
// preceding Text content is valid (an envelope-only notice), but no
// catalogue entry is recorded for it.
func (c *conn) commitMessage() {
	defer func() { c.msg = pendingMessage{} }()

	var filename string
	var size int64
	if c.msg.staged != nil {
		fn, err := c.msg.staged.Commit()
		if err != nil {
			if moxio.IsStorageSpace(err) {
				c.writeReply(mep2.CInsufficientSpace, "No space left to store message")
				return
			}
			c.log.Errorx("committing staged message", err)
			return
		}
		filename = fn
		if f, err := c.cat.Arena.Open(filename); err == nil {
			if fi, err := f.Stat(); err == nil {
				size = fi.Size()
			}
			f.Close()
		}
	}

	rec := store.MessageRecord{
		Filename: filename,
		Folder:   store.FolderOutbox,
		Size:     size,
	}
	if c.msg.envelope != nil {
		if c.msg.envelope.Subject != nil {
			rec.Subject = *c.msg.envelope.Subject
		}
		if c.msg.envelope.From != nil {
			rec.From = c.msg.envelope.From.String()
		}
	}
	if c.msg.envelope == nil || len(c.msg.envelope.To) == 0 {
		// No resolvable recipient: file under the configured Postmaster
		// folder instead of Outbox, per config.Static.Postmaster.Folder.
		rec.Folder = c.postmasterFolder
	}
	if filename == "" {
		// Nothing to catalogue without a promoted body.
		return
	}
	if err := c.cat.Insert(&rec); err != nil {
		c.log.Errorx("inserting catalogue entry", err)
	}
}

// runQuery exercises the catalogue lookup a Scan/Turn PDU asks for, logging
// the match count. Rendering the matches back to the client as a REPLY PDU
// is explicitly out of scope (spec.md's non-goals).
func (c *conn) runQuery(q mep2.QueryState) {
	folder := store.FolderID(q.Folder)
	var (
		recs []store.MessageRecord
		err  error
	)
	switch {
	case q.Subject != "":
		recs, err = c.cat.BySubject(q.Subject)
	default:
		recs, err = c.cat.InFolder(folder)
	}
	if err != nil {
		c.log.Errorx("running scan/turn query", err)
		return
	}
	c.log.Debug("query matched", mlog.Field("count", len(recs)), mlog.Field("folder", folder))
}
