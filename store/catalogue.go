package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/mjl-/bstore"
	"golang.org/x/text/unicode/norm"

	"github.com/retro-rabbit-hole/MCImail/moxio"
	"github.com/retro-rabbit-hole/MCImail/moxvar"
)

// FolderID mirrors mep2.FolderID without importing the mep2 package, to
// keep store free of a dependency on the protocol layer — catalogue
// records carry the plain integer a caller already resolved.
type FolderID int

const (
	FolderInbox FolderID = iota
	FolderOutbox
	FolderDesk
	FolderTrash
)

// MessageRecord is one stored message's catalogue entry: the promoted
// content filename plus the envelope metadata needed to satisfy Scan/Turn
// queries without re-reading every message body. Grounded on
// original_source/src/mail_store.cpp's two LMDB sub-databases ("main" keyed
// by filename, "subject_index" with MDB_DUPSORT for duplicate-key subject
// lookups) — bstore's unique/index tags are the idiomatic Go equivalent of
// that pair of indexes, per the teacher's store/account.go Message type.
type MessageRecord struct {
	ID       int64
	Filename string   `bstore:"unique"`
	Folder   FolderID `bstore:"index"`
	Subject  string   `bstore:"index"`
	From     string   `bstore:"index"`
	Size     int64
	Created  time.Time `bstore:"nonzero,default now"`
	Read     bool
}

// DBTypes lists the types stored in a Catalogue's database.
var DBTypes = []any{MessageRecord{}}

// Catalogue is the indexed metadata store backing one mailbox's
// collection of messages, paired with an Arena for the message bodies
// themselves. Grounded on original_source/include/mail_store.hpp's
// MailStore, adapted from the teacher's store/account.go OpenAccount
// pattern (bstore.Open over a single index.db per mailbox instead of
// mox's LMDB-backed account store).
type Catalogue struct {
	DB    *bstore.DB
	Arena *Arena

	dir string

	sync.RWMutex
}

// OpenCatalogue opens, creating if necessary, the catalogue rooted at dir.
// dir holds index.db alongside the Arena's content and tmp subdirectories.
func OpenCatalogue(dir string) (*Catalogue, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}

	dbpath := filepath.Join(dir, "index.db")
	opts := bstore.Options{Timeout: 5 * time.Second, Perm: 0660, RegisterLogger: moxvar.RegisterLogger(dbpath, nil)}
	db, err := bstore.Open(context.Background(), dbpath, &opts, DBTypes...)
	if err != nil {
		return nil, fmt.Errorf("opening catalogue database: %w", err)
	}

	arena, err := NewArena(filepath.Join(dir, "content"))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Catalogue{DB: db, Arena: arena, dir: dir}, nil
}

// Close releases the catalogue's database handle. The Arena holds no
// handles of its own and needs no closing.
func (c *Catalogue) Close() error {
	return c.DB.Close()
}

// Insert records a newly committed message body under rec.Filename.
// rec.ID must be zero; bstore assigns it. rec.Subject is normalised to NFC
// first, the same way the teacher normalises mailbox names before indexing
// or comparing them (config.checkMailboxNormf), so that two subjects which
// differ only in Unicode normal form land on the same subject_index key.
func (c *Catalogue) Insert(rec *MessageRecord) error {
	rec.Subject = norm.NFC.String(rec.Subject)

	c.Lock()
	defer c.Unlock()
	return c.DB.Insert(context.Background(), rec)
}

// ByFilename looks up a message's catalogue entry by its promoted content
// filename, the unique key mirroring the original's "main" sub-database.
func (c *Catalogue) ByFilename(filename string) (MessageRecord, error) {
	c.RLock()
	defer c.RUnlock()
	return bstore.QueryDB[MessageRecord](context.Background(), c.DB).FilterEqual("Filename", filename).Get()
}

// BySubject returns every message whose subject exactly matches, the
// indexed lookup mirroring the original's MDB_DUPSORT "subject_index"
// sub-database.
func (c *Catalogue) BySubject(subject string) ([]MessageRecord, error) {
	subject = norm.NFC.String(subject)

	c.RLock()
	defer c.RUnlock()
	return bstore.QueryDB[MessageRecord](context.Background(), c.DB).FilterNonzero(MessageRecord{Subject: subject}).List()
}

// InFolder returns every message catalogued under folder, newest first.
// Uses FilterEqual rather than FilterNonzero so FolderInbox, whose zero
// value would otherwise be indistinguishable from "no filter", is matched
// exactly like every other folder.
func (c *Catalogue) InFolder(folder FolderID) ([]MessageRecord, error) {
	c.RLock()
	defer c.RUnlock()
	q := bstore.QueryDB[MessageRecord](context.Background(), c.DB).FilterEqual("Folder", folder)
	q.SortDesc("Created")
	return q.List()
}

// Reconcile walks every catalogue entry and checks, using a pool of worker
// goroutines to overlap the stat syscalls, that its promoted content file
// still exists under the Arena. It returns the filenames of entries whose
// content file is missing, e.g. after an operator deleted files directly
// from the content directory. Grounded on the teacher's store/threads.go
// bulk-reindex idiom (moxio.WorkQueue fanning disk work out to
// runtime.GOMAXPROCS workers, with results folded back in catalogue order).
func (c *Catalogue) Reconcile() ([]string, error) {
	c.RLock()
	recs, err := bstore.QueryDB[MessageRecord](context.Background(), c.DB).List()
	dir := c.Arena.dir
	c.RUnlock()
	if err != nil {
		return nil, err
	}

	checkExists := func(in, out chan moxio.Work[MessageRecord, bool]) {
		for w := range in {
			_, err := os.Stat(filepath.Join(dir, w.In.Filename))
			w.Out = err == nil
			out <- w
		}
	}

	var missing []string
	collect := func(rec MessageRecord, exists bool) error {
		if !exists {
			missing = append(missing, rec.Filename)
		}
		return nil
	}

	procs := runtime.GOMAXPROCS(0)
	wq := moxio.NewWorkQueue[MessageRecord, bool](procs, 2*procs, checkExists, collect)
	for _, rec := range recs {
		if err := wq.Add(rec); err != nil {
			wq.Stop()
			return nil, err
		}
	}
	err = wq.Finish()
	wq.Stop()
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// Delete removes a message's catalogue entry and its promoted content
// file. Grounded on MailStore's delete path, which removes the content
// file before removing the index entries.
func (c *Catalogue) Delete(filename string) error {
	c.Lock()
	defer c.Unlock()

	if err := os.Remove(filepath.Join(c.Arena.dir, filename)); err != nil && !os.IsNotExist(err) {
		return err
	}

	rec, err := bstore.QueryDB[MessageRecord](context.Background(), c.DB).FilterEqual("Filename", filename).Get()
	if err != nil {
		return err
	}
	return c.DB.Delete(context.Background(), &rec)
}
