package store

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retro-rabbit-hole/MCImail/mlog"
	"github.com/retro-rabbit-hole/MCImail/moxio"
)

var xlog = mlog.New("store")

const filenameCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"

// filenameLen is the length of a generated content filename, per spec.md
// §6's "10-character [A-Za-z0-9_] random filename".
const filenameLen = 10

// generateFilename returns a random filename drawn from filenameCharset,
// grounded on original_source/src/mail_store.cpp's generate_filename.
func generateFilename() (string, error) {
	var buf [filenameLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	out := make([]byte, filenameLen)
	for i, b := range buf {
		out[i] = filenameCharset[int(b)%len(filenameCharset)]
	}
	return string(out), nil
}

// Arena owns the content directory and its sibling tmp/ staging directory
// for mail body storage. Grounded on
// original_source/include/mail_store.hpp's MailStore, adapted from the
// teacher's CreateMessageTemp/CloseRemoveTempFile pattern
// (store/tmp.go, store/cleanuptemp.go) for the promote-by-hardlink protocol
// spec.md §6 calls for instead of the teacher's own rename-based delivery.
type Arena struct {
	dir    string
	tmpDir string
}

// NewArena prepares an Arena rooted at dir, creating dir and dir/tmp if
// necessary.
func NewArena(dir string) (*Arena, error) {
	tmpDir := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0770); err != nil {
		return nil, err
	}
	return &Arena{dir: dir, tmpDir: tmpDir}, nil
}

// StagedFile is an open, not-yet-promoted content file created by
// Arena.CreateStaged. The caller must eventually call Commit or Abort;
// Abort is also safe to call after a successful Commit, as a convenient
// defer-cleanup idiom mirroring store.CloseRemoveTempFile's usage pattern.
type StagedFile struct {
	arena     *Arena
	file      *os.File
	filename  string
	tmpPath   string
	committed bool
}

// CreateStaged opens a new exclusive temp file under the arena's tmp/
// directory with a freshly generated 10-character filename. Grounded on
// MailStore::create_file.
func (a *Arena) CreateStaged() (*StagedFile, error) {
	filename, err := generateFilename()
	if err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(a.tmpDir, filename)
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0660)
	if err != nil {
		return nil, err
	}
	return &StagedFile{arena: a, file: f, filename: filename, tmpPath: tmpPath}, nil
}

// Write appends raw bytes to the staged file.
func (s *StagedFile) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

// Filename returns the 10-character filename this staged file will be
// promoted under.
func (s *StagedFile) Filename() string { return s.filename }

// Commit syncs the staged file, promotes it into the arena's content
// directory under its generated filename, closes it, syncs the content
// directory, and unlinks the tmp entry. Grounded on MailStoreFile::close's
// link-then-unlink promotion protocol, using the teacher's store/account.go delivery path
// (moxio.LinkOrCopy followed by moxio.SyncDir on the destination directory)
// instead of a bare os.Link: a staged file and its arena may live on
// different file systems, and the directory sync guards against losing the
// new directory entry in a crash right after the link.
func (s *StagedFile) Commit() (string, error) {
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return "", err
	}

	finalPath := filepath.Join(s.arena.dir, s.filename)
	reader := &moxio.AtReader{R: s.file}
	if err := moxio.LinkOrCopy(xlog, finalPath, s.tmpPath, reader, true); err != nil {
		s.file.Close()
		return "", fmt.Errorf("linking %s: %w", finalPath, err)
	}
	if err := s.file.Close(); err != nil {
		return "", err
	}
	if err := moxio.SyncDir(s.arena.dir); err != nil {
		xlog.Check(err, "syncing content directory after promotion", mlog.Field("filename", s.filename))
	}
	if err := os.Remove(s.tmpPath); err != nil {
		xlog.Check(err, "removing promoted tmp entry", mlog.Field("filename", s.filename))
	}

	s.committed = true
	return s.filename, nil
}

// Abort closes and removes the staged file if it was never committed. Safe
// to call unconditionally in a defer after CreateStaged, mirroring
// store.CloseRemoveTempFile's defer-cleanup idiom.
func (s *StagedFile) Abort() {
	if s.committed {
		return
	}
	err := s.file.Close()
	xlog.Check(err, "closing staged content file", mlog.Field("filename", s.filename))
	err = os.Remove(s.tmpPath)
	xlog.Check(err, "removing aborted staged content file", mlog.Field("filename", s.filename))
}

// Open opens a previously promoted content file for reading by filename.
func (a *Arena) Open(filename string) (*os.File, error) {
	return os.Open(filepath.Join(a.dir, filename))
}
