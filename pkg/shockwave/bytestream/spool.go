package bytestream

import (
	"fmt"
	"hash"
	"os"
	"path/filepath"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/crypto/blake2b"
)

// spoolStagingThreshold is how many bytes a Spool accumulates in its
// in-memory staging buffer before flushing to the temp file. Smaller
// bodies touch disk only once, when Finalize flushes the staging
// buffer, while worst-case memory stays bounded for a body that never
// finishes.
const spoolStagingThreshold = 64 * 1024

// Spool accumulates an oversized request body to a temp file using the
// create-then-rename pattern: writes land in dir/.spool-<random> and
// only become visible at their final path once Finalize succeeds,
// so a crash mid-spool never leaves a partially written file where a
// handler might find it.
//
// A blake2b hash is accumulated over every byte written, so callers
// can verify the spooled file's integrity against what was read off
// the wire without re-reading it.
type Spool struct {
	dir     string
	staging *bytebufferpool.ByteBuffer
	hash    hash.Hash
	file    *os.File
	tmpPath string
}

// NewSpool creates a Spool staging its temp file under dir.
func NewSpool(dir string) (*Spool, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	return &Spool{
		dir:     dir,
		staging: bytebufferpool.Get(),
		hash:    h,
	}, nil
}

// Write appends p to the spool, updating the running hash. Once the
// in-memory staging buffer exceeds spoolStagingThreshold it is flushed
// to the temp file, opening it on first flush.
func (s *Spool) Write(p []byte) (int, error) {
	s.hash.Write(p)
	s.staging.Write(p)

	if s.staging.Len() < spoolStagingThreshold {
		return len(p), nil
	}
	if err := s.flushStaging(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Spool) flushStaging() error {
	if s.staging.Len() == 0 {
		return nil
	}
	if s.file == nil {
		f, err := os.CreateTemp(s.dir, ".spool-*")
		if err != nil {
			return err
		}
		s.file = f
		s.tmpPath = f.Name()
	}
	if _, err := s.file.Write(s.staging.B); err != nil {
		return err
	}
	s.staging.Reset()
	return nil
}

// Finalize flushes any remaining staged bytes, fsyncs, and atomically
// renames the temp file to finalPath. Returns the opened file
// positioned at offset 0, ready for a handler to read, plus the
// blake2b-256 sum over everything written.
func (s *Spool) Finalize(finalPath string) (*os.File, [32]byte, error) {
	var sum [32]byte
	if err := s.flushStaging(); err != nil {
		return nil, sum, err
	}
	bytebufferpool.Put(s.staging)
	s.staging = nil

	copy(sum[:], s.hash.Sum(nil))

	if s.file == nil {
		// The flush above opens a temp file for any staged bytes, so
		// a nil file here means Write was never given any data and
		// there is nothing to spool.
		return nil, sum, fmt.Errorf("bytestream: spool finalized with no data written")
	}

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		os.Remove(s.tmpPath)
		return nil, sum, err
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.tmpPath)
		return nil, sum, err
	}

	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		os.Remove(s.tmpPath)
		return nil, sum, err
	}
	if err := os.Rename(s.tmpPath, finalPath); err != nil {
		os.Remove(s.tmpPath)
		return nil, sum, err
	}

	f, err := os.Open(finalPath)
	return f, sum, err
}

// Dispose discards the spool, removing any temp file created so far.
// Safe to call whether or not Finalize has run.
func (s *Spool) Dispose() error {
	if s.staging != nil {
		bytebufferpool.Put(s.staging)
		s.staging = nil
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if s.tmpPath != "" {
		err := os.Remove(s.tmpPath)
		s.tmpPath = ""
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
