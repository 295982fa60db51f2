// Package statefile persists a signer's next-unused-epoch counter to disk
// with the same crash-safety shape as a conventional XMSS[MT] key
// container: an exclusive lockfile guards concurrent access, and every
// update is written through a tempfile-fsync-rename-fsync(dir) sequence so
// a crash mid-write never leaves a reader observing a torn file.
//
// Unlike the secret key material itself (fixed at keygen and safe to keep
// only in memory or under ordinary file permissions), the next-index
// counter is the one piece of XMSS state that must survive a crash: an
// epoch signed twice breaks the one-time-signature security guarantee of
// every leaf in the tree. Store exists to make that specific counter
// durable, borrowing the donor's borrow/confirm split so a crash between
// "reserved epoch N" and "successfully signed and recorded epoch N" loses
// at worst one epoch rather than risking reuse.
package statefile

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/nightlyone/lockfile"

	"github.com/adust09/hypercube/th"
	"github.com/adust09/hypercube/xmss"
)

// magic identifies a statefile's header; bumped whenever the on-disk
// layout changes incompatibly.
const magic = "4853494758535431" // "HSIGXST1" in hex

type header struct {
	Magic     [8]byte
	NextIndex uint32
	Borrowed  uint32
	BlobLen   uint32
}

// Store is a file-backed, lock-protected holder for one XMSS secret key's
// serialized form plus its durable next-index counter. It is not safe for
// concurrent use from multiple goroutines; cross-process exclusion is
// handled by the lockfile acquired in Open.
type Store struct {
	path   string
	flock  lockfile.Lockfile
	closed bool

	initialized bool
	blob        []byte // JSON-encoded xmss.SecretKey, as last persisted
	nextIndex   uint32
	borrowed    uint32
}

// Open acquires an exclusive lock on path+".lock" and reads any existing
// statefile at path. A freshly created Store (no file on disk yet) is
// returned uninitialized; call Init to seed it with a secret key.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("statefile: resolve path %s: %w", path, err)
	}

	flock, err := lockfile.New(absPath + ".lock")
	if err != nil {
		return nil, fmt.Errorf("statefile: create lockfile: %w", err)
	}
	if err := flock.TryLock(); err != nil {
		return nil, fmt.Errorf("statefile: %s is locked: %w", absPath, err)
	}

	s := &Store{path: absPath, flock: flock}

	f, err := os.Open(absPath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		flock.Unlock()
		return nil, fmt.Errorf("statefile: open %s: %w", absPath, err)
	}
	defer f.Close()

	var h header
	if err := binary.Read(f, binary.BigEndian, &h); err != nil {
		flock.Unlock()
		return nil, fmt.Errorf("statefile: read header: %w", err)
	}
	wantMagic, _ := hex.DecodeString(magic)
	if !bytes.Equal(h.Magic[:], wantMagic) {
		flock.Unlock()
		return nil, fmt.Errorf("statefile: %s has invalid magic", absPath)
	}

	blob := make([]byte, h.BlobLen)
	if _, err := io.ReadFull(f, blob); err != nil {
		flock.Unlock()
		return nil, fmt.Errorf("statefile: read key blob: %w", err)
	}

	s.initialized = true
	s.blob = blob
	s.nextIndex = h.NextIndex
	s.borrowed = h.Borrowed

	return s, nil
}

// Initialized reports whether a statefile was already present at Open
// time.
func (s *Store) Initialized() bool {
	return s.initialized
}

// Init seeds the store with a freshly generated secret key and persists
// it immediately.
func (s *Store) Init(sk *xmss.SecretKey) error {
	blob, err := sk.MarshalJSON()
	if err != nil {
		return fmt.Errorf("statefile: marshal secret key: %w", err)
	}
	s.blob = blob
	s.nextIndex = uint32(sk.NextIndex)
	s.borrowed = 0
	if err := s.writeFile(); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Load reconstructs the secret key from the persisted blob, using thash
// for the Merkle tree it carries, and overrides the key's NextIndex with
// the store's durable counter (which is authoritative across process
// restarts; the in-memory value serialized in the blob may be stale by
// exactly the epochs that were borrowed but never confirmed).
func (s *Store) Load(thash th.TweakableHash) (*xmss.SecretKey, error) {
	if !s.initialized {
		return nil, fmt.Errorf("statefile: %s is not initialized", s.path)
	}
	sk, err := xmss.UnmarshalSecretKey(s.blob, thash)
	if err != nil {
		return nil, fmt.Errorf("statefile: unmarshal secret key: %w", err)
	}
	sk.NextIndex = int(s.nextIndex)
	return sk, nil
}

// BorrowIndices reserves the next `amount` epoch indices, persists the
// reservation, and returns the first reserved index. The caller may sign
// at any subset of [start, start+amount) but must call Confirm once it
// knows how many it actually used; indices reserved but never confirmed
// are permanently skipped rather than reused, which is the safe failure
// mode for hash-based one-time signatures.
func (s *Store) BorrowIndices(amount uint32) (start uint32, err error) {
	if !s.initialized {
		return 0, fmt.Errorf("statefile: %s is not initialized", s.path)
	}
	prevIndex, prevBorrowed := s.nextIndex, s.borrowed
	s.nextIndex += amount
	s.borrowed += amount
	if err := s.writeFile(); err != nil {
		s.nextIndex, s.borrowed = prevIndex, prevBorrowed
		return 0, err
	}
	return prevIndex, nil
}

// Confirm records that signing through and including usedIndex
// succeeded, clearing any outstanding borrow record so LostIndices
// reports zero again.
func (s *Store) Confirm(usedIndex uint32) error {
	if !s.initialized {
		return fmt.Errorf("statefile: %s is not initialized", s.path)
	}
	prevIndex, prevBorrowed := s.nextIndex, s.borrowed
	if usedIndex+1 > s.nextIndex {
		s.nextIndex = usedIndex + 1
	}
	s.borrowed = 0
	if err := s.writeFile(); err != nil {
		s.nextIndex, s.borrowed = prevIndex, prevBorrowed
		return err
	}
	return nil
}

// NextIndex returns the store's durable next-unused-epoch counter.
func (s *Store) NextIndex() uint32 {
	return s.nextIndex
}

// LostIndices returns the number of epochs that were borrowed but never
// confirmed, i.e. the worst-case number of epochs a crash between Borrow
// and Confirm may have skipped.
func (s *Store) LostIndices() uint32 {
	return s.borrowed
}

func (s *Store) writeFile() error {
	h := header{
		NextIndex: s.nextIndex,
		Borrowed:  s.borrowed,
		BlobLen:   uint32(len(s.blob)),
	}
	magicBytes, _ := hex.DecodeString(magic)
	copy(h.Magic[:], magicBytes)

	tmpPath := s.path + ".tmp"
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("statefile: create tempfile: %w", err)
	}

	if err := binary.Write(tmpFile, binary.BigEndian, &h); err != nil {
		tmpFile.Close()
		return fmt.Errorf("statefile: write header: %w", err)
	}
	if _, err := tmpFile.Write(s.blob); err != nil {
		tmpFile.Close()
		return fmt.Errorf("statefile: write key blob: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("statefile: sync tempfile: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("statefile: close tempfile: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("statefile: replace %s: %w", s.path, err)
	}

	dirName := filepath.Dir(s.path)
	dirFd, err := syscall.Open(dirName, syscall.O_DIRECTORY, 0)
	if err != nil {
		return fmt.Errorf("statefile: open dir %s for sync: %w", dirName, err)
	}
	if err := syscall.Fsync(dirFd); err != nil {
		syscall.Close(dirFd)
		return fmt.Errorf("statefile: sync dir %s: %w", dirName, err)
	}
	if err := syscall.Close(dirFd); err != nil {
		return fmt.Errorf("statefile: close dir fd: %w", err)
	}

	return nil
}

// Close releases the exclusive lock. It is safe to call once; subsequent
// calls are no-ops.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var result error
	if err := s.flock.Unlock(); err != nil {
		result = multierror.Append(result, fmt.Errorf("statefile: release lock: %w", err))
	}
	return result
}
