// Package pagestore is a reference implementation of the page store
// contract the B+-tree core is built against: random-access 1024-byte
// page I/O, with allocation happening by appending to the end of the
// file.
//
// There is no buffer pool here — every Read and Write goes straight to
// the backing os.File (or, for MemStore, straight to an in-memory
// map). Caching policy belongs to a layer above this one, if a caller
// wants it.
package pagestore

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dbcore/relstore/relerr"
)

// PageSize is the fixed size, in bytes, of every page.
const PageSize = 1024

// PageID identifies a page within a store. -1 denotes "none".
type PageID int32

// NoPage is the sentinel for "no page" (unset root, terminal sibling pointer).
const NoPage PageID = -1

// Page is one fixed-size block of the store.
type Page [PageSize]byte

// Mode selects how Open behaves.
type Mode byte

const (
	// ModeRead opens an existing store; it is an error if the file is absent.
	ModeRead Mode = 'r'
	// ModeWrite opens a store for read/write, creating it if absent.
	ModeWrite Mode = 'w'
)

// Store is the interface the B+-tree core requires of its page store.
type Store interface {
	Read(id PageID, buf *Page) error
	Write(id PageID, buf *Page) error
	// NextPageID reports the id that the next page appended to the store
	// will occupy. The core calls this before issuing the write, so the
	// id can be recorded in a parent or sibling pointer ahead of time.
	NextPageID() PageID
	Close() error
}

// FileStore is a Store backed by a single on-disk file.
type FileStore struct {
	file     *os.File
	nextPage PageID
}

// Open opens (mode == ModeWrite, creating if absent) or opens
// (mode == ModeRead, failing if absent) the file at path as a page store.
func Open(path string, mode Mode) (*FileStore, error) {
	flags := os.O_RDWR
	if mode == ModeWrite {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", relerr.ErrFileOpenFailed, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", relerr.ErrFileOpenFailed, path, err)
	}
	n := info.Size() / PageSize
	if info.Size()%PageSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s size %d is not a multiple of %d", relerr.ErrInvalidFileFormat, path, info.Size(), PageSize)
	}
	return &FileStore{file: f, nextPage: PageID(n)}, nil
}

// Read loads the page with the given id into buf.
func (s *FileStore) Read(id PageID, buf *Page) error {
	_, err := s.file.ReadAt(buf[:], offsetOf(id))
	if err != nil {
		return fmt.Errorf("%w: read page %d: %v", relerr.ErrFileReadFailed, id, err)
	}
	return nil
}

// Write stores buf at the given page id. Writing to NextPageID() grows the
// store by one page; writing anywhere else overwrites an existing page.
func (s *FileStore) Write(id PageID, buf *Page) error {
	_, err := s.file.WriteAt(buf[:], offsetOf(id))
	if err != nil {
		return fmt.Errorf("%w: write page %d: %v", relerr.ErrFileWriteFailed, id, err)
	}
	if id >= s.nextPage {
		s.nextPage = id + 1
	}
	return nil
}

// NextPageID reports the id a fresh append would receive.
func (s *FileStore) NextPageID() PageID { return s.nextPage }

// Close closes the backing file.
func (s *FileStore) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", relerr.ErrFileWriteFailed, err)
	}
	return nil
}

func offsetOf(id PageID) int64 {
	return int64(id) * PageSize
}

// PutPageID writes id in little-endian form to buf[off:off+4].
func PutPageID(buf []byte, off int, id PageID) {
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(int32(id)))
}

// GetPageID reads a little-endian PageID from buf[off:off+4].
func GetPageID(buf []byte, off int) PageID {
	return PageID(int32(binary.LittleEndian.Uint32(buf[off : off+4])))
}
