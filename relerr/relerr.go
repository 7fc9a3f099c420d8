// Package relerr defines the stable error taxonomy shared by the
// pagestore, heapfile, btree and scan packages.
//
// Callers distinguish error classes with errors.Is, never by comparing
// formatted strings. Each sentinel corresponds to one of the ordinals
// listed in the "Error codes" section of the index-core contract.
package relerr

import "errors"

var (
	// ErrFileOpenFailed indicates the backing file could not be opened or created.
	ErrFileOpenFailed = errors.New("relstore: file open failed")
	// ErrFileReadFailed indicates a page or record read failed.
	ErrFileReadFailed = errors.New("relstore: file read failed")
	// ErrFileWriteFailed indicates a page or record write failed.
	ErrFileWriteFailed = errors.New("relstore: file write failed")
	// ErrFileSeekFailed indicates a page offset could not be computed or reached.
	ErrFileSeekFailed = errors.New("relstore: file seek failed")
	// ErrInvalidFileFormat indicates a page or header failed to decode.
	ErrInvalidFileFormat = errors.New("relstore: invalid file format")
	// ErrNodeFull indicates a leaf or internal node has no room for another entry.
	// Never escapes the btree package in isolation — it always triggers a split.
	ErrNodeFull = errors.New("relstore: node full")
	// ErrLeafOverflow is the internal control signal meaning a child split and
	// a separator must be absorbed by the parent. Not a true error.
	ErrLeafOverflow = errors.New("relstore: leaf overflow")
	// ErrEmptyTree indicates a lookup was attempted against a tree with height 0.
	ErrEmptyTree = errors.New("relstore: tree is empty")
	// ErrEndOfTree is the normal scan terminator: no more entries past the cursor.
	ErrEndOfTree = errors.New("relstore: end of tree")
	// ErrInvalidCursor indicates a cursor referencing an out-of-range entry.
	ErrInvalidCursor = errors.New("relstore: invalid cursor")
)
