package main

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/dbcore/relstore/btree"
	"github.com/dbcore/relstore/heapfile"
	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/scan"
)

// Index is the narrow surface the benchmark harness drives both
// candidate storage engines through.
type Index interface {
	Insert(key int32, value []byte) error
	Get(key int32) ([]byte, bool, error)
	Range(lo, hi int32, emit func(key int32, value []byte) bool) error
	Close() error
}

// relstoreIndex drives the module's own btree.Tree backed by a
// heapfile.Heap, each on its own on-disk page store.
type relstoreIndex struct {
	tree     *btree.Tree
	heap     *heapfile.Heap
	idxStore *pagestore.FileStore
	heapFile *pagestore.FileStore
}

func openRelstoreIndex(dir string) (*relstoreIndex, error) {
	idxStore, err := pagestore.Open(filepath.Join(dir, "index.relstore"), pagestore.ModeWrite)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	heapStore, err := pagestore.Open(filepath.Join(dir, "heap.relstore"), pagestore.ModeWrite)
	if err != nil {
		return nil, fmt.Errorf("open heap store: %w", err)
	}
	tree, err := btree.Open(idxStore)
	if err != nil {
		return nil, fmt.Errorf("open tree: %w", err)
	}
	heap, err := heapfile.Open(heapStore)
	if err != nil {
		return nil, fmt.Errorf("open heap: %w", err)
	}
	return &relstoreIndex{tree: tree, heap: heap, idxStore: idxStore, heapFile: heapStore}, nil
}

func (r *relstoreIndex) Insert(key int32, value []byte) error {
	loc, err := r.heap.Append(key, value)
	if err != nil {
		return err
	}
	return r.tree.Insert(key, btree.Locator{PageID: int32(loc.PageID), SlotID: loc.SlotID})
}

func (r *relstoreIndex) Get(key int32) ([]byte, bool, error) {
	loc, ok, err := r.tree.Get(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	_, value, err := r.heap.Read(heapfile.Locator{PageID: pagestore.PageID(loc.PageID), SlotID: loc.SlotID})
	return value, true, err
}

func (r *relstoreIndex) Range(lo, hi int32, emit func(key int32, value []byte) bool) error {
	preds := []scan.Predicate{
		{Column: scan.ColumnKey, Comp: scan.GE, KeyValue: lo},
		{Column: scan.ColumnKey, Comp: scan.LE, KeyValue: hi},
	}
	return scan.Run(r.tree, r.heap, preds, emit)
}

func (r *relstoreIndex) Close() error {
	if err := r.tree.Close(); err != nil {
		return err
	}
	return r.heap.Close()
}

// PageCounts reports how many pages the index store and the heap store
// have each allocated so far, satisfying PageFootprint.
func (r *relstoreIndex) PageCounts() (idxPages, heapPages int32) {
	return int32(r.idxStore.NextPageID()), int32(r.heapFile.NextPageID())
}

// pebbleIndex wraps cockroachdb/pebble as a comparison point for the
// benchmark: an LSM-backed key-value store standing in for a whole
// index+heap pair, since pebble stores the value alongside the key
// directly.
type pebbleIndex struct {
	db *pebble.DB
}

func openPebbleIndex(dir string) (*pebbleIndex, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble: open: %w", err)
	}
	return &pebbleIndex{db: db}, nil
}

func (p *pebbleIndex) Insert(key int32, value []byte) error {
	return p.db.Set(encodeKey(key), value, pebble.NoSync)
}

func (p *pebbleIndex) Get(key int32) ([]byte, bool, error) {
	val, closer, err := p.db.Get(encodeKey(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble: get: %w", err)
	}
	out := make([]byte, len(val))
	copy(out, val)
	closer.Close()
	return out, true, nil
}

func (p *pebbleIndex) Range(lo, hi int32, emit func(key int32, value []byte) bool) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeKey(lo),
		UpperBound: encodeKey(hi + 1),
	})
	if err != nil {
		return fmt.Errorf("pebble: range: %w", err)
	}
	defer iter.Close()
	for valid := iter.First(); valid; valid = iter.Next() {
		key := decodeKey(iter.Key())
		value := append([]byte(nil), iter.Value()...)
		if !emit(key, value) {
			break
		}
	}
	return nil
}

func (p *pebbleIndex) Close() error {
	return p.db.Close()
}

// encodeKey preserves int32 sort order as a big-endian byte slice, the
// way pebble's own comparator expects. The sign bit is flipped so that
// negative keys sort before non-negative ones.
func encodeKey(k int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(k)^0x80000000)
	return b
}

func decodeKey(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b) ^ 0x80000000)
}
