package btree

import (
	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/relerr"
)

// Leaf node layout (1024 bytes, matching pagestore.PageSize):
//
//	offset 0   : key_count      (4 bytes, signed)
//	offset 4   : next_leaf_page (4 bytes, signed; pagestore.NoPage if none)
//	offset 8   : 80 entries, each 12 bytes: key(4) || locator(8)
//	offset 968 : 56 bytes reserved, always zero
const (
	leafKeyCountOff = 0
	leafNextOff     = 4
	leafEntriesOff  = 8
	leafEntryStride = 12
	leafCapacity    = 80
)

func leafEntryOffset(i int) int { return leafEntriesOff + i*leafEntryStride }

// LeafNode is a typed view over a 1024-byte leaf page buffer.
type LeafNode struct {
	buf *pagestore.Page
}

// NewLeafNode returns an empty leaf with no sibling (next pointer set to
// pagestore.NoPage), ready for its first entry.
func NewLeafNode() *LeafNode {
	n := &LeafNode{buf: &pagestore.Page{}}
	n.SetNext(pagestore.NoPage)
	return n
}

// Read loads the leaf at id from store.
func (n *LeafNode) Read(id pagestore.PageID, store pagestore.Store) error {
	if n.buf == nil {
		n.buf = &pagestore.Page{}
	}
	return store.Read(id, n.buf)
}

// Write stores the leaf at id in store.
func (n *LeafNode) Write(id pagestore.PageID, store pagestore.Store) error {
	return store.Write(id, n.buf)
}

// KeyCount reports the number of entries currently stored.
func (n *LeafNode) KeyCount() int32 {
	return getInt32(n.buf[:], leafKeyCountOff)
}

func (n *LeafNode) setKeyCount(c int32) {
	putInt32(n.buf[:], leafKeyCountOff, c)
}

// GetNext returns the sibling leaf's page id, or pagestore.NoPage at the
// rightmost leaf.
func (n *LeafNode) GetNext() pagestore.PageID {
	return pagestore.GetPageID(n.buf[:], leafNextOff)
}

// SetNext sets the sibling leaf pointer.
func (n *LeafNode) SetNext(id pagestore.PageID) {
	pagestore.PutPageID(n.buf[:], leafNextOff, id)
}

// ReadEntry returns the key and locator at entryIndex. The caller is
// responsible for keeping entryIndex within [0, KeyCount()).
func (n *LeafNode) ReadEntry(entryIndex int) (int32, Locator) {
	off := leafEntryOffset(entryIndex)
	return getInt32(n.buf[:], off), readLocator(n.buf[:], off+4)
}

func (n *LeafNode) writeEntry(entryIndex int, key int32, loc Locator) {
	off := leafEntryOffset(entryIndex)
	putInt32(n.buf[:], off, key)
	writeLocator(n.buf[:], off+4, loc)
}

// Locate returns the smallest entry index whose key is >= searchKey, or
// KeyCount() if no such entry exists. Unlike the byte layout this is
// modelled on, the scan is bounded by KeyCount rather than by detecting
// a zero "unused slot" sentinel, so it has no dependence on keys
// avoiding zero.
func (n *LeafNode) Locate(searchKey int32) int {
	count := int(n.KeyCount())
	for i := 0; i < count; i++ {
		if k := getInt32(n.buf[:], leafEntryOffset(i)); k >= searchKey {
			return i
		}
	}
	return count
}

// Insert adds (key, loc) in sorted position. Returns relerr.ErrNodeFull
// if the leaf already holds leafCapacity entries.
func (n *LeafNode) Insert(key int32, loc Locator) error {
	count := int(n.KeyCount())
	if count >= leafCapacity {
		return relerr.ErrNodeFull
	}
	pos := n.Locate(key)
	for i := count; i > pos; i-- {
		k, l := n.ReadEntry(i - 1)
		n.writeEntry(i, k, l)
	}
	n.writeEntry(pos, key, loc)
	n.setKeyCount(int32(count + 1))
	return nil
}

// InsertAndSplit inserts (key, loc), splitting the (full) leaf across
// itself and the given empty sibling. It returns the sibling's first
// key — the separator the parent will use to distinguish the two
// halves. Linking the sibling into the leaf chain is the tree's job,
// not the node's.
func (n *LeafNode) InsertAndSplit(key int32, loc Locator, sibling *LeafNode) (int32, error) {
	count := int(n.KeyCount())
	half := count / 2

	for i := half; i < count; i++ {
		k, l := n.ReadEntry(i)
		if err := sibling.Insert(k, l); err != nil {
			return 0, err
		}
	}
	clearRange(n.buf[:], leafEntryOffset(half), leafEntryOffset(count))
	n.setKeyCount(int32(half))

	promotedKey, _ := sibling.ReadEntry(0)
	if promotedKey < key {
		if err := sibling.Insert(key, loc); err != nil {
			return 0, err
		}
	} else if err := n.Insert(key, loc); err != nil {
		return 0, err
	}
	return promotedKey, nil
}

func clearRange(buf []byte, start, end int) {
	for i := start; i < end; i++ {
		buf[i] = 0
	}
}
