package btree

import (
	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/relerr"
)

// Internal node layout (1024 bytes):
//
//	offset 0   : key_count        (4 bytes)
//	offset 4   : first_child_page (4 bytes)
//	offset 8   : 120 entries, each 8 bytes: key(4) || child_page(4)
//	offset 968 : 56 bytes reserved, always zero
//
// For keys k_1 < ... < k_n with children c_0, c_1, ..., c_n, the
// subtree under c_i (i >= 1) holds keys k with k_i <= k < k_{i+1}.
const (
	internalKeyCountOff   = 0
	internalFirstChildOff = 4
	internalEntriesOff    = 8
	internalEntryStride   = 8
	internalCapacity      = 120
)

func internalEntryOffset(i int) int { return internalEntriesOff + i*internalEntryStride }

// InternalNode is a typed view over a 1024-byte internal page buffer.
type InternalNode struct {
	buf *pagestore.Page
}

// NewInternalNode returns a zeroed internal node.
func NewInternalNode() *InternalNode {
	return &InternalNode{buf: &pagestore.Page{}}
}

// Read loads the internal node at id from store.
func (n *InternalNode) Read(id pagestore.PageID, store pagestore.Store) error {
	if n.buf == nil {
		n.buf = &pagestore.Page{}
	}
	return store.Read(id, n.buf)
}

// Write stores the internal node at id in store.
func (n *InternalNode) Write(id pagestore.PageID, store pagestore.Store) error {
	return store.Write(id, n.buf)
}

// KeyCount reports the number of separator keys stored.
func (n *InternalNode) KeyCount() int32 {
	return getInt32(n.buf[:], internalKeyCountOff)
}

func (n *InternalNode) setKeyCount(c int32) {
	putInt32(n.buf[:], internalKeyCountOff, c)
}

// FirstChild returns the leading child pointer (holds keys < the first separator).
func (n *InternalNode) FirstChild() pagestore.PageID {
	return pagestore.GetPageID(n.buf[:], internalFirstChildOff)
}

// SetFirstChild sets the leading child pointer.
func (n *InternalNode) SetFirstChild(id pagestore.PageID) {
	pagestore.PutPageID(n.buf[:], internalFirstChildOff, id)
}

// ReadEntry returns the separator key and child page at entryIndex.
func (n *InternalNode) ReadEntry(entryIndex int) (int32, pagestore.PageID) {
	off := internalEntryOffset(entryIndex)
	return getInt32(n.buf[:], off), pagestore.GetPageID(n.buf[:], off+4)
}

func (n *InternalNode) writeEntry(entryIndex int, key int32, child pagestore.PageID) {
	off := internalEntryOffset(entryIndex)
	putInt32(n.buf[:], off, key)
	pagestore.PutPageID(n.buf[:], off+4, child)
}

// LocateChild returns the child to descend into for searchKey: the
// largest child whose separator is <= searchKey, or FirstChild if none
// qualifies.
func (n *InternalNode) LocateChild(searchKey int32) pagestore.PageID {
	count := int(n.KeyCount())
	pid := n.FirstChild()
	for i := 0; i < count; i++ {
		key, child := n.ReadEntry(i)
		if key > searchKey {
			break
		}
		pid = child
	}
	return pid
}

// Insert adds a separator. If key is already present, the associated
// child pointer is overwritten in place — required for idempotent
// separator updates when a parent re-absorbs a promoted key during
// recursive split propagation.
func (n *InternalNode) Insert(key int32, child pagestore.PageID) error {
	count := int(n.KeyCount())
	pos := count
	for i := 0; i < count; i++ {
		if k, _ := n.ReadEntry(i); k >= key {
			pos = i
			break
		}
	}
	if pos < count {
		if k, _ := n.ReadEntry(pos); k == key {
			n.writeEntry(pos, key, child)
			return nil
		}
	}
	if count >= internalCapacity {
		return relerr.ErrNodeFull
	}
	for i := count; i > pos; i-- {
		k, c := n.ReadEntry(i - 1)
		n.writeEntry(i, k, c)
	}
	n.writeEntry(pos, key, child)
	n.setKeyCount(int32(count + 1))
	return nil
}

// removeFirst drops entry 0, shifting the rest left by one slot.
func (n *InternalNode) removeFirst() {
	count := int(n.KeyCount())
	for i := 1; i < count; i++ {
		k, c := n.ReadEntry(i)
		n.writeEntry(i-1, k, c)
	}
	clearRange(n.buf[:], internalEntryOffset(count-1), internalEntryOffset(count))
	n.setKeyCount(int32(count - 1))
}

// InsertAndSplit inserts (key, child), splitting the (full) node across
// itself and the given empty sibling. The middle key is promoted out
// of the sibling rather than duplicated: after migrating the upper half
// to sibling, sibling's first entry is removed, its key becomes the
// return value, and its child becomes sibling's new first-child
// pointer. This is the standard B+-tree rule; see DESIGN.md for why the
// naive "copy without removing" variant is rejected.
func (n *InternalNode) InsertAndSplit(key int32, child pagestore.PageID, sibling *InternalNode) (int32, error) {
	count := int(n.KeyCount())
	half := count / 2

	for i := half; i < count; i++ {
		k, c := n.ReadEntry(i)
		if err := sibling.Insert(k, c); err != nil {
			return 0, err
		}
	}
	clearRange(n.buf[:], internalEntryOffset(half), internalEntryOffset(count))
	n.setKeyCount(int32(half))

	promotedKey, promotedChild := sibling.ReadEntry(0)
	sibling.removeFirst()
	sibling.SetFirstChild(promotedChild)

	if promotedKey < key {
		if err := sibling.Insert(key, child); err != nil {
			return 0, err
		}
	} else if err := n.Insert(key, child); err != nil {
		return 0, err
	}
	return promotedKey, nil
}

// InitializeRoot writes a one-separator root: first_child = left,
// single entry (key, right), key_count = 1.
func (n *InternalNode) InitializeRoot(left pagestore.PageID, key int32, right pagestore.PageID) {
	n.SetFirstChild(left)
	n.writeEntry(0, key, right)
	n.setKeyCount(1)
}
