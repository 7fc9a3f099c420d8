// Package btree implements the on-disk B+-tree index: fixed 1024-byte
// leaf and internal pages keyed by a 32-bit integer, mapping each key
// to a heap-file locator. Tree owns the root pointer and height; all
// node-local layout and splitting logic lives in LeafNode and
// InternalNode.
package btree

import (
	"fmt"

	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/relerr"
)

const headerPageID pagestore.PageID = 0

const (
	headerRootOff   = 0
	headerHeightOff = 4
)

// Tree is the root handle for one B+-tree index living in a page store.
// Height 0 means the tree holds no entries; height 1 means the root is
// itself a leaf; height >= 2 means the root is an internal node.
type Tree struct {
	store  pagestore.Store
	rootID pagestore.PageID
	height int32
}

// Open attaches a Tree to store, creating a fresh empty tree if store
// is new (NextPageID() == 0) or reading the persisted root/height from
// the header page otherwise.
func Open(store pagestore.Store) (*Tree, error) {
	if store.NextPageID() == 0 {
		t := &Tree{store: store, rootID: pagestore.NoPage, height: 0}
		if err := t.writeHeader(); err != nil {
			return nil, err
		}
		return t, nil
	}

	var hdr pagestore.Page
	if err := store.Read(headerPageID, &hdr); err != nil {
		return nil, err
	}
	t := &Tree{
		store:  store,
		rootID: pagestore.GetPageID(hdr[:], headerRootOff),
		height: getInt32(hdr[:], headerHeightOff),
	}
	return t, nil
}

// Close releases the backing store.
func (t *Tree) Close() error {
	return t.store.Close()
}

func (t *Tree) writeHeader() error {
	var hdr pagestore.Page
	pagestore.PutPageID(hdr[:], headerRootOff, t.rootID)
	putInt32(hdr[:], headerHeightOff, t.height)
	return t.store.Write(headerPageID, &hdr)
}

// Insert adds (key, loc) to the tree, creating the first leaf if the
// tree is currently empty and splitting nodes bottom-up as needed,
// growing the tree's height when the root itself overflows.
func (t *Tree) Insert(key int32, loc Locator) error {
	if t.height == 0 {
		leaf := NewLeafNode()
		if err := leaf.Insert(key, loc); err != nil {
			return err
		}
		id := t.store.NextPageID()
		if err := leaf.Write(id, t.store); err != nil {
			return err
		}
		t.rootID = id
		t.height = 1
		return t.writeHeader()
	}

	promotedKey, newSiblingID, err := t.insertAt(t.rootID, t.height, key, loc)
	if err == nil {
		return nil
	}
	if err != relerr.ErrLeafOverflow {
		return err
	}

	root := NewInternalNode()
	root.InitializeRoot(t.rootID, promotedKey, newSiblingID)
	newRootID := t.store.NextPageID()
	if err := root.Write(newRootID, t.store); err != nil {
		return err
	}
	t.rootID = newRootID
	t.height++
	return t.writeHeader()
}

// insertAt recursively inserts into the subtree rooted at pageID at
// the given level (1 == leaf level). A nil error with newSiblingID ==
// pagestore.NoPage means the insert was absorbed without overflow. A
// relerr.ErrLeafOverflow result means pageID split: promotedKey and
// newSiblingID must be absorbed as a new separator by the caller's
// parent (or become the new root, if pageID was the tree root).
func (t *Tree) insertAt(pageID pagestore.PageID, level int32, key int32, loc Locator) (int32, pagestore.PageID, error) {
	if level == 1 {
		return t.insertLeaf(pageID, key, loc)
	}

	node := NewInternalNode()
	if err := node.Read(pageID, t.store); err != nil {
		return 0, pagestore.NoPage, err
	}
	childID := node.LocateChild(key)

	promoted, newChild, err := t.insertAt(childID, level-1, key, loc)
	if err == nil {
		return 0, pagestore.NoPage, nil
	}
	if err != relerr.ErrLeafOverflow {
		return 0, pagestore.NoPage, err
	}

	if insErr := node.Insert(promoted, newChild); insErr == nil {
		if err := node.Write(pageID, t.store); err != nil {
			return 0, pagestore.NoPage, err
		}
		return 0, pagestore.NoPage, nil
	} else if insErr != relerr.ErrNodeFull {
		return 0, pagestore.NoPage, insErr
	}

	sibling := NewInternalNode()
	siblingID := t.store.NextPageID()
	promotedUp, splitErr := node.InsertAndSplit(promoted, newChild, sibling)
	if splitErr != nil {
		return 0, pagestore.NoPage, splitErr
	}
	if err := sibling.Write(siblingID, t.store); err != nil {
		return 0, pagestore.NoPage, err
	}
	if err := node.Write(pageID, t.store); err != nil {
		return 0, pagestore.NoPage, err
	}
	return promotedUp, siblingID, relerr.ErrLeafOverflow
}

func (t *Tree) insertLeaf(pageID pagestore.PageID, key int32, loc Locator) (int32, pagestore.PageID, error) {
	leaf := NewLeafNode()
	if err := leaf.Read(pageID, t.store); err != nil {
		return 0, pagestore.NoPage, err
	}

	if err := leaf.Insert(key, loc); err == nil {
		if err := leaf.Write(pageID, t.store); err != nil {
			return 0, pagestore.NoPage, err
		}
		return 0, pagestore.NoPage, nil
	} else if err != relerr.ErrNodeFull {
		return 0, pagestore.NoPage, err
	}

	sibling := NewLeafNode()
	siblingID := t.store.NextPageID()
	promoted, err := leaf.InsertAndSplit(key, loc, sibling)
	if err != nil {
		return 0, pagestore.NoPage, err
	}
	sibling.SetNext(leaf.GetNext())
	leaf.SetNext(siblingID)

	if err := sibling.Write(siblingID, t.store); err != nil {
		return 0, pagestore.NoPage, err
	}
	if err := leaf.Write(pageID, t.store); err != nil {
		return 0, pagestore.NoPage, err
	}
	return promoted, siblingID, relerr.ErrLeafOverflow
}

// Get returns the locator stored under key, and false if no entry
// with that exact key exists.
func (t *Tree) Get(key int32) (Locator, bool, error) {
	if t.height == 0 {
		return Locator{}, false, nil
	}
	leafID, err := t.descendToLeaf(key)
	if err != nil {
		return Locator{}, false, err
	}
	leaf := NewLeafNode()
	if err := leaf.Read(leafID, t.store); err != nil {
		return Locator{}, false, err
	}
	idx := leaf.Locate(key)
	if idx >= int(leaf.KeyCount()) {
		return Locator{}, false, nil
	}
	k, loc := leaf.ReadEntry(idx)
	if k != key {
		return Locator{}, false, nil
	}
	return loc, true, nil
}

func (t *Tree) descendToLeaf(key int32) (pagestore.PageID, error) {
	pageID := t.rootID
	for level := t.height; level > 1; level-- {
		node := NewInternalNode()
		if err := node.Read(pageID, t.store); err != nil {
			return pagestore.NoPage, err
		}
		pageID = node.LocateChild(key)
	}
	return pageID, nil
}

// Cursor tracks a position in a forward scan over the leaf chain.
// EntryIndex is the index of the next entry to return from the leaf at
// PageID; PageID == pagestore.NoPage means the scan has no further
// leaves to visit.
type Cursor struct {
	PageID     pagestore.PageID
	EntryIndex int
}

// Locate returns a cursor positioned at the first entry with key >=
// searchKey (or, equivalently, at the end of the tree if no such entry
// exists). It fails with relerr.ErrEmptyTree if the tree holds no
// entries at all.
func (t *Tree) Locate(searchKey int32) (*Cursor, error) {
	if t.height == 0 {
		return nil, relerr.ErrEmptyTree
	}
	leafID, err := t.descendToLeaf(searchKey)
	if err != nil {
		return nil, err
	}
	leaf := NewLeafNode()
	if err := leaf.Read(leafID, t.store); err != nil {
		return nil, err
	}
	idx := leaf.Locate(searchKey)
	if idx >= int(leaf.KeyCount()) {
		return &Cursor{PageID: leaf.GetNext(), EntryIndex: 0}, nil
	}
	return &Cursor{PageID: leafID, EntryIndex: idx}, nil
}

// ReadForward returns the entry at the cursor and advances it past the
// boundary between leaves, following sibling pointers transparently.
// It returns relerr.ErrEndOfTree once the cursor has passed the last
// entry of the rightmost leaf; the terminal entry itself is still
// returned exactly once before that happens. A cursor whose EntryIndex
// falls outside [0, key_count] — never produced by Locate itself, but
// possible if a caller hand-builds or corrupts one — is rejected with
// relerr.ErrInvalidCursor rather than silently treated as either a
// valid entry or an end-of-leaf marker.
func (t *Tree) ReadForward(cur *Cursor) (int32, Locator, error) {
	for {
		if cur.PageID == pagestore.NoPage {
			return 0, Locator{}, relerr.ErrEndOfTree
		}
		leaf := NewLeafNode()
		if err := leaf.Read(cur.PageID, t.store); err != nil {
			return 0, Locator{}, err
		}
		if cur.EntryIndex < 0 || cur.EntryIndex > int(leaf.KeyCount()) {
			return 0, Locator{}, relerr.ErrInvalidCursor
		}
		if cur.EntryIndex == int(leaf.KeyCount()) {
			cur.PageID = leaf.GetNext()
			cur.EntryIndex = 0
			continue
		}
		key, loc := leaf.ReadEntry(cur.EntryIndex)
		cur.EntryIndex++
		return key, loc, nil
	}
}

// Height reports the current tree height (0 for an empty tree).
func (t *Tree) Height() int32 { return t.height }

// RootID reports the current root page id, or pagestore.NoPage if the
// tree is empty.
func (t *Tree) RootID() pagestore.PageID { return t.rootID }

// Store exposes the underlying page store for diagnostic tools that
// need to walk the tree's node structure directly (cmd/relstore-inspect).
func (t *Tree) Store() pagestore.Store { return t.store }

// String renders a short diagnostic summary, used by cmd/relstore-inspect.
func (t *Tree) String() string {
	return fmt.Sprintf("btree.Tree{root=%d height=%d}", t.rootID, t.height)
}
