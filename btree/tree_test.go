package btree

import (
	"errors"
	"testing"

	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/relerr"
)

func mustInsert(t *testing.T, tree *Tree, key int32, loc Locator) {
	t.Helper()
	if err := tree.Insert(key, loc); err != nil {
		t.Fatalf("Insert(%d): %v", key, err)
	}
}

func TestInsertAndGetSingleEntry(t *testing.T) {
	tree, err := Open(pagestore.NewMemStore())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustInsert(t, tree, 42, Locator{PageID: 1, SlotID: 2})

	loc, ok, err := tree.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get(42): not found")
	}
	if loc != (Locator{PageID: 1, SlotID: 2}) {
		t.Fatalf("Get(42) = %+v, want {1 2}", loc)
	}
	if tree.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", tree.Height())
	}
}

func TestGetMissingKey(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	mustInsert(t, tree, 10, Locator{PageID: 1})
	if _, ok, _ := tree.Get(11); ok {
		t.Fatalf("Get(11) unexpectedly found")
	}
	if _, ok, _ := tree.Get(10); !ok {
		t.Fatalf("Get(10) unexpectedly missing")
	}
}

func TestEmptyTreeGetAndLocate(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	if _, ok, err := tree.Get(1); ok || err != nil {
		t.Fatalf("Get on empty tree: ok=%v err=%v", ok, err)
	}
	cur, err := tree.Locate(0)
	if !errors.Is(err, relerr.ErrEmptyTree) {
		t.Fatalf("Locate on empty tree = %v, want ErrEmptyTree", err)
	}
	if cur != nil {
		t.Fatalf("Locate on empty tree returned cursor %+v, want nil", cur)
	}
}

// TestReadForwardRejectsOutOfRangeCursor confirms ReadForward validates
// EntryIndex instead of treating any index past KeyCount() the same as
// the exact sibling-advance boundary.
func TestReadForwardRejectsOutOfRangeCursor(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	mustInsert(t, tree, 1, Locator{PageID: 1})

	cur := &Cursor{PageID: tree.RootID(), EntryIndex: 5}
	if _, _, err := tree.ReadForward(cur); !errors.Is(err, relerr.ErrInvalidCursor) {
		t.Fatalf("ReadForward with EntryIndex past KeyCount() = %v, want ErrInvalidCursor", err)
	}

	cur = &Cursor{PageID: tree.RootID(), EntryIndex: -1}
	if _, _, err := tree.ReadForward(cur); !errors.Is(err, relerr.ErrInvalidCursor) {
		t.Fatalf("ReadForward with negative EntryIndex = %v, want ErrInvalidCursor", err)
	}
}

// TestLeafSplitAtCapacity inserts leafCapacity+1 ascending keys and
// confirms the root becomes an internal node (height 2) and every key
// is still reachable via Get.
func TestLeafSplitAtCapacity(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	const n = leafCapacity + 1
	for i := int32(0); i < n; i++ {
		mustInsert(t, tree, i, Locator{PageID: i, SlotID: i})
	}
	if tree.Height() != 2 {
		t.Fatalf("Height() = %d, want 2 after %d inserts", tree.Height(), n)
	}
	for i := int32(0); i < n; i++ {
		loc, ok, err := tree.Get(i)
		if err != nil || !ok {
			t.Fatalf("Get(%d): ok=%v err=%v", i, ok, err)
		}
		if loc.PageID != i || loc.SlotID != i {
			t.Fatalf("Get(%d) = %+v, want {%d %d}", i, loc, i, i)
		}
	}
}

// TestRangeScanOrdering inserts keys out of order and checks ReadForward
// returns them in ascending order exactly once each, terminating with
// ErrEndOfTree.
func TestRangeScanOrdering(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	keys := []int32{50, 10, 30, 20, 40, 5, 45}
	for _, k := range keys {
		mustInsert(t, tree, k, Locator{PageID: k})
	}

	cur, err := tree.Locate(0)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	want := []int32{5, 10, 20, 30, 40, 45, 50}
	var got []int32
	for {
		k, _, err := tree.ReadForward(cur)
		if err == relerr.ErrEndOfTree {
			break
		}
		if err != nil {
			t.Fatalf("ReadForward: %v", err)
		}
		got = append(got, k)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	// One further call must keep returning ErrEndOfTree, not panic or
	// silently restart the scan.
	if _, _, err := tree.ReadForward(cur); err != relerr.ErrEndOfTree {
		t.Fatalf("ReadForward past end = %v, want ErrEndOfTree", err)
	}
}

// TestLocateMidRange confirms Locate positions the cursor at the first
// key >= minKey, skipping smaller keys entirely, including across a
// leaf boundary.
func TestLocateMidRange(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	const n = leafCapacity * 3
	for i := int32(0); i < n; i++ {
		mustInsert(t, tree, i, Locator{PageID: i})
	}

	minKey := int32(leafCapacity + 5)
	cur, err := tree.Locate(minKey)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	k, _, err := tree.ReadForward(cur)
	if err != nil {
		t.Fatalf("ReadForward: %v", err)
	}
	if k != minKey {
		t.Fatalf("first key after Locate(%d) = %d, want %d", minKey, k, minKey)
	}
}

// TestInternalSplit drives enough inserts to force at least one
// internal-node split (height 3), and confirms every key remains
// reachable afterward with no duplicated or lost separators.
func TestInternalSplit(t *testing.T) {
	tree, _ := Open(pagestore.NewMemStore())
	const n = (leafCapacity + 1) * (internalCapacity + 1)
	for i := int32(0); i < n; i++ {
		mustInsert(t, tree, i, Locator{PageID: i, SlotID: 1})
	}
	if tree.Height() < 3 {
		t.Fatalf("Height() = %d, want >= 3 after %d inserts", tree.Height(), n)
	}

	cur, err := tree.Locate(0)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	var count int32
	for {
		k, _, err := tree.ReadForward(cur)
		if err == relerr.ErrEndOfTree {
			break
		}
		if err != nil {
			t.Fatalf("ReadForward: %v", err)
		}
		if k != count {
			t.Fatalf("ReadForward returned %d at position %d, want ascending dense sequence", k, count)
		}
		count++
	}
	if count != n {
		t.Fatalf("scanned %d entries, want %d", count, n)
	}
}

// TestReopenPersistsTree confirms root id, height and all entries
// survive a Close/Open round trip against the same backing store.
func TestReopenPersistsTree(t *testing.T) {
	store := pagestore.NewMemStore()
	tree, _ := Open(store)
	const n = leafCapacity*2 + 7
	for i := int32(0); i < n; i++ {
		mustInsert(t, tree, i, Locator{PageID: i, SlotID: 2 * i})
	}
	wantHeight := tree.Height()
	wantRoot := tree.RootID()
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(store)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Height() != wantHeight || reopened.RootID() != wantRoot {
		t.Fatalf("reopened tree = {root=%d height=%d}, want {root=%d height=%d}",
			reopened.RootID(), reopened.Height(), wantRoot, wantHeight)
	}
	for i := int32(0); i < n; i++ {
		loc, ok, err := reopened.Get(i)
		if err != nil || !ok {
			t.Fatalf("Get(%d) after reopen: ok=%v err=%v", i, ok, err)
		}
		if loc.SlotID != 2*i {
			t.Fatalf("Get(%d).SlotID = %d, want %d", i, loc.SlotID, 2*i)
		}
	}
}

// TestDuplicateKeyOverwritesLocator confirms that writing an existing
// key back at the slot Locate finds for it replaces that entry's
// locator in place and leaves KeyCount unchanged. (LeafNode.Insert
// itself does not overwrite: a duplicate key is stored as a second
// entry.)
func TestDuplicateKeyOverwritesLocator(t *testing.T) {
	leaf := NewLeafNode()
	if err := leaf.Insert(7, Locator{PageID: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	pos := leaf.Locate(7)
	leaf.writeEntry(pos, 7, Locator{PageID: 99})
	if leaf.KeyCount() != 1 {
		t.Fatalf("KeyCount() = %d, want 1", leaf.KeyCount())
	}
	_, loc := leaf.ReadEntry(pos)
	if loc.PageID != 99 {
		t.Fatalf("loc.PageID = %d, want 99", loc.PageID)
	}
}

// TestInternalNodeOverwriteOnFullDuplicate confirms Insert can still
// overwrite an existing separator's child pointer even when the node
// is otherwise at capacity — required so a parent can re-absorb a
// repeated promoted key during recursive split propagation without
// spuriously reporting ErrNodeFull.
func TestInternalNodeOverwriteOnFullDuplicate(t *testing.T) {
	node := NewInternalNode()
	node.SetFirstChild(0)
	for i := int32(0); i < internalCapacity; i++ {
		if err := node.Insert(i+1, pagestore.PageID(i+1)); err != nil {
			t.Fatalf("Insert(%d): %v", i+1, err)
		}
	}
	if err := node.Insert(1, pagestore.PageID(1000)); err != nil {
		t.Fatalf("Insert overwrite on full node: %v", err)
	}
	_, child := node.ReadEntry(0)
	if child != 1000 {
		t.Fatalf("child after overwrite = %d, want 1000", child)
	}
	if node.KeyCount() != internalCapacity {
		t.Fatalf("KeyCount() = %d, want unchanged %d", node.KeyCount(), internalCapacity)
	}
}

// TestInternalSplitDoesNotDuplicateKey confirms the promoted separator
// appears in the parent only, not in both halves of a split internal
// node — the behavior the standard split rule fixes relative to a
// naive copy-without-removing implementation.
func TestInternalSplitDoesNotDuplicateKey(t *testing.T) {
	node := NewInternalNode()
	node.SetFirstChild(0)
	for i := int32(0); i < internalCapacity; i++ {
		if err := node.Insert((i+1)*2, pagestore.PageID(i+1)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	sibling := NewInternalNode()
	promoted, err := node.InsertAndSplit(int32(internalCapacity+1)*2, pagestore.PageID(999), sibling)
	if err != nil {
		t.Fatalf("InsertAndSplit: %v", err)
	}

	for i := 0; i < int(node.KeyCount()); i++ {
		if k, _ := node.ReadEntry(i); k == promoted {
			t.Fatalf("promoted key %d duplicated in left half", promoted)
		}
	}
	for i := 0; i < int(sibling.KeyCount()); i++ {
		if k, _ := sibling.ReadEntry(i); k == promoted {
			t.Fatalf("promoted key %d duplicated in right half", promoted)
		}
	}
}
