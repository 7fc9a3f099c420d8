package scan

import (
	"testing"

	"github.com/dbcore/relstore/btree"
	"github.com/dbcore/relstore/heapfile"
	"github.com/dbcore/relstore/pagestore"
)

func buildFixture(t *testing.T) (*btree.Tree, *heapfile.Heap) {
	t.Helper()
	tree, err := btree.Open(pagestore.NewMemStore())
	if err != nil {
		t.Fatalf("btree.Open: %v", err)
	}
	heap, err := heapfile.Open(pagestore.NewMemStore())
	if err != nil {
		t.Fatalf("heapfile.Open: %v", err)
	}
	for i := int32(0); i < 100; i++ {
		loc, err := heap.Append(i, []byte{byte('a' + i%26)})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := tree.Insert(i, btree.Locator{PageID: int32(loc.PageID), SlotID: loc.SlotID}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	return tree, heap
}

func TestDeriveMinKeyEquality(t *testing.T) {
	preds := []Predicate{{Column: ColumnKey, Comp: EQ, KeyValue: 42}}
	if got := DeriveMinKey(preds); got != 42 {
		t.Fatalf("DeriveMinKey = %d, want 42", got)
	}
}

func TestDeriveMinKeyGreaterThan(t *testing.T) {
	preds := []Predicate{{Column: ColumnKey, Comp: GT, KeyValue: 10}}
	if got := DeriveMinKey(preds); got != 11 {
		t.Fatalf("DeriveMinKey = %d, want 11", got)
	}
}

func TestDeriveMinKeyIgnoresValueColumn(t *testing.T) {
	preds := []Predicate{{Column: ColumnValue, Comp: EQ, ValueBytes: []byte("z")}}
	if got := DeriveMinKey(preds); got != 0 {
		t.Fatalf("DeriveMinKey = %d, want 0", got)
	}
}

func TestRunEqualityScansExactlyOneTuple(t *testing.T) {
	tree, heap := buildFixture(t)
	var got []int32
	err := Run(tree, heap, []Predicate{{Column: ColumnKey, Comp: EQ, KeyValue: 17}}, func(key int32, value []byte) bool {
		got = append(got, key)
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0] != 17 {
		t.Fatalf("got %v, want [17]", got)
	}
}

func TestRunRangeScanTerminatesOnUpperBound(t *testing.T) {
	tree, heap := buildFixture(t)
	var got []int32
	err := Run(tree, heap, []Predicate{
		{Column: ColumnKey, Comp: GE, KeyValue: 10},
		{Column: ColumnKey, Comp: LT, KeyValue: 15},
	}, func(key int32, value []byte) bool {
		got = append(got, key)
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int32{10, 11, 12, 13, 14}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRunValuePredicateSkipsWithoutTerminating(t *testing.T) {
	tree, heap := buildFixture(t)
	var got []int32
	err := Run(tree, heap, []Predicate{
		{Column: ColumnKey, Comp: GE, KeyValue: 0},
		{Column: ColumnValue, Comp: EQ, ValueBytes: []byte{'a'}},
	}, func(key int32, value []byte) bool {
		got = append(got, key)
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// keys 0, 26, 52 and 78 all map to 'a' (i%26); a value-column mismatch
	// must not terminate the scan early, so all four must appear.
	if len(got) != 4 {
		t.Fatalf("got %v, want 4 matches (i%%26==0 for i in [0,100))", got)
	}
}

func TestRunEmitFalseStopsEarly(t *testing.T) {
	tree, heap := buildFixture(t)
	var got []int32
	err := Run(tree, heap, nil, func(key int32, value []byte) bool {
		got = append(got, key)
		return len(got) < 3
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
}
