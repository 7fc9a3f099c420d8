// Package scan implements the predicate-driven range scan over a
// btree.Tree and its backing heapfile.Heap: derive the tightest
// starting key from a set of predicates, walk the leaf chain forward
// from there, and stop as soon as a key-column predicate rules out
// every further entry.
//
// This mirrors the original query engine's SqlEngine::select loop: a
// key-column bound violation ends the scan outright (the leaf chain is
// sorted, so nothing further can match either), while a value-column
// violation only disqualifies the current tuple.
package scan

import (
	"errors"
	"fmt"

	"github.com/dbcore/relstore/btree"
	"github.com/dbcore/relstore/heapfile"
	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/relerr"
)

// Comparator is one of the six comparison operators a predicate may use.
type Comparator int

const (
	EQ Comparator = iota
	NE
	LT
	LE
	GT
	GE
)

// Column identifies which part of a tuple a Predicate constrains.
type Column int

const (
	// ColumnKey constrains the int32 key the index is ordered by.
	ColumnKey Column = iota
	// ColumnValue constrains the associated heap value.
	ColumnValue
)

// Predicate is one WHERE-clause condition. For Column == ColumnKey,
// KeyValue holds the right-hand side; for ColumnValue, ValueBytes does.
type Predicate struct {
	Column     Column
	Comp       Comparator
	KeyValue   int32
	ValueBytes []byte
}

// DeriveMinKey computes the tightest lower bound on the starting key
// implied by preds, following the original engine's rule: an equality
// predicate on the key column fixes the start exactly (and short
// circuits further tightening); GE/GT predicates raise the bound
// (GT by one, since keys are integers); all other predicates and
// predicates on the value column are ignored for this purpose.
func DeriveMinKey(preds []Predicate) int32 {
	minKey := int32(0)
	for _, p := range preds {
		if p.Column != ColumnKey {
			continue
		}
		switch p.Comp {
		case EQ:
			return p.KeyValue
		case GE:
			if p.KeyValue > minKey {
				minKey = p.KeyValue
			}
		case GT:
			if p.KeyValue+1 > minKey {
				minKey = p.KeyValue + 1
			}
		}
	}
	return minKey
}

// satisfies reports whether (key, value) passes p, and whether the key
// side of p rules out every subsequent entry in the (sorted) scan —
// the signal that the whole scan should terminate rather than just
// skip this tuple.
func satisfies(p Predicate, key int32, value []byte) (ok bool, terminal bool) {
	var diff int
	switch p.Column {
	case ColumnKey:
		diff = int(key) - int(p.KeyValue)
	case ColumnValue:
		diff = compareBytes(value, p.ValueBytes)
	}

	pass := false
	switch p.Comp {
	case EQ:
		pass = diff == 0
	case NE:
		pass = diff != 0
	case GT:
		pass = diff > 0
	case GE:
		pass = diff >= 0
	case LT:
		pass = diff < 0
	case LE:
		pass = diff <= 0
	}
	if pass {
		return true, false
	}

	// A failed key-column bound that can only get worse as keys
	// increase (EQ, LT, LE) means no further entry in the scan can
	// satisfy it either; value-column failures never terminate the
	// scan, they just skip the current tuple.
	if p.Column == ColumnKey {
		switch p.Comp {
		case EQ, LT, LE:
			return false, true
		}
	}
	return false, false
}

func compareBytes(a, b []byte) int {
	switch {
	case string(a) < string(b):
		return -1
	case string(a) > string(b):
		return 1
	default:
		return 0
	}
}

// Emit is called once per tuple that satisfies every predicate. It
// returns false to stop the scan early (e.g. a LIMIT was reached).
type Emit func(key int32, value []byte) (keepGoing bool)

// Run scans tree/heap forward from DeriveMinKey(preds), invoking emit
// for every (key, value) that satisfies every predicate in preds, and
// stopping as soon as a key-column predicate becomes unsatisfiable for
// all further keys.
func Run(tree *btree.Tree, heap *heapfile.Heap, preds []Predicate, emit Emit) error {
	minKey := DeriveMinKey(preds)
	cursor, err := tree.Locate(minKey)
	if errors.Is(err, relerr.ErrEmptyTree) {
		// An empty index simply yields zero rows; it is not a scan
		// failure.
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan: locate: %w", err)
	}

	for {
		key, loc, err := tree.ReadForward(cursor)
		if errors.Is(err, relerr.ErrEndOfTree) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan: read forward: %w", err)
		}

		_, value, err := heap.Read(heapfile.Locator{PageID: pagestore.PageID(loc.PageID), SlotID: loc.SlotID})
		if err != nil {
			return fmt.Errorf("scan: read tuple: %w", err)
		}

		satisfiedAll := true
		for _, p := range preds {
			ok, terminal := satisfies(p, key, value)
			if !ok {
				if terminal {
					return nil
				}
				satisfiedAll = false
				break
			}
		}
		if !satisfiedAll {
			continue
		}

		if !emit(key, value) {
			return nil
		}
	}
}
