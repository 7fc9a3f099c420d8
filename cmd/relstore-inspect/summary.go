package main

import (
	"github.com/dbcore/relstore/btree"
	"github.com/dbcore/relstore/pagestore"
)

// treeSummary reports the node count at every level (index 0 == leaf
// level) and the number of leaves reachable by following the leaf
// sibling chain from the leftmost leaf.
type treeSummary struct {
	nodesPerLevel   []int
	leafChainLength int
}

func summarize(tree *btree.Tree) (treeSummary, error) {
	if tree.RootID() == pagestore.NoPage {
		return treeSummary{}, nil
	}

	height := int(tree.Height())
	counts := make([]int, height)

	var leftmostLeaf pagestore.PageID = pagestore.NoPage

	var walk func(id pagestore.PageID, level int) error
	walk = func(id pagestore.PageID, level int) error {
		counts[level-1]++

		if level == 1 {
			if leftmostLeaf == pagestore.NoPage {
				leftmostLeaf = id
			}
			return nil
		}

		node := btree.NewInternalNode()
		if err := node.Read(id, tree.Store()); err != nil {
			return err
		}
		children := []pagestore.PageID{node.FirstChild()}
		for i := 0; i < int(node.KeyCount()); i++ {
			_, child := node.ReadEntry(i)
			children = append(children, child)
		}
		for _, child := range children {
			if err := walk(child, level-1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(tree.RootID(), height); err != nil {
		return treeSummary{}, err
	}

	chainLen := 0
	for id := leftmostLeaf; id != pagestore.NoPage; {
		chainLen++
		leaf := btree.NewLeafNode()
		if err := leaf.Read(id, tree.Store()); err != nil {
			return treeSummary{}, err
		}
		id = leaf.GetNext()
	}

	return treeSummary{nodesPerLevel: counts, leafChainLength: chainLen}, nil
}
