package main

import (
	"fmt"
	"os"

	"github.com/dbcore/relstore/btree"
	"github.com/dbcore/relstore/pagestore"
)

// exportDOT writes a Graphviz DOT rendering of tree's node structure
// to path: one record-shaped node per page, internal nodes pointing
// at every child, leaf nodes additionally chained left-to-right along
// their sibling pointers.
func exportDOT(tree *btree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "digraph BPlusTree {")
	fmt.Fprintln(f, "  graph [ranksep=0.8, nodesep=0.5, rankdir=TB];")
	fmt.Fprintln(f, "  node [shape=record, fontname=\"Helvetica\", fontsize=10];")

	if tree.RootID() == pagestore.NoPage {
		fmt.Fprintln(f, "  empty [label=\"(empty tree)\"];")
		fmt.Fprintln(f, "}")
		return nil
	}

	var leafIDs []pagestore.PageID
	visited := map[pagestore.PageID]bool{}

	var walk func(id pagestore.PageID, level int32) error
	walk = func(id pagestore.PageID, level int32) error {
		if visited[id] {
			return nil
		}
		visited[id] = true

		if level == 1 {
			leaf := btree.NewLeafNode()
			if err := leaf.Read(id, tree.Store()); err != nil {
				return err
			}
			leafIDs = append(leafIDs, id)
			fmt.Fprintf(f, "  p%d [label=\"leaf %d | %s\"];\n", id, id, leafKeysLabel(leaf))
			return nil
		}

		node := btree.NewInternalNode()
		if err := node.Read(id, tree.Store()); err != nil {
			return err
		}
		fmt.Fprintf(f, "  p%d [label=\"internal %d | %s\"];\n", id, id, internalKeysLabel(node))

		children := []pagestore.PageID{node.FirstChild()}
		for i := 0; i < int(node.KeyCount()); i++ {
			_, child := node.ReadEntry(i)
			children = append(children, child)
		}
		for _, child := range children {
			fmt.Fprintf(f, "  p%d -> p%d;\n", id, child)
			if err := walk(child, level-1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(tree.RootID(), tree.Height()); err != nil {
		return err
	}

	for i := 0; i+1 < len(leafIDs); i++ {
		fmt.Fprintf(f, "  p%d -> p%d [style=dashed, constraint=false];\n", leafIDs[i], leafIDs[i+1])
	}

	fmt.Fprintln(f, "}")
	return nil
}

func leafKeysLabel(leaf *btree.LeafNode) string {
	s := ""
	n := int(leaf.KeyCount())
	for i := 0; i < n; i++ {
		k, _ := leaf.ReadEntry(i)
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", k)
	}
	return s
}

func internalKeysLabel(node *btree.InternalNode) string {
	s := ""
	n := int(node.KeyCount())
	for i := 0; i < n; i++ {
		k, _ := node.ReadEntry(i)
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", k)
	}
	return s
}
