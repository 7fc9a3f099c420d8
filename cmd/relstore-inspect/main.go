// Command relstore-inspect dumps the shape of an on-disk B+-tree
// index file: a one-line summary (root, height) and, optionally, a
// Graphviz DOT rendering of every internal and leaf node, in the
// style of the original tree-visualization debug hook this module's
// teacher exposed as Tree.Print.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dbcore/relstore/btree"
	"github.com/dbcore/relstore/pagestore"
)

func main() {
	indexPath := flag.String("index", "", "path to the index page-store file (required)")
	dotPath := flag.String("dot", "", "if set, write a Graphviz DOT rendering of the tree to this path")
	flag.Parse()

	if *indexPath == "" {
		fmt.Fprintln(os.Stderr, "usage: relstore-inspect -index <path> [-dot <path>]")
		os.Exit(2)
	}

	store, err := pagestore.Open(*indexPath, pagestore.ModeRead)
	if err != nil {
		log.Fatalf("relstore-inspect: open %s: %v", *indexPath, err)
	}
	defer store.Close()

	tree, err := btree.Open(store)
	if err != nil {
		log.Fatalf("relstore-inspect: open tree: %v", err)
	}

	fmt.Printf("root=%d height=%d\n", tree.RootID(), tree.Height())

	summary, err := summarize(tree)
	if err != nil {
		log.Fatalf("relstore-inspect: summarize: %v", err)
	}
	for level := len(summary.nodesPerLevel); level >= 1; level-- {
		fmt.Printf("level %d: %d node(s)\n", level, summary.nodesPerLevel[level-1])
	}
	fmt.Printf("leaf chain length: %d\n", summary.leafChainLength)

	if *dotPath != "" {
		if err := exportDOT(tree, *dotPath); err != nil {
			log.Fatalf("relstore-inspect: export dot: %v", err)
		}
		fmt.Printf("wrote %s\n", *dotPath)
	}
}
