package dag

import "sync"

// Graph is a directed graph of project inclusions. Nodes and edges keep their
// insertion order so every traversal is deterministic. All operations on the
// graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order lists node IDs in insertion order.
	order []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	// id is the unique identifier for the node.
	id string
	// includes lists the nodes this node includes, in insertion order.
	includes []*node
	// includedBy lists the nodes that include this node, in insertion order.
	includedBy []*node
}
