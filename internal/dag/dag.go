package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is matched by the error DetectCycles returns.
var ErrCycle = errors.New("cycle detected")

// CycleError names the nodes of a detected cycle. The first and last
// elements are the same node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.addNodeLocked(id)
}

func (g *Graph) addNodeLocked(id string) *node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &node{id: id}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n
}

// AddEdge records that fromID includes toID, creating missing nodes. Adding
// an existing edge is a no-op. A self-referential edge is an error.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	from := g.addNodeLocked(fromID)
	to := g.addNodeLocked(toID)
	if slices.Contains(from.includes, to) {
		return nil
	}
	from.includes = append(from.includes, to)
	to.includedBy = append(to.includedBy, from)
	return nil
}

// Nodes returns every node ID in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]string(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.order)
}

// Includes returns the IDs of the nodes the given node includes.
func (g *Graph) Includes(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.includes), nil
}

// IncludedBy returns the IDs of the nodes that include the given node.
func (g *Graph) IncludedBy(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.includedBy), nil
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}

// DetectCycles checks the graph for any cycles. The returned error is a
// *CycleError naming the cycle, e.g. "a -> b -> a".
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three colours:
	// permanent: fully visited and not part of a cycle.
	// stack: nodes on the current recursion path.
	permanent := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if onStack[n.id] {
			start := slices.Index(stack, n.id)
			path := append(append([]string(nil), stack[start:]...), n.id)
			return &CycleError{Path: path}
		}

		onStack[n.id] = true
		stack = append(stack, n.id)
		for _, inc := range n.includes {
			if err := visit(inc); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}
