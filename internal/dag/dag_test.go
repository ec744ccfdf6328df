package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode("b")
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddEdge("root", "koui"))
		require.NoError(t, g.AddEdge("root", "zui"))
		require.NoError(t, g.AddEdge("root", "koui")) // duplicate is a no-op

		inc, err := g.Includes("root")
		require.NoError(t, err)
		assert.Equal(t, []string{"koui", "zui"}, inc)

		by, err := g.IncludedBy("zui")
		require.NoError(t, err)
		assert.Equal(t, []string{"root"}, by)

		assert.Equal(t, []string{"root", "koui", "zui"}, g.Nodes())
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		err := g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")

		_, err = g.Includes("dne")
		assert.ErrorContains(t, err, "node not found")
		_, err = g.IncludedBy("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("diamond has no cycles", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "c"))
		require.NoError(t, g.AddEdge("b", "d"))
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		err := g.DetectCycles()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCycle)
		assert.ErrorContains(t, err, "a -> b -> a")

		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Path)
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y"))

		err := g.DetectCycles()
		assert.ErrorIs(t, err, ErrCycle)
		assert.ErrorContains(t, err, "y -> z -> y")
	})
}
