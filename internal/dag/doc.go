// Package dag records which project files include which. Nodes are canonical
// project paths and an edge a -> b means project a composed sub-project b.
//
// The composer fills the graph while it composes and re-checks it for cycles
// on resolve. After a failed composition its nodes are the files worth
// watching.
package dag
