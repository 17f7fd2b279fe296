// Package bordermap accumulates the geo-located endpoints touched by a scan.
package bordermap

import (
	"sync"

	"sentry/internal/scan/models"
)

// Builder collects border nodes in insertion order. It is safe for concurrent use.
type Builder struct {
	mu    sync.Mutex
	nodes []models.DataBorderNode
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Add appends nodes. Duplicates are kept.
func (b *Builder) Add(nodes ...models.DataBorderNode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = append(b.nodes, nodes...)
}

// Nodes returns a copy of the collected nodes; never nil.
func (b *Builder) Nodes() []models.DataBorderNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.DataBorderNode, len(b.nodes))
	copy(out, b.nodes)
	return out
}

// Count returns the number of nodes of the given type.
func (b *Builder) Count(t models.NodeType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, node := range b.nodes {
		if node.Type == t {
			n++
		}
	}
	return n
}
