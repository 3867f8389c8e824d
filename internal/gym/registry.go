package gym

import "sync/atomic"

// Registry hands out 1-based instance ids. One registry is usually shared by
// every environment a process creates.
type Registry struct {
	n atomic.Int64
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Next() int {
	return int(r.n.Add(1))
}

// Count reports how many ids were handed out.
func (r *Registry) Count() int {
	return int(r.n.Load())
}

// DefaultRegistry numbers environments constructed without an explicit
// registry.
var DefaultRegistry = NewRegistry()
