// Package randstream provides named random number streams. Every stream draws
// from its own source, seeded from the simulation seed and the stream name,
// so adding or reordering streams never changes the numbers of the others.
package randstream

import (
	"hash/fnv"
	"math/rand/v2"
)

const pcgIncrement = 0x9e3779b97f4a7c15

// Registry creates and caches the sources of named streams.
//
// Not thread-safe. Streams are drawn from the simulation goroutine only.
type Registry struct {
	seed    int64
	sources map[string]rand.Source
}

// NewRegistry creates a Registry for the given simulation seed.
func NewRegistry(seed int64) *Registry {
	return &Registry{
		seed:    seed,
		sources: make(map[string]rand.Source),
	}
}

// Seed returns the simulation seed.
func (r *Registry) Seed() int64 {
	return r.seed
}

// Source returns the source bound to name. The same name always returns the
// same source.
func (r *Registry) Source(name string) rand.Source {
	if src, ok := r.sources[name]; ok {
		return src
	}

	derived := uint64(r.seed ^ fnv1a64(name))
	src := rand.NewPCG(derived, pcgIncrement)
	r.sources[name] = src

	return src
}

// Stream binds a distribution to the source of name.
func (r *Registry) Stream(dist Distribution, name string) DblSequence {
	return dist.Bind(r.Source(name))
}

// NumStreams returns the number of streams created so far.
func (r *Registry) NumStreams() int {
	return len(r.sources)
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return int64(h.Sum64())
}
