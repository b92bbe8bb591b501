// Package id generates identifiers for processes and simulation runs.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator can generate IDs.
type Generator interface {
	Generate() string
}

// NewSequentialGenerator returns a generator that emits "1", "2", ... in
// order. Runs that use it name things deterministically.
func NewSequentialGenerator() Generator {
	return &sequentialGenerator{}
}

// NewUniqueGenerator returns a generator of globally unique IDs. The IDs are
// not deterministic.
func NewUniqueGenerator() Generator {
	return uniqueGenerator{}
}

type sequentialGenerator struct {
	nextID uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return strconv.FormatUint(idNumber, 10)
}

type uniqueGenerator struct{}

func (g uniqueGenerator) Generate() string {
	return xid.New().String()
}
