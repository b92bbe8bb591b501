package simulation

import "sort"

// ResultMap maps result names to values. Components write into the same map,
// so a key written by a parent replaces the same key written by its children.
type ResultMap map[string]any

// Keys returns the result names in sorted order.
func (r ResultMap) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Well-known results that every run produces.
const (
	ResultSimTime   = "simTime"
	ResultNumEvents = "numEvents"
)
