package timing

import "math"

// VTimeInSec defines the time in the simulated space in the unit of second.
type VTimeInSec = float64

// Event priorities. Among events due at the same time, the one with the
// lower value is dispatched first.
const (
	PrioHighest = -30000
	PrioHigher  = -20000
	PrioHigh    = -10000
	PrioNormal  = 0
	PrioLow     = 10000
	PrioLower   = 20000
	PrioLowest  = 30000
)

func validTime(t VTimeInSec) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0)
}
