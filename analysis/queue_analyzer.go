// Package analysis measures the behavior of a running model.
package analysis

import (
	"github.com/sarchlab/desim/sim/hooking"
	"github.com/sarchlab/desim/sim/timing"
)

// Queue is a queue whose level can be observed through hooks.
type Queue interface {
	hooking.Hookable
	Name() string
	NumItems() int
}

// QueueAnalyzer records how long a queue stays at each level. It is invoked
// as a hook whenever an item enters or leaves the queue.
type QueueAnalyzer struct {
	timing.TimeTeller

	queue Queue

	startTime       timing.VTimeInSec
	lastTime        timing.VTimeInSec
	lastLevel       int
	maxLevel        int
	sumLevelTime    float64
	levelToDuration map[int]timing.VTimeInSec
}

// Func records a level change.
func (a *QueueAnalyzer) Func(_ hooking.HookCtx) {
	now := a.CurrentTime()

	a.sumLevelTime += float64(a.lastLevel) * (now - a.lastTime)
	a.levelToDuration[a.lastLevel] += now - a.lastTime
	a.lastLevel = a.queue.NumItems()
	a.lastTime = now

	if a.lastLevel > a.maxLevel {
		a.maxLevel = a.lastLevel
	}
}

// Queue returns the queue being analyzed.
func (a *QueueAnalyzer) Queue() Queue {
	return a.queue
}

// LevelDurations returns how long the queue has stayed at each level up to
// the current time.
func (a *QueueAnalyzer) LevelDurations() map[int]timing.VTimeInSec {
	durations := make(map[int]timing.VTimeInSec, len(a.levelToDuration)+1)
	for level, d := range a.levelToDuration {
		durations[level] = d
	}

	if now := a.CurrentTime(); now > a.lastTime {
		durations[a.lastLevel] += now - a.lastTime
	}

	return durations
}

// MeanLevel returns the time-weighted average level since the analyzer was
// built. The level-time product is accumulated in the order of the level
// changes, so repeated calls return the same value.
func (a *QueueAnalyzer) MeanLevel() float64 {
	now := a.CurrentTime()

	duration := now - a.startTime
	if duration <= 0 {
		return float64(a.lastLevel)
	}

	sum := a.sumLevelTime
	if now > a.lastTime {
		sum += float64(a.lastLevel) * (now - a.lastTime)
	}

	return sum / duration
}

// MaxLevel returns the highest level observed.
func (a *QueueAnalyzer) MaxLevel() int {
	return a.maxLevel
}

// QueueAnalyzerBuilder can build a QueueAnalyzer.
type QueueAnalyzerBuilder struct {
	timeTeller timing.TimeTeller
	queue      Queue
}

// MakeQueueAnalyzerBuilder creates a QueueAnalyzerBuilder.
func MakeQueueAnalyzerBuilder() QueueAnalyzerBuilder {
	return QueueAnalyzerBuilder{}
}

// WithTimeTeller sets the TimeTeller to use.
func (b QueueAnalyzerBuilder) WithTimeTeller(
	timeTeller timing.TimeTeller,
) QueueAnalyzerBuilder {
	b.timeTeller = timeTeller
	return b
}

// WithQueue sets the queue to analyze.
func (b QueueAnalyzerBuilder) WithQueue(q Queue) QueueAnalyzerBuilder {
	b.queue = q
	return b
}

// Build creates a QueueAnalyzer and hooks it to the queue. The measurement
// starts at the current time with the current level of the queue.
func (b QueueAnalyzerBuilder) Build() *QueueAnalyzer {
	if b.timeTeller == nil {
		panic("timeTeller is not set")
	}

	if b.queue == nil {
		panic("queue is not set")
	}

	now := b.timeTeller.CurrentTime()
	level := b.queue.NumItems()

	analyzer := &QueueAnalyzer{
		TimeTeller:      b.timeTeller,
		queue:           b.queue,
		startTime:       now,
		lastTime:        now,
		lastLevel:       level,
		maxLevel:        level,
		levelToDuration: make(map[int]timing.VTimeInSec),
	}

	b.queue.AcceptHook(analyzer)

	return analyzer
}
