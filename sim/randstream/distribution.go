package randstream

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DblSequence produces a sequence of float64 variates.
type DblSequence interface {
	// NextDbl returns the next variate.
	NextDbl() float64

	// NextValue is the same as NextDbl. It lets a DblSequence serve as a
	// Sequence[float64].
	NextValue() float64
}

// Sequence produces a sequence of values of any type.
type Sequence[T any] interface {
	NextValue() T
}

// A Distribution can be bound to a random source to produce variates.
type Distribution interface {
	Bind(src rand.Source) DblSequence
}

type rander interface {
	Rand() float64
}

type dblSequence struct {
	r rander
}

func (s dblSequence) NextDbl() float64 {
	return s.r.Rand()
}

func (s dblSequence) NextValue() float64 {
	return s.r.Rand()
}

// Exp is the exponential distribution with the given mean.
type Exp struct {
	Mean float64
}

// Bind implements Distribution.
func (d Exp) Bind(src rand.Source) DblSequence {
	if d.Mean <= 0 {
		panic(fmt.Sprintf("exponential mean must be positive, got %v", d.Mean))
	}

	return dblSequence{r: distuv.Exponential{Rate: 1 / d.Mean, Src: src}}
}

// Uniform is the continuous uniform distribution over [Min, Max).
type Uniform struct {
	Min, Max float64
}

// Bind implements Distribution.
func (d Uniform) Bind(src rand.Source) DblSequence {
	if d.Max < d.Min {
		panic(fmt.Sprintf("uniform bounds reversed: [%v, %v)", d.Min, d.Max))
	}

	return dblSequence{r: distuv.Uniform{Min: d.Min, Max: d.Max, Src: src}}
}

// Normal is the normal distribution.
type Normal struct {
	Mean, StdDev float64
}

// Bind implements Distribution.
func (d Normal) Bind(src rand.Source) DblSequence {
	if d.StdDev < 0 {
		panic(fmt.Sprintf("normal standard deviation is negative: %v", d.StdDev))
	}

	return dblSequence{r: distuv.Normal{Mu: d.Mean, Sigma: d.StdDev, Src: src}}
}

// LogNormal is the distribution of a variable whose logarithm is normal with
// mean Mu and standard deviation Sigma.
type LogNormal struct {
	Mu, Sigma float64
}

// Bind implements Distribution.
func (d LogNormal) Bind(src rand.Source) DblSequence {
	if d.Sigma < 0 {
		panic(fmt.Sprintf("lognormal sigma is negative: %v", d.Sigma))
	}

	return dblSequence{r: distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: src}}
}

// Pareto is the Pareto distribution with scale Xm and shape Alpha.
type Pareto struct {
	Xm, Alpha float64
}

// Bind implements Distribution.
func (d Pareto) Bind(src rand.Source) DblSequence {
	if d.Xm <= 0 || d.Alpha <= 0 {
		panic(fmt.Sprintf("pareto parameters must be positive: xm %v alpha %v",
			d.Xm, d.Alpha))
	}

	return dblSequence{r: distuv.Pareto{Xm: d.Xm, Alpha: d.Alpha, Src: src}}
}

// Const always produces Value.
type Const struct {
	Value float64
}

// Bind implements Distribution. The source is not used.
func (d Const) Bind(rand.Source) DblSequence {
	return dblSequence{r: d}
}

// Rand returns Value.
func (d Const) Rand() float64 {
	return d.Value
}

type mappedSequence[T any] struct {
	src DblSequence
	f   func(float64) T
}

func (s mappedSequence[T]) NextValue() T {
	return s.f(s.src.NextDbl())
}

// Map converts the variates of s with f.
func Map[T any](s DblSequence, f func(float64) T) Sequence[T] {
	return mappedSequence[T]{src: s, f: f}
}
