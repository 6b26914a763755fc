package dist

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Uniform samples from the half-open interval [low, high).
type Uniform struct {
	low, high []float64
	shape     []int
	src       rand.Source
}

func newUniform(src rand.Source, spec Spec, rank int, shape []int, slots map[string]any) (Distribution, error) {
	low, ok := floatParam(slots["low"], rank)
	if !ok {
		return nil, spec.invalid("low must be a scalar or a vector of length %d", rank)
	}
	high, ok := floatParam(slots["high"], rank)
	if !ok {
		return nil, spec.invalid("high must be a scalar or a vector of length %d", rank)
	}
	return &Uniform{low: low, high: high, shape: shape, src: src}, nil
}

func (u *Uniform) Sample() any {
	return fill(u.shape, func(j int) any {
		return distuv.Uniform{Min: broadcast(u.low, j), Max: broadcast(u.high, j), Src: u.src}.Rand()
	})
}

func (u *Uniform) String() string {
	return fmt.Sprintf("Uniform(low=%v, high=%v, shape=%v)", u.low, u.high, u.shape)
}

// LogUniform samples exp(U(log low, log high)): log-uniformly spread over
// [low, high). Bounds must be positive.
type LogUniform struct {
	logLow, logHigh []float64
	shape           []int
	src             rand.Source
}

func newLogUniform(src rand.Source, spec Spec, rank int, shape []int, slots map[string]any) (Distribution, error) {
	low, ok := floatParam(slots["low"], rank)
	if !ok {
		return nil, spec.invalid("low must be a scalar or a vector of length %d", rank)
	}
	high, ok := floatParam(slots["high"], rank)
	if !ok {
		return nil, spec.invalid("high must be a scalar or a vector of length %d", rank)
	}
	logLow := make([]float64, len(low))
	for i, v := range low {
		if v <= 0 {
			return nil, spec.invalid("low must be positive, got %v", v)
		}
		logLow[i] = math.Log(v)
	}
	logHigh := make([]float64, len(high))
	for i, v := range high {
		if v <= 0 {
			return nil, spec.invalid("high must be positive, got %v", v)
		}
		logHigh[i] = math.Log(v)
	}
	return &LogUniform{logLow: logLow, logHigh: logHigh, shape: shape, src: src}, nil
}

func (l *LogUniform) Sample() any {
	return fill(l.shape, func(j int) any {
		u := distuv.Uniform{Min: broadcast(l.logLow, j), Max: broadcast(l.logHigh, j), Src: l.src}.Rand()
		return math.Exp(u)
	})
}

func (l *LogUniform) String() string {
	low := make([]float64, len(l.logLow))
	for i, v := range l.logLow {
		low[i] = math.Exp(v)
	}
	high := make([]float64, len(l.logHigh))
	for i, v := range l.logHigh {
		high[i] = math.Exp(v)
	}
	return fmt.Sprintf("LogUniform(low=%v, high=%v, shape=%v)", low, high, l.shape)
}

// Gaussian samples a normal variate N(loc, scale).
type Gaussian struct {
	loc, scale []float64
	shape      []int
	src        rand.Source
}

func newGaussian(src rand.Source, spec Spec, rank int, shape []int, slots map[string]any) (Distribution, error) {
	loc, ok := floatParam(slots["loc"], rank)
	if !ok {
		return nil, spec.invalid("loc must be a scalar or a vector of length %d", rank)
	}
	scale, ok := floatParam(slots["scale"], rank)
	if !ok {
		return nil, spec.invalid("scale must be a scalar or a vector of length %d", rank)
	}
	for _, s := range scale {
		if s < 0 {
			return nil, spec.invalid("scale must be non-negative, got %v", s)
		}
	}
	return &Gaussian{loc: loc, scale: scale, shape: shape, src: src}, nil
}

func (g *Gaussian) Sample() any {
	return fill(g.shape, func(j int) any {
		return distuv.Normal{Mu: broadcast(g.loc, j), Sigma: broadcast(g.scale, j), Src: g.src}.Rand()
	})
}

func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian(loc=%v, scale=%v, shape=%v)", g.loc, g.scale, g.shape)
}

// TruncatedGaussian samples N(loc, scale) restricted to [low, high] by
// rejection, clamping after maxRejections failed draws so sampling stays
// bounded even for near-degenerate intervals.
type TruncatedGaussian struct {
	loc, scale []float64
	low, high  []float64
	shape      []int
	src        rand.Source
}

const maxRejections = 100

func newTruncatedGaussian(src rand.Source, spec Spec, rank int, shape []int, slots map[string]any) (Distribution, error) {
	loc, ok := floatParam(slots["loc"], rank)
	if !ok {
		return nil, spec.invalid("loc must be a scalar or a vector of length %d", rank)
	}
	scale, ok := floatParam(slots["scale"], rank)
	if !ok {
		return nil, spec.invalid("scale must be a scalar or a vector of length %d", rank)
	}
	low, ok := floatParam(slots["low"], rank)
	if !ok {
		return nil, spec.invalid("low must be a scalar or a vector of length %d", rank)
	}
	high, ok := floatParam(slots["high"], rank)
	if !ok {
		return nil, spec.invalid("high must be a scalar or a vector of length %d", rank)
	}
	for j := 0; j < max(len(low), len(high)); j++ {
		if broadcast(low, j) > broadcast(high, j) {
			return nil, spec.invalid("low %v exceeds high %v", low, high)
		}
	}
	return &TruncatedGaussian{loc: loc, scale: scale, low: low, high: high, shape: shape, src: src}, nil
}

func (t *TruncatedGaussian) Sample() any {
	return fill(t.shape, func(j int) any {
		n := distuv.Normal{Mu: broadcast(t.loc, j), Sigma: broadcast(t.scale, j), Src: t.src}
		lo, hi := broadcast(t.low, j), broadcast(t.high, j)
		for i := 0; i < maxRejections; i++ {
			v := n.Rand()
			if v >= lo && v <= hi {
				return v
			}
		}
		return math.Min(hi, math.Max(lo, n.Rand()))
	})
}

func (t *TruncatedGaussian) String() string {
	return fmt.Sprintf("TruncatedGaussian(loc=%v, scale=%v, low=%v, high=%v, shape=%v)",
		t.loc, t.scale, t.low, t.high, t.shape)
}
