package dist

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Bernoulli samples 0 or 1 with success probability p.
type Bernoulli struct {
	p     []float64
	shape []int
	src   rand.Source
}

func newBernoulli(src rand.Source, spec Spec, rank int, shape []int, slots map[string]any) (Distribution, error) {
	p, ok := floatParam(slots["p"], rank)
	if !ok {
		return nil, spec.invalid("p must be a scalar or a vector of length %d", rank)
	}
	for _, v := range p {
		if v < 0 || v > 1 {
			return nil, spec.invalid("p must be in [0, 1], got %v", v)
		}
	}
	return &Bernoulli{p: p, shape: shape, src: src}, nil
}

func (b *Bernoulli) Sample() any {
	return fill(b.shape, func(j int) any {
		return int64(distuv.Bernoulli{P: broadcast(b.p, j), Src: b.src}.Rand())
	})
}

func (b *Bernoulli) String() string {
	return fmt.Sprintf("Bernoulli(p=%v, shape=%v)", b.p, b.shape)
}

// Discrete samples integers from [low, high], inclusive of high iff
// endpoint is set (the default), else from [low, high).
type Discrete struct {
	low, high []int64
	endpoint  bool
	shape     []int
	rng       *rand.Rand
}

func newDiscrete(src rand.Source, spec Spec, rank int, shape []int, slots map[string]any) (Distribution, error) {
	low, ok := intParam(slots["low"], rank)
	if !ok {
		return nil, spec.invalid("low must be an integer scalar or a vector of length %d", rank)
	}
	high, ok := intParam(slots["high"], rank)
	if !ok {
		return nil, spec.invalid("high must be an integer scalar or a vector of length %d", rank)
	}
	endpoint := true
	if v, set := slots["endpoint"]; set {
		endpoint, ok = asBool(v)
		if !ok {
			return nil, spec.invalid("endpoint must be a boolean")
		}
	}
	for j := 0; j < max(len(low), len(high)); j++ {
		span := broadcastInt(high, j) - broadcastInt(low, j)
		if endpoint {
			span++
		}
		if span <= 0 {
			return nil, spec.invalid("empty integer range [%v, %v] with endpoint=%v", low, high, endpoint)
		}
	}
	return &Discrete{low: low, high: high, endpoint: endpoint, shape: shape, rng: rand.New(src)}, nil
}

func (d *Discrete) Sample() any {
	return fill(d.shape, func(j int) any {
		lo, hi := broadcastInt(d.low, j), broadcastInt(d.high, j)
		span := hi - lo
		if d.endpoint {
			span++
		}
		return lo + d.rng.Int64N(span)
	})
}

func (d *Discrete) String() string {
	return fmt.Sprintf("Discrete(low=%v, high=%v, endpoint=%v, shape=%v)", d.low, d.high, d.endpoint, d.shape)
}

// Categorical samples one of a fixed list of category values according to
// optional weights. Weights need not sum to one; they are normalized.
type Categorical struct {
	choices []any
	weights []float64
	picker  distuv.Categorical
	shape   []int
}

func newCategorical(src rand.Source, spec Spec, shape []int, slots map[string]any) (Distribution, error) {
	choices, ok := slots["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, spec.invalid("choices must be a non-empty list")
	}
	weights := make([]float64, len(choices))
	if raw, set := slots["weights"]; set && raw != nil {
		seq, ok := raw.([]any)
		if !ok || len(seq) != len(choices) {
			return nil, spec.invalid("weights must be a list of length %d", len(choices))
		}
		sum := 0.0
		for i, e := range seq {
			w, ok := asFloat(e)
			if !ok || w < 0 {
				return nil, spec.invalid("weights must be non-negative numbers, got %v", e)
			}
			weights[i] = w
			sum += w
		}
		if sum <= 0 {
			return nil, spec.invalid("weights must sum to a positive value")
		}
	} else {
		for i := range weights {
			weights[i] = 1
		}
	}
	return &Categorical{
		choices: choices,
		weights: weights,
		picker:  distuv.NewCategorical(weights, src),
		shape:   shape,
	}, nil
}

func (c *Categorical) Sample() any {
	return fill(c.shape, func(int) any {
		return c.choices[int(c.picker.Rand())]
	})
}

func (c *Categorical) String() string {
	return fmt.Sprintf("Categorical(choices=%v, weights=%v, shape=%v)", c.choices, c.weights, c.shape)
}
