package dist

// RankAny marks a dynamically-shaped instance: an explicit size was given,
// so per-rank parameter length checks do not apply.
const RankAny = -1

// OutputShape computes the concrete output dimensions for a distribution.
//
//	rank 0                  -> scalar, or [numEnv] when replication is set
//	rank N                  -> [N], or [numEnv, N]
//	explicit size (dynamic) -> size verbatim, or [numEnv, size...]
//
// A nil result means a single scalar draw.
func OutputShape(rank int, size []int, numEnv int) []int {
	var dims []int
	switch {
	case size != nil:
		dims = size
	case rank > 0:
		dims = []int{rank}
	}
	if numEnv > 0 {
		dims = append([]int{numEnv}, dims...)
	}
	return dims
}

// fill materializes a value of the given shape. draw is invoked once per
// element in row-major order and receives the index along the innermost
// axis, which is the axis parameter vectors broadcast over. A nil shape
// produces a single scalar.
func fill(shape []int, draw func(j int) any) any {
	if len(shape) == 0 {
		return draw(0)
	}
	out := make([]any, shape[0])
	if len(shape) == 1 {
		for j := range out {
			out[j] = draw(j)
		}
		return out
	}
	for i := range out {
		out[i] = fill(shape[1:], draw)
	}
	return out
}

// broadcast indexes a parameter vector along the innermost axis. A
// single-element vector is a scalar parameter shared by every element.
func broadcast(p []float64, j int) float64 {
	if len(p) == 1 {
		return p[0]
	}
	if j >= len(p) {
		j = len(p) - 1
	}
	return p[j]
}

func broadcastInt(p []int64, j int) int64 {
	if len(p) == 1 {
		return p[0]
	}
	if j >= len(p) {
		j = len(p) - 1
	}
	return p[j]
}

// === scalar coercion ===

// asFloat accepts any numeric scalar.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

// asInt accepts integer scalars only; floats do not coerce.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asSize parses an explicit size argument: a positive integer or a list of
// positive integers.
func asSize(v any) ([]int, bool) {
	if n, ok := asInt(v); ok {
		if n <= 0 {
			return nil, false
		}
		return []int{int(n)}, true
	}
	seq, ok := v.([]any)
	if !ok || len(seq) == 0 {
		return nil, false
	}
	dims := make([]int, len(seq))
	for i, e := range seq {
		n, ok := asInt(e)
		if !ok || n <= 0 {
			return nil, false
		}
		dims[i] = int(n)
	}
	return dims, true
}

// === rank-aware parameter coercion ===

// floatParam validates one positional parameter against the instance rank
// and returns it as a broadcastable vector: length 1 for a scalar parameter,
// length rank for a per-element vector.
//
// Rank 0 admits scalars only; ranks 1-3 admit a scalar or a vector whose
// length equals the rank; RankAny admits anything numeric.
func floatParam(v any, rank int) ([]float64, bool) {
	if f, ok := asFloat(v); ok {
		return []float64{f}, true
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, false
	}
	if rank == 0 {
		return nil, false
	}
	if rank != RankAny && len(seq) != rank {
		return nil, false
	}
	out := make([]float64, len(seq))
	for i, e := range seq {
		f, ok := asFloat(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// intParam is floatParam with strict integer elements.
func intParam(v any, rank int) ([]int64, bool) {
	if n, ok := asInt(v); ok {
		return []int64{n}, true
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, false
	}
	if rank == 0 {
		return nil, false
	}
	if rank != RankAny && len(seq) != rank {
		return nil, false
	}
	out := make([]int64, len(seq))
	for i, e := range seq {
		n, ok := asInt(e)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
