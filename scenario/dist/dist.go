// Package dist implements the distribution catalog for scenario randomization.
//
// Each distribution kind (Uniform, Bernoulli, Categorical, Discrete,
// LogUniform, Gaussian, TruncatedGaussian) is available in rank variants:
// the bare name samples a scalar, and the "_1d"/"_2d"/"_3d" suffixes sample
// vectors of that length. Statistical kernels come from gonum's distuv
// package; all sampled values are native Go scalars or nested []any slices.
package dist

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrInvalidSpec reports an unknown distribution name or parameters that
// fail validation for the requested rank.
var ErrInvalidSpec = errors.New("dist: invalid distribution spec")

// Kind enumerates the supported distribution families. The set is closed:
// every switch over Kind in this package handles all seven values.
type Kind int

const (
	KindUniform Kind = iota
	KindBernoulli
	KindCategorical
	KindDiscrete
	KindLogUniform
	KindGaussian
	KindTruncatedGaussian
)

// kindInfo carries the static declaration of one distribution family.
type kindInfo struct {
	kind  Kind
	arity int      // declared positional parameter count
	slots []string // positional parameter names, in order
}

// baseKinds maps the rank-0 name of each family to its declaration.
// Rank variants append "_1d", "_2d" or "_3d" to these names.
var baseKinds = map[string]kindInfo{
	"uniform":            {KindUniform, 2, []string{"low", "high"}},
	"bernoulli":          {KindBernoulli, 1, []string{"p"}},
	"categorical":        {KindCategorical, 2, []string{"choices", "weights"}},
	"discrete":           {KindDiscrete, 3, []string{"low", "high", "endpoint"}},
	"log_uniform":        {KindLogUniform, 2, []string{"low", "high"}},
	"gaussian":           {KindGaussian, 2, []string{"loc", "scale"}},
	"truncated_gaussian": {KindTruncatedGaussian, 4, []string{"loc", "scale", "low", "high"}},
}

// optionalSlots are positional parameters that may be omitted.
var optionalSlots = map[string]bool{
	"endpoint": true,
	"weights":  true,
}

// rankSuffixes maps name suffixes to vector lengths.
var rankSuffixes = []struct {
	suffix string
	rank   int
}{
	{"_1d", 1},
	{"_2d", 2},
	{"_3d", 3},
}

// IsKnown reports whether name refers to a distribution in the catalog,
// including its rank variants.
func IsKnown(name string) bool {
	_, _, ok := parseName(name)
	return ok
}

// parseName splits a catalog name into its family declaration and rank.
func parseName(name string) (kindInfo, int, bool) {
	for _, rs := range rankSuffixes {
		if base, found := strings.CutSuffix(name, rs.suffix); found {
			info, ok := baseKinds[base]
			return info, rs.rank, ok
		}
	}
	info, ok := baseKinds[name]
	return info, 0, ok
}

// Spec is a parsed randomization expression ready for instantiation.
// Path identifies the template node the expression came from and is used
// only for error context.
type Spec struct {
	Name   string
	Args   []any
	Kwargs map[string]any
	NumEnv int // environment replication count, 0 = unset
	Path   string
}

func (s Spec) invalid(format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at %q: %s (args=%v kwargs=%v)",
		ErrInvalidSpec, s.Name, s.Path, detail, s.Args, s.Kwargs)
}

// Distribution is one materialized distribution instance bound to a random
// source. Parameters and output shape are fixed at construction; Sample
// draws one fresh natively-typed value per call.
type Distribution interface {
	// Sample returns a scalar (float64, int64 or a category value) or a
	// nested []any matching the instance's output shape.
	Sample() any

	// String describes the configured parameters, for audit output.
	String() string
}

// New validates spec and materializes a Distribution drawing from src.
//
// Excess positional arguments beyond the family's declared arity are
// truncated with a warning. Unknown names, missing required parameters and
// rank/parameter mismatches return an error wrapping ErrInvalidSpec.
func New(src rand.Source, spec Spec) (Distribution, error) {
	info, rank, ok := parseName(spec.Name)
	if !ok {
		return nil, spec.invalid("unknown distribution")
	}

	args := spec.Args
	if len(args) > info.arity {
		logrus.Warnf("distribution %s at %q: expected at most %d parameters, got %d; extra parameters ignored",
			spec.Name, spec.Path, info.arity, len(args))
		args = args[:info.arity]
	}

	// Merge positional args and keyword args into named slots.
	slots := make(map[string]any, info.arity)
	for i, a := range args {
		slots[info.slots[i]] = a
	}
	size := []int(nil)
	for k, v := range spec.Kwargs {
		if k == "size" {
			dims, ok := asSize(v)
			if !ok {
				return nil, spec.invalid("size must be a positive integer or list of positive integers")
			}
			size = dims
			continue
		}
		if !slotName(info, k) {
			return nil, spec.invalid("unknown parameter %q", k)
		}
		if _, dup := slots[k]; dup {
			return nil, spec.invalid("parameter %q given both positionally and by keyword", k)
		}
		slots[k] = v
	}
	for _, name := range info.slots {
		if _, ok := slots[name]; !ok && !optionalSlots[name] {
			return nil, spec.invalid("missing required parameter %q", name)
		}
	}

	// An explicit size makes the rank dynamic: the requested dimensions are
	// used verbatim and per-rank parameter length checks do not apply.
	validationRank := rank
	if size != nil {
		validationRank = RankAny
	}
	shape := OutputShape(rank, size, spec.NumEnv)

	return build(src, spec, info.kind, validationRank, shape, slots)
}

func slotName(info kindInfo, name string) bool {
	for _, s := range info.slots {
		if s == name {
			return true
		}
	}
	return false
}

// build dispatches to the per-kind constructor. The switch is exhaustive
// over Kind.
func build(src rand.Source, spec Spec, kind Kind, rank int, shape []int, slots map[string]any) (Distribution, error) {
	switch kind {
	case KindUniform:
		return newUniform(src, spec, rank, shape, slots)
	case KindBernoulli:
		return newBernoulli(src, spec, rank, shape, slots)
	case KindCategorical:
		return newCategorical(src, spec, shape, slots)
	case KindDiscrete:
		return newDiscrete(src, spec, rank, shape, slots)
	case KindLogUniform:
		return newLogUniform(src, spec, rank, shape, slots)
	case KindGaussian:
		return newGaussian(src, spec, rank, shape, slots)
	case KindTruncatedGaussian:
		return newTruncatedGaussian(src, spec, rank, shape, slots)
	}
	return nil, spec.invalid("unknown distribution kind %d", kind)
}
