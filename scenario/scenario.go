package scenario

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/scenariolab/scenariolab/scenario/dist"
)

// Config carries the optional knobs for New and Reset.
type Config struct {
	// ScenarioID is "name" or "name:version". Empty generates a fresh UUID
	// with version 1.
	ScenarioID string

	// Seed fixes the randomization stream. Nil derives a seed from the
	// clock, trading reproducibility for convenience.
	Seed *int64

	// NumEnv replicates every sampled value across this many parallel
	// environments. Zero disables replication.
	NumEnv int
}

// Scenario is the long-lived holder of one template, its distribution
// cache and its randomization stream. It is created once per run; Resolve
// is called once per episode and is safe for concurrent use.
type Scenario struct {
	mu sync.Mutex

	id       string
	version  int
	seed     Seed
	numEnv   int
	template *node
	src      rand.Source
	cache    *distCache
}

// Result is the outcome of one Resolve call: the concrete tree plus the
// path→value provenance of everything sampled during that call. It is
// owned by the caller, typically for the lifetime of one episode.
type Result struct {
	// Tree mirrors the template's key/index structure with every
	// expression leaf replaced by a natively-typed sampled value.
	Tree any

	// Values maps the dotted/bracketed path of each expression leaf to the
	// value sampled there during this call.
	Values map[string]any

	tmpl *node
}

// New creates a Scenario from a template source: a YAML document (string
// or []byte), nested Go mappings/sequences/scalars, or nil for an empty
// template. Scalar leaves of the form "${distribution: args...}" are
// randomization expressions; in YAML sources such a leaf must be quoted,
// since the expression contains ": ". See the dist package for the catalog.
func New(source any, cfg Config) (*Scenario, error) {
	s := &Scenario{}
	if err := s.init(source, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset re-initializes the Scenario with a new template, seed or identity.
// The distribution cache is cleared: instances configured against the
// previous template never leak into the new one.
func (s *Scenario) Reset(source any, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(source, cfg)
}

func (s *Scenario) init(source any, cfg Config) error {
	id, version, err := parseScenarioID(cfg.ScenarioID)
	if err != nil {
		return err
	}
	tmpl, err := parseTemplate(source)
	if err != nil {
		return err
	}
	seed := randomSeed()
	if cfg.Seed != nil {
		seed = Seed(*cfg.Seed)
	}
	s.id = id
	s.version = version
	s.seed = seed
	s.numEnv = cfg.NumEnv
	s.template = tmpl
	s.src = seed.source()
	s.cache = newDistCache()
	return nil
}

// parseScenarioID validates and splits a scenario identifier. The version
// defaults to 1.
func parseScenarioID(id string) (string, int, error) {
	if id == "" {
		return uuid.NewString(), 1, nil
	}
	parts := strings.Split(id, ":")
	if len(parts) > 2 || parts[0] == "" {
		return "", 0, fmt.Errorf("%w: %q, expected \"name\" or \"name:version\"", ErrInvalidScenarioID, id)
	}
	version := 1
	if len(parts) == 2 {
		v, err := strconv.Atoi(parts[1])
		if err != nil || v < 1 {
			return "", 0, fmt.Errorf("%w: %q has non-integer version", ErrInvalidScenarioID, id)
		}
		version = v
	}
	return parts[0], version, nil
}

// Resolve materializes one episode's concrete configuration: every
// expression leaf is replaced by a freshly sampled value and recorded in
// the provenance map. The template itself is never mutated.
//
// The whole call runs under the Scenario's lock, so concurrent callers
// observe a total order: cache writes and sample draws never interleave,
// and each returned Result is self-consistent. Any validation failure
// aborts the call; no partial tree is returned.
func (s *Scenario) Resolve() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]any)
	tree, err := s.resolveNode(s.template, values)
	if err != nil {
		return nil, err
	}
	return &Result{Tree: tree, Values: values, tmpl: s.template}, nil
}

func (s *Scenario) resolveNode(n *node, values map[string]any) (any, error) {
	switch n.kind {
	case mappingNode:
		out := make(map[string]any, len(n.keys))
		for i, key := range n.keys {
			v, err := s.resolveNode(n.children[i], values)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	case sequenceNode:
		out := make([]any, len(n.children))
		for i, child := range n.children {
			v, err := s.resolveNode(child, values)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case exprNode:
		d, err := s.cache.fetch(n.path, func() (dist.Distribution, error) {
			return dist.New(s.src, dist.Spec{
				Name:   n.expr.name,
				Args:   n.expr.args,
				Kwargs: n.expr.kwargs,
				NumEnv: s.numEnv,
				Path:   n.path,
			})
		})
		if err != nil {
			return nil, err
		}
		v := d.Sample()
		values[n.path] = v
		return v, nil
	default:
		return n.value, nil
	}
}

// ID returns the scenario identifier.
func (s *Scenario) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Version returns the scenario version, 1 unless set via "name:version".
func (s *Scenario) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Seed returns the seed driving this Scenario's randomization stream.
func (s *Scenario) Seed() Seed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// NumEnv returns the environment replication count, 0 when unset.
func (s *Scenario) NumEnv() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numEnv
}

// TemplateYAML renders the unresolved template as YAML, expression leaves
// in their original textual form, mapping keys in traversal order.
func (s *Scenario) TemplateYAML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, err := s.template.toYAMLNode()
	if err != nil {
		return "", err
	}
	return marshalYAML(y)
}

// YAML renders the concrete tree as YAML, mapping keys in the template's
// traversal order.
func (r *Result) YAML() (string, error) {
	y, err := concreteYAMLNode(r.tmpl, r.Tree)
	if err != nil {
		return "", err
	}
	return marshalYAML(y)
}

// concreteYAMLNode walks the template and the concrete tree in parallel so
// the serialized output keeps the template's key order.
func concreteYAMLNode(tmpl *node, v any) (*yaml.Node, error) {
	switch tmpl.kind {
	case mappingNode:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scenario: concrete tree diverges from template at %q", tmpl.path)
		}
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, key := range tmpl.keys {
			k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			child, err := concreteYAMLNode(tmpl.children[i], m[key])
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, k, child)
		}
		return y, nil
	case sequenceNode:
		seq, ok := v.([]any)
		if !ok || len(seq) != len(tmpl.children) {
			return nil, fmt.Errorf("scenario: concrete tree diverges from template at %q", tmpl.path)
		}
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, child := range tmpl.children {
			c, err := concreteYAMLNode(child, seq[i])
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, c)
		}
		return y, nil
	default:
		y := &yaml.Node{}
		if err := y.Encode(v); err != nil {
			return nil, fmt.Errorf("scenario: encoding value at %q: %w", tmpl.path, err)
		}
		return y, nil
	}
}

func marshalYAML(y *yaml.Node) (string, error) {
	out, err := yaml.Marshal(y)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
