package scenario

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenariolab/scenariolab/scenario/dist"
)

const testTemplate = `
robot:
  mass: "${uniform: 0.5, 2.0}"
  joints: "${gaussian_2d: 0.0, 1.0}"
terrain:
  - flat
  - friction: "${log_uniform: 0.01, 1.0}"
episode_len: 500
`

func seedPtr(v int64) *int64 { return &v }

// valueAt walks a concrete tree along a dotted/bracketed path.
func valueAt(t *testing.T, tree any, path string) any {
	t.Helper()
	cur := tree
	for _, part := range strings.Split(path, ".") {
		key := part
		var indices []int
		if i := strings.IndexByte(part, '['); i >= 0 {
			key = part[:i]
			for _, seg := range strings.Split(part[i+1:len(part)-1], "][") {
				idx, err := strconv.Atoi(seg)
				require.NoError(t, err, "path %q", path)
				indices = append(indices, idx)
			}
		}
		if key != "" {
			m, ok := cur.(map[string]any)
			require.True(t, ok, "path %q: %v is not a mapping", path, cur)
			cur = m[key]
		}
		for _, idx := range indices {
			seq, ok := cur.([]any)
			require.True(t, ok, "path %q: %v is not a sequence", path, cur)
			cur = seq[idx]
		}
	}
	return cur
}

func TestScenario_Determinism(t *testing.T) {
	s1, err := New(testTemplate, Config{Seed: seedPtr(7)})
	require.NoError(t, err)
	s2, err := New(testTemplate, Config{Seed: seedPtr(7)})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		r1, err := s1.Resolve()
		require.NoError(t, err)
		r2, err := s2.Resolve()
		require.NoError(t, err)
		assert.Equal(t, r1.Tree, r2.Tree, "resolve %d", i)
		assert.Equal(t, r1.Values, r2.Values, "resolve %d", i)
	}
}

func TestScenario_InterleavingDoesNotPerturbStreams(t *testing.T) {
	alone, err := New(testTemplate, Config{Seed: seedPtr(11)})
	require.NoError(t, err)
	interleaved, err := New(testTemplate, Config{Seed: seedPtr(11)})
	require.NoError(t, err)
	other, err := New(testTemplate, Config{Seed: seedPtr(99)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		want, err := alone.Resolve()
		require.NoError(t, err)
		// Draws on an unrelated Scenario must not shift this one's stream.
		_, err = other.Resolve()
		require.NoError(t, err)
		got, err := interleaved.Resolve()
		require.NoError(t, err)
		assert.Equal(t, want.Values, got.Values, "resolve %d", i)
	}
}

func TestScenario_TreeStructureMatchesTemplate(t *testing.T) {
	s, err := New(testTemplate, Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)

	root, ok := res.Tree.(map[string]any)
	require.True(t, ok)
	assert.Len(t, root, 3)
	assert.Equal(t, 500, root["episode_len"])

	terrain, ok := root["terrain"].([]any)
	require.True(t, ok)
	require.Len(t, terrain, 2)
	assert.Equal(t, "flat", terrain[0])

	robot, ok := root["robot"].(map[string]any)
	require.True(t, ok)
	assert.IsType(t, float64(0), robot["mass"])
	joints, ok := robot["joints"].([]any)
	require.True(t, ok)
	assert.Len(t, joints, 2)
}

func TestScenario_ProvenanceComplete(t *testing.T) {
	s, err := New(`
a:
  b: "${uniform: 0.0, 1.0}"
c:
  - flat
  - d: "${discrete: 1, 5}"
`, Config{Seed: seedPtr(3)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)

	require.Len(t, res.Values, 2)
	for _, path := range []string{"a.b", "c[1].d"} {
		require.Contains(t, res.Values, path)
		assert.Equal(t, res.Values[path], valueAt(t, res.Tree, path), "path %s", path)
	}
}

func TestScenario_ValidationFailureReturnsNoTree(t *testing.T) {
	s, err := New("robot:\n  mass: '${discrete: 2.5, 9}'\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)

	res, err := s.Resolve()
	require.Nil(t, res)
	require.ErrorIs(t, err, dist.ErrInvalidSpec)
	assert.Contains(t, err.Error(), "robot.mass")
	assert.Contains(t, err.Error(), "discrete")
}

func TestScenario_UnknownDistributionFails(t *testing.T) {
	s, err := New("x: '${zipf: 1.5}'\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.Nil(t, res)
	require.ErrorIs(t, err, dist.ErrInvalidSpec)
}

func TestScenario_CacheParameterStability(t *testing.T) {
	s, err := New(testTemplate, Config{Seed: seedPtr(5)})
	require.NoError(t, err)

	r1, err := s.Resolve()
	require.NoError(t, err)
	first := s.cache.instances["robot.mass"]
	require.NotNil(t, first)

	r2, err := s.Resolve()
	require.NoError(t, err)
	assert.Same(t, first, s.cache.instances["robot.mass"],
		"second resolution must reuse the configured instance, not rebuild it")
	assert.Equal(t, 3, s.cache.len())

	// Same parameters, fresh draw.
	assert.NotEqual(t, r1.Values["robot.mass"], r2.Values["robot.mass"])
}

func TestScenario_IdenticalExpressionsSampleIndependently(t *testing.T) {
	s, err := New("first: '${uniform: 0.0, 1.0}'\nsecond: '${uniform: 0.0, 1.0}'\n", Config{Seed: seedPtr(9)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)
	// Cache keys come from position, not expression text: the two leaves
	// hold separate instances and separate draws.
	assert.Equal(t, 2, s.cache.len())
	assert.NotEqual(t, res.Values["first"], res.Values["second"])
}

func TestScenario_NumEnvReplication(t *testing.T) {
	s, err := New("joints: '${gaussian_2d: 0.0, 1.0}'\nmass: '${uniform: 0.5, 2.0}'\n",
		Config{Seed: seedPtr(2), NumEnv: 4})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)

	joints, ok := valueAt(t, res.Tree, "joints").([]any)
	require.True(t, ok)
	require.Len(t, joints, 4)
	for _, row := range joints {
		vec, ok := row.([]any)
		require.True(t, ok)
		assert.Len(t, vec, 2)
	}

	mass, ok := valueAt(t, res.Tree, "mass").([]any)
	require.True(t, ok)
	assert.Len(t, mass, 4)
}

func TestScenario_ResetClearsCache(t *testing.T) {
	s, err := New(testTemplate, Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	_, err = s.Resolve()
	require.NoError(t, err)
	require.Equal(t, 3, s.cache.len())

	err = s.Reset("other: '${bernoulli: 0.5}'\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, s.cache.len())

	res, err := s.Resolve()
	require.NoError(t, err)
	require.Len(t, res.Values, 1)
	assert.Contains(t, res.Values, "other")
	assert.Equal(t, 1, s.cache.len())
}

func TestScenario_ConcurrentResolve(t *testing.T) {
	s, err := New(testTemplate, Config{Seed: seedPtr(21)})
	require.NoError(t, err)

	const goroutines = 16
	const perGoroutine = 25
	results := make(chan *Result, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				res, err := s.Resolve()
				if err != nil {
					t.Error(err)
					return
				}
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	for res := range results {
		require.Len(t, res.Values, 3)
		for path, v := range res.Values {
			// Each result must be self-consistent: the provenance value is
			// the value present in that result's tree.
			assert.Equal(t, v, valueAt(t, res.Tree, path))
		}
	}
	assert.Equal(t, 3, s.cache.len(), "cache must hold exactly one instance per expression node")
}

func TestScenario_AccessorsSafeDuringReset(t *testing.T) {
	s, err := New(testTemplate, Config{ScenarioID: "walker:1", Seed: seedPtr(1)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := s.Reset(testTemplate, Config{ScenarioID: "walker:2", Seed: seedPtr(2)}); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		// Reads must not race with Reset rewriting the fields.
		for i := 0; i < 200; i++ {
			if id := s.ID(); id != "walker" {
				t.Errorf("ID() = %q, want %q", id, "walker")
				return
			}
			_ = s.Version()
			_ = s.Seed()
			_ = s.NumEnv()
		}
	}()
	wg.Wait()
}

func TestParseScenarioID(t *testing.T) {
	tests := []struct {
		id          string
		wantName    string
		wantVersion int
		wantErr     bool
	}{
		{"walker", "walker", 1, false},
		{"walker:3", "walker", 3, false},
		{"walker:x", "", 0, true},
		{"walker:1:2", "", 0, true},
		{":3", "", 0, true},
		{"walker:0", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			name, version, err := parseScenarioID(tt.id)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidScenarioID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestParseScenarioID_EmptyGeneratesUUID(t *testing.T) {
	name1, version, err := parseScenarioID("")
	require.NoError(t, err)
	assert.NotEmpty(t, name1)
	assert.Equal(t, 1, version)

	name2, _, err := parseScenarioID("")
	require.NoError(t, err)
	assert.NotEqual(t, name1, name2)
}

func TestScenario_Accessors(t *testing.T) {
	s, err := New(testTemplate, Config{ScenarioID: "walker:2", Seed: seedPtr(42), NumEnv: 3})
	require.NoError(t, err)
	assert.Equal(t, "walker", s.ID())
	assert.Equal(t, 2, s.Version())
	assert.Equal(t, Seed(42), s.Seed())
	assert.Equal(t, 3, s.NumEnv())
}

func TestScenario_InvalidIDSurfacesAtNew(t *testing.T) {
	_, err := New(testTemplate, Config{ScenarioID: "walker:abc"})
	require.ErrorIs(t, err, ErrInvalidScenarioID)
}

func TestResult_YAMLKeepsTemplateOrder(t *testing.T) {
	s, err := New("zebra: '${uniform: 0.0, 1.0}'\napple: 2\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)

	out, err := res.YAML()
	require.NoError(t, err)
	reparsed, err := parseTemplate(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple"}, reparsed.keys)
	assert.NotContains(t, out, "${", "resolved YAML must carry no expressions")
}

func TestScenario_ExcessArgumentsTruncatedNotFatal(t *testing.T) {
	s, err := New("x: '${uniform: 0.0, 1.0, 42.0}'\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)
	v, ok := res.Values["x"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestScenario_EmptyTemplateResolves(t *testing.T) {
	s, err := New(nil, Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)
	assert.Empty(t, res.Values)
	assert.Equal(t, map[string]any{}, res.Tree)
}

func TestScenario_LiteralInterpolationLookalikeKept(t *testing.T) {
	s, err := New("note: \"${not an expression}\"\n", Config{Seed: seedPtr(1)})
	require.NoError(t, err)
	res, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "${not an expression}", valueAt(t, res.Tree, "note"))
	assert.Empty(t, res.Values)
}
