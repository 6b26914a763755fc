package scenario

import "github.com/scenariolab/scenariolab/scenario/dist"

// distCache memoizes one materialized distribution instance per template
// node, keyed by the node's structural path. Parameters are fixed at first
// resolution; later resolutions reuse the instance and only draw fresh
// values. The cache is owned by exactly one Scenario, never shared, and
// all access happens under the Scenario's resolve lock.
type distCache struct {
	instances map[string]dist.Distribution
}

func newDistCache() *distCache {
	return &distCache{instances: make(map[string]dist.Distribution)}
}

// fetch returns the cached instance for key, constructing and storing it on
// first encounter.
func (c *distCache) fetch(key string, create func() (dist.Distribution, error)) (dist.Distribution, error) {
	if d, ok := c.instances[key]; ok {
		return d, nil
	}
	d, err := create()
	if err != nil {
		return nil, err
	}
	c.instances[key] = d
	return d, nil
}

func (c *distCache) len() int {
	return len(c.instances)
}
