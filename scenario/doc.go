// Package scenario provides the scenario template resolution engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - template.go: the immutable template tree and parse-time path assignment
//   - expr.go: the randomization expression grammar ("${gaussian: 0.0, 1.0}")
//   - scenario.go: the Scenario type and the per-episode Resolve call
//
// # Architecture
//
// A Scenario owns one template, one distribution cache and one seeded
// randomization stream. Each Resolve call clones the template structure,
// replaces every expression leaf with a freshly sampled native value, and
// returns the concrete tree together with a path→value provenance map for
// that call only. Distribution instances are memoized per template path in
// cache.go, so parameters are fixed at first resolution and only drawn
// values change between episodes.
//
// The distribution catalog lives in the scenario/dist subpackage: seven
// families in scalar/1-D/2-D/3-D rank variants, sampled through gonum's
// distuv kernels.
//
// episode.go and stats.go carry the thin lifecycle layer around one
// resolution: episode status, key/value logs with reserved-key protection,
// and per-path run statistics over sampled values.
package scenario
