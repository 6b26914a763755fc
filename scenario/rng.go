package scenario

import (
	"math/rand/v2"
	"time"
)

// Seed identifies a reproducible randomization stream. Two Scenarios built
// from the same template with the same Seed MUST produce identical
// sequences of Resolve outputs, value for value.
type Seed int64

// source returns a fresh generator source positioned at the start of the
// seed's stream.
func (s Seed) source() rand.Source {
	return rand.NewPCG(uint64(s), uint64(s))
}

// randomSeed derives a Seed for Scenarios created without one. Such
// Scenarios are still internally consistent but not reproducible across
// processes.
func randomSeed() Seed {
	return Seed(time.Now().UnixNano())
}
