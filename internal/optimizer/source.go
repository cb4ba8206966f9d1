package optimizer

import (
	"sync"

	"github.com/iwvelando/price-optimizer/internal/elasticity"
)

// pcgStream derives the second PCG word from a configured seed.
const pcgStream = 0x9e3779b97f4a7c15

// lockedSource serializes access to a generator that is not safe for
// concurrent use, such as a seeded *rand.Rand.
type lockedSource struct {
	mu  sync.Mutex
	src elasticity.RandomSource
}

func newLockedSource(src elasticity.RandomSource) *lockedSource {
	return &lockedSource{src: src}
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}
