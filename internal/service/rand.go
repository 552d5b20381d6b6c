package service

import (
	"math/rand"
	"sync"
	"time"
)

// syncRand guards a rand.Rand that gets rolled from request goroutines and
// scheduled tasks at the same time. math/rand sources are not safe for
// concurrent use.
type syncRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSyncRand() *syncRand {
	return &syncRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *syncRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *syncRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

func (r *syncRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}
