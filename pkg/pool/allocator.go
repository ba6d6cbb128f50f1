package pool

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrAllocFailed = errors.New("pool: allocation failed")

// Allocator admits allocations made on behalf of a container and counts
// the ones that are still live. It can be told to refuse a percentage of
// requests so that callers can exercise their failure paths.
//
// A nil *Allocator never fails and tracks nothing.
// Allocator is not safe for concurrent use.
type Allocator struct {
	failPercent int
	rnd         *rand.Rand
	live        int
}

// NewAllocator returns an Allocator that refuses roughly failPercent
// percent of requests. seed makes the refusal sequence reproducible.
func NewAllocator(failPercent int, seed uint64) *Allocator {
	a := &Allocator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	a.SetFailPercent(failPercent)
	return a
}

// SetFailPercent clamps p into [0, 100].
func (a *Allocator) SetFailPercent(p int) {
	if a == nil {
		return
	}
	a.failPercent = min(max(p, 0), 100)
}

func (a *Allocator) FailPercent() int {
	if a == nil {
		return 0
	}
	return a.failPercent
}

// Live returns the number of admitted allocations not yet released.
func (a *Allocator) Live() int {
	if a == nil {
		return 0
	}
	return a.live
}

func (a *Allocator) fail() bool {
	switch a.failPercent {
	case 0:
		return false
	case 100:
		return true
	}
	return a.rnd.IntN(100) < a.failPercent
}

// Acquire admits one fixed-size allocation. The caller MUST call Release
// once the object is freed.
func (a *Allocator) Acquire() error {
	if a == nil {
		return nil
	}
	if a.fail() {
		return ErrAllocFailed
	}
	a.live++
	return nil
}

// Release returns an allocation admitted by Acquire.
func (a *Allocator) Release() {
	if a == nil {
		return
	}
	if a.live == 0 {
		panic("pool: release without a live allocation")
	}
	a.live--
}

// GetBuf admits and returns a buffer with len n. The buffer is NOT zeroed.
// The caller MUST call ReleaseBuf after use.
func (a *Allocator) GetBuf(n int) ([]byte, error) {
	if err := a.Acquire(); err != nil {
		return nil, fmt.Errorf("buf of %d bytes: %w", n, err)
	}
	return getBuf(n), nil
}

// ReleaseBuf returns b to the pool.
// After calling ReleaseBuf, the caller MUST NOT access b.
func (a *Allocator) ReleaseBuf(b []byte) {
	a.Release()
	releaseBuf(b)
}
