package backend

import (
	"fmt"
	"sync"
)

// ErrInjected is the failure produced by a Faulty backend.
var ErrInjected = fmt.Errorf("%w: injected failure", ErrExhausted)

// Faulty injects failures in front of another Backend and counts calls.
type Faulty struct {
	next Backend

	mu         sync.Mutex
	allocsLeft int // -1: never fail
	failResize bool
	allocs     int
	resizes    int
	frees      int
}

// NewFaulty wraps next. By default no failure is injected.
func NewFaulty(next Backend) *Faulty {
	return &Faulty{next: next, allocsLeft: -1}
}

// FailAllocAfter lets n more Alloc calls succeed and fails every later one.
// A negative n disables Alloc failures.
func (f *Faulty) FailAllocAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allocsLeft = n
}

// FailResize makes every Resize fail while on is true.
func (f *Faulty) FailResize(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failResize = on
}

// Alloc implements Backend.
func (f *Faulty) Alloc(n int) ([]byte, error) {
	f.mu.Lock()
	f.allocs++
	fail := f.allocsLeft == 0
	if f.allocsLeft > 0 {
		f.allocsLeft--
	}
	f.mu.Unlock()

	if fail {
		return nil, ErrInjected
	}
	return f.next.Alloc(n)
}

// Resize implements Backend.
func (f *Faulty) Resize(buf []byte, n int) ([]byte, error) {
	f.mu.Lock()
	f.resizes++
	fail := f.failResize
	f.mu.Unlock()

	if fail {
		return nil, ErrInjected
	}
	return f.next.Resize(buf, n)
}

// Free implements Backend.
func (f *Faulty) Free(buf []byte) {
	f.mu.Lock()
	f.frees++
	f.mu.Unlock()

	f.next.Free(buf)
}

// Alignment implements Backend.
func (f *Faulty) Alignment() int {
	return f.next.Alignment()
}

// Calls returns the number of Alloc, Resize and Free calls seen so far.
func (f *Faulty) Calls() (allocs, resizes, frees int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocs, f.resizes, f.frees
}
