package backend

import (
	"fmt"

	"github.com/hupe1980/alignedalloc/internal/resource"
)

// ErrBudgetExceeded is returned when a Limited backend would exceed its budget.
var ErrBudgetExceeded = fmt.Errorf("%w: budget exceeded", ErrExhausted)

// Limited enforces a byte budget in front of another Backend.
// It is safe for concurrent use if the wrapped Backend is.
type Limited struct {
	next Backend
	rc   *resource.Controller
}

// NewLimited wraps next with a budget of limitBytes. A limit of 0 only tracks
// usage.
func NewLimited(next Backend, limitBytes int64) *Limited {
	return &Limited{
		next: next,
		rc:   resource.NewController(resource.Config{MemoryLimitBytes: limitBytes}),
	}
}

// Alloc implements Backend.
func (l *Limited) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if !l.rc.TryAcquireMemory(int64(n)) {
		return nil, fmt.Errorf("%w: %w", ErrBudgetExceeded, resource.ErrMemoryLimitExceeded)
	}

	b, err := l.next.Alloc(n)
	if err != nil {
		l.rc.ReleaseMemory(int64(n))
		return nil, err
	}
	return b, nil
}

// Resize implements Backend. Growth is charged before the wrapped resize and
// refunded if it fails; shrinkage is refunded after it succeeds.
func (l *Limited) Resize(buf []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}

	delta := int64(n) - int64(len(buf))
	if delta > 0 && !l.rc.TryAcquireMemory(delta) {
		return nil, fmt.Errorf("%w: %w", ErrBudgetExceeded, resource.ErrMemoryLimitExceeded)
	}

	nb, err := l.next.Resize(buf, n)
	if err != nil {
		if delta > 0 {
			l.rc.ReleaseMemory(delta)
		}
		return nil, err
	}

	if delta < 0 {
		l.rc.ReleaseMemory(-delta)
	}
	return nb, nil
}

// Free implements Backend.
func (l *Limited) Free(buf []byte) {
	l.next.Free(buf)
	l.rc.ReleaseMemory(int64(len(buf)))
}

// Alignment implements Backend.
func (l *Limited) Alignment() int {
	return l.next.Alignment()
}

// Usage returns the bytes currently handed out.
func (l *Limited) Usage() int64 {
	return l.rc.MemoryUsage()
}

// Limit returns the configured budget (0 if unlimited).
func (l *Limited) Limit() int64 {
	return l.rc.MemoryLimit()
}
