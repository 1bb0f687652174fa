package queryfilter

import (
	"context"
	"sync"
)

// Completion is the awaitable result of a location push. It resolves exactly
// once; waiting after resolution returns immediately.
type Completion struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewCompletion returns a pending completion. Router implementations resolve
// it when the navigation settles.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolve settles the completion with the navigation outcome. Further calls
// are no-ops.
func (c *Completion) Resolve(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done is closed once the completion has resolved.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err returns the navigation outcome. It is meaningful only after Done is
// closed; a pending completion reports nil.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the completion resolves or ctx is done, whichever comes
// first.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
