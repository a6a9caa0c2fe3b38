package jobs

import "context"

// Gate admits one holder at a time into the inference pipeline. It bounds
// memory and compute, not correctness: waiters queue without limit.
type Gate struct {
	permit chan struct{}
}

func NewGate() *Gate {
	return &Gate{permit: make(chan struct{}, 1)}
}

// Acquire blocks until the permit is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.permit <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes the permit without blocking.
func (g *Gate) TryAcquire() bool {
	select {
	case g.permit <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g *Gate) Release() {
	select {
	case <-g.permit:
	default:
		panic("jobs: release of unheld gate")
	}
}

// Busy reports whether a holder is currently inside the gate.
func (g *Gate) Busy() bool {
	return len(g.permit) == 1
}
