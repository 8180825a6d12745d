package agreement

import (
	"sync/atomic"

	"creditline/core"
)

// guard single-flag reentrancy exclusion. Entry is rejected immediately
// when the flag is already held, never queued, so a collaborator calling
// back into the agreement mid-operation fails instead of deadlocking.
type guard struct {
	held atomic.Bool
}

func (g *guard) enter() error {
	if !g.held.CompareAndSwap(false, true) {
		return core.Errorf(core.ErrReentrant, "agreement busy")
	}

	return nil
}

func (g *guard) exit() {
	g.held.Store(false)
}
