package kmcore

import "sync/atomic"

// Barrier is a single-use, rearmable count-down rendezvous for the
// per-iteration boundary between the E-step and the M-step. Exactly one
// party crosses per iteration; the engine's own partition-drain
// semantics already serialize the workers that reach it, so no blocking
// primitive is needed.
type Barrier struct {
	arrived atomic.Uint32
	parties uint32
}

// NewBarrier creates a Barrier that completes once parties calls to Ping
// have arrived.
func NewBarrier(parties int) *Barrier {
	return &Barrier{parties: uint32(parties)}
}

// Ping atomically increments the arrival count and reports whether this
// call was the last of the current generation. The last caller resets
// the count to 0 before returning, arming the barrier for the next
// iteration.
func (b *Barrier) Ping() bool {
	n := b.arrived.Add(1)
	if n == b.parties {
		b.arrived.Store(0)
		return true
	}
	return false
}

// Parties returns the configured party count.
func (b *Barrier) Parties() int { return int(b.parties) }

// SetParties reconfigures the party count. Only safe to call when no
// iteration is in flight (e.g. between runs).
func (b *Barrier) SetParties(n int) {
	b.parties = uint32(n)
	b.arrived.Store(0)
}
