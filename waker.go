// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import "code.hybscloud.com/atomix"

// Waker is a per-thread one-shot notifier. Any number of Wake calls between
// two Drain calls coalesce into a single token on C, so a producer may signal
// freely without flooding the consumer's event loop.
type Waker struct {
	pending atomix.Uint32
	c       chan struct{}
}

// NewWaker creates a waker. The token channel has capacity one; it is the
// value a host event loop selects on.
func NewWaker() *Waker {
	return &Waker{c: make(chan struct{}, 1)}
}

// Wake notifies the owning thread. Only the first wake since the last Drain
// posts a token; later wakes merely bump the coalesced count.
func (w *Waker) Wake() {
	if w.pending.Add(1) != 1 {
		return
	}
	select {
	case w.c <- struct{}{}:
	default:
	}
}

// C returns the token channel for use in a select loop. At most one token is
// pending at any time.
func (w *Waker) C() <-chan struct{} {
	return w.c
}

// Drain re-arms the waker and reports how many wakes coalesced since the
// previous drain. Zero means the wake was spurious.
func (w *Waker) Drain() uint32 {
	return w.pending.Swap(0)
}
