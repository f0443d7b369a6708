// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex_test

import (
	"testing"

	"code.hybscloud.com/duplex"
	"code.hybscloud.com/kont"
)

// tick is the default clock step between driver operations, far below
// SignalInterval so steady-state elision stays in effect.
const tick duplex.Time = 100

// clock is a fake monotonic clock for single-goroutine drivers.
type clock struct {
	now duplex.Time
}

func (c *clock) advance(d duplex.Time) duplex.Time {
	c.now += d
	return c.now
}

// req builds a request message stamped at the clock's next tick.
func (c *clock) req(payload any) *duplex.Message {
	return &duplex.Message{When: c.advance(tick), Payload: payload}
}

// rep builds a reply to m stamped at the clock's next tick.
func (c *clock) rep(m *duplex.Message, processing duplex.Time) *duplex.Message {
	return &duplex.Message{
		When:           c.advance(tick),
		ProcessingTime: processing,
		Payload:        m.Payload,
	}
}

// newTestChannel creates a channel, completes the open handshake, and
// returns it with both control planes and the driving clock.
func newTestChannel(tb testing.TB, opts ...duplex.Option) (*duplex.Channel, *duplex.Control, *duplex.Control, *clock) {
	tb.Helper()

	clk := &clock{now: 1}
	masterCtl := duplex.NewControl(duplex.NewWaker(), 64)
	workerCtl := duplex.NewControl(duplex.NewWaker(), 64)
	ch := duplex.New(masterCtl, workerCtl, clk.now, opts...)

	if err := ch.SignalOpen(); err != nil {
		tb.Fatalf("SignalOpen: %v", err)
	}
	ev, got := duplex.ServiceControl(workerCtl, clk.now)
	if ev != duplex.EventOpen || got != ch {
		tb.Fatalf("open handshake got event %d, want EventOpen", ev)
	}
	if err := ch.WorkerReceiveOpen(); err != nil {
		tb.Fatalf("WorkerReceiveOpen: %v", err)
	}
	ch.ServiceWake(workerCtl)
	return ch, masterCtl, workerCtl, clk
}

// execExpr drives a protocol to completion on ep via Step+Advance loop.
// Retries on iox.ErrWouldBlock (peer not ready yet).
// Used by stepping tests to exercise the non-blocking path.
func execExpr[R any](ep *duplex.Endpoint, protocol kont.Expr[R]) R {
	result, susp := duplex.Step[R](protocol)
	for susp != nil {
		var err error
		result, susp, err = duplex.Advance(ep, susp)
		if err != nil {
			continue
		}
	}
	return result
}
