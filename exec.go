// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// channelHandler implements kont.Handler for channel effects.
// Waits on iox.ErrWouldBlock, converting non-blocking dispatch into blocking
// evaluation for Exec/ExecExpr.
type channelHandler[R any] struct {
	ep *Endpoint
}

// Dispatch implements kont.Handler via structural interface assertion.
// Waits past the iox.ErrWouldBlock boundary with adaptive backoff.
func (h channelHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	cop, ok := op.(channelDispatcher)
	if !ok {
		panic("duplex: unhandled effect in channelHandler")
	}
	return dispatchWait(h.ep, cop), true
}

// dispatchWait blocks until DispatchChannel succeeds, backing off on
// iox.ErrWouldBlock with iox.Backoff (I/O readiness waiting).
func dispatchWait(ep *Endpoint, cop channelDispatcher) kont.Resumed {
	var bo iox.Backoff
	for {
		v, err := cop.DispatchChannel(ep)
		if err == nil {
			return v
		}
		bo.Wait()
	}
}

// Exec runs a Cont-world channel protocol on one endpoint.
// Blocks on iox.ErrWouldBlock via adaptive backoff (iox.Backoff),
// without spawning goroutines or creating channels.
func Exec[R any](ep *Endpoint, protocol kont.Eff[R]) R {
	h := channelHandler[R]{ep: ep}
	return kont.Handle(protocol, h)
}

// ExecExpr runs an Expr-world channel protocol on one endpoint.
// Blocks on iox.ErrWouldBlock via adaptive backoff (iox.Backoff),
// without spawning goroutines or creating channels.
func ExecExpr[R any](ep *Endpoint, protocol kont.Expr[R]) R {
	h := channelHandler[R]{ep: ep}
	return kont.HandleExpr(protocol, h)
}
