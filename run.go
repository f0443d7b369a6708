// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Run runs a master protocol and a worker protocol against the two ends of
// ch and returns both results. Interleaves execution of both sides on the
// calling goroutine using adaptive backoff (iox.Backoff) when neither side
// can make progress. Does not spawn goroutines or create channels.
func Run[A, B any](ch *Channel, master kont.Eff[A], worker kont.Eff[B]) (A, B) {
	return RunExpr(ch, Reify(master), Reify(worker))
}

// RunExpr runs an Expr-world master protocol and worker protocol against the
// two ends of ch and returns both results. Interleaves execution of both
// sides on the calling goroutine using adaptive backoff (iox.Backoff) when
// neither side can make progress. Does not spawn goroutines or create
// channels.
func RunExpr[A, B any](ch *Channel, master kont.Expr[A], worker kont.Expr[B]) (A, B) {
	epM, epW := ch.Master(), ch.Worker()
	resultM, suspM := Step[A](master)
	resultW, suspW := Step[B](worker)
	var bo iox.Backoff

	var copM channelDispatcher
	if suspM != nil {
		copM = suspM.Op().(channelDispatcher)
	}
	var copW channelDispatcher
	if suspW != nil {
		copW = suspW.Op().(channelDispatcher)
	}

	for suspM != nil || suspW != nil {
		progress := false
		if suspM != nil {
			v, err := copM.DispatchChannel(epM)
			if err == nil {
				resultM, suspM = suspM.Resume(v)
				if suspM != nil {
					copM = suspM.Op().(channelDispatcher)
				}
				progress = true
			}
		}
		if suspW != nil {
			v, err := copW.DispatchChannel(epW)
			if err == nil {
				resultW, suspW = suspW.Resume(v)
				if suspW != nil {
					copW = suspW.Op().(channelDispatcher)
				}
				progress = true
			}
		}
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	return resultM, resultW
}
