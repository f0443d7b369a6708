// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// Directions index Channel.end. The writer of a direction owns that end's
// counters: the master thread writes end[toWorker], the worker thread writes
// end[fromWorker]. The sole exceptions are ack, which the peer's lag
// predicate reads atomically, and the lane, which is SPSC by contract.
const (
	toWorker   = 0
	fromWorker = 1
)

// end is one direction of a channel: the bulk lane its messages travel on,
// the control plane of the thread that reads the lane, and the sender-side
// sequence/ack/latency bookkeeping.
type end struct {
	// ctl targets the thread reading this end's lane. The fromWorker ctl is
	// nil until the worker observes EventOpen and binds its side.
	ctl *Control

	// lane carries this direction's messages. Strict single producer,
	// single consumer.
	lane lfq.SPSC[*Message]

	ctx any

	numOutstanding int

	numSignals   uint64
	numResignals uint64
	numWakes     uint64

	sequence             uint64
	ack                  atomix.Uint64
	sequenceAtLastSignal uint64

	lastWrite       Time
	lastReadOther   Time
	messageInterval Time
	lastSentSignal  Time
}

// ewma folds a sample into a fixed-point exponential moving average with
// inverse alpha IAlpha.
func ewma(old, sample Time) Time {
	return (old + (IAlpha-1)*sample) / IAlpha
}

// EndStats is a telemetry snapshot of one direction.
type EndStats struct {
	Sequence        uint64
	Ack             uint64
	Outstanding     int
	Signals         uint64
	Resignals       uint64
	Wakes           uint64
	MessageInterval Time
}

// Stats is a telemetry snapshot of a channel. Counters owned by the opposite
// thread may be mid-update; the snapshot is informational, not a barrier.
type Stats struct {
	Serial         Serial
	Active         bool
	CPUTime        Time
	ProcessingTime Time
	ToWorker       EndStats
	FromWorker     EndStats
}

func (e *end) stats() EndStats {
	return EndStats{
		Sequence:        e.sequence,
		Ack:             e.ack.Load(),
		Outstanding:     e.numOutstanding,
		Signals:         e.numSignals,
		Resignals:       e.numResignals,
		Wakes:           e.numWakes,
		MessageInterval: e.messageInterval,
	}
}
