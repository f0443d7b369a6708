// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"code.hybscloud.com/lfq"
)

// Event is what a control-plane service round reports to the host scheduler.
type Event uint8

const (
	// EventError reports a malformed or unknown control record.
	EventError Event = iota
	// EventDataReadyWorker tells the worker its inbound lane has data.
	EventDataReadyWorker
	// EventDataReadyReceiver tells the master its inbound lane has data.
	EventDataReadyReceiver
	// EventOpen delivers a freshly created channel to the worker.
	EventOpen
	// EventClose asks the recipient to wind the channel down.
	EventClose
	// EventNoop reports a record that needed no host action.
	EventNoop
	// EventEmpty reports an empty control lane.
	EventEmpty
)

// signal identifies a control record. The first five values mirror Event and
// pass through ServiceControl unchanged; the rest need translation.
type signal uint8

const (
	signalError signal = iota
	signalDataToWorker
	signalDataFromWorker
	signalOpen
	signalClose
	signalDataDoneWorker
	signalWorkerSleeping
)

// controlRecord is the fixed-size message on the control lane, copied by
// value. ack carries the sender's latest ack, except for close records where
// it names the closing side.
type controlRecord struct {
	signal signal
	ack    uint64
	ch     *Channel
}

// Control is one thread's control plane: a multi-producer record queue (all
// channels terminating on the thread share it) plus the thread's waker.
type Control struct {
	q     lfq.Queue[controlRecord]
	waker *Waker
}

// NewControl creates a control plane consumed by a single thread. capacity
// rounds up to a power of two.
func NewControl(w *Waker, capacity int) *Control {
	return &Control{
		q:     lfq.NewMPSC[controlRecord](capacity),
		waker: w,
	}
}

// Waker returns the waker a host event loop should select on.
func (c *Control) Waker() *Waker {
	return c.waker
}

// send enqueues one record and wakes the consuming thread. The waker
// coalesces, so under bursts only the first record pays for a wakeup.
func (c *Control) send(rec controlRecord) error {
	if err := c.q.Enqueue(&rec); err != nil {
		return err
	}
	c.waker.Wake()
	return nil
}

// pop removes one record. Returns iox.ErrWouldBlock when the lane is empty.
func (c *Control) pop() (controlRecord, error) {
	return c.q.Dequeue()
}
