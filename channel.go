// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"errors"

	"code.hybscloud.com/atomix"
)

// SignalInterval is the minimum interval between data-ready signals to a peer
// that is demonstrably making progress.
const SignalInterval Time = 1000000

// LagThreshold is the unacked-message count past which a signal is sent
// regardless of how recently the peer was heard from.
const LagThreshold uint64 = 1000

// IAlpha is the inverse alpha of the fixed-point EMAs (message interval,
// processing time).
const IAlpha = 8

// QueueCapacity is the bulk lane capacity. The reader services a lane at
// inter-message latency, so the bound only matters across scheduling hiccups;
// erring high costs memory, erring low costs overload returns.
const QueueCapacity = 1024

// ErrOpened reports a second WorkerReceiveOpen on the same channel.
var ErrOpened = errors.New("duplex: worker endpoint already open")

// ErrNotOpen reports a WorkerAckClose before WorkerReceiveOpen. The other
// worker-side sends do not check whether the worker side is bound.
var ErrNotOpen = errors.New("duplex: worker endpoint not open")

// Channel is a bidirectional request/reply coupling of a master thread and a
// worker thread. Both ends, their lanes, and the endpoint views live in a
// single allocation.
type Channel struct {
	cpuTime        Time
	processingTime Time

	active atomix.Uint32

	serial Serial

	// coalescedWake permits the worker to elide its data signal while an
	// un-acked signal is still pending delivery. Sound only if the master
	// loop drains its waker before servicing lanes.
	coalescedWake bool

	// masterCtl is the master thread's control plane, held for the worker to
	// bind on EventOpen.
	masterCtl *Control

	end [2]end

	master Endpoint
	worker Endpoint
}

// Option configures a channel at creation.
type Option func(*Channel)

// WithCoalescedWake enables the elision refinement that skips the worker's
// data signal whenever the sequence at its last signal is still ahead of the
// master's ack. Off by default: it requires the master loop to drain its
// waker before servicing lanes, which not every host guarantees.
func WithCoalescedWake(on bool) Option {
	return func(ch *Channel) { ch.coalescedWake = on }
}

// New creates an active channel between the calling (master) thread and a
// worker thread. masterCtl and workerCtl are the two threads' control planes;
// now initializes every timestamp. The worker side stays unbound until the
// worker services EventOpen and calls WorkerReceiveOpen.
func New(masterCtl, workerCtl *Control, now Time, opts ...Option) *Channel {
	ch := &Channel{
		serial:    nextSerial(),
		masterCtl: masterCtl,
	}
	ch.end[toWorker].lane.Init(QueueCapacity)
	ch.end[fromWorker].lane.Init(QueueCapacity)
	ch.end[toWorker].ctl = workerCtl

	for i := range ch.end {
		e := &ch.end[i]
		e.lastWrite = now
		e.lastReadOther = now
		e.lastSentSignal = now
	}

	ch.master = Endpoint{ch: ch, role: toWorker}
	ch.worker = Endpoint{ch: ch, role: fromWorker}

	for _, o := range opts {
		o(ch)
	}
	ch.active.Store(1)
	return ch
}

// Serial returns the channel's monotonic identifier.
func (ch *Channel) Serial() Serial {
	return ch.serial
}

// Active reports whether the channel is still open. A closed channel stays
// allocated until both close acknowledgements have been observed, but it
// never becomes active again.
func (ch *Channel) Active() bool {
	return ch.active.Load() != 0
}

// dataReady signals the thread reading e's lane that data is pending. The
// waker coalesces repeated signals, so over-signaling is safe, just wasted
// control-lane traffic.
func (ch *Channel) dataReady(when Time, e *end, sig signal) error {
	e.lastSentSignal = when
	e.sequenceAtLastSignal = e.sequence
	e.numSignals++
	return e.ctl.send(controlRecord{signal: sig, ack: e.ack.Load(), ch: ch})
}

// SendRequest pushes a request to the worker. The message's When must be
// non-decreasing relative to earlier sends; Sequence and Ack are assigned
// here.
//
// Whatever the error, the caller must check the returned reply: on a full
// lane SendRequest returns iox.ErrWouldBlock together with one drained reply
// (if any exists) so the caller keeps forward progress, and the sequence is
// not consumed.
func (ch *Channel) SendRequest(m *Message) (*Message, error) {
	master := &ch.end[toWorker]
	when := m.When

	seq := master.sequence + 1
	m.Sequence = seq
	m.Ack = master.ack.Load()

	if err := master.lane.Enqueue(&m); err != nil {
		return ch.RecvReply(), err
	}

	master.sequence = seq
	master.messageInterval = ewma(master.messageInterval, when-master.lastWrite)
	if master.lastWrite > when {
		panic("duplex: request send time went backwards")
	}
	master.lastWrite = when
	master.numOutstanding++

	var reply *Message
	if master.numOutstanding > 1 {
		// At least one older request is in flight; a reply may be waiting.
		reply = ch.RecvReply()
		if reply == nil || master.numOutstanding > 1 {
			// The worker is behind. Skip the signal while it keeps pace;
			// past the lag threshold, signal regardless.
			if seq-ch.end[fromWorker].ack.Load() > LagThreshold {
				return reply, ch.dataReady(when, master, signalDataToWorker)
			}
			return reply, nil
		}
	}

	// First outstanding request: no pending wake can cover it.
	return reply, ch.dataReady(when, master, signalDataToWorker)
}

// RecvReply pops one reply from the worker, or nil if none is waiting.
// Ownership of the message returns to the caller.
func (ch *Channel) RecvReply() *Message {
	master := &ch.end[toWorker]

	m, err := ch.end[fromWorker].lane.Dequeue()
	if err != nil {
		return nil
	}

	ch.processingTime = ewma(ch.processingTime, m.ProcessingTime)
	ch.cpuTime = m.CPUTime

	if master.numOutstanding <= 0 {
		panic("duplex: reply without outstanding request")
	}
	if m.Sequence <= master.ack.Load() || m.Sequence > master.sequence {
		panic("duplex: reply sequence outside window")
	}

	master.numOutstanding--
	master.ack.Store(m.Sequence)

	if master.lastReadOther > m.When {
		panic("duplex: reply time went backwards")
	}
	master.lastReadOther = m.When

	return m
}

// RecvRequest pops one request from the master, or nil if none is waiting.
// Called only by the worker thread.
func (ch *Channel) RecvRequest() *Message {
	worker := &ch.end[fromWorker]

	m, err := ch.end[toWorker].lane.Dequeue()
	if err != nil {
		return nil
	}

	if m.Sequence <= worker.ack.Load() || m.Sequence < worker.sequence {
		panic("duplex: request sequence outside window")
	}

	worker.numOutstanding++
	worker.ack.Store(m.Sequence)

	if worker.lastReadOther > m.When {
		panic("duplex: request time went backwards")
	}
	worker.lastReadOther = m.When

	return m
}

// SendReply pushes a reply to the master and opportunistically drains one
// inbound request so the worker keeps a local work item. On a full lane it
// returns iox.ErrWouldBlock together with the drained request (if any), and
// the sequence is not consumed.
//
// When the reply empties the worker's pipeline the master is always signaled:
// it must learn the drain even if it was heard from a moment ago.
func (ch *Channel) SendReply(m *Message) (*Message, error) {
	worker := &ch.end[fromWorker]
	master := &ch.end[toWorker]
	when := m.When

	seq := worker.sequence + 1
	m.Sequence = seq
	m.Ack = worker.ack.Load()

	if err := worker.lane.Enqueue(&m); err != nil {
		return ch.RecvRequest(), err
	}

	if worker.numOutstanding <= 0 {
		panic("duplex: reply without received request")
	}
	worker.numOutstanding--

	worker.sequence = seq
	worker.messageInterval = ewma(worker.messageInterval, when-worker.lastWrite)
	if worker.lastWrite > when {
		panic("duplex: reply send time went backwards")
	}
	worker.lastWrite = when

	req := ch.RecvRequest()

	if worker.numOutstanding == 0 {
		return req, ch.dataReady(when, worker, signalDataDoneWorker)
	}

	masterAck := master.ack.Load()
	if ch.coalescedWake && worker.sequenceAtLastSignal > masterAck {
		return req, nil
	}

	if masterAck > worker.sequence {
		panic("duplex: master ack ahead of worker sequence")
	}
	if worker.sequence-masterAck <= LagThreshold &&
		(when-worker.lastReadOther < SignalInterval ||
			when-worker.lastSentSignal < SignalInterval) {
		return req, nil
	}

	return req, ch.dataReady(when, worker, signalDataFromWorker)
}

// WorkerSleeping tells the master the worker's loop is going idle with
// requests still unanswered. Called from the worker's idle loop; when the
// worker owes nothing on this channel the master already knows, and no record
// is sent.
func (ch *Channel) WorkerSleeping() error {
	worker := &ch.end[fromWorker]

	if worker.numOutstanding == 0 {
		return nil
	}

	worker.numSignals++
	return worker.ctl.send(controlRecord{
		signal: signalWorkerSleeping,
		ack:    worker.ack.Load(),
		ch:     ch,
	})
}

// SignalOpen offers the channel to the worker thread. The worker completes
// the handshake by servicing EventOpen and calling WorkerReceiveOpen.
func (ch *Channel) SignalOpen() error {
	return ch.end[toWorker].ctl.send(controlRecord{signal: signalOpen, ch: ch})
}

// WorkerReceiveOpen binds the worker side of the channel to the master's
// control plane. Called by the worker thread on EventOpen; a second call
// returns ErrOpened.
func (ch *Channel) WorkerReceiveOpen() error {
	if ch.end[fromWorker].ctl != nil {
		return ErrOpened
	}
	ch.end[fromWorker].ctl = ch.masterCtl
	return nil
}

// SignalWorkerClose starts the close handshake from the master side. The
// channel goes inactive immediately; it may be released once the worker's
// mirroring close has been serviced.
func (ch *Channel) SignalWorkerClose() error {
	ch.active.Store(0)
	return ch.end[toWorker].ctl.send(controlRecord{
		signal: signalClose,
		ack:    toWorker,
		ch:     ch,
	})
}

// WorkerAckClose mirrors the close from the worker side, after in-flight
// work has been drained.
func (ch *Channel) WorkerAckClose() error {
	ch.active.Store(0)
	ctl := ch.end[fromWorker].ctl
	if ctl == nil {
		return ErrNotOpen
	}
	return ctl.send(controlRecord{
		signal: signalClose,
		ack:    fromWorker,
		ch:     ch,
	})
}

// SetWorkerCtx attaches worker-private state to the channel.
func (ch *Channel) SetWorkerCtx(ctx any) {
	ch.end[fromWorker].ctx = ctx
}

// WorkerCtx returns the state attached with SetWorkerCtx.
func (ch *Channel) WorkerCtx() any {
	return ch.end[fromWorker].ctx
}

// Stats snapshots the channel's telemetry.
func (ch *Channel) Stats() Stats {
	return Stats{
		Serial:         ch.serial,
		Active:         ch.Active(),
		CPUTime:        ch.cpuTime,
		ProcessingTime: ch.processingTime,
		ToWorker:       ch.end[toWorker].stats(),
		FromWorker:     ch.end[fromWorker].stats(),
	}
}
