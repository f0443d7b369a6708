// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

// ServiceControl pops one record from ctl and translates it for the host
// event loop. It returns EventEmpty with a nil channel when the lane is
// drained; the host calls it in a loop after a wake until it does.
//
// Worker-originated progress records (pipeline drained, going to sleep) are
// checked against the master's own counters: if the worker's ack
// still trails the master's sequence, the worker has unserved requests and is
// signaled again before the record is surfaced.
func ServiceControl(ctl *Control, now Time) (Event, *Channel) {
	rec, err := ctl.pop()
	if err != nil {
		return EventEmpty, nil
	}

	ch := rec.ch
	switch rec.signal {
	case signalError, signalDataToWorker, signalDataFromWorker,
		signalOpen, signalClose:
		return Event(rec.signal), ch

	case signalDataDoneWorker:
		return resignal(ctl, ch, rec.ack, now, EventDataReadyReceiver)

	case signalWorkerSleeping:
		return resignal(ctl, ch, rec.ack, now, EventNoop)
	}

	return EventError, ch
}

// resignal is the shared tail of the worker-progress records: when ack shows
// the worker fully caught up the event passes through; otherwise the master
// re-posts its data signal so the worker cannot strand queued requests.
func resignal(ctl *Control, ch *Channel, ack uint64, now Time, ev Event) (Event, *Channel) {
	if ctl != ch.masterCtl {
		panic("duplex: worker progress record on a non-master control plane")
	}
	master := &ch.end[toWorker]

	if ack == master.sequence {
		return ev, ch
	}
	if ack > master.sequence {
		panic("duplex: worker ack ahead of master sequence")
	}

	master.numResignals++
	if err := ch.dataReady(now, master, signalDataToWorker); err != nil {
		return EventError, ch
	}
	return ev, ch
}

// ServiceWake acknowledges one waker round on ctl and returns the number of
// coalesced wakes it covered. Zero means the wake was spurious. The count is
// charged to the channel end written by the thread that owns ctl: master
// wakes to end[toWorker], worker wakes to end[fromWorker].
func (ch *Channel) ServiceWake(ctl *Control) uint32 {
	n := ctl.waker.Drain()
	if ctl == ch.masterCtl {
		ch.end[toWorker].numWakes += uint64(n)
	} else {
		ch.end[fromWorker].numWakes += uint64(n)
	}
	return n
}
