// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package duplex provides bidirectional master/worker request/reply channels
// over bounded lock-free queues from [code.hybscloud.com/lfq].
//
// A [Channel] couples one producer thread (the master) with one consumer
// thread (the worker). Bulk payloads travel through two SPSC lanes, one per
// direction, so steady traffic moves without a wakeup per message. A shared
// MPSC control lane plus a coalescing [Waker] carries the rare signals that
// actually have to wake the peer.
//
// # Architecture
//
//   - Transport: two bounded SPSC bulk lanes per channel, one MPSC control lane
//     per thread, all via [code.hybscloud.com/lfq].
//   - Non-blocking: operations return [code.hybscloud.com/iox.ErrWouldBlock]
//     on backpressure and never wait. Threads block only in their own event
//     loop, around [Waker.C].
//   - Signaling: sequence/ack bookkeeping decides when a signal is redundant;
//     most sends under load skip the control lane entirely.
//   - Telemetry: per-endpoint signal counters and EMA-smoothed message
//     intervals and processing times feed host load balancing via [Channel.Stats].
//
// # API Topologies
//
//   - Master side: [Channel.SendRequest], [Channel.RecvReply],
//     [Channel.SignalOpen], [Channel.SignalWorkerClose].
//   - Worker side: [Channel.RecvRequest], [Channel.SendReply],
//     [Channel.WorkerSleeping], [Channel.WorkerReceiveOpen],
//     [Channel.WorkerAckClose].
//   - Event loop: [ServiceControl] translates control records into [Event]
//     values; [Channel.ServiceWake] acknowledges waker rounds.
//   - Effect world: [SendReq], [RecvRep], [RecvReq], [SendRep] dispatched on an
//     [Endpoint] via [Exec], [Step]/[Advance], or the two-sided [Run].
//
// # Example
//
//	masterCtl := duplex.NewControl(duplex.NewWaker(), 64)
//	workerCtl := duplex.NewControl(duplex.NewWaker(), 64)
//	ch := duplex.New(masterCtl, workerCtl, now())
//	ch.SignalOpen()
//
//	// worker loop
//	<-workerCtl.Waker().C()
//	ch.ServiceWake(workerCtl)
//	if ev, c := duplex.ServiceControl(workerCtl, now()); ev == duplex.EventOpen {
//		c.WorkerReceiveOpen()
//	}
//	for req := ch.RecvRequest(); req != nil; {
//		next, _ := ch.SendReply(process(req))
//		if next == nil {
//			next = ch.RecvRequest()
//		}
//		req = next
//	}
package duplex
