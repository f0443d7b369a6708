// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex_test

import (
	"testing"

	"code.hybscloud.com/duplex"
)

func TestWakerCoalesces(t *testing.T) {
	w := duplex.NewWaker()

	w.Wake()
	w.Wake()
	w.Wake()

	select {
	case <-w.C():
	default:
		t.Fatal("no token after Wake")
	}
	select {
	case <-w.C():
		t.Fatal("second token for coalesced wakes")
	default:
	}

	if n := w.Drain(); n != 3 {
		t.Fatalf("Drain got %d, want 3", n)
	}
	if n := w.Drain(); n != 0 {
		t.Fatalf("Drain after drain got %d, want 0", n)
	}

	// Drained waker re-arms.
	w.Wake()
	select {
	case <-w.C():
	default:
		t.Fatal("no token after re-arm")
	}
	if n := w.Drain(); n != 1 {
		t.Fatalf("Drain got %d, want 1", n)
	}
}

func TestServiceControlEmpty(t *testing.T) {
	ctl := duplex.NewControl(duplex.NewWaker(), 8)
	ev, ch := duplex.ServiceControl(ctl, 0)
	if ev != duplex.EventEmpty || ch != nil {
		t.Fatalf("got (%d, %v), want (EventEmpty, nil)", ev, ch)
	}
}

func TestDataSignalDelivery(t *testing.T) {
	skipRace(t)
	ch, masterCtl, workerCtl, clk := newTestChannel(t)

	if _, err := ch.SendRequest(clk.req(1)); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	ev, got := duplex.ServiceControl(workerCtl, clk.now)
	if ev != duplex.EventDataReadyWorker || got != ch {
		t.Fatalf("worker got event %d, want EventDataReadyWorker", ev)
	}

	req := ch.RecvRequest()
	if _, err := ch.SendReply(clk.rep(req, 10)); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	// Pipeline drained with the worker fully caught up: no resignal.
	ev, got = duplex.ServiceControl(masterCtl, clk.now)
	if ev != duplex.EventDataReadyReceiver || got != ch {
		t.Fatalf("master got event %d, want EventDataReadyReceiver", ev)
	}
	if n := ch.Stats().ToWorker.Resignals; n != 0 {
		t.Fatalf("resignals got %d, want 0", n)
	}
}

func TestDataDoneResignalsBehindWorker(t *testing.T) {
	skipRace(t)
	ch, masterCtl, workerCtl, clk := newTestChannel(t)

	if _, err := ch.SendRequest(clk.req(0)); err != nil {
		t.Fatalf("SendRequest 0: %v", err)
	}
	req := ch.RecvRequest()
	if _, err := ch.SendReply(clk.rep(req, 10)); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	if _, err := ch.SendRequest(clk.req(1)); err != nil {
		t.Fatalf("SendRequest 1: %v", err)
	}

	// The pipeline-drained record carries ack=1, but the master has sent a
	// second request since: the worker went quiet with work still queued and
	// must be re-signaled. Each request signaled the worker on its own first.
	for i := 0; i < 2; i++ {
		if ev, _ := duplex.ServiceControl(workerCtl, clk.now); ev != duplex.EventDataReadyWorker {
			t.Fatalf("missing initial data signal %d", i)
		}
	}
	ev, _ := duplex.ServiceControl(masterCtl, clk.now)
	if ev != duplex.EventDataReadyReceiver {
		t.Fatalf("master got event %d, want EventDataReadyReceiver", ev)
	}
	if n := ch.Stats().ToWorker.Resignals; n != 1 {
		t.Fatalf("resignals got %d, want 1", n)
	}
	if ev, _ := duplex.ServiceControl(workerCtl, clk.now); ev != duplex.EventDataReadyWorker {
		t.Fatalf("resignal not delivered to worker")
	}
}

func TestServiceWakeCounts(t *testing.T) {
	skipRace(t)
	ch, _, workerCtl, clk := newTestChannel(t)

	if _, err := ch.SendRequest(clk.req(1)); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	select {
	case <-workerCtl.Waker().C():
	default:
		t.Fatal("data signal did not wake the worker")
	}
	if n := ch.ServiceWake(workerCtl); n != 1 {
		t.Fatalf("ServiceWake got %d, want 1", n)
	}
	// One wake for the open handshake, one for the data signal.
	if n := ch.Stats().FromWorker.Wakes; n != 2 {
		t.Fatalf("worker wakes got %d, want 2", n)
	}
}
