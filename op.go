// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Endpoint is one side's view of a channel for the effect world. The master
// endpoint dispatches SendReq/RecvRep, the worker endpoint RecvReq/SendRep.
//
// pending holds messages drained by an overloaded send. They are owed to the
// caller and must come back before anything new is popped from the lane, or
// they would be reordered past it.
type Endpoint struct {
	ch      *Channel
	role    int
	pending []*Message
}

// Channel returns the channel this endpoint views.
func (ep *Endpoint) Channel() *Channel {
	return ep.ch
}

// Master returns the master-side endpoint for use with Exec, Advance and Run.
func (ch *Channel) Master() *Endpoint {
	return &ch.master
}

// Worker returns the worker-side endpoint for use with Exec, Advance and Run.
func (ch *Channel) Worker() *Endpoint {
	return &ch.worker
}

// popPending returns the oldest owed message, or nil.
func (ep *Endpoint) popPending() *Message {
	if len(ep.pending) == 0 {
		return nil
	}
	m := ep.pending[0]
	ep.pending = ep.pending[1:]
	return m
}

// channelDispatcher is the structural interface for channel operations.
// DispatchChannel is non-blocking: it returns iox.ErrWouldBlock at the I/O
// boundary when the bounded lane cannot make progress.
type channelDispatcher interface {
	DispatchChannel(ep *Endpoint) (kont.Resumed, error)
}

// SendReq is the effect operation for sending a request from the master.
// Perform(SendReq{Msg: m}) resumes with the reply drained while sending,
// which may be nil.
type SendReq struct {
	kont.Phantom[*Message]
	Msg *Message
}

// DispatchChannel handles SendReq on the master endpoint.
// Non-blocking: returns iox.ErrWouldBlock if the request lane is full; a
// reply drained on the way is kept owed to a later RecvRep.
func (s SendReq) DispatchChannel(ep *Endpoint) (kont.Resumed, error) {
	if ep.role != toWorker {
		panic("duplex: SendReq on worker endpoint")
	}
	rep, err := ep.ch.SendRequest(s.Msg)
	if err != nil {
		if rep != nil {
			ep.pending = append(ep.pending, rep)
		}
		return nil, err
	}
	return rep, nil
}

// RecvRep is the effect operation for receiving a reply on the master.
// Perform(RecvRep{}) resumes with the oldest waiting reply.
type RecvRep struct {
	kont.Phantom[*Message]
}

// DispatchChannel handles RecvRep on the master endpoint.
// Non-blocking: returns iox.ErrWouldBlock if no reply is waiting. Replies
// owed from an overloaded SendReq come back first.
func (RecvRep) DispatchChannel(ep *Endpoint) (kont.Resumed, error) {
	if ep.role != toWorker {
		panic("duplex: RecvRep on worker endpoint")
	}
	if m := ep.popPending(); m != nil {
		return m, nil
	}
	m := ep.ch.RecvReply()
	if m == nil {
		return nil, iox.ErrWouldBlock
	}
	return m, nil
}

// RecvReq is the effect operation for receiving a request on the worker.
// Perform(RecvReq{}) resumes with the oldest waiting request.
type RecvReq struct {
	kont.Phantom[*Message]
}

// DispatchChannel handles RecvReq on the worker endpoint.
// Non-blocking: returns iox.ErrWouldBlock if no request is waiting. Requests
// owed from an overloaded SendRep come back first.
func (RecvReq) DispatchChannel(ep *Endpoint) (kont.Resumed, error) {
	if ep.role != fromWorker {
		panic("duplex: RecvReq on master endpoint")
	}
	if m := ep.popPending(); m != nil {
		return m, nil
	}
	m := ep.ch.RecvRequest()
	if m == nil {
		return nil, iox.ErrWouldBlock
	}
	return m, nil
}

// SendRep is the effect operation for sending a reply from the worker.
// Perform(SendRep{Msg: m}) resumes with the request drained while sending,
// which may be nil.
type SendRep struct {
	kont.Phantom[*Message]
	Msg *Message
}

// DispatchChannel handles SendRep on the worker endpoint.
// Non-blocking: returns iox.ErrWouldBlock if the reply lane is full; a
// request drained on the way is kept owed to a later RecvReq.
func (s SendRep) DispatchChannel(ep *Endpoint) (kont.Resumed, error) {
	if ep.role != fromWorker {
		panic("duplex: SendRep on master endpoint")
	}
	req, err := ep.ch.SendReply(s.Msg)
	if err != nil {
		if req != nil {
			ep.pending = append(ep.pending, req)
		}
		return nil, err
	}
	return req, nil
}
