// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

// Time is a monotonic timestamp in nanoseconds since an arbitrary start.
// The channel never reads a clock; every timestamp is caller-supplied.
type Time = int64

// Message is the unit of transfer between master and worker. The channel
// allocates and frees nothing: ownership of a Message passes through the
// bulk lanes from sender to receiver.
//
// Sequence and Ack are framing fields the channel overwrites on every send.
// When is the send time and must be non-decreasing per direction.
// ProcessingTime and CPUTime are filled in by the worker on replies.
type Message struct {
	Sequence uint64
	Ack      uint64

	When Time

	ProcessingTime Time
	CPUTime        Time

	Payload any
}
