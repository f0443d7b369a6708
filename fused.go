// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package duplex

import (
	"code.hybscloud.com/kont"
)

// SendReqBind sends a request and passes the drained reply (possibly nil)
// to f. Fuses Perform(SendReq{Msg: m}) + Bind.
func SendReqBind[B any](m *Message, f func(*Message) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(SendReq{Msg: m}), f)
}

// SendReqThen sends a request, discards the drained reply, and continues
// with next. Fuses Perform(SendReq{Msg: m}) + Then.
func SendReqThen[B any](m *Message, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SendReq{Msg: m}), next)
}

// RecvRepBind receives a reply and passes it to f.
// Fuses Perform(RecvRep{}) + Bind.
func RecvRepBind[B any](f func(*Message) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(RecvRep{}), f)
}

// RecvReqBind receives a request and passes it to f.
// Fuses Perform(RecvReq{}) + Bind.
func RecvReqBind[B any](f func(*Message) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(RecvReq{}), f)
}

// SendRepBind sends a reply and passes the drained request (possibly nil)
// to f. Fuses Perform(SendRep{Msg: m}) + Bind.
func SendRepBind[B any](m *Message, f func(*Message) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(SendRep{Msg: m}), f)
}

// SendRepThen sends a reply, discards the drained request, and continues
// with next. Fuses Perform(SendRep{Msg: m}) + Then.
func SendRepThen[B any](m *Message, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SendRep{Msg: m}), next)
}
