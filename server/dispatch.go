// File: server/dispatch.go
// Package server
// Author: momentics <momentics@gmail.com>
//
// Dispatch is the server-initiated callback: the host asks an already
// upgraded connection to act as the client for a synthetic REST
// request/answer round trip. Only connections negotiating one of the
// two RestCodec subprotocols can serve a callback; Chat connections
// reject it outright.

package server

import (
	"github.com/momentics/synopse-ws/api"
	"github.com/momentics/synopse-ws/conn"
	"github.com/momentics/synopse-ws/wire"
)

// Dispatch performs one outbound callback against the connection
// registered under connID:
//
//  1. look the connection up by ID
//  2. require its negotiated protocol to implement RestCodec
//  3. acquire the connection's wire within CallbackAcquireTimeout
//  4. drain any inbound frames queued ahead of the callback, so the
//     callback never races the reader loop for the same bytes
//  5. send the request frame and await the answer frame
//  6. release the wire and record the round trip as activity
//
// Any failure along the way yields a RestResponse with Status 404,
// matching what the host would see from a connection it cannot reach.
func (s *Server) Dispatch(connID string, req *api.RestRequest) (resp *api.RestResponse, err error) {
	defer func() {
		if err != nil {
			s.metrics.Incr("callback_failure_total")
		} else {
			s.metrics.Incr("callback_success_total")
		}
	}()

	c, ok := s.index.lookup(connID)
	if !ok {
		return notFound(), api.ErrNotFound
	}

	codec, ok := c.Protocol().(api.RestCodec)
	if !ok {
		return notFound(), api.ErrUnsupportedForRest
	}

	if !c.TryAcquire(s.cfg.CallbackAcquireTimeout) {
		return notFound(), api.ErrAcquireTimeout
	}
	defer c.Release()

	if err := drainPending(c); err != nil {
		return notFound(), err
	}

	reqFrame, err := codec.RequestToFrame(req)
	if err != nil {
		return notFound(), err
	}
	if err := wire.WriteFrame(c.Sock, reqFrame.Opcode, reqFrame.Payload); err != nil {
		return notFound(), err
	}

	answerFrame, err := wire.ReadFrame(c.Sock, s.cfg.CallbackAnswerTimeout, nil)
	if err != nil {
		return notFound(), err
	}
	if answerFrame.Release != nil {
		defer answerFrame.Release()
	}

	resp, err = codec.FrameToResponse(answerFrame)
	if err != nil {
		return notFound(), err
	}

	c.TouchCallbackRoundTrip()
	return resp, nil
}

// drainPending runs the connection's per-frame state machine, already
// holding its lock, until no more inbound data is immediately
// available. This keeps an inbound message that arrived just before
// the callback seized the wire from being silently dropped.
func drainPending(c *conn.Connection) error {
	for {
		switch c.ProcessOneLocked() {
		case api.ResultNone:
			return nil
		case api.ResultDone:
			continue
		case api.ResultClosed:
			return api.ErrTransportClosed
		case api.ResultError:
			return api.NewError(api.ErrCodeTransportFailure, "connection errored while draining pending frames")
		default:
			return nil
		}
	}
}

func notFound() *api.RestResponse {
	return &api.RestResponse{Status: 404}
}
