// File: wsproto/jsonrest.go
// Package wsproto
// Author: momentics <momentics@gmail.com>
//
// JSONRest is the "synopsejson" subprotocol: a text-frame envelope
// carrying a REST-shaped request/answer tuple.

package wsproto

import (
	"strconv"

	"github.com/momentics/synopse-ws/api"
	"github.com/momentics/synopse-ws/envelope"
)

const (
	headRequest = "request"
	headAnswer  = "answer"

	// ProtocolNameJSON is the Sec-WebSocket-Protocol token for this variant.
	ProtocolNameJSON = "synopsejson"
	// ProtocolNameBinary is the Sec-WebSocket-Protocol token for the binary variant.
	ProtocolNameBinary = "synopsebinary"
)

// JSONRest has no per-connection state; a single instance may serve as
// both registry prototype and, via Clone, the connection's own copy.
type JSONRest struct{}

// NewJSONRest constructs the "synopsejson" prototype.
func NewJSONRest() *JSONRest { return &JSONRest{} }

func (j *JSONRest) Name() string { return ProtocolNameJSON }

func (j *JSONRest) Clone() api.Protocol { return &JSONRest{} }

// ProcessFrame decodes the inbound "request", invokes the host handler
// synchronously, and encodes the "answer".
func (j *JSONRest) ProcessFrame(ctx *api.ConnContext, f *api.Frame) (*api.Frame, error) {
	fields, contentType, content, err := envelope.DecodeJSON(f, headRequest, 3)
	if err != nil {
		return nil, err
	}
	req := &api.RestRequest{
		Method:      fields[0],
		URL:         fields[1],
		Headers:     fields[2],
		ContentType: contentType,
		Content:     content,
	}

	var resp *api.RestResponse
	if ctx != nil && ctx.RestHandler != nil {
		resp = ctx.RestHandler.ServeRest(req)
	}
	if resp == nil {
		resp = &api.RestResponse{Status: 404}
	}

	return envelope.EncodeJSON(headAnswer,
		[]string{strconv.Itoa(resp.Status), resp.Headers},
		resp.ContentType, resp.Content)
}

// RequestToFrame is the outbound half of the symmetric request/answer
// pair, used by the callback dispatcher.
func (j *JSONRest) RequestToFrame(req *api.RestRequest) (*api.Frame, error) {
	return envelope.EncodeJSON(headRequest,
		[]string{req.Method, req.URL, req.Headers}, req.ContentType, req.Content)
}

// FrameToResponse decodes an "answer" frame back into a RestResponse.
func (j *JSONRest) FrameToResponse(f *api.Frame) (*api.RestResponse, error) {
	fields, contentType, content, err := envelope.DecodeJSON(f, headAnswer, 2)
	if err != nil {
		return nil, err
	}
	status, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, err
	}
	return &api.RestResponse{
		Status:      status,
		Headers:     fields[1],
		ContentType: contentType,
		Content:     content,
	}, nil
}

var (
	_ api.Protocol  = (*JSONRest)(nil)
	_ api.RestCodec = (*JSONRest)(nil)
)
