// File: wsproto/binaryrest.go
// Package wsproto
// Author: momentics <momentics@gmail.com>
//
// BinaryRest is the "synopsebinary" subprotocol: a binary-frame
// envelope with optional compression and AES-CFB encryption.

package wsproto

import (
	"strconv"

	"github.com/momentics/synopse-ws/api"
	"github.com/momentics/synopse-ws/envelope"
)

// BinaryRest owns the per-connection compression/encryption options; a
// registry prototype is constructed with NewBinaryRest and Cloned once
// per upgraded connection so each connection advances its own cipher
// stream independently.
type BinaryRest struct {
	opts *envelope.BinaryOptions
}

// NewBinaryRest builds the "synopsebinary" prototype. An empty key or iv
// disables encryption; compressed controls snappy compression.
func NewBinaryRest(key, iv string, compressed bool) *BinaryRest {
	return &BinaryRest{opts: envelope.NewBinaryOptions(key, iv, compressed)}
}

func (b *BinaryRest) Name() string { return ProtocolNameBinary }

func (b *BinaryRest) Clone() api.Protocol {
	return &BinaryRest{opts: b.opts.Clone()}
}

func (b *BinaryRest) ProcessFrame(ctx *api.ConnContext, f *api.Frame) (*api.Frame, error) {
	fields, contentType, content, err := envelope.DecodeBinary(f, headRequest, 3, b.opts)
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

	return envelope.EncodeBinary(headAnswer,
		[]string{strconv.Itoa(resp.Status), resp.Headers},
		resp.ContentType, resp.Content, b.opts)
}

func (b *BinaryRest) RequestToFrame(req *api.RestRequest) (*api.Frame, error) {
	return envelope.EncodeBinary(headRequest,
		[]string{req.Method, req.URL, req.Headers}, req.ContentType, req.Content, b.opts)
}

func (b *BinaryRest) FrameToResponse(f *api.Frame) (*api.RestResponse, error) {
	fields, contentType, content, err := envelope.DecodeBinary(f, headAnswer, 2, b.opts)
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
	_ api.Protocol  = (*BinaryRest)(nil)
	_ api.RestCodec = (*BinaryRest)(nil)
)
