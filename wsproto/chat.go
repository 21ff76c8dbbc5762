// File: wsproto/chat.go
// Package wsproto
// Author: momentics <momentics@gmail.com>
//
// Chat carries opaque text/binary frames straight to a user-supplied
// Handler and never produces an answer frame of its own.

package wsproto

import "github.com/momentics/synopse-ws/api"

// Chat is the simplest Protocol variant: every inbound Text/Binary
// frame is handed to handler, and ProcessFrame always returns (nil, nil).
type Chat struct {
	name    string
	handler api.Handler
}

// NewChat registers handler as the callback fired for every inbound
// frame on connections negotiating this subprotocol name.
func NewChat(name string, handler api.Handler) *Chat {
	return &Chat{name: name, handler: handler}
}

func (c *Chat) Name() string { return c.name }

func (c *Chat) ProcessFrame(_ *api.ConnContext, f *api.Frame) (*api.Frame, error) {
	if c.handler != nil {
		if err := c.handler.Handle(f); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Clone returns a protocol sharing the same host callback: Chat has no
// per-connection state of its own to isolate.
func (c *Chat) Clone() api.Protocol {
	return &Chat{name: c.name, handler: c.handler}
}
