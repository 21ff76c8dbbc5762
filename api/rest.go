// Package api
// Author: momentics <momentics@gmail.com>
//
// The REST-shaped envelope exchanged over a WebSocket frame, and the
// host callbacks the engine drives synchronously. The concrete request
// object a real HTTP stack would hand out is an external collaborator;
// only the fields it must carry are declared here.

package api

// RestRequest is the client→server direction of the envelope tuple.
type RestRequest struct {
	Method      string
	URL         string
	Headers     string
	ContentType string
	Content     []byte
}

// RestResponse is the server→client (answer) direction.
type RestResponse struct {
	Status      int
	Headers     string
	ContentType string
	Content     []byte
}

// RestHandler is the host's synchronous request handler, invoked by the
// JSON/Binary REST protocol on every decoded inbound request frame.
type RestHandler interface {
	ServeRest(req *RestRequest) *RestResponse
}

// RestHandlerFunc adapts a plain function to RestHandler.
type RestHandlerFunc func(req *RestRequest) *RestResponse

func (f RestHandlerFunc) ServeRest(req *RestRequest) *RestResponse { return f(req) }
