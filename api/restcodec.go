// File: api/restcodec.go
// Author: momentics <momentics@gmail.com>
//
// RestCodec is the capability the callback dispatcher needs from a
// connection's negotiated protocol: the ability to turn a RestRequest
// into an outbound "request" frame and a "answer" frame back into a
// RestResponse.
// Only the two REST subprotocols implement it; Chat does not.

package api

// RestCodec is implemented by the JSON and Binary REST protocol
// variants. ProcessFrame already covers the inbound (client→server)
// direction; RestCodec covers the outbound callback direction.
type RestCodec interface {
	Protocol

	// RequestToFrame encodes req as a "request"-headed frame, the
	// server-initiated half of a callback round trip.
	RequestToFrame(req *RestRequest) (*Frame, error)

	// FrameToResponse decodes an "answer"-headed frame back into a
	// RestResponse, completing a callback round trip.
	FrameToResponse(f *Frame) (*RestResponse, error)
}
