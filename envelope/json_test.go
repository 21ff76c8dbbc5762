// File: envelope/json_test.go
// Author: momentics <momentics@gmail.com>

package envelope

import (
	"testing"

	"github.com/momentics/synopse-ws/api"
)

func TestEncodeDecodeJSONRawContent(t *testing.T) {
	f, err := EncodeJSON("request", []string{"1", "GET"}, CanonicalJSONContentType, []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	fields, ct, content, err := DecodeJSON(f, "request", 2)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if fields[0] != "1" || fields[1] != "GET" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if ct != CanonicalJSONContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if string(content) != `{"a":1}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestEncodeDecodeJSONTextContent(t *testing.T) {
	f, err := EncodeJSON("answer", []string{"1"}, "text/plain", []byte("hello world"))
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	_, ct, content, err := DecodeJSON(f, "answer", 1)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if ct != "text/plain" || string(content) != "hello world" {
		t.Fatalf("got ct=%q content=%q", ct, content)
	}
}

func TestEncodeDecodeJSONBinaryContentUsesBase64Marker(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xff, 0xfe, 'x'}
	f, err := EncodeJSON("answer", []string{"1"}, "application/octet-stream", raw)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	_, ct, content, err := DecodeJSON(f, "answer", 1)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if ct != "application/octet-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if string(content) != string(raw) {
		t.Fatalf("got %v want %v", content, raw)
	}
}

func TestEncodeDecodeJSONEmptyContent(t *testing.T) {
	f, err := EncodeJSON("answer", []string{"1"}, "", nil)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	_, _, content, err := DecodeJSON(f, "answer", 1)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(content) != 0 {
		t.Fatalf("want empty content, got %q", content)
	}
}

func TestEncodeDecodeJSONCanonicalStringValueRoundTrips(t *testing.T) {
	// A REST handler returning a bare JSON string under application/json
	// must come back byte-for-byte, quotes included, not unwrapped into
	// the Go string it denotes.
	f, err := EncodeJSON("answer", []string{"1"}, CanonicalJSONContentType, []byte(`"hello"`))
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	_, ct, content, err := DecodeJSON(f, "answer", 1)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if ct != CanonicalJSONContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if string(content) != `"hello"` {
		t.Fatalf("want quoted 7-byte content preserved, got %q", content)
	}
}

func TestDecodeJSONRejectsHeadMismatch(t *testing.T) {
	f, _ := EncodeJSON("request", []string{"1"}, "text/plain", []byte("hi"))
	if _, _, _, err := DecodeJSON(f, "answer", 1); err == nil {
		t.Fatal("want error on head mismatch")
	}
}

func TestDecodeJSONRejectsWrongOpcode(t *testing.T) {
	f := &api.Frame{Opcode: api.OpcodeBinary, Payload: []byte(`{"request":["1","text/plain","hi"]}`)}
	if _, _, _, err := DecodeJSON(f, "request", 1); err == nil {
		t.Fatal("want error on non-text frame")
	}
}

func TestEncodeJSONRejectsInvalidJSONContent(t *testing.T) {
	_, err := EncodeJSON("request", nil, CanonicalJSONContentType, []byte("not json"))
	if err == nil {
		t.Fatal("want error for invalid application/json content")
	}
}
