// Package tests
// Author: momentics <momentics@gmail.com>
//
// End-to-end integration tests driving the real upgrade handshake and
// frame wire format with github.com/gorilla/websocket acting as the
// client.

package tests

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/momentics/synopse-ws/api"
	"github.com/momentics/synopse-ws/envelope"
	"github.com/momentics/synopse-ws/server"
)

func echoHandler() api.RestHandler {
	return api.RestHandlerFunc(func(req *api.RestRequest) *api.RestResponse {
		if req.URL == "/echo" {
			return &api.RestResponse{Status: 200, ContentType: req.ContentType, Content: req.Content}
		}
		return &api.RestResponse{Status: 404}
	})
}

func dialJSON(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	header := make(map[string][]string)
	header["Sec-WebSocket-Protocol"] = []string{"synopsejson"}
	conn, resp, err := websocket.DefaultDialer.Dial(strings.Replace(url, "http", "ws", 1), header)
	if err != nil {
		t.Fatalf("dial: %v (status %v)", err, resp)
	}
	return conn
}

func TestIntegrationJSONRestRoundTrip(t *testing.T) {
	s := server.NewServer(echoHandler(), server.WithEnableJSON(true))
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialJSON(t, ts.URL)
	defer conn.Close()

	reqFrame, err := envelope.EncodeJSON("request", []string{"GET", "/echo", ""}, "text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, reqFrame.Payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	answer := &api.Frame{Opcode: api.OpcodeText, Payload: data}
	fields, ct, content, err := envelope.DecodeJSON(answer, "answer", 2)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if fields[0] != "200" {
		t.Fatalf("want status 200, got %q", fields[0])
	}
	if ct != "text/plain" || string(content) != "hello" {
		t.Fatalf("got ct=%q content=%q", ct, content)
	}
}

func TestIntegrationJSONRestNotFound(t *testing.T) {
	s := server.NewServer(echoHandler(), server.WithEnableJSON(true))
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialJSON(t, ts.URL)
	defer conn.Close()

	reqFrame, _ := envelope.EncodeJSON("request", []string{"GET", "/missing", ""}, "", nil)
	if err := conn.WriteMessage(websocket.TextMessage, reqFrame.Payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	answer := &api.Frame{Opcode: api.OpcodeText, Payload: data}
	fields, _, _, err := envelope.DecodeJSON(answer, "answer", 2)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if fields[0] != "404" {
		t.Fatalf("want status 404, got %q", fields[0])
	}
}

func TestIntegrationPingPong(t *testing.T) {
	s := server.NewServer(nil, server.WithEnableJSON(true))
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialJSON(t, ts.URL)
	defer conn.Close()

	pongReceived := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongReceived <- struct{}{}:
		default:
		}
		return nil
	})
	if err := conn.WriteControl(websocket.PingMessage, []byte("alive"), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("WriteControl: %v", err)
	}

	// The server answers with a bare Pong control frame and no data
	// frame, so ReadMessage blocks reading it until the deadline; the
	// Pong handler still fires while that read is in flight.
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	go func() { _, _, _ = conn.ReadMessage() }()

	select {
	case <-pongReceived:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a pong in response to our ping")
	}
}

func TestIntegrationServerCallbackDispatch(t *testing.T) {
	s := server.NewServer(nil, server.WithEnableJSON(true))
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialJSON(t, ts.URL)
	defer conn.Close()

	// The server doesn't expose connection IDs to the wire protocol, so
	// this drives the handshake and then targets ID "1": the server
	// numbers connections sequentially from 1, and this is the first
	// and only connection.
	time.Sleep(50 * time.Millisecond)

	answerReady := make(chan struct{})
	go func() {
		defer close(answerReady)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("client ReadMessage: %v", err)
			return
		}
		f := &api.Frame{Opcode: api.OpcodeText, Payload: data}
		fields, _, _, err := envelope.DecodeJSON(f, "request", 3)
		if err != nil {
			t.Errorf("client DecodeJSON request: %v", err)
			return
		}
		if fields[0] != "GET" || fields[1] != "/push" {
			t.Errorf("unexpected callback request fields %v", fields)
		}
		answer, err := envelope.EncodeJSON("answer", []string{"200", ""}, "text/plain", []byte("ack"))
		if err != nil {
			t.Errorf("EncodeJSON answer: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, answer.Payload); err != nil {
			t.Errorf("client WriteMessage answer: %v", err)
		}
	}()

	var connID string
	for _, id := range []string{"1"} {
		connID = id
	}
	resp, err := s.Dispatch(connID, &api.RestRequest{Method: "GET", URL: "/push"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if resp.Status != 200 || string(resp.Content) != "ack" {
		t.Fatalf("unexpected dispatch response: %+v", resp)
	}
	<-answerReady
}
