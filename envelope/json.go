// File: envelope/json.go
// Package envelope implements the two REST envelope encodings that pack
// a (head, fields..., content_type, content) tuple into a single frame
// payload.
// Author: momentics <momentics@gmail.com>

package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/momentics/synopse-ws/api"
)

// CanonicalJSONContentType is the content type that inlines raw JSON.
const CanonicalJSONContentType = "application/json"

// jsonBase64Marker prefixes the base64 form used for any content type
// that is neither empty, application/json, nor text/*.
const jsonBase64Marker = "\x00WSB64\x00"

// EncodeJSON produces a Text frame payload of shape
// {"<head>":["v1",...,"<content_type>",<content>]}
func EncodeJSON(head string, fields []string, contentType string, content []byte) (*api.Frame, error) {
	arr := make([]json.RawMessage, 0, len(fields)+2)
	for _, f := range fields {
		b, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		arr = append(arr, b)
	}
	ctBytes, err := json.Marshal(contentType)
	if err != nil {
		return nil, err
	}
	arr = append(arr, ctBytes)

	contentRaw, err := encodeJSONContent(contentType, content)
	if err != nil {
		return nil, err
	}
	arr = append(arr, contentRaw)

	arrBytes, err := json.Marshal(arr)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]json.RawMessage{head: arrBytes})
	if err != nil {
		return nil, err
	}
	return &api.Frame{Opcode: api.OpcodeText, Payload: payload}, nil
}

func encodeJSONContent(contentType string, content []byte) (json.RawMessage, error) {
	switch {
	case len(content) == 0:
		return json.RawMessage(`""`), nil
	case contentType == "" || strings.EqualFold(contentType, CanonicalJSONContentType):
		if !json.Valid(content) {
			return nil, fmt.Errorf("content type %q requires valid JSON content", contentType)
		}
		return json.RawMessage(content), nil
	case strings.HasPrefix(strings.ToLower(contentType), "text/"):
		return json.Marshal(string(content))
	default:
		return json.Marshal(jsonBase64Marker + base64.StdEncoding.EncodeToString(content))
	}
}

// DecodeJSON is the inverse of EncodeJSON. numFields is the number of
// positional string fields preceding content_type and content (3 for a
// request tuple, 2 for an answer tuple).
func DecodeJSON(f *api.Frame, expectedHead string, numFields int) (fields []string, contentType string, content []byte, err error) {
	if f.Opcode != api.OpcodeText {
		return nil, "", nil, fmt.Errorf("%w: not a text frame", api.ErrEnvelopeDecode)
	}
	if len(f.Payload) < 10 {
		return nil, "", nil, fmt.Errorf("%w: payload too short", api.ErrEnvelopeDecode)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Payload, &obj); err != nil {
		return nil, "", nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, err)
	}

	var arrRaw json.RawMessage
	found := false
	for k, v := range obj {
		if strings.EqualFold(k, expectedHead) {
			arrRaw, found = v, true
			break
		}
	}
	if !found {
		return nil, "", nil, fmt.Errorf("%w: head mismatch, want %q", api.ErrEnvelopeDecode, expectedHead)
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(arrRaw, &arr); err != nil {
		return nil, "", nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, err)
	}
	if len(arr) != numFields+2 {
		return nil, "", nil, fmt.Errorf("%w: expected %d array entries, got %d", api.ErrEnvelopeDecode, numFields+2, len(arr))
	}

	fields = make([]string, numFields)
	for i := 0; i < numFields; i++ {
		if err := json.Unmarshal(arr[i], &fields[i]); err != nil {
			return nil, "", nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, err)
		}
	}
	if err := json.Unmarshal(arr[numFields], &contentType); err != nil {
		return nil, "", nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, err)
	}

	content, err = decodeJSONContent(arr[numFields+1], contentType)
	if err != nil {
		return nil, "", nil, err
	}
	return fields, contentType, content, nil
}

// decodeJSONContent is the inverse of encodeJSONContent: it dispatches
// on contentType exactly as the encoder does, rather than guessing the
// original shape from the decoded value. Empty content always encodes
// as the literal JSON empty string regardless of contentType, so that
// case is checked first.
func decodeJSONContent(raw json.RawMessage, contentType string) ([]byte, error) {
	if string(raw) == `""` {
		return nil, nil
	}

	switch {
	case contentType == "" || strings.EqualFold(contentType, CanonicalJSONContentType):
		return []byte(raw), nil

	case strings.HasPrefix(strings.ToLower(contentType), "text/"):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, err)
		}
		return []byte(s), nil

	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, err)
		}
		if !strings.HasPrefix(s, jsonBase64Marker) {
			return nil, fmt.Errorf("%w: missing base64 marker", api.ErrEnvelopeDecode)
		}
		decoded, derr := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, jsonBase64Marker))
		if derr != nil {
			return nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, derr)
		}
		return decoded, nil
	}
}
