// File: envelope/binary.go
// Package envelope
// Author: momentics <momentics@gmail.com>
//
// The binary REST envelope: fields joined by \x01 separators, optionally
// snappy-compressed, optionally AES-CFB-encrypted, wrapped in an outer
// head the demultiplexer can reject cheaply before touching the rest of
// the payload. The head is repeated as the first token of the inner
// body, so a decoder re-verifies it after decrypting/decompressing.
//
// github.com/golang/snappy is the compressor: it is specified only by
// its byte-level contract (compress before encrypt, decompress after
// decrypt), so any general-purpose block compressor satisfies it.

package envelope

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/golang/snappy"

	"github.com/momentics/synopse-ws/api"
)

const sep = '\x01'

// BinaryOptions bundles the per-connection compression/encryption state
// for the binary envelope.
type BinaryOptions struct {
	Compressed bool
	cipher     *binaryCipher
}

// NewBinaryOptions builds the options for a freshly-registered binary
// protocol prototype. Passing an empty key or iv disables encryption
// while leaving compression under the caller's control.
func NewBinaryOptions(key, iv string, compressed bool) *BinaryOptions {
	bc, _ := newBinaryCipher(key, iv)
	return &BinaryOptions{Compressed: compressed, cipher: bc}
}

// Clone mints per-connection options: the compressed flag is copied
// verbatim, and the cipher (if any) gets its own independent stream.
func (o *BinaryOptions) Clone() *BinaryOptions {
	out := &BinaryOptions{Compressed: o.Compressed}
	if o.cipher != nil {
		out.cipher = o.cipher.clone()
	}
	return out
}

// Encrypted reports whether this instance has a usable cipher.
func (o *BinaryOptions) Encrypted() bool { return o.cipher != nil }

// EncodeBinary builds a Binary frame payload.
func EncodeBinary(head string, fields []string, contentType string, content []byte, opts *BinaryOptions) (*api.Frame, error) {
	var tmp bytes.Buffer
	tmp.WriteString(head)
	tmp.WriteByte(sep)
	for _, f := range fields {
		tmp.WriteString(f)
		tmp.WriteByte(sep)
	}
	tmp.WriteString(contentType)
	tmp.WriteByte(sep)
	tmp.Write(content)

	body := tmp.Bytes()
	if opts != nil && opts.Compressed {
		body = snappy.Encode(nil, body)
	}
	if opts != nil && opts.cipher != nil {
		body = opts.cipher.seal(pkcs7Pad(body))
	}

	payload := make([]byte, 0, len(head)+1+len(body))
	payload = append(payload, head...)
	payload = append(payload, sep)
	payload = append(payload, body...)

	return &api.Frame{Opcode: api.OpcodeBinary, Payload: payload}, nil
}

// DecodeBinary is the inverse of EncodeBinary.
func DecodeBinary(f *api.Frame, expectedHead string, numFields int, opts *BinaryOptions) (fields []string, contentType string, content []byte, err error) {
	if f.Opcode != api.OpcodeBinary {
		return nil, "", nil, fmt.Errorf("%w: not a binary frame", api.ErrEnvelopeDecode)
	}

	outerHead, rest, ok := splitOnce(f.Payload, sep)
	if !ok || len(rest) < 5 || !strings.EqualFold(string(outerHead), expectedHead) {
		return nil, "", nil, fmt.Errorf("%w: outer head mismatch", api.ErrEnvelopeDecode)
	}

	body := rest
	if opts != nil && opts.cipher != nil {
		plain, unpadded := pkcs7Unpad(opts.cipher.open(body))
		if !unpadded {
			return nil, "", nil, fmt.Errorf("%w: padding invalid", api.ErrEnvelopeDecode)
		}
		body = plain
	}
	if opts != nil && opts.Compressed {
		decoded, derr := snappy.Decode(nil, body)
		if derr != nil {
			return nil, "", nil, fmt.Errorf("%w: %v", api.ErrEnvelopeDecode, derr)
		}
		if len(decoded) < 4 {
			return nil, "", nil, fmt.Errorf("%w: decompressed body too short", api.ErrEnvelopeDecode)
		}
		body = decoded
	}

	innerHead, remainder, ok := splitOnce(body, sep)
	if !ok || !strings.EqualFold(string(innerHead), expectedHead) {
		return nil, "", nil, fmt.Errorf("%w: inner head mismatch", api.ErrEnvelopeDecode)
	}

	fields = make([]string, numFields)
	cur := remainder
	for i := 0; i < numFields; i++ {
		tok, next, ok := splitOnce(cur, sep)
		if !ok {
			return nil, "", nil, fmt.Errorf("%w: missing field %d", api.ErrEnvelopeDecode, i)
		}
		fields[i] = string(tok)
		cur = next
	}

	ctBytes, contentBytes, ok := splitOnce(cur, sep)
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: missing content_type", api.ErrEnvelopeDecode)
	}
	contentType = string(ctBytes)
	content = contentBytes
	return fields, contentType, content, nil
}

// splitOnce splits b on the first occurrence of sep, reporting whether
// sep was found.
func splitOnce(b []byte, sep byte) (before, after []byte, found bool) {
	i := bytes.IndexByte(b, sep)
	if i < 0 {
		return nil, nil, false
	}
	return b[:i], b[i+1:], true
}
