// File: server/config.go
// Package server wires the frame codec, envelope protocols, and
// connection state machine into a runnable WebSocket engine.
// Author: momentics <momentics@gmail.com>
//
// Config/DefaultConfig bundle the listen address, envelope options, and
// callback timeouts alongside the logging/shutdown fields every config
// in this engine carries.

package server

import (
	"log"
	"time"
)

// Config holds the engine's tunables: listen address, envelope options,
// and callback timeouts, plus the ambient logging/shutdown fields.
type Config struct {
	// ListenAddr is the TCP address to accept connections on, e.g. ":8080".
	ListenAddr string

	// EncryptionKey enables AES-CFB on the binary subprotocol when set.
	EncryptionKey string
	// EncryptionIV pairs with EncryptionKey; both must be non-empty to
	// enable encryption.
	EncryptionIV string

	// EnableJSON registers the "synopsejson" subprotocol.
	EnableJSON bool

	// Compressed toggles SynLZ-equivalent compression on the binary
	// subprotocol (default true).
	Compressed bool

	// CallbackAcquireTimeout bounds how long an outbound callback waits
	// to seize a connection's wire.
	CallbackAcquireTimeout time.Duration
	// CallbackAnswerTimeout bounds how long a callback waits for the
	// client's reply frame.
	CallbackAnswerTimeout time.Duration

	// WriteBufferSize sizes each connection's coalescing send buffer.
	WriteBufferSize int

	ShutdownTimeout time.Duration
	Logger          *log.Logger
}

// DefaultConfig returns the engine's baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:             ":8080",
		EnableJSON:             false,
		Compressed:             true,
		CallbackAcquireTimeout: 5000 * time.Millisecond,
		CallbackAnswerTimeout:  1000 * time.Millisecond,
		WriteBufferSize:        64 * 1024,
		ShutdownTimeout:        30 * time.Second,
		Logger:                 log.Default(),
	}
}

// ServerOption customises a Config before NewServer builds it, the
// usual functional-options idiom.
type ServerOption func(*Config)

func WithListenAddr(addr string) ServerOption     { return func(c *Config) { c.ListenAddr = addr } }
func WithEncryption(key, iv string) ServerOption  { return func(c *Config) { c.EncryptionKey, c.EncryptionIV = key, iv } }
func WithEnableJSON(enable bool) ServerOption     { return func(c *Config) { c.EnableJSON = enable } }
func WithCompressed(enable bool) ServerOption     { return func(c *Config) { c.Compressed = enable } }
func WithLogger(l *log.Logger) ServerOption       { return func(c *Config) { c.Logger = l } }
