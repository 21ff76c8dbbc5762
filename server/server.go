// File: server/server.go
// Package server
// Author: momentics <momentics@gmail.com>
//
// Server is the facade gluing the registry, connection index, upgrade
// handler, and per-connection server loop together.

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/synopse-ws/api"
	"github.com/momentics/synopse-ws/conn"
	"github.com/momentics/synopse-ws/control"
	"github.com/momentics/synopse-ws/pool"
	"github.com/momentics/synopse-ws/transport"
	"github.com/momentics/synopse-ws/wire"
	"github.com/momentics/synopse-ws/wsproto"
)

// Server upgrades HTTP connections to the negotiated subprotocol and
// drives each one's ProcessOne loop until close.
type Server struct {
	cfg      *Config
	registry *wsproto.Registry
	index    *connIndex
	metrics  *control.MetricsRegistry
	bufPool  *pool.BufferPool
	cfgMu    sync.Mutex
	control  *control.Adapter

	restHandler api.RestHandler

	httpSrv *http.Server
	nextID  atomic.Int64

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewServer builds a Server from DefaultConfig with opts applied. Pass
// the host's REST handler (the external collaborator the two REST
// subprotocols invoke synchronously); it may be nil if only a
// Chat-style protocol is registered.
func NewServer(restHandler api.RestHandler, opts ...ServerOption) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	registry := wsproto.NewRegistry()
	registry.Add(wsproto.NewBinaryRest(cfg.EncryptionKey, cfg.EncryptionIV, cfg.Compressed))
	if cfg.EnableJSON {
		registry.Add(wsproto.NewJSONRest())
	}

	s := &Server{
		cfg:         cfg,
		registry:    registry,
		index:       newConnIndex(),
		metrics:     control.NewMetricsRegistry(),
		bufPool:     pool.NewBufferPool(),
		restHandler: restHandler,
		shutdown:    make(chan struct{}),
	}
	s.control = control.NewAdapter(s.metrics, s.getConfigSnapshot, s.applyConfig)
	s.httpSrv = &http.Server{Addr: cfg.ListenAddr, Handler: http.HandlerFunc(s.ServeHTTP)}
	return s
}

// Control exposes this Server as an api.Control, letting a host
// inspect/reload runtime-mutable config and read live stats through
// one narrow interface instead of reaching into Server directly.
func (s *Server) Control() api.Control { return s.control }

func (s *Server) getConfigSnapshot() map[string]any {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return map[string]any{
		"compressed":               s.cfg.Compressed,
		"enable_json":              s.cfg.EnableJSON,
		"callback_acquire_timeout": s.cfg.CallbackAcquireTimeout,
		"callback_answer_timeout":  s.cfg.CallbackAnswerTimeout,
	}
}

// applyConfig updates the mutable subset of Config a running server may
// safely change: callback timeouts, which the next Dispatch reads, and
// the compression toggle. The toggle only changes the stored Config
// value: the binary-envelope prototype registered by NewServer keeps
// the flag it was built with, so neither new nor already-upgraded
// connections change compression. The listen address is unaffected.
func (s *Server) applyConfig(cfg map[string]any) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if v, ok := cfg["compressed"].(bool); ok {
		s.cfg.Compressed = v
	}
	if v, ok := cfg["callback_acquire_timeout"].(time.Duration); ok && v > 0 {
		s.cfg.CallbackAcquireTimeout = v
	}
	if v, ok := cfg["callback_answer_timeout"].(time.Duration); ok && v > 0 {
		s.cfg.CallbackAnswerTimeout = v
	}
	return nil
}

// Registry exposes the protocol registry so callers may register
// additional Chat-style protocols before ListenAndServe.
func (s *Server) Registry() *wsproto.Registry { return s.registry }

// Stats snapshots the engine's counters: open connection count plus
// whatever the metrics registry has accumulated.
func (s *Server) Stats() map[string]any {
	stats := s.metrics.GetSnapshot()
	stats["open_connections"] = s.index.count()
	stats["buffer_pool"] = s.bufPool.Stats()
	return stats
}

// ListenAndServe starts accepting and upgrading connections; it blocks
// until Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting new connections and waits up to
// cfg.ShutdownTimeout for in-flight reader loops to exit.
func (s *Server) Shutdown() error {
	var err error
	s.once.Do(func() {
		close(s.shutdown)
		err = s.httpSrv.Close()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-time.After(s.cfg.ShutdownTimeout):
		return fmt.Errorf("shutdown timeout after %v", s.cfg.ShutdownTimeout)
	}
}

// ServeHTTP implements the upgrade handler. Requests that fail
// validation fall through to an ordinary HTTP 400 response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, ok := s.upgrade(w, r)
	if !ok {
		http.Error(w, "not a websocket upgrade request", http.StatusBadRequest)
		return
	}

	s.index.register(c)
	s.metrics.Incr("connections_opened_total")
	s.wg.Add(1)
	go s.runLoop(c)
}

// upgrade validates the handshake, clones the negotiated protocol, and
// hijacks the socket. ok is false on any validation failure.
func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*conn.Connection, bool) {
	offered, key, err := wire.ValidateUpgrade(r)
	if err != nil {
		return nil, false
	}

	name, ok := s.registry.ChooseOffered(offered)
	if !ok {
		return nil, false
	}
	proto := s.registry.CloneByName(name)
	if proto == nil {
		return nil, false
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, false
	}
	netConn, buf, err := hj.Hijack()
	if err != nil {
		return nil, false
	}
	if buf != nil {
		_ = buf.Flush()
	}

	if err := wire.WriteSwitchingProtocols(netConn, key, name); err != nil {
		netConn.Close()
		return nil, false
	}

	sock := transport.NewNetConn(netConn, s.cfg.WriteBufferSize)
	id := strconv.FormatInt(s.nextID.Add(1), 10)
	c := conn.New(id, sock, proto, s.bufPool, s.restHandler, s.cfg.Logger.Printf)
	c.SetMetrics(func(key string) { s.metrics.Incr(key) })
	return c, true
}

// runLoop drives ProcessOne until the connection closes or the server
// shuts down.
func (s *Server) runLoop(c *conn.Connection) {
	defer s.wg.Done()
	defer s.teardown(c)

	keepAlive := true
	for keepAlive {
		select {
		case <-s.shutdown:
			return
		default:
		}

		switch c.ProcessOne() {
		case api.ResultNone:
			time.Sleep(5 * time.Millisecond)
		case api.ResultDone:
			// yield
		case api.ResultError:
			time.Sleep(10 * time.Millisecond)
		case api.ResultClosed:
			keepAlive = false
		}
	}
}

func (s *Server) teardown(c *conn.Connection) {
	s.index.unregister(c.ID)
	c.WaitIdle()
	c.Sock.Close()
	s.metrics.Incr("connections_closed_total")
}
