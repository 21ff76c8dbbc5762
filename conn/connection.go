// File: conn/connection.go
// Package conn
// Author: momentics <momentics@gmail.com>
//
// Connection is the per-upgraded-socket state machine driving ProcessOne.
// It owns exactly one cloned Protocol, the acquire lock, and the
// 5 ms/5 s liveness timers.

package conn

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/momentics/synopse-ws/api"
	"github.com/momentics/synopse-ws/wire"
)

const (
	acquireReaderBudget = 5 * time.Millisecond
	readTimeout         = 5 * time.Millisecond
	idleThreshold       = 5 * time.Second
)

// Connection owns one upgraded socket for its entire lifetime.
type Connection struct {
	ID   string
	Sock api.Socket

	proto api.Protocol
	ctx   *api.ConnContext

	lock *acquireLock
	pool api.BufferPool

	state atomic.Int32 // api.ConnState

	lastPingTickNanos atomic.Int64 // updated on inbound frames and callback round trips
	lastPingSentNanos atomic.Int64 // throttles our own keepalive pings

	logger *logAdapter
	incr   func(key string)
}

// logAdapter is the minimal logging seam Connection needs; server.Server
// supplies a *log.Logger-backed implementation.
type logAdapter struct {
	Printf func(format string, args ...any)
}

// SetMetrics wires a counter-increment callback into the connection,
// following the same optional-seam pattern as logf: nil is accepted and
// leaves counting disabled. server.Server calls this with its
// control.MetricsRegistry.Incr right after construction.
func (c *Connection) SetMetrics(incr func(key string)) {
	c.incr = incr
}

func (c *Connection) countIncr(key string) {
	if c.incr != nil {
		c.incr(key)
	}
}

// New constructs an Open connection around an already-upgraded socket
// and its cloned protocol. pool may be nil, in which case payload
// buffers are allocated fresh per frame instead of reused.
func New(id string, sock api.Socket, proto api.Protocol, pool api.BufferPool, restHandler api.RestHandler, logf func(string, ...any)) *Connection {
	c := &Connection{
		ID:    id,
		Sock:  sock,
		proto: proto,
		pool:  pool,
		ctx:   &api.ConnContext{ConnID: id, RestHandler: restHandler},
		lock:  newAcquireLock(),
	}
	c.state.Store(int32(api.StateOpen))
	c.lastPingTickNanos.Store(time.Now().UnixNano())
	if logf != nil {
		c.logger = &logAdapter{Printf: logf}
	}
	return c
}

// Protocol returns the connection's negotiated protocol instance.
func (c *Connection) Protocol() api.Protocol { return c.proto }

// State reports the current lifecycle state.
func (c *Connection) State() api.ConnState { return api.ConnState(c.state.Load()) }

func (c *Connection) setState(s api.ConnState) { c.state.Store(int32(s)) }

// touchLastPingTick records inbound activity, per the invariant that
// last_ping_tick updates on "every successful inbound frame and after
// every successful callback round trip".
func (c *Connection) touchLastPingTick() {
	c.lastPingTickNanos.Store(time.Now().UnixNano())
}

// TryAcquire seizes exclusive ownership of the wire within timeout.
func (c *Connection) TryAcquire(timeout time.Duration) bool { return c.lock.TryAcquire(timeout) }

// Release relinquishes ownership acquired via TryAcquire.
func (c *Connection) Release() { c.lock.Release() }

// WaitIdle blocks until no goroutine is mid-TryAcquire; callers tear the
// connection down only after this returns.
func (c *Connection) WaitIdle() { c.lock.WaitIdle() }

// ProcessOne runs a single iteration of the state machine. Any error
// surfaces as api.ResultError; the caller never sees a panic or
// propagated error, since the reader loop must keep running regardless.
func (c *Connection) ProcessOne() api.ProcessResult {
	if !c.TryAcquire(acquireReaderBudget) {
		return api.ResultNone
	}
	defer c.Release()

	return c.ProcessOneLocked()
}

// ProcessOneLocked runs one iteration of the state machine body without
// acquiring the lock itself; callers (the reader loop via ProcessOne, or
// the callback dispatcher's drain-before-inject step) must already hold
// it. Errors are swallowed into api.ResultError here too.
func (c *Connection) ProcessOneLocked() (res api.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logf("connection %s: process_one panic: %v", c.ID, r)
			res = api.ResultError
		}
	}()
	result, err := c.processOneLocked()
	if err != nil {
		c.logf("connection %s: process_one error: %v", c.ID, err)
		return api.ResultError
	}
	return result
}

func (c *Connection) processOneLocked() (api.ProcessResult, error) {
	f, err := wire.ReadFrame(c.Sock, readTimeout, c.pool)
	if err != nil {
		if err == api.ErrNoData {
			c.maybeSendPing()
			return api.ResultNone, nil
		}
		return api.ResultError, err
	}
	if f.Release != nil {
		defer f.Release()
	}

	c.touchLastPingTick()
	c.countIncr("frames_processed_total")

	switch f.Opcode {
	case api.OpcodePing:
		c.countIncr("pings_received_total")
		return c.sendResult(api.OpcodePong, f.Payload)

	case api.OpcodePong:
		c.countIncr("pongs_received_total")
		return api.ResultDone, nil

	case api.OpcodeText, api.OpcodeBinary:
		answer, perr := c.proto.ProcessFrame(c.ctx, f)
		if perr != nil {
			return api.ResultError, perr
		}
		if answer != nil {
			if err := wire.WriteFrame(c.Sock, answer.Opcode, answer.Payload); err != nil {
				return api.ResultError, err
			}
		}
		return api.ResultDone, nil

	case api.OpcodeClose:
		c.countIncr("close_frames_total")
		if err := wire.WriteFrame(c.Sock, api.OpcodeClose, f.Payload); err != nil {
			return api.ResultError, err
		}
		c.setState(api.StateClosing)
		return api.ResultClosed, nil

	default:
		return api.ResultDone, nil
	}
}

func (c *Connection) sendResult(opcode api.Opcode, payload []byte) (api.ProcessResult, error) {
	if err := wire.WriteFrame(c.Sock, opcode, payload); err != nil {
		return api.ResultError, err
	}
	return api.ResultDone, nil
}

// maybeSendPing emits at most one keepalive Ping per idle interval: the
// idle check reads the inbound-activity timestamp, but the throttle
// that prevents re-firing every 5 ms is a second, send-only timestamp;
// the inbound-activity timestamp itself only ever moves on inbound
// activity, never on a self-initiated ping.
func (c *Connection) maybeSendPing() {
	now := time.Now()
	lastTick := time.Unix(0, c.lastPingTickNanos.Load())
	if now.Sub(lastTick) <= idleThreshold {
		return
	}
	lastSent := time.Unix(0, c.lastPingSentNanos.Load())
	if now.Sub(lastSent) <= idleThreshold {
		return
	}
	if err := wire.WriteFrame(c.Sock, api.OpcodePing, nil); err != nil {
		c.logf("connection %s: ping send failed: %v", c.ID, err)
		return
	}
	c.countIncr("pings_sent_total")
	c.lastPingSentNanos.Store(now.UnixNano())
}

// TouchCallbackRoundTrip is called by the callback dispatcher after a
// successful outbound round trip, updating the same inbound-activity
// timestamp a normal inbound frame would.
func (c *Connection) TouchCallbackRoundTrip() { c.touchLastPingTick() }

func (c *Connection) logf(format string, args ...any) {
	if c.logger != nil && c.logger.Printf != nil {
		c.logger.Printf(format, args...)
		return
	}
	_ = fmt.Sprintf(format, args...) // keep args referenced when no logger is wired
}
