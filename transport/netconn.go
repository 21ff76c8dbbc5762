// File: transport/netconn.go
// Author: momentics <momentics@gmail.com>
//
// NetConn adapts a net.Conn to api.Socket, giving the wire codec its
// buffered/unbuffered send distinction over an ordinary
// TCP connection. Concrete socket I/O (accept loop, deadlines at the OS
// level) is otherwise an external collaborator; this is
// the minimal seam the engine owns.

package transport

import (
	"bufio"
	"net"
	"time"
)

// NetConn wraps a net.Conn with a coalescing write buffer.
type NetConn struct {
	conn net.Conn
	bw   *bufio.Writer
}

// NewNetConn wraps conn with a bufSize-byte write buffer (64 KiB by
// default).
func NewNetConn(conn net.Conn, bufSize int) *NetConn {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &NetConn{conn: conn, bw: bufio.NewWriterSize(conn, bufSize)}
}

func (n *NetConn) SetReadDeadline(t time.Time) error { return n.conn.SetReadDeadline(t) }

func (n *NetConn) Read(p []byte) (int, error) { return n.conn.Read(p) }

func (n *NetConn) SendBuffered(p []byte) error {
	_, err := n.bw.Write(p)
	return err
}

func (n *NetConn) SendUnbuffered(p []byte) error {
	_, err := n.conn.Write(p)
	return err
}

func (n *NetConn) Flush() error { return n.bw.Flush() }

// Pending reports 0: a plain net.Conn exposes no portable way to probe
// the kernel receive buffer without reading from it. Callers that need
// a liveness signal rely on ReadFrame's deadline instead.
func (n *NetConn) Pending() int { return 0 }

func (n *NetConn) Close() error { return n.conn.Close() }
