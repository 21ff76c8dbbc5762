// File: server/index.go
// Package server
// Author: momentics <momentics@gmail.com>
//
// connIndex is the server's connection index, guarded by a single
// process-wide mutex held only for O(n) lookups and index insert/delete.

package server

import (
	"sync"

	"github.com/momentics/synopse-ws/conn"
)

type connIndex struct {
	mu    sync.Mutex
	byID  map[string]*conn.Connection
}

func newConnIndex() *connIndex {
	return &connIndex{byID: make(map[string]*conn.Connection)}
}

func (ix *connIndex) register(c *conn.Connection) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byID[c.ID] = c
}

func (ix *connIndex) unregister(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.byID, id)
}

func (ix *connIndex) lookup(id string) (*conn.Connection, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c, ok := ix.byID[id]
	return c, ok
}

func (ix *connIndex) count() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.byID)
}
