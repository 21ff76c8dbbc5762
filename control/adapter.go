// File: control/adapter.go
// Package control
// Author: momentics <momentics@gmail.com>
//
// Adapter implements api.Control over a host-supplied config
// get/set pair and this package's MetricsRegistry, the same
// get/set/stats/reload shape the engine's other control surfaces use.

package control

import (
	"sync"

	"github.com/momentics/synopse-ws/api"
)

// Adapter wires a MetricsRegistry and a pair of config accessor
// functions into the api.Control interface.
type Adapter struct {
	metrics *MetricsRegistry

	getConfig func() map[string]any
	setConfig func(map[string]any) error

	mu        sync.Mutex
	reloadFns []func()
}

// NewAdapter builds an Adapter. getConfig/setConfig translate between
// the host's own config struct and the map[string]any shape
// api.Control exposes.
func NewAdapter(metrics *MetricsRegistry, getConfig func() map[string]any, setConfig func(map[string]any) error) *Adapter {
	return &Adapter{metrics: metrics, getConfig: getConfig, setConfig: setConfig}
}

func (a *Adapter) GetConfig() map[string]any { return a.getConfig() }

// SetConfig applies cfg and, on success, fires every registered reload
// callback in registration order.
func (a *Adapter) SetConfig(cfg map[string]any) error {
	if err := a.setConfig(cfg); err != nil {
		return err
	}
	a.mu.Lock()
	fns := append([]func(){}, a.reloadFns...)
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (a *Adapter) Stats() map[string]any { return a.metrics.GetSnapshot() }

func (a *Adapter) OnReload(fn func()) {
	a.mu.Lock()
	a.reloadFns = append(a.reloadFns, fn)
	a.mu.Unlock()
}

var _ api.Control = (*Adapter)(nil)
