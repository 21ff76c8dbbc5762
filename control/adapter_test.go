// File: control/adapter_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"errors"
	"testing"
)

func TestAdapterGetConfigReflectsAccessor(t *testing.T) {
	cfg := map[string]any{"compressed": true}
	a := NewAdapter(NewMetricsRegistry(), func() map[string]any { return cfg }, func(map[string]any) error { return nil })

	got := a.GetConfig()
	if got["compressed"] != true {
		t.Fatalf("unexpected config snapshot: %v", got)
	}
}

func TestAdapterSetConfigFiresReloadCallbacksOnSuccess(t *testing.T) {
	var applied map[string]any
	a := NewAdapter(NewMetricsRegistry(), func() map[string]any { return applied },
		func(cfg map[string]any) error { applied = cfg; return nil })

	fired := 0
	a.OnReload(func() { fired++ })
	a.OnReload(func() { fired++ })

	if err := a.SetConfig(map[string]any{"compressed": false}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if fired != 2 {
		t.Fatalf("want both reload callbacks fired, got %d", fired)
	}
	if applied["compressed"] != false {
		t.Fatalf("unexpected applied config: %v", applied)
	}
}

func TestAdapterSetConfigSkipsReloadOnFailure(t *testing.T) {
	wantErr := errors.New("rejected")
	a := NewAdapter(NewMetricsRegistry(), func() map[string]any { return nil },
		func(map[string]any) error { return wantErr })

	fired := false
	a.OnReload(func() { fired = true })

	if err := a.SetConfig(map[string]any{}); err != wantErr {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
	if fired {
		t.Fatal("reload callback should not fire when SetConfig fails")
	}
}

func TestAdapterStatsDelegatesToMetrics(t *testing.T) {
	m := NewMetricsRegistry()
	m.Set("frames_total", int64(7))
	a := NewAdapter(m, func() map[string]any { return nil }, func(map[string]any) error { return nil })

	stats := a.Stats()
	if stats["frames_total"] != int64(7) {
		t.Fatalf("unexpected stats: %v", stats)
	}
}
