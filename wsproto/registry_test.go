// File: wsproto/registry_test.go
// Author: momentics <momentics@gmail.com>

package wsproto

import (
	"testing"
)

type nopHandler struct{}

func (nopHandler) Handle(data any) error { return nil }

func TestNewRegistryIsNeverNil(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if _, ok := r.ChooseOffered([]string{"chat"}); ok {
		t.Fatal("empty registry should offer nothing")
	}
}

func TestRegistryAddIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	if !r.Add(NewChat("Chat", nopHandler{})) {
		t.Fatal("first Add should succeed")
	}
	if r.Add(NewChat("CHAT", nopHandler{})) {
		t.Fatal("second Add with differing case should fail as a duplicate")
	}
	if r.CloneByName("cHaT") == nil {
		t.Fatal("CloneByName should be case-insensitive")
	}
}

func TestRegistryCloneByNameReturnsIndependentInstances(t *testing.T) {
	r := NewRegistry()
	r.Add(NewChat("chat", nopHandler{}))

	a := r.CloneByName("chat")
	b := r.CloneByName("chat")
	if a == nil || b == nil {
		t.Fatal("expected two clones")
	}
	if a == b {
		t.Fatal("clones must be distinct instances")
	}
}

func TestRegistryCloneByNameMissingReturnsNil(t *testing.T) {
	r := NewRegistry()
	if r.CloneByName("missing") != nil {
		t.Fatal("want nil for unregistered name")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Add(NewChat("chat", nopHandler{}))
	if !r.Remove("CHAT") {
		t.Fatal("Remove should be case-insensitive and succeed")
	}
	if r.Remove("chat") {
		t.Fatal("second Remove of the same name should fail")
	}
	if r.CloneByName("chat") != nil {
		t.Fatal("removed protocol should no longer clone")
	}
}

func TestRegistryChooseOfferedPicksFirstMatch(t *testing.T) {
	r := NewRegistry()
	r.Add(NewChat("synopsejson", nopHandler{}))
	r.Add(NewChat("synopsebinary", nopHandler{}))

	name, ok := r.ChooseOffered([]string{"unknown", "SynopseBinary", "synopsejson"})
	if !ok {
		t.Fatal("want a match")
	}
	if name != "SynopseBinary" {
		t.Fatalf("want first matching offered token preserved verbatim, got %q", name)
	}
}

func TestRegistryChooseOfferedNoMatch(t *testing.T) {
	r := NewRegistry()
	r.Add(NewChat("chat", nopHandler{}))
	if _, ok := r.ChooseOffered([]string{"other"}); ok {
		t.Fatal("want no match")
	}
}
