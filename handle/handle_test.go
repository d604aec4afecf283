// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package handle

import "testing"

func TestNewGet(t *testing.T) {
	tb := NewTable[string]()
	h := tb.New("a")
	have, err := tb.Get(h)
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if have != "a" {
		t.Fatalf("Get:\nhave %q\nwant %q", have, "a")
	}
}

func TestInvalidHandle(t *testing.T) {
	tb := NewTable[int]()
	if _, err := tb.Get(Handle(12345)); err != ErrInvalid {
		have, want := err, ErrInvalid
		t.Fatalf("Get(unknown):\nhave %v\nwant %v", have, want)
	}
}

func TestStaleAfterDelete(t *testing.T) {
	tb := NewTable[int]()
	h := tb.New(1)
	if err := tb.Delete(h); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if _, err := tb.Get(h); err != ErrStale {
		have, want := err, ErrStale
		t.Fatalf("Get(deleted):\nhave %v\nwant %v", have, want)
	}
	if err := tb.Delete(h); err != ErrStale {
		have, want := err, ErrStale
		t.Fatalf("double Delete:\nhave %v\nwant %v", have, want)
	}
}

func TestSlotReuseDoesNotAliasStaleHandle(t *testing.T) {
	tb := NewTable[string]()
	h1 := tb.New("first")
	if err := tb.Delete(h1); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	h2 := tb.New("second")

	if h1.index() != h2.index() {
		t.Fatalf("expected slot reuse: h1 index %d, h2 index %d", h1.index(), h2.index())
	}
	if h1 == h2 {
		t.Fatal("expected distinct handles despite slot reuse")
	}
	if _, err := tb.Get(h1); err != ErrStale {
		have, want := err, ErrStale
		t.Fatalf("Get(h1) after reuse:\nhave %v\nwant %v", have, want)
	}
	have, err := tb.Get(h2)
	if err != nil {
		t.Fatalf("Get(h2): unexpected error: %v", err)
	}
	if have != "second" {
		t.Fatalf("Get(h2):\nhave %q\nwant %q", have, "second")
	}
}

func TestSetAndLen(t *testing.T) {
	tb := NewTable[int]()
	h1 := tb.New(1)
	h2 := tb.New(2)
	if have, want := tb.Len(), 2; have != want {
		t.Fatalf("Len:\nhave %d\nwant %d", have, want)
	}
	if err := tb.Set(h1, 100); err != nil {
		t.Fatalf("Set: unexpected error: %v", err)
	}
	have, err := tb.Get(h1)
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if have != 100 {
		t.Fatalf("Get after Set:\nhave %d\nwant %d", have, 100)
	}
	if err := tb.Delete(h2); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if have, want := tb.Len(), 1; have != want {
		t.Fatalf("Len after Delete:\nhave %d\nwant %d", have, want)
	}
}
