// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package fence

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// pipeFD returns the read end of a pipe whose write end is already
// closed, so the read end is immediately readable (POLLIN) - a stand-in
// for an already-signaled sync fence, without depending on a real
// sync driver being present in the test environment.
func pipeFD(t *testing.T) int {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: unexpected error: %v", err)
	}
	w.Close()
	return int(r.Fd())
}

func TestNoFence(t *testing.T) {
	f := New(-1)
	if f.Valid() {
		t.Fatal("New(-1): Valid() should be false")
	}
	if err := f.Wait(); err != nil {
		t.Fatalf("Wait on NoFence: unexpected error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close on NoFence: unexpected error: %v", err)
	}
	dup, err := f.Dup()
	if err != nil {
		t.Fatalf("Dup on NoFence: unexpected error: %v", err)
	}
	if dup != NoFence {
		t.Fatalf("Dup on NoFence:\nhave %v\nwant %v", dup, NoFence)
	}
}

func TestWaitConsumes(t *testing.T) {
	f := New(pipeFD(t))
	if !f.Valid() {
		t.Fatal("Valid() should be true before Wait")
	}
	if err := f.Wait(); err != nil {
		t.Fatalf("Wait: unexpected error: %v", err)
	}
	if f.Valid() {
		t.Fatal("Valid() should be false after Wait")
	}
	if err := f.Wait(); err == nil {
		t.Fatal("second Wait: expected error, have nil")
	}
	if err := f.Close(); err == nil {
		t.Fatal("Close after Wait: expected error, have nil")
	}
}

func TestDupIndependentOwnership(t *testing.T) {
	fd := pipeFD(t)
	f := New(fd)
	dup, err := f.Dup()
	if err != nil {
		t.Fatalf("Dup: unexpected error: %v", err)
	}
	if f.Valid() {
		t.Fatal("Valid() should be false on the original after Dup")
	}
	if !dup.Valid() {
		t.Fatal("Valid() should be true on the duplicate")
	}
	if dup.FD() == fd {
		t.Fatal("Dup: expected a distinct descriptor number")
	}

	// The original's descriptor must still be open; Dup does not
	// close it, it only stops f from being usable again.
	if err := unix.Close(fd); err != nil {
		t.Fatalf("closing original fd directly: unexpected error: %v", err)
	}
	if err := dup.Close(); err != nil {
		t.Fatalf("Close on duplicate: unexpected error: %v", err)
	}
}

func TestRelease(t *testing.T) {
	fd := pipeFD(t)
	f := New(fd)
	got, err := f.Release()
	if err != nil {
		t.Fatalf("Release: unexpected error: %v", err)
	}
	if got != fd {
		t.Fatalf("Release:\nhave %d\nwant %d", got, fd)
	}
	if _, err := f.Release(); err == nil {
		t.Fatal("second Release: expected error, have nil")
	}
	unix.Close(fd)
}

func TestCloseDoubleClose(t *testing.T) {
	f := New(pipeFD(t))
	if err := f.Close(); err != nil {
		t.Fatalf("Close: unexpected error: %v", err)
	}
	if err := f.Close(); err == nil {
		t.Fatal("double Close: expected error, have nil")
	}
}
