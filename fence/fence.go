// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package fence implements ownership-tracked sync fence file
// descriptors, as exchanged between a NativeWindow buffer queue and a
// GAPI driver during dequeue/queue/cancel and present operations.
//
// A Fence is an affine resource: exactly one of Wait, Dup, Close or
// Release may consume a given Fence value, and every other use after
// that point is a programming error rather than a runtime race - the
// kind of bug this package exists to make loud instead of a silently
// leaked or double-closed descriptor.
package fence

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrConsumed is returned (wrapped with the operation name) when a
// Fence is used after it has already been waited on, duplicated,
// closed or released.
var ErrConsumed = errors.New("fence: already consumed")

// NoFence is the distinguished Fence value meaning "no synchronization
// required": the associated resource is already safe to use.
var NoFence = Fence{fd: -1}

// Fence owns a single signal-only sync file descriptor, or owns
// nothing if it equals NoFence.
type Fence struct {
	fd       int
	consumed bool
}

// New takes ownership of fd, which must be a valid sync file
// descriptor, or -1 to construct NoFence.
func New(fd int) Fence {
	if fd < 0 {
		return NoFence
	}
	return Fence{fd: fd}
}

// Valid reports whether f owns a real descriptor.
func (f Fence) Valid() bool { return f.fd >= 0 && !f.consumed }

// FD returns the raw descriptor without transferring ownership. It is
// meant for passing the value to a driver call that merely inspects
// or imports it; callers must not close the result.
func (f Fence) FD() int { return f.fd }

// Dup returns a new Fence that owns an independent descriptor
// referring to the same underlying sync object, and marks f consumed.
// Calling Dup on NoFence returns NoFence again without consuming
// anything, since there is no descriptor to duplicate.
func (f *Fence) Dup() (Fence, error) {
	if f.fd < 0 {
		return NoFence, nil
	}
	if f.consumed {
		return Fence{}, errors.Wrap(ErrConsumed, "Dup")
	}
	nfd, err := unix.Dup(f.fd)
	if err != nil {
		return Fence{}, errors.Wrap(err, "fence: Dup")
	}
	f.consumed = true
	return Fence{fd: nfd}, nil
}

// Wait blocks until f's descriptor signals, then closes it. There is
// no timeout: a fence that never signals blocks its caller forever,
// matching the unbounded acquire/present waits this package backs.
// Waiting on NoFence returns immediately.
func (f *Fence) Wait() error {
	if f.fd < 0 {
		return nil
	}
	if f.consumed {
		return errors.Wrap(ErrConsumed, "Wait")
	}
	f.consumed = true
	defer unix.Close(f.fd)

	pfd := []unix.PollFd{{Fd: int32(f.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(pfd, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "fence: Wait")
		}
		if n > 0 && pfd[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			return errors.New("fence: Wait: descriptor error")
		}
		return nil
	}
}

// Close releases f's descriptor without waiting on it. Closing
// NoFence is a no-op.
func (f *Fence) Close() error {
	if f.fd < 0 {
		return nil
	}
	if f.consumed {
		return errors.Wrap(ErrConsumed, "Close")
	}
	f.consumed = true
	if err := unix.Close(f.fd); err != nil {
		return errors.Wrap(err, "fence: Close")
	}
	return nil
}

// Release consumes f without closing or waiting on its descriptor,
// handing raw ownership to the caller as a plain int (-1 for NoFence).
// It exists for the one legitimate escape hatch: passing the
// descriptor to a driver call that takes ownership on the other side
// of the GAPI boundary.
func (f *Fence) Release() (int, error) {
	if f.fd < 0 {
		return -1, nil
	}
	if f.consumed {
		return -1, errors.Wrap(ErrConsumed, "Release")
	}
	f.consumed = true
	return f.fd, nil
}
