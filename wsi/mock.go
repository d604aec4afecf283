// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import "errors"

// ErrNotDequeued means that the buffer given to QueueBuffer or
// CancelBuffer was not the product of a prior DequeueBuffer call.
var ErrNotDequeued = errors.New("wsi: buffer was not dequeued")

// ErrAPIConnected means that APIConnect was called on a window that
// is already connected to a producer API.
var ErrAPIConnected = errors.New("wsi: already connected to an API")

// ErrAPINotConnected means that APIDisconnect was called on a window
// with no connected API, or with an API other than the connected one.
var ErrAPINotConnected = errors.New("wsi: not connected to an API")

// Mock is an in-memory NativeWindow used in tests and by callers that
// need a buffer queue without a real compositor behind it.
// It never blocks: DequeueBuffer always succeeds as long as at least
// one of BufferCount slots is not currently dequeued.
type Mock struct {
	api       API
	connected bool

	width, height int
	format        int
	dataSpace     int
	usage         int
	transform     Transform
	scaling       ScalingMode

	bufferCount int
	dequeued    map[*Buffer]bool
	freeCount   int
	free        []*Buffer

	sharedBuffer bool
	autoRefresh  bool

	swapInterval int
	damage       []Rect
	timestamp    int64

	timestampsEnabled bool
	frames            []FrameTimestamps

	minUndequeued int

	// QueueLog records every buffer submitted through QueueBuffer, in
	// order, for tests that need to inspect presentation history.
	QueueLog []*Buffer
}

// NewMock returns a Mock window with bufferCount slots, all initially
// free, and the given minimum-undequeued-buffers figure.
func NewMock(bufferCount, minUndequeued int) *Mock {
	return &Mock{
		bufferCount:   bufferCount,
		freeCount:     bufferCount,
		minUndequeued: minUndequeued,
		dequeued:      make(map[*Buffer]bool),
	}
}

// Transform returns the transform last set via SetBuffersTransform, for
// tests that need to assert on it.
func (m *Mock) Transform() Transform { return m.transform }

// PushFrameTimestamps appends a compositor timestamp record, as if a
// frame had just completed presentation. Index 0 of GetFrameTimestamps
// addresses the most recently pushed record.
func (m *Mock) PushFrameTimestamps(ts FrameTimestamps) {
	m.frames = append(m.frames, ts)
}

func (m *Mock) APIConnect(api API) error {
	if m.connected {
		return ErrAPIConnected
	}
	m.api = api
	m.connected = true
	return nil
}

func (m *Mock) APIDisconnect(api API) error {
	if !m.connected || m.api != api {
		return ErrAPINotConnected
	}
	m.connected = false
	return nil
}

func (m *Mock) MinUndequeuedBuffers() (int, error) { return m.minUndequeued, nil }

func (m *Mock) SetSwapInterval(interval int) error {
	m.swapInterval = interval
	return nil
}

func (m *Mock) SetBufferCount(count int) error {
	if count != 0 && len(m.dequeued) > 0 {
		return errors.New("wsi: cannot resize buffer count with buffers dequeued")
	}
	m.bufferCount = count
	m.freeCount = count
	m.free = nil
	return nil
}

func (m *Mock) SetBuffersFormat(format int) error {
	m.format = format
	return nil
}

func (m *Mock) SetBuffersDataSpace(dataSpace int) error {
	m.dataSpace = dataSpace
	return nil
}

func (m *Mock) SetBuffersDimensions(width, height int) error {
	m.width, m.height = width, height
	return nil
}

func (m *Mock) SetBuffersTransform(t Transform) error {
	m.transform = t
	return nil
}

func (m *Mock) SetScalingMode(mode ScalingMode) error {
	m.scaling = mode
	return nil
}

func (m *Mock) SetUsage(usage int) error {
	m.usage = usage
	return nil
}

func (m *Mock) SetSharedBufferMode(enabled bool) error {
	m.sharedBuffer = enabled
	if !enabled {
		m.autoRefresh = false
	}
	return nil
}

func (m *Mock) SetAutoRefresh(enabled bool) error {
	if enabled && !m.sharedBuffer {
		return ErrUnsupported
	}
	m.autoRefresh = enabled
	return nil
}

// DequeueBuffer hands out a buffer that an earlier QueueBuffer or
// CancelBuffer returned to the pool when there is one, and allocates a
// new one otherwise.
func (m *Mock) DequeueBuffer() (*Buffer, int, error) {
	if m.freeCount <= 0 {
		return nil, -1, errors.New("wsi: no free buffers")
	}
	m.freeCount--
	var b *Buffer
	if n := len(m.free); n > 0 {
		b = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		b = &Buffer{
			Width:  m.width,
			Height: m.height,
			Format: m.format,
			Usage:  m.usage,
			Stride: m.width,
		}
	}
	m.dequeued[b] = true
	return b, -1, nil
}

func (m *Mock) QueueBuffer(buf *Buffer, fence int) error {
	closeMockFence(fence)
	if !m.dequeued[buf] {
		return ErrNotDequeued
	}
	delete(m.dequeued, buf)
	m.freeCount++
	m.free = append(m.free, buf)
	m.QueueLog = append(m.QueueLog, buf)
	return nil
}

func (m *Mock) CancelBuffer(buf *Buffer, fence int) error {
	closeMockFence(fence)
	if !m.dequeued[buf] {
		return ErrNotDequeued
	}
	delete(m.dequeued, buf)
	m.freeCount++
	m.free = append(m.free, buf)
	return nil
}

func (m *Mock) SetSurfaceDamage(rects []Rect) error {
	m.damage = rects
	return nil
}

func (m *Mock) SetBuffersTimestamp(t int64) error {
	m.timestamp = t
	return nil
}

func (m *Mock) EnableFrameTimestamps(enabled bool) error {
	m.timestampsEnabled = enabled
	return nil
}

func (m *Mock) GetRefreshCyclePeriod() (min, max int64, err error) {
	const period = 16666667 // ~60Hz, in nanoseconds
	return period, period, nil
}

func (m *Mock) GetFrameTimestamps(framesAgo int) (FrameTimestamps, error) {
	if !m.timestampsEnabled {
		return FrameTimestamps{}, ErrUnsupported
	}
	i := len(m.frames) - 1 - framesAgo
	if i < 0 {
		return FrameTimestamps{}, errors.New("wsi: no frame at the requested offset")
	}
	return m.frames[i], nil
}

// closeMockFence is a no-op placeholder for the fence-closing behavior
// a real NativeWindow performs on the fences it receives from
// QueueBuffer and CancelBuffer; Mock has no real fence descriptors to
// close.
func closeMockFence(fence int) {}
