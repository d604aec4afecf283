// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wsi defines the NativeWindow contract: the producer/consumer
// buffer queue that a window system exposes to a graphics client.
// It is the downward interface the swapchain core drives - dequeueing,
// queueing and cancelling buffers, and configuring the queue's format,
// transform and timing behavior. Package wsi does not talk to any real
// windowing system; concrete NativeWindow implementations (e.g. an
// Android ANativeWindow binding, or the Mock type in this package used
// for tests) are supplied by the caller.
package wsi

import "errors"

// ErrUnsupported means that the NativeWindow implementation does not
// support the requested query or configuration.
var ErrUnsupported = errors.New("wsi: unsupported operation")

// Transform is a mask of native buffer transforms.
// Unlike the GAPI transform algebra (mirror composed with rotation),
// native transforms compose a horizontal flip, a vertical flip and a
// 90-degree rotation, always applied in that order.
type Transform int

// Native transforms.
const (
	TransformFlipH Transform = 1 << iota
	TransformFlipV
	TransformRot90

	TransformIdentity       Transform = 0
	TransformRot180         Transform = TransformFlipH | TransformFlipV
	TransformRot270         Transform = TransformFlipH | TransformFlipV | TransformRot90
	TransformInverseDisplay Transform = 1 << 6
)

// ScalingMode selects how buffer contents are scaled to the window.
type ScalingMode int

// Scaling modes.
const (
	ScaleToWindow ScalingMode = iota
	ScaleCrop
	ScaleNone
)

// Buffer identifies a native buffer owned by a NativeWindow's free pool
// or dequeued by a client.
// Handle is the gralloc-equivalent identity the GAPI driver needs to
// bind a presentable image to this buffer; it is only meaningful to
// the NativeWindow implementation and the driver, never interpreted
// by the core.
type Buffer struct {
	Handle any
	Width  int
	Height int
	Stride int
	Format int
	Usage  int
}

// FrameTimestamps holds the subset of compositor-reported timestamps
// the present-timing ledger correlates against. A zero field means
// the compositor has not reported that timestamp.
type FrameTimestamps struct {
	DesiredPresentTime   int64
	ActualPresentTime    int64
	RenderCompleteTime   int64
	CompositionLatchTime int64
}

// NativeWindow is the interface that a producer/consumer buffer queue
// must implement to back a Surface.
// Implementations need not be safe for concurrent use; the core never
// calls a NativeWindow method from more than one goroutine at a time
// for a given instance (see the package-level concurrency note in
// package swapchain).
type NativeWindow interface {
	// APIConnect binds this window to a single producer API. A window
	// may only be connected to one API at a time.
	APIConnect(api API) error

	// APIDisconnect releases the binding established by APIConnect.
	APIDisconnect(api API) error

	// MinUndequeuedBuffers returns the minimum number of buffers that
	// must remain undequeued for the queue to function correctly.
	MinUndequeuedBuffers() (int, error)

	// SetSwapInterval sets the number of frames the compositor waits
	// before processing the next QueueBuffer call.
	SetSwapInterval(interval int) error

	// SetBufferCount sets the total number of buffer slots. A count
	// of zero is the only state in which every slot is free to dequeue.
	SetBufferCount(count int) error

	// SetBuffersFormat sets the pixel format of future dequeues.
	SetBuffersFormat(format int) error

	// SetBuffersDataSpace sets the color encoding of future dequeues.
	SetBuffersDataSpace(dataSpace int) error

	// SetBuffersDimensions sets the width and height of future dequeues.
	SetBuffersDimensions(width, height int) error

	// SetBuffersTransform sets the native transform applied by the
	// compositor to cancel out the producer's pre-transform.
	SetBuffersTransform(t Transform) error

	// SetScalingMode sets how buffer contents are fit to the window.
	SetScalingMode(mode ScalingMode) error

	// SetUsage sets the gralloc usage flags of future dequeues.
	SetUsage(usage int) error

	// SetSharedBufferMode toggles front-buffer sharing, where a single
	// buffer is handed back to the producer immediately after queueing.
	SetSharedBufferMode(enabled bool) error

	// SetAutoRefresh toggles continuous recomposition of the shared
	// buffer without further QueueBuffer calls. Only meaningful while
	// shared-buffer mode is enabled.
	SetAutoRefresh(enabled bool) error

	// DequeueBuffer removes a buffer from the free pool, returning it
	// together with a fence descriptor (or -1) that signals when the
	// buffer's previous contents are safe to overwrite. The caller
	// takes ownership of the fence.
	DequeueBuffer() (*Buffer, int, error)

	// QueueBuffer submits buf for composition. It always takes
	// ownership of fence, even on error.
	QueueBuffer(buf *Buffer, fence int) error

	// CancelBuffer returns buf to the free pool without presenting it.
	// It always takes ownership of fence, even on error.
	CancelBuffer(buf *Buffer, fence int) error

	// SetSurfaceDamage hints which regions of the next queued buffer
	// changed since the previous one, in the window's bottom-left
	// {left, top, right, bottom} convention. A nil slice clears the hint.
	SetSurfaceDamage(rects []Rect) error

	// SetBuffersTimestamp stamps the next queued buffer with the time
	// the producer intends it to be presented.
	SetBuffersTimestamp(t int64) error

	// EnableFrameTimestamps toggles compositor-side timestamp
	// collection; passing false turns it off again.
	EnableFrameTimestamps(enabled bool) error

	// GetRefreshCyclePeriod returns the bounds of the display's
	// refresh cycle duration, in nanoseconds.
	GetRefreshCyclePeriod() (min, max int64, err error)

	// GetFrameTimestamps returns the compositor timestamps recorded
	// framesAgo frames in the past. It returns an error if no frame
	// exists that far back or timestamp collection was never enabled.
	GetFrameTimestamps(framesAgo int) (FrameTimestamps, error)
}

// API identifies the producer API connected to a NativeWindow.
type API int

// Producer APIs.
const (
	APIEGL API = iota
)

// Rect is an axis-aligned rectangle in the window's bottom-left
// {left, top, right, bottom} coordinate convention.
type Rect struct {
	Left, Top, Right, Bottom int
}
