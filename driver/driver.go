// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines the downward interfaces the core requires
// from a GAPI driver: the entry points used to bind GAPI images to
// native buffers, the allocator capability used for any host
// allocations the core needs, and the error taxonomy driver calls and
// the core itself report through.
//
// The core never loads or dispatches a driver on its own; a Dispatch
// value is handed to it already populated with live function
// pointers, the way a loader or an instance-level dispatch table
// would be constructed upstream of this package.
package driver

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may hold external resources
// that are not managed by GC, so Destroy must be called explicitly.
type Destroyer interface {
	Destroy()
}

// Image is an opaque GAPI image handle, as produced by
// Dispatch.CreateImage and consumed by Dispatch.DestroyImage.
// The core never inspects an Image beyond passing it back to the
// driver that created it.
type Image uint64

// NoImage is the distinguished Image value meaning "no image bound".
const NoImage Image = 0

// ImageCreateInfo carries the native buffer identity a chained
// image-create call needs to bind a GAPI image to a NativeWindow
// buffer.
type ImageCreateInfo struct {
	Format PixelFmt
	Usage  Usage
	Width  int
	Height int
	Stride int
	// NativeBuffer is the gralloc-equivalent handle of the buffer
	// this image must be bound to, as obtained from wsi.Buffer.Handle.
	NativeBuffer any
}

// GrallocUsage is a mask of buffer-allocation usage flags a driver
// requests from the NativeWindow.
type GrallocUsage int

// Default gralloc usage, used when neither gralloc-usage query entry
// point is available on the Dispatch.
const (
	HWRender  GrallocUsage = 1 << 0
	HWTexture GrallocUsage = 1 << 1

	DefaultGrallocUsage = HWRender | HWTexture
)

// Dispatch holds the driver entry points the core calls to bind and
// release GAPI images against NativeWindow buffers, and to produce
// and consume the fences that cross the acquire/present boundary.
//
// Exactly one of GetGrallocUsage2 or GetGrallocUsage should be set;
// if neither is set, the core uses DefaultGrallocUsage.
type Dispatch struct {
	// CreateImage creates a GAPI image bound to the native buffer
	// described by info.
	CreateImage func(info ImageCreateInfo) (Image, error)

	// DestroyImage destroys a GAPI image created by CreateImage.
	// Destroying NoImage is a no-op.
	DestroyImage func(img Image)

	// AcquireImage signals img ready for GPU use once fence (−1 if
	// none) has signaled, fulfilling sem and/or fence (whichever the
	// caller supplied). It always consumes fence, on success or
	// failure.
	AcquireImage func(img Image, fence int, sem, waitFence any) error

	// QueueSignalRelease schedules a GPU-side wait for the rendering
	// that targets img to finish, then returns a fence that signals
	// once it has. The caller owns the returned fence.
	QueueSignalRelease func(img Image) (int, error)

	// GetGrallocUsage2 and GetGrallocUsage report the buffer usage
	// flags a driver needs for images of the given format/usage,
	// preferring the v2 entry point when both are present.
	GetGrallocUsage2 func(format PixelFmt, usage Usage) (GrallocUsage, error)
	GetGrallocUsage  func(format PixelFmt) (GrallocUsage, error)
}

// ResolveGrallocUsage returns the usage flags to configure on the
// NativeWindow for images of the given format and usage, preferring
// GetGrallocUsage2 over GetGrallocUsage over DefaultGrallocUsage.
func (d *Dispatch) ResolveGrallocUsage(format PixelFmt, usage Usage) (GrallocUsage, error) {
	switch {
	case d.GetGrallocUsage2 != nil:
		return d.GetGrallocUsage2(format, usage)
	case d.GetGrallocUsage != nil:
		return d.GetGrallocUsage(format)
	default:
		return DefaultGrallocUsage, nil
	}
}

// Allocator is the host-allocation capability the core receives from
// its caller, mirroring the VkAllocationCallbacks triple.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Realloc(p []byte, size int) ([]byte, error)
	Free(p []byte)
}
