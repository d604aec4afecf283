// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"log"

	"github.com/pkg/errors"

	"github.com/gviegas/vkwsi/driver"
	"github.com/gviegas/vkwsi/fence"
	"github.com/gviegas/vkwsi/handle"
	"github.com/gviegas/vkwsi/timing"
	"github.com/gviegas/vkwsi/transform"
	"github.com/gviegas/vkwsi/wsi"
)

// Extent2D is a two-dimensional image size, in pixels.
type Extent2D struct {
	Width, Height int
}

// CreateSwapchainInfo configures a new Swapchain.
type CreateSwapchainInfo struct {
	Surface       SurfaceHandle
	OldSwapchain  SwapchainHandle // zero Handle if there is none
	Format        driver.PixelFmt
	ColorSpace    int // opaque to the core; sRGB-nonlinear is the only supported value
	Extent        Extent2D
	MinImageCount int
	PreTransform  transform.Transform
	PresentMode   driver.PresentMode
	ImageUsage    driver.Usage
}

// ImageSlot is the per-buffer state of a Swapchain image.
type ImageSlot struct {
	gapiImage driver.Image
	buffer    *wsi.Buffer
	fence     fence.Fence // valid only while dequeued
	dequeued  bool
}

// Swapchain is a fixed-size set of presentable images rotated through
// acquire/render/present.
type Swapchain struct {
	handle  SwapchainHandle
	surface *Surface

	images []ImageSlot

	presentMode driver.PresentMode
	format      driver.PixelFmt
	usage       driver.Usage

	frameTimestampsEnabled bool
	minRefreshDuration     uint64
	maxRefreshDuration     uint64

	timing *timing.Ledger
}

// CreateSwapchain creates a new Swapchain over the given Surface,
// following the ten-step sequence of the original spec's §4.4: reset
// the window to a known state, configure format/extent/transform,
// size the buffer count from MIN_UNDEQUEUED_BUFFERS and present mode,
// resolve gralloc usage from the driver, then dequeue each buffer
// just long enough to create a GAPI image against it before handing
// it back to the window's free pool.
func CreateSwapchain(info CreateSwapchainInfo) (SwapchainHandle, error) {
	s, err := surfaceOf(info.Surface, "CreateSwapchain")
	if err != nil {
		return handle.Handle(0), err
	}

	// Step 1: old_swapchain must match the surface's current active
	// swapchain.
	if s.active != info.OldSwapchain {
		return handle.Handle(0), errors.Wrap(driver.ErrNativeWindowInUse, "swapchain: CreateSwapchain")
	}

	// Step 2: orphan the superseded swapchain before reconfiguring
	// the window it shares with the new one.
	if info.OldSwapchain != handle.Handle(0) {
		old, err := swapchains.Get(info.OldSwapchain)
		if err != nil {
			return handle.Handle(0), errors.Wrap(err, "swapchain: CreateSwapchain: old_swapchain")
		}
		orphan(old)
	}

	win := s.window

	// Step 3: reset the window to a known state.
	if err := resetWindow(win); err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}

	// Step 4: configure format, data space, dimensions, transform,
	// scaling mode.
	nativeTransform, err := transform.ToNative(info.PreTransform)
	if err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}
	if err := configureWindow(win, info, nativeTransform); err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}

	// Step 5: size the buffer count.
	minUndequeued, err := win.MinUndequeuedBuffers()
	if err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}
	if info.PresentMode == driver.PresentMailbox {
		minUndequeued++
	}
	numImages := (info.MinImageCount - 1) + minUndequeued
	if err := win.SetBufferCount(numImages); err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}

	// Step 6: front-buffered present modes.
	if info.PresentMode.FrontBuffered() {
		if err := win.SetSharedBufferMode(true); err != nil {
			return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
		}
		if info.PresentMode == driver.PresentFrontBufferedContinuousRefresh {
			if err := win.SetAutoRefresh(true); err != nil {
				return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
			}
		}
	}

	// Step 7: resolve and set gralloc usage.
	usage, err := s.dispatch.ResolveGrallocUsage(info.Format, info.ImageUsage)
	if err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}
	if err := win.SetUsage(int(usage)); err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}

	// Step 8: swap interval.
	interval := 1
	if info.PresentMode == driver.PresentMailbox {
		interval = 0
	}
	if err := win.SetSwapInterval(interval); err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}

	minRefresh, maxRefresh, err := win.GetRefreshCyclePeriod()
	if err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}

	// Step 9: dequeue each buffer and create a GAPI image against it.
	images := make([]ImageSlot, numImages)
	var createErr error
	created := 0
	for i := 0; i < numImages; i++ {
		buf, fd, err := win.DequeueBuffer()
		if err != nil {
			createErr = err
			break
		}
		images[i].buffer = buf
		images[i].fence = fence.New(fd)

		img, err := s.dispatch.CreateImage(driver.ImageCreateInfo{
			Format:       info.Format,
			Usage:        info.ImageUsage,
			Width:        buf.Width,
			Height:       buf.Height,
			Stride:       buf.Stride,
			NativeBuffer: buf.Handle,
		})
		if err != nil {
			createErr = err
			break
		}
		images[i].gapiImage = img
		created = i + 1
	}

	// Step 10: unconditionally cancel every dequeued buffer back to
	// the window, regardless of success or failure above.
	for i := 0; i < numImages && images[i].buffer != nil; i++ {
		fd, _ := images[i].fence.Release()
		if err := win.CancelBuffer(images[i].buffer, fd); err != nil {
			log.Printf("swapchain: CreateSwapchain: CancelBuffer: %v", err)
		}
	}

	if createErr != nil {
		for i := 0; i < created; i++ {
			s.dispatch.DestroyImage(images[i].gapiImage)
		}
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, createErr.Error())
	}

	sc := &Swapchain{
		surface:            s,
		images:             images,
		presentMode:        info.PresentMode,
		format:             info.Format,
		usage:              info.ImageUsage,
		minRefreshDuration: uint64(minRefresh),
		maxRefreshDuration: uint64(maxRefresh),
		timing:             timing.NewLedger(uint64(minRefresh)),
	}
	sc.handle = swapchains.New(sc)
	s.active = sc.handle
	return sc.handle, nil
}

// resetWindow puts win into the known state CreateSwapchain's step 3
// requires before reconfiguring it: a prior user may have left it in
// shared-buffer mode, with a non-default swap interval, or with
// buffers still counted - buffer count can only be set to zero while
// none are dequeued, which is guaranteed true immediately after an
// API reconnect.
func resetWindow(win wsi.NativeWindow) error {
	if err := win.APIDisconnect(wsi.APIEGL); err != nil {
		// Not being connected yet is expected on first use.
		_ = err
	}
	if err := win.APIConnect(wsi.APIEGL); err != nil {
		return errors.Wrap(err, "resetWindow: APIConnect")
	}
	if err := win.SetBufferCount(0); err != nil {
		return errors.Wrap(err, "resetWindow: SetBufferCount")
	}
	if err := win.SetSwapInterval(1); err != nil {
		return errors.Wrap(err, "resetWindow: SetSwapInterval")
	}
	if err := win.SetSharedBufferMode(false); err != nil {
		return errors.Wrap(err, "resetWindow: SetSharedBufferMode")
	}
	if err := win.SetAutoRefresh(false); err != nil {
		return errors.Wrap(err, "resetWindow: SetAutoRefresh")
	}
	return nil
}

// configureWindow applies the format/dimensions/transform/scaling
// configuration of CreateSwapchain's step 4.
func configureWindow(win wsi.NativeWindow, info CreateSwapchainInfo, nativeTransform wsi.Transform) error {
	if err := win.SetBuffersFormat(int(info.Format.Native())); err != nil {
		return errors.Wrap(err, "configureWindow: SetBuffersFormat")
	}
	const dataSpaceSRGBLinear = 0
	if err := win.SetBuffersDataSpace(dataSpaceSRGBLinear); err != nil {
		return errors.Wrap(err, "configureWindow: SetBuffersDataSpace")
	}
	if err := win.SetBuffersDimensions(info.Extent.Width, info.Extent.Height); err != nil {
		return errors.Wrap(err, "configureWindow: SetBuffersDimensions")
	}
	if err := win.SetBuffersTransform(nativeTransform); err != nil {
		return errors.Wrap(err, "configureWindow: SetBuffersTransform")
	}
	if err := win.SetScalingMode(wsi.ScaleToWindow); err != nil {
		return errors.Wrap(err, "configureWindow: SetScalingMode")
	}
	return nil
}

// DestroySwapchain releases every image slot of the swapchain
// identified by h and frees the swapchain object.
func DestroySwapchain(h SwapchainHandle) error {
	sc, err := swapchains.Get(h)
	if err != nil {
		return errors.Wrap(err, "swapchain: DestroySwapchain")
	}
	active := sc.surface.isActive(h)

	if sc.frameTimestampsEnabled {
		if err := sc.surface.window.EnableFrameTimestamps(false); err != nil {
			log.Printf("swapchain: DestroySwapchain: EnableFrameTimestamps(false): %v", err)
		}
	}

	var win wsi.NativeWindow
	if active {
		win = sc.surface.window
	}
	for i := range sc.images {
		releaseSlot(sc.surface.dispatch, win, fence.NoFence, &sc.images[i])
	}

	if active {
		sc.surface.active = handle.Handle(0)
	}
	return swapchains.Delete(h)
}

// orphan marks sc inactive on its surface, releasing every
// non-dequeued slot without a window (the buffers simply return to
// the NativeWindow's free pool on their own) and clearing its timing
// ledger. It is a no-op if sc is already orphaned.
func orphan(sc *Swapchain) {
	if !sc.surface.isActive(sc.handle) {
		return
	}
	for i := range sc.images {
		if !sc.images[i].dequeued {
			releaseSlot(sc.surface.dispatch, nil, fence.NoFence, &sc.images[i])
		}
	}
	sc.surface.active = handle.Handle(0)
	sc.timing.Clear()
}

// releaseSlot releases a single ImageSlot's resources, following the
// rules of the original spec's §4.5.
//
// If releaseFence is valid, it represents a fresh fence produced for
// this release (e.g. by QueueSignalRelease); the slot's own dequeue
// fence is then redundant and is simply closed. If releaseFence is
// NoFence, the slot's own dequeue fence is used in its place - this
// is the path taken during destruction or error handling, where no
// fresh fence is available.
func releaseSlot(dispatch *driver.Dispatch, win wsi.NativeWindow, releaseFence fence.Fence, slot *ImageSlot) {
	if slot.dequeued {
		if releaseFence.Valid() {
			if err := slot.fence.Close(); err != nil {
				log.Printf("swapchain: releaseSlot: Close: %v", err)
			}
		} else {
			releaseFence = slot.fence
		}
		slot.fence = fence.NoFence

		if win != nil {
			fd, _ := releaseFence.Release()
			if err := win.CancelBuffer(slot.buffer, fd); err != nil {
				log.Printf("swapchain: releaseSlot: CancelBuffer: %v", err)
			}
		} else if releaseFence.Valid() {
			if err := releaseFence.Wait(); err != nil {
				log.Printf("swapchain: releaseSlot: Wait: %v", err)
			}
		}
		slot.dequeued = false
	}

	if slot.gapiImage != driver.NoImage {
		dispatch.DestroyImage(slot.gapiImage)
		slot.gapiImage = driver.NoImage
	}
	slot.buffer = nil
}
