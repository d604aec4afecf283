// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"log"

	"github.com/pkg/errors"

	"github.com/gviegas/vkwsi/driver"
	"github.com/gviegas/vkwsi/fence"
	"github.com/gviegas/vkwsi/timing"
	"github.com/gviegas/vkwsi/wsi"
)

// GetSwapchainImages copies up to len(dst) image handles into dst and
// returns the total number of images in the swapchain. If dst is
// shorter than that total, it also returns driver.ErrIncomplete,
// having still filled as much of dst as fit.
func GetSwapchainImages(h SwapchainHandle, dst []driver.Image) (int, error) {
	sc, err := swapchains.Get(h)
	if err != nil {
		return 0, errors.Wrap(err, "swapchain: GetSwapchainImages")
	}
	n := copy(dst, imagesOf(sc))
	if n < len(sc.images) {
		return len(sc.images), errors.Wrap(driver.ErrIncomplete, "swapchain: GetSwapchainImages")
	}
	return len(sc.images), nil
}

func imagesOf(sc *Swapchain) []driver.Image {
	out := make([]driver.Image, len(sc.images))
	for i := range sc.images {
		out[i] = sc.images[i].gapiImage
	}
	return out
}

// AcquireSemaphore and AcquireFence are the application-supplied
// synchronization objects AcquireNextImage signals, opaque to the
// core. At least one should be non-nil; neither is interpreted here,
// they are only forwarded to driver.Dispatch.AcquireImage.
type AcquireSemaphore = any
type AcquireFence = any

// AcquireNextImage acquires the next image available for rendering
// from the swapchain identified by h.
//
// There is no timeout parameter: the original spec's non-goals
// exclude non-infinite acquire timeouts, so the only supported wait
// is the infinite one, made explicit by omitting the parameter
// rather than accepting and ignoring it.
func AcquireNextImage(h SwapchainHandle, sem AcquireSemaphore, waitFence AcquireFence) (int, error) {
	sc, err := swapchains.Get(h)
	if err != nil {
		return -1, errors.Wrap(err, "swapchain: AcquireNextImage")
	}
	if !sc.surface.isActive(h) {
		return -1, errors.Wrap(driver.ErrOutOfDate, "swapchain: AcquireNextImage")
	}

	win := sc.surface.window
	buf, fd, err := win.DequeueBuffer()
	if err != nil {
		return -1, errors.Wrap(err, "swapchain: AcquireNextImage: DequeueBuffer")
	}
	nativeFence := fence.New(fd)

	index := -1
	for i := range sc.images {
		if sc.images[i].buffer == buf {
			index = i
			break
		}
	}
	if index < 0 {
		nfd, _ := nativeFence.Release()
		if err := win.CancelBuffer(buf, nfd); err != nil {
			log.Printf("swapchain: AcquireNextImage: CancelBuffer: %v", err)
		}
		return -1, errors.Wrap(driver.ErrOutOfDate, "swapchain: AcquireNextImage: unrecognized buffer")
	}

	// The duplicate crosses the driver boundary; the original
	// descriptor is retained for the slot. If duplication fails, the
	// fallback is to wait on (and close) the original synchronously,
	// passing no fence to the driver at all - ownership still ends up
	// fully accounted for either way.
	driverFD := -1
	keep := fence.NoFence
	dup, dupErr := nativeFence.Dup()
	if dupErr != nil {
		if werr := nativeFence.Wait(); werr != nil {
			log.Printf("swapchain: AcquireNextImage: Wait fallback: %v", werr)
		}
		keep = fence.NoFence
	} else {
		driverFD, _ = dup.Release()
		keep = fence.New(nativeFence.FD())
	}

	acquireErr := sc.surface.dispatch.AcquireImage(sc.images[index].gapiImage, driverFD, sem, waitFence)
	if acquireErr != nil {
		kfd, _ := keep.Release()
		if err := win.CancelBuffer(buf, kfd); err != nil {
			log.Printf("swapchain: AcquireNextImage: CancelBuffer after driver failure: %v", err)
		}
		return -1, errors.Wrap(acquireErr, "swapchain: AcquireNextImage: AcquireImage")
	}

	sc.images[index].dequeued = true
	sc.images[index].fence = keep
	return index, nil
}

// PresentInfo identifies one swapchain/image pair to present, with
// its optional damage and timing hints.
type PresentInfo struct {
	Swapchain SwapchainHandle
	ImageIdx  int

	// Damage is an optional list of GAPI-space (top-left, width/height)
	// rectangles that changed since the last present of this image.
	// A layer field of 0 is the only one accepted; entries with a
	// nonzero layer are dropped with a log.
	Damage []DamageRect

	// PresentID and DesiredPresentTime are optional timing hints; a
	// zero PresentID means no timing info was supplied for this
	// present.
	PresentID          uint64
	DesiredPresentTime uint64
}

// DamageRect is a GAPI-space damage rectangle, in the top-left
// (x, y, width, height) convention.
type DamageRect struct {
	X, Y, Width, Height int
	Layer               int
}

// toNativeRect remaps a GAPI top-left rectangle to the NativeWindow's
// bottom-left {left, top, right, bottom} convention.
func toNativeRect(r DamageRect) wsi.Rect {
	return wsi.Rect{
		Left:   r.X,
		Top:    r.Y + r.Height,
		Right:  r.X + r.Width,
		Bottom: r.Y,
	}
}

// QueuePresent presents the images named by infos, aggregating their
// individual results with driver.WorstPresentResult. results, if
// non-nil, must have the same length as infos and receives each
// pair's individual outcome.
func QueuePresent(infos []PresentInfo, results []error) error {
	perSwapchain := make([]driver.Result, len(infos))

	for i, info := range infos {
		err := presentOne(info)
		perSwapchain[i] = driver.ResultOf(err)
		if results != nil {
			results[i] = err
		}
	}

	worst := driver.WorstPresentResult(perSwapchain...)
	if worst == driver.ResultSuccess {
		return nil
	}
	return driver.NewError(worst, "swapchain: QueuePresent")
}

func presentOne(info PresentInfo) error {
	sc, err := swapchains.Get(info.Swapchain)
	if err != nil {
		return errors.Wrap(err, "swapchain: QueuePresent")
	}
	slot := &sc.images[info.ImageIdx]

	// Step 1: ask the driver for a release fence. A failure here is
	// recorded but does not stop the rest of the present path for
	// this pair - the swapchain still needs to be released/orphaned.
	releaseFD, releaseErr := sc.surface.dispatch.QueueSignalRelease(slot.gapiImage)
	releaseFence := fence.New(releaseFD)

	stepErr := releaseErr
	if releaseErr == nil && sc.surface.isActive(info.Swapchain) {
		stepErr = presentActive(sc, slot, info, &releaseFence)
	}

	wasActive := sc.surface.isActive(info.Swapchain)
	if !wasActive || stepErr != nil {
		win := sc.surface.window
		if !wasActive {
			win = nil
		}
		releaseSlot(sc.surface.dispatch, win, releaseFence, slot)
		if wasActive {
			orphan(sc)
		}
	}

	if !wasActive {
		return errors.Wrap(driver.ErrOutOfDate, "swapchain: QueuePresent: swapchain superseded")
	}
	if stepErr != nil {
		return errors.Wrap(driver.ErrOutOfDate, stepErr.Error())
	}
	return releaseErr
}

// presentActive runs step 2 of the original spec's §4.7 for a
// swapchain still active on its surface: damage/timing hints, then
// queueBuffer.
func presentActive(sc *Swapchain, slot *ImageSlot, info PresentInfo, releaseFence *fence.Fence) error {
	win := sc.surface.window

	if len(info.Damage) > 0 {
		rects := make([]wsi.Rect, 0, len(info.Damage))
		for _, d := range info.Damage {
			if d.Layer != 0 {
				log.Printf("swapchain: QueuePresent: dropping damage rect with layer %d", d.Layer)
				continue
			}
			rects = append(rects, toNativeRect(d))
		}
		if err := win.SetSurfaceDamage(rects); err != nil {
			log.Printf("swapchain: QueuePresent: SetSurfaceDamage: %v", err)
		}
	}

	if info.PresentID != 0 {
		if !sc.frameTimestampsEnabled {
			if err := win.EnableFrameTimestamps(true); err != nil {
				log.Printf("swapchain: QueuePresent: EnableFrameTimestamps: %v", err)
			} else {
				sc.frameTimestampsEnabled = true
			}
		}
		sc.timing.Record(info.PresentID, info.DesiredPresentTime)
		if info.DesiredPresentTime != 0 {
			if err := win.SetBuffersTimestamp(int64(info.DesiredPresentTime)); err != nil {
				log.Printf("swapchain: QueuePresent: SetBuffersTimestamp: %v", err)
			}
		}
	}

	fd, _ := releaseFence.Release()
	if err := win.QueueBuffer(slot.buffer, fd); err != nil {
		return err
	}

	if err := slot.fence.Close(); err != nil {
		log.Printf("swapchain: QueuePresent: Close dequeue fence: %v", err)
	}
	slot.fence = fence.NoFence
	slot.dequeued = false
	return nil
}

// GetSwapchainStatus reports whether h's swapchain is still the
// active one on its surface.
//
// This follows the original implementation's own
// GetSwapchainStatusKHR, which always reports success while active:
// it does not additionally poll the NativeWindow for disconnection.
func GetSwapchainStatus(h SwapchainHandle) error {
	sc, err := swapchains.Get(h)
	if err != nil {
		return errors.Wrap(err, "swapchain: GetSwapchainStatus")
	}
	if !sc.surface.isActive(h) {
		return errors.Wrap(driver.ErrOutOfDate, "swapchain: GetSwapchainStatus")
	}
	return nil
}

// GetRefreshCycleDuration returns the min/max refresh durations
// snapshotted at swapchain creation.
func GetRefreshCycleDuration(h SwapchainHandle) (min, max uint64, err error) {
	sc, err := swapchains.Get(h)
	if err != nil {
		return 0, 0, errors.Wrap(err, "swapchain: GetRefreshCycleDuration")
	}
	return sc.minRefreshDuration, sc.maxRefreshDuration, nil
}

// GetPastPresentationTiming runs the timing ledger's back-search
// against the swapchain's window and then drains ready entries into
// dst, up to its length. If dst is nil, it only runs the back-search
// and returns the resulting count of ready entries without draining
// anything.
func GetPastPresentationTiming(h SwapchainHandle, dst []timing.Info) (int, error) {
	sc, err := swapchains.Get(h)
	if err != nil {
		return 0, errors.Wrap(err, "swapchain: GetPastPresentationTiming")
	}
	if !sc.frameTimestampsEnabled {
		if err := sc.surface.window.EnableFrameTimestamps(true); err != nil {
			return 0, errors.Wrap(err, "swapchain: GetPastPresentationTiming: EnableFrameTimestamps")
		}
		sc.frameTimestampsEnabled = true
	}
	if _, err := sc.timing.Refresh(sc.surface.window); err != nil {
		return 0, errors.Wrap(err, "swapchain: GetPastPresentationTiming: Refresh")
	}
	if dst == nil {
		return sc.timing.NumReady(), nil
	}
	if len(dst) == 0 {
		return 0, nil
	}
	ready := sc.timing.Drain(len(dst))
	copy(dst, ready)
	return len(ready), nil
}
