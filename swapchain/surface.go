// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package swapchain implements the WSI core: surface and swapchain
// lifecycle, image acquire/present, and the present-timing and
// transform negotiation that a GAPI driver needs to present into a
// NativeWindow buffer queue.
//
// The core performs no internal locking. Callers must externally
// serialize operations on a given Surface or Swapchain; different
// Surfaces/Swapchains may be driven concurrently from different
// goroutines.
package swapchain

import (
	"log"

	"github.com/pkg/errors"

	"github.com/gviegas/vkwsi/driver"
	"github.com/gviegas/vkwsi/handle"
	"github.com/gviegas/vkwsi/wsi"
)

// SurfaceHandle opaquely identifies a Surface.
type SurfaceHandle = handle.Handle

// SwapchainHandle opaquely identifies a Swapchain.
// The zero SwapchainHandle never identifies a live swapchain.
type SwapchainHandle = handle.Handle

var surfaces = handle.NewTable[*Surface]()
var swapchains = handle.NewTable[*Swapchain]()

// Surface binds a GAPI instance to a single NativeWindow.
// At most one non-orphaned Swapchain may be active on a Surface at a
// time (P2).
type Surface struct {
	window    wsi.NativeWindow
	dispatch  *driver.Dispatch
	allocator driver.Allocator

	handle SurfaceHandle
	active SwapchainHandle // zero Handle when no swapchain is active
}

// CreateSurface connects win to the GAPI's EGL-equivalent producer
// API and returns a handle identifying the new Surface.
func CreateSurface(win wsi.NativeWindow, dispatch *driver.Dispatch, alloc driver.Allocator) (SurfaceHandle, error) {
	if err := win.APIConnect(wsi.APIEGL); err != nil {
		return handle.Handle(0), errors.Wrap(driver.ErrInitializationFailed, err.Error())
	}
	s := &Surface{window: win, dispatch: dispatch, allocator: alloc}
	s.handle = surfaces.New(s)
	return s.handle, nil
}

// DestroySurface disconnects h's NativeWindow and frees the Surface.
// Destroying a surface that still has an active swapchain is a
// caller error: the core logs it but proceeds, since the original
// spec calls for graceful degradation here rather than a panic.
func DestroySurface(h SurfaceHandle) error {
	s, err := surfaces.Get(h)
	if err != nil {
		return errors.Wrap(err, "swapchain: DestroySurface")
	}
	if s.active != handle.Handle(0) {
		log.Printf("swapchain: DestroySurface: surface %v destroyed with an active swapchain", h)
	}
	if err := s.window.APIDisconnect(wsi.APIEGL); err != nil {
		log.Printf("swapchain: DestroySurface: APIDisconnect: %v", err)
	}
	return surfaces.Delete(h)
}

// Capabilities returns the fixed surface capabilities table.
func (s *Surface) Capabilities() driver.SurfaceCapabilities {
	return driver.DefaultSurfaceCapabilities
}

// SupportedFormats returns the fixed list of supported surface
// formats.
func (s *Surface) SupportedFormats() []driver.PixelFmt {
	return driver.SupportedFormats
}

// SupportedPresentModes returns the fixed list of supported present
// modes.
func (s *Surface) SupportedPresentModes() []driver.PresentMode {
	return driver.SupportedPresentModes
}

// surfaceOf resolves h to its *Surface, wrapping the error with op.
func surfaceOf(h SurfaceHandle, op string) (*Surface, error) {
	s, err := surfaces.Get(h)
	if err != nil {
		return nil, errors.Wrap(err, "swapchain: "+op)
	}
	return s, nil
}

// isActive reports whether h identifies the Surface's current active
// swapchain. Equality is by handle, not pointer identity (per the
// original spec's note that a freed-and-reallocated Swapchain at the
// same address must not appear active).
func (s *Surface) isActive(h SwapchainHandle) bool {
	return s.active != handle.Handle(0) && s.active == h
}
