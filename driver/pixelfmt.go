// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import "log"

// PixelFmt describes the format of a swapchain image.
// Unlike a general-purpose GPU format enum, this is the closed set of
// formats a Surface ever reports as supported.
type PixelFmt int

// Supported surface formats.
const (
	RGBA8Unorm PixelFmt = iota
	RGBA8SRGB
	R5G6B5Unorm
)

// NativePixelFmt is the native buffer pixel format a PixelFmt maps
// to, for use in native_window_set_buffers_format.
type NativePixelFmt int

// Native pixel formats.
const (
	NativeRGBA8888 NativePixelFmt = iota
	NativeRGB565
)

// Native maps f to its native buffer pixel format per table 6.1.
// Formats outside the supported set default to NativeRGBA8888 and log
// the substitution.
func (f PixelFmt) Native() NativePixelFmt {
	switch f {
	case RGBA8Unorm, RGBA8SRGB:
		return NativeRGBA8888
	case R5G6B5Unorm:
		return NativeRGB565
	default:
		log.Printf("driver: unrecognized PixelFmt %d, defaulting to RGBA_8888", f)
		return NativeRGBA8888
	}
}

// Usage is a mask of surface image usage flags.
type Usage int

// Surface capabilities usage flags.
const (
	UTransferSrc Usage = 1 << iota
	UTransferDst
	USampled
	UStorage
	UColorTarget
	UInputTarget

	UGeneric = UTransferSrc | UTransferDst | USampled | UStorage | UColorTarget | UInputTarget
)

// PresentMode identifies a supported swapchain present mode.
type PresentMode int

// Supported present modes.
const (
	PresentMailbox PresentMode = iota
	PresentFIFO
	PresentFrontBufferedDemandRefresh
	PresentFrontBufferedContinuousRefresh
)

// FrontBuffered reports whether m is one of the front-buffered modes
// (demand-refresh or continuous-refresh), which require shared-buffer
// mode on the NativeWindow.
func (m PresentMode) FrontBuffered() bool {
	return m == PresentFrontBufferedDemandRefresh || m == PresentFrontBufferedContinuousRefresh
}

// SurfaceCapabilities holds the fixed capability values a Surface
// reports, independent of any particular swapchain configuration.
type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	ArrayLayers    int
	CompositeAlpha CompositeAlpha
	SupportedUsage Usage
}

// CompositeAlpha identifies how a surface's alpha channel composites
// against the rest of the display.
type CompositeAlpha int

// The only composite-alpha mode the core supports.
const CompositeAlphaInherit CompositeAlpha = 0

// DefaultSurfaceCapabilities is the fixed capabilities table every
// Surface reports.
var DefaultSurfaceCapabilities = SurfaceCapabilities{
	MinImageCount:  2,
	MaxImageCount:  3,
	ArrayLayers:    1,
	CompositeAlpha: CompositeAlphaInherit,
	SupportedUsage: UGeneric,
}

// SupportedFormats is the fixed list of formats a Surface reports as
// supported, all under the sRGB-nonlinear color space.
var SupportedFormats = []PixelFmt{RGBA8Unorm, RGBA8SRGB, R5G6B5Unorm}

// SupportedPresentModes is the fixed list of present modes a Surface
// reports as supported.
var SupportedPresentModes = []PresentMode{
	PresentMailbox,
	PresentFIFO,
	PresentFrontBufferedDemandRefresh,
	PresentFrontBufferedContinuousRefresh,
}
