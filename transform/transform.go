// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package transform translates between the GAPI surface-transform
// algebra and the native window's transform algebra.
//
// GAPI transforms are built from an optional horizontal mirror
// composed with a rotation. Native transforms are built from a
// horizontal flip, a vertical flip and a 90-degree rotation, applied
// in that order. The two algebras are isomorphic, but this package
// only implements the subset that excludes the mirror component -
// pure rotations, as well as Identity and Inherit.
package transform

import "github.com/gviegas/vkwsi/wsi"

// Transform identifies a GAPI surface transform.
// Only one bit may be set at a time; these are not a bitmask.
type Transform int

// GAPI surface transforms.
const (
	Identity Transform = 1 << iota
	Rotate90
	Rotate180
	Rotate270
	Inherit
)

// Supported is the set of transforms a Surface reports as supported
// in its capabilities. Mirror-composed transforms are excluded.
const Supported = Identity | Rotate90 | Rotate180 | Rotate270 | Inherit

// ErrUnsupported is returned by ToNative when asked to translate a
// transform outside of Supported. FromNative is a total function and
// never returns it.
var ErrUnsupported = unsupportedErr{}

type unsupportedErr struct{}

func (unsupportedErr) Error() string { return "transform: unsupported transform" }

// ToNative converts a GAPI pre-transform - the transform the
// application applied while rendering - into the native transform
// that must be requested from the NativeWindow so that the
// compositor's own transform cancels the application's out.
//
// Rendering with preTransform t and then requesting ToNative(t) from
// the native window makes the compositor apply an identity transform
// to the application's buffer overall.
func ToNative(t Transform) (wsi.Transform, error) {
	switch t {
	case Identity, Inherit:
		return wsi.TransformIdentity, nil
	case Rotate90:
		return wsi.TransformRot270, nil
	case Rotate180:
		return wsi.TransformRot180, nil
	case Rotate270:
		return wsi.TransformRot90, nil
	default:
		return 0, ErrUnsupported
	}
}

// FromNative converts a native transform hint - as reported by a
// NativeWindow query - into the equivalent GAPI transform, for
// reporting as a Surface's current transform.
//
// FromNative(TransformInverseDisplay) returns Identity: that bit only
// qualifies how the other bits relate to the physical display and
// carries no rotation of its own once isolated. Unlike ToNative, this
// is a total function: any combination outside the four pure
// rotations (a pure flip, a flip-and-rotate, ...) has no GAPI
// equivalent and maps to Identity rather than failing.
func FromNative(nt wsi.Transform) (Transform, error) {
	switch nt &^ wsi.TransformInverseDisplay {
	case wsi.TransformRot90:
		return Rotate90, nil
	case wsi.TransformRot180:
		return Rotate180, nil
	case wsi.TransformRot270:
		return Rotate270, nil
	default:
		return Identity, nil
	}
}
