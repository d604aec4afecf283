// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package transform

import (
	"testing"

	"github.com/gviegas/vkwsi/wsi"
)

func TestToNative(t *testing.T) {
	cases := []struct {
		in   Transform
		want wsi.Transform
	}{
		{Identity, wsi.TransformIdentity},
		{Inherit, wsi.TransformIdentity},
		{Rotate90, wsi.TransformRot270},
		{Rotate180, wsi.TransformRot180},
		{Rotate270, wsi.TransformRot90},
	}
	for _, c := range cases {
		have, err := ToNative(c.in)
		if err != nil {
			t.Fatalf("ToNative(%v): unexpected error: %v", c.in, err)
		}
		if have != c.want {
			t.Fatalf("ToNative(%v):\nhave %v\nwant %v", c.in, have, c.want)
		}
	}
	if _, err := ToNative(0); err != ErrUnsupported {
		have, want := err, ErrUnsupported
		t.Fatalf("ToNative(0):\nhave %v\nwant %v", have, want)
	}
}

func TestFromNative(t *testing.T) {
	cases := []struct {
		in   wsi.Transform
		want Transform
	}{
		{wsi.TransformIdentity, Identity},
		{wsi.TransformRot90, Rotate90},
		{wsi.TransformRot180, Rotate180},
		{wsi.TransformRot270, Rotate270},
		{wsi.TransformIdentity | wsi.TransformInverseDisplay, Identity},
		{wsi.TransformRot90 | wsi.TransformInverseDisplay, Rotate90},
	}
	for _, c := range cases {
		have, err := FromNative(c.in)
		if err != nil {
			t.Fatalf("FromNative(%v): unexpected error: %v", c.in, err)
		}
		if have != c.want {
			t.Fatalf("FromNative(%v):\nhave %v\nwant %v", c.in, have, c.want)
		}
	}
	// Pure flips, flip-and-rotate combinations, and any other
	// non-rotation have no GAPI equivalent: FromNative is total and
	// maps all of them to Identity rather than failing.
	for _, nt := range []wsi.Transform{
		wsi.TransformFlipH,
		wsi.TransformFlipV,
		wsi.TransformFlipH | wsi.TransformRot90,
		wsi.TransformFlipV | wsi.TransformRot90,
	} {
		have, err := FromNative(nt)
		if err != nil {
			t.Fatalf("FromNative(%v): unexpected error: %v", nt, err)
		}
		if have != Identity {
			t.Fatalf("FromNative(%v):\nhave %v\nwant %v", nt, have, Identity)
		}
	}
}

// TestRoundTrip checks that composing ToNative with FromNative
// yields the inverse of the original GAPI rotation, confirming the
// two algebras agree on the inversion used by the real compositor
// pipeline.
func TestRoundTrip(t *testing.T) {
	for _, g := range []Transform{Identity, Rotate90, Rotate180, Rotate270} {
		nt, err := ToNative(g)
		if err != nil {
			t.Fatalf("ToNative(%v): unexpected error: %v", g, err)
		}
		back, err := FromNative(nt)
		if err != nil {
			t.Fatalf("FromNative(%v): unexpected error: %v", nt, err)
		}
		// ToNative encodes the inverse transform (what the compositor
		// must apply to cancel the app's own transform out) while
		// FromNative maps each rotation to its equal, so the round trip
		// inverts once and recovers g only for the self-inverse cases
		// (Identity, Rotate180); 90/270 swap.
		want := g
		switch g {
		case Rotate90:
			want = Rotate270
		case Rotate270:
			want = Rotate90
		}
		if back != want {
			t.Fatalf("round trip %v:\nhave %v\nwant %v", g, back, want)
		}
	}
}
