// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"testing"

	"github.com/pkg/errors"
)

func TestWorstPresentResult(t *testing.T) {
	cases := []struct {
		in   []Result
		want Result
	}{
		{nil, ResultSuccess},
		{[]Result{ResultSuccess}, ResultSuccess},
		{[]Result{ResultSuccess, ResultSuboptimal}, ResultSuboptimal},
		{[]Result{ResultSuccess, ResultOutOfDate, ResultSuboptimal}, ResultOutOfDate},
		{[]Result{ResultOutOfDate, ResultDeviceLost, ResultSurfaceLost}, ResultDeviceLost},
	}
	for _, c := range cases {
		have := WorstPresentResult(c.in...)
		if have != c.want {
			t.Fatalf("WorstPresentResult(%v):\nhave %v\nwant %v", c.in, have, c.want)
		}
	}
}

func TestResultOf(t *testing.T) {
	if have, want := ResultOf(nil), ResultSuccess; have != want {
		t.Fatalf("ResultOf(nil):\nhave %v\nwant %v", have, want)
	}
	if have, want := ResultOf(ErrOutOfDate), ResultOutOfDate; have != want {
		t.Fatalf("ResultOf(ErrOutOfDate):\nhave %v\nwant %v", have, want)
	}
	wrapped := errors.Wrap(ErrSurfaceLost, "queue present")
	if have, want := ResultOf(wrapped), ResultSurfaceLost; have != want {
		t.Fatalf("ResultOf(wrapped):\nhave %v\nwant %v", have, want)
	}
	if have, want := ResultOf(errors.New("boom")), ResultDeviceLost; have != want {
		t.Fatalf("ResultOf(opaque error):\nhave %v\nwant %v", have, want)
	}
}
