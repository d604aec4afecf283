// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import "github.com/pkg/errors"

// Result classifies the outcome of a core operation. ResultSuccess is
// the only value that does not indicate an error; the zero Result is
// ResultDeviceLost.
type Result int

// Results, ordered worst to best. The order is significant: it is
// the ranking WorstPresentResult uses to aggregate the per-swapchain
// results of a single QueuePresent call.
const (
	ResultDeviceLost Result = iota
	ResultSurfaceLost
	ResultOutOfDeviceMemory
	ResultOutOfHostMemory
	ResultOutOfDate
	ResultNativeWindowInUse
	ResultInitializationFailed
	ResultIncomplete
	ResultSuboptimal
	ResultSuccess
)

func (r Result) String() string {
	switch r {
	case ResultDeviceLost:
		return "device lost"
	case ResultSurfaceLost:
		return "surface lost"
	case ResultOutOfDeviceMemory:
		return "out of device memory"
	case ResultOutOfHostMemory:
		return "out of host memory"
	case ResultOutOfDate:
		return "out of date"
	case ResultNativeWindowInUse:
		return "native window in use"
	case ResultInitializationFailed:
		return "initialization failed"
	case ResultIncomplete:
		return "incomplete"
	case ResultSuboptimal:
		return "suboptimal"
	case ResultSuccess:
		return "success"
	default:
		return "unknown result"
	}
}

// Error wraps a Result with the context in which it occurred.
type Error struct {
	Result Result
	Op     string
}

func (e *Error) Error() string { return "driver: " + e.Op + ": " + e.Result.String() }

// NewError returns an *Error for the given Result and operation name.
func NewError(result Result, op string) *Error { return &Error{Result: result, Op: op} }

// ResultOf extracts the Result from err, returning ResultSuccess for a
// nil error and ResultDeviceLost - the worst classification - for any
// non-nil error that is not an *Error, matching the conservative
// stance the present-result aggregation rule requires when a driver
// call fails with an error this package did not originate.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var e *Error
	if ae, ok := errors.Cause(err).(*Error); ok {
		e = ae
	}
	if e == nil {
		return ResultDeviceLost
	}
	return e.Result
}

// WorstPresentResult returns the worst Result among results, under
// the ordering declared by the Result constants. An empty results
// returns ResultSuccess.
func WorstPresentResult(results ...Result) Result {
	worst := ResultSuccess
	for _, r := range results {
		if r < worst {
			worst = r
		}
	}
	return worst
}

// Sentinel errors matching the taxonomy of §7, for driver calls and
// core operations that have no more specific context to report.
var (
	ErrInitializationFailed = NewError(ResultInitializationFailed, "initialization failed")
	ErrOutOfHostMemory      = NewError(ResultOutOfHostMemory, "allocation failed")
	ErrNativeWindowInUse    = NewError(ResultNativeWindowInUse, "surface already in use")
	ErrOutOfDate            = NewError(ResultOutOfDate, "swapchain out of date")
	ErrSurfaceLost          = NewError(ResultSurfaceLost, "surface lost")
	ErrDeviceLost           = NewError(ResultDeviceLost, "device lost")
	ErrOutOfDeviceMemory    = NewError(ResultOutOfDeviceMemory, "out of device memory")
	ErrIncomplete           = NewError(ResultIncomplete, "buffer too small for full result")
)
