// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package timing implements the present-timing ledger a Swapchain
// keeps to answer GetPastPresentationTiming queries: correlating a
// present request's ID with the compositor timestamps it eventually
// produces, and reporting how much earlier the frame could have been
// presented than it actually was.
package timing

import (
	"sort"

	"github.com/gviegas/vkwsi/wsi"
)

// MaxEntries bounds how many pending TimingInfo records a Ledger
// keeps; the oldest is dropped once a new Record call would exceed it.
const MaxEntries = 10

// MinFramesAgo is the closest compositor frame offset a Ledger will
// query when back-searching for a present's timestamps. Querying
// closer frames risks a synchronous round-trip to the compositor.
const MinFramesAgo = 5

// Info reports the outcome of a single present request, once its
// compositor timestamps have all arrived.
type Info struct {
	PresentID           uint64
	DesiredPresentTime  uint64
	ActualPresentTime   uint64
	EarliestPresentTime uint64
	PresentMargin       uint64
}

// entry tracks one in-flight present request until its timestamps
// arrive and it can be turned into an Info.
type entry struct {
	presentID          uint64
	desiredPresentTime uint64

	tsDesired          uint64
	tsActual           uint64
	tsRenderComplete   uint64
	tsCompositionLatch uint64
}

func (e *entry) ready() bool {
	return e.tsDesired != 0 && e.tsActual != 0 &&
		e.tsRenderComplete != 0 && e.tsCompositionLatch != 0
}

// calculate derives Info.EarliestPresentTime and Info.PresentMargin
// from e's timestamps, given the display's minimum refresh duration.
//
// EarliestPresentTime starts at the actual present time and steps
// backward by one refresh duration at a time for as long as doing so
// leaves a positive margin over the composition latch time, since
// each such step represents a refresh cycle the compositor could have
// used instead without missing the frame's readiness.
func (e *entry) calculate(minRefreshDuration uint64) Info {
	margin := e.tsCompositionLatch - e.tsRenderComplete
	early := e.tsActual
	for margin > minRefreshDuration && early-minRefreshDuration > e.tsCompositionLatch {
		early -= minRefreshDuration
		margin -= minRefreshDuration
	}
	return Info{
		PresentID:           e.presentID,
		DesiredPresentTime:  e.desiredPresentTime,
		ActualPresentTime:   e.tsActual,
		EarliestPresentTime: early,
		PresentMargin:       margin,
	}
}

// Ledger accumulates in-flight present timing entries for a single
// swapchain and turns them into Info values as their compositor
// timestamps become available.
// Ledger is not safe for concurrent use.
type Ledger struct {
	entries    []entry
	minRefresh uint64
	ready      []Info
}

// NewLedger returns an empty Ledger. minRefreshDuration is the
// display's minimum refresh cycle duration, in nanoseconds, used by
// Refresh to compute each Info's EarliestPresentTime.
func NewLedger(minRefreshDuration uint64) *Ledger {
	return &Ledger{minRefresh: minRefreshDuration}
}

// Record begins tracking a present request identified by presentID,
// whose application-requested presentation time is desiredPresentTime
// (zero if the application did not request one).
// If recording this entry would exceed MaxEntries, the oldest
// still-pending entry is dropped. Entries are kept sorted ascending
// by presentID.
func (l *Ledger) Record(presentID, desiredPresentTime uint64) {
	if len(l.entries) >= MaxEntries {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry{
		presentID:          presentID,
		desiredPresentTime: desiredPresentTime,
	})
	sort.Slice(l.entries, func(i, j int) bool {
		return l.entries[i].presentID < l.entries[j].presentID
	})
}

// Refresh queries win for compositor timestamps and folds any that
// correlate with a pending entry into it, moving entries that become
// ready into the drain queue. It returns the number of entries that
// became ready during this call.
//
// For each pending entry, Refresh walks the compositor's frame
// history starting MinFramesAgo frames back, looking for the frame
// whose desired-present-time matches the entry; it stops walking an
// entry's history as soon as GetFrameTimestamps fails, since that
// means the history has been exhausted.
func (l *Ledger) Refresh(win wsi.NativeWindow) (int, error) {
	numReady := 0
	framesAgo := len(l.entries)

	remaining := l.entries[:0]
	for i := range l.entries {
		e := &l.entries[i]
		if e.ready() {
			l.ready = append(l.ready, e.calculate(l.minRefresh))
			numReady++
			continue
		}
		for f := MinFramesAgo; f < framesAgo; f++ {
			ts, err := win.GetFrameTimestamps(f)
			if err != nil {
				break
			}
			if uint64(ts.DesiredPresentTime) != e.desiredPresentTime {
				continue
			}
			e.tsDesired = uint64(ts.DesiredPresentTime)
			e.tsActual = uint64(ts.ActualPresentTime)
			e.tsRenderComplete = uint64(ts.RenderCompleteTime)
			e.tsCompositionLatch = uint64(ts.CompositionLatchTime)
			if e.ready() {
				l.ready = append(l.ready, e.calculate(l.minRefresh))
				numReady++
			}
			break
		}
		if !e.ready() {
			remaining = append(remaining, *e)
		}
	}
	l.entries = remaining
	return numReady, nil
}

// NumReady returns the number of Info values currently queued for
// Drain, without querying win for new timestamps.
func (l *Ledger) NumReady() int { return len(l.ready) }

// Drain removes and returns up to max ready Info values, in the order
// they became ready. Each Info is reported at most once: it is
// removed from the ledger as soon as it is drained. A max of zero or
// less drains everything.
func (l *Ledger) Drain(max int) []Info {
	if max <= 0 || max > len(l.ready) {
		max = len(l.ready)
	}
	out := l.ready[:max]
	l.ready = l.ready[max:]
	return out
}

// Clear discards every pending and ready entry, as happens when a
// swapchain is orphaned.
func (l *Ledger) Clear() {
	l.entries = nil
	l.ready = nil
}
