package capacity

import (
	"sort"
	"time"
)

// Interval is a booked reservation as seen by the sweep: a half-open time
// range [Start, End) occupying Horses concurrent slots.
type Interval struct {
	ID     string
	Start  time.Time
	End    time.Time
	Horses int
}

// Candidate is the reservation being validated. It has no ID yet (or, on an
// update, its stored row is excluded via the exclude parameter instead).
type Candidate struct {
	Start  time.Time
	End    time.Time
	Horses int
}

type eventKind int

const (
	eventStart eventKind = iota
	eventEnd
)

// event is a point on the occupancy timeline. Horses is the signed
// contribution applied when the event is processed.
type event struct {
	at            time.Time
	kind          eventKind
	horses        int
	reservationID string // empty for the candidate's events
}

// buildEvents turns booked intervals plus the candidate into a sorted event
// list. Intervals contributing zero horses are skipped; they cannot create
// capacity pressure. The candidate's events are always emitted so the sweep
// stays uniform even for a zero-horse candidate.
func buildEvents(booked []Interval, cand Candidate) []event {
	events := make([]event, 0, 2*len(booked)+2)
	for _, iv := range booked {
		if iv.Horses <= 0 {
			continue
		}
		events = append(events,
			event{at: iv.Start, kind: eventStart, horses: iv.Horses, reservationID: iv.ID},
			event{at: iv.End, kind: eventEnd, horses: -iv.Horses, reservationID: iv.ID},
		)
	}
	events = append(events,
		event{at: cand.Start, kind: eventStart, horses: cand.Horses},
		event{at: cand.End, kind: eventEnd, horses: -cand.Horses},
	)
	sortEvents(events)
	return events
}

// sortEvents orders events chronologically. At equal timestamps START sorts
// before END: a reservation ending at T and one starting at T are counted as
// simultaneously present at T. This boundary policy is load-bearing; the
// store's overlap query is inclusive for the same reason. Remaining ties
// break on reservation ID to keep the ordering deterministic.
func sortEvents(events []event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		if a.kind != b.kind {
			return a.kind == eventStart
		}
		return a.reservationID < b.reservationID
	})
}
