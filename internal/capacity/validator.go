package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when a candidate's start is not strictly
// before its end.
var ErrInvalidInterval = errors.New("reservation start must be before end")

// Source provides the booked intervals the validator sweeps over. It must
// return every pending/confirmed reservation for the facility whose interval
// overlaps or touches [from, to]; boundary-touching intervals are required so
// the sweep's START-before-END tie-break can see them. When excludeID is
// non-empty the matching reservation is omitted (used when re-validating an
// update so the old row is not double-counted).
type Source interface {
	Overlapping(ctx context.Context, facilityID int64, from, to time.Time, excludeID string) ([]Interval, error)
}

// Decision is the outcome of a capacity check. A capacity violation is a
// normal negative result, never an error; errors are reserved for source
// failures and invalid input.
type Decision struct {
	Valid             bool      `json:"valid"`
	MaxConcurrent     int       `json:"maxConcurrent"`
	MaxConcurrentTime time.Time `json:"maxConcurrentTime"`
	Message           string    `json:"message,omitempty"`
}

// Usage is the coarse demand aggregate over a window: the sum of horse
// counts of every active reservation touching it. It is NOT a point-in-time
// peak; use Validate for enforcement.
type Usage struct {
	HorseCount     int      `json:"horseCount"`
	ReservationIDs []string `json:"reservationIds"`
}

// Validator decides whether reservations fit within facility capacity. It is
// stateless and read-only: each call fetches a snapshot and sweeps it. Two
// racing Validate calls can both approve the last free slot; callers commit
// the reservation outside any shared transaction.
type Validator struct {
	source Source
}

func NewValidator(source Source) *Validator {
	return &Validator{source: source}
}

// Validate reports whether adding cand to the facility would push concurrent
// horse occupancy above maxCapacity at any instant. excludeID names an
// existing reservation to leave out of the sweep, or is empty.
func (v *Validator) Validate(ctx context.Context, facilityID int64, cand Candidate, maxCapacity int, excludeID string) (Decision, error) {
	if !cand.Start.Before(cand.End) {
		return Decision{}, ErrInvalidInterval
	}

	booked, err := v.source.Overlapping(ctx, facilityID, cand.Start, cand.End, excludeID)
	if err != nil {
		return Decision{}, fmt.Errorf("validate capacity: %w", err)
	}

	peak, peakAt := sweep(buildEvents(booked, cand))

	decision := Decision{
		Valid:             peak <= maxCapacity,
		MaxConcurrent:     peak,
		MaxConcurrentTime: peakAt,
	}
	if !decision.Valid {
		decision.Message = fmt.Sprintf(
			"capacity exceeded: %d horses at %s, facility allows %d",
			peak, peakAt.Local().Format("15:04"), maxCapacity)
	}
	return decision, nil
}

// sweep walks the sorted event list accumulating occupancy. The peak is only
// checked on START events (occupancy can only drop on END) and the recorded
// timestamp is the first instant the final maximum was reached.
func sweep(events []event) (peak int, peakAt time.Time) {
	current := 0
	for _, ev := range events {
		switch ev.kind {
		case eventStart:
			current += ev.horses
			if current > peak {
				peak = current
				peakAt = ev.at
			}
		case eventEnd:
			current += ev.horses // horses is negative on END
		}
	}
	return peak, peakAt
}

// CurrentUsage sums horse demand across every active reservation touching
// [from, to] and collects their IDs. Staggered reservations that never
// overlap each other still all count, so this deliberately answers "how busy
// is the window overall", not "does any instant exceed capacity".
func (v *Validator) CurrentUsage(ctx context.Context, facilityID int64, from, to time.Time) (Usage, error) {
	booked, err := v.source.Overlapping(ctx, facilityID, from, to, "")
	if err != nil {
		return Usage{}, fmt.Errorf("compute current usage: %w", err)
	}

	usage := Usage{ReservationIDs: make([]string, 0, len(booked))}
	for _, iv := range booked {
		usage.HorseCount += iv.Horses
		usage.ReservationIDs = append(usage.ReservationIDs, iv.ID)
	}
	return usage, nil
}
