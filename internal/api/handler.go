package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"stable-reserve-backend/config"
	"stable-reserve-backend/internal/capacity"
	"stable-reserve-backend/internal/notification"
	"stable-reserve-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	validator *capacity.Validator
	notifier  *notification.WorkerPool
	webpush   *webpush.Options
	booking   config.BookingConfig
}

// NewHandler creates a new API handler. notifier may be nil when
// availability alerts are disabled (e.g. in tests).
func NewHandler(s store.Store, notifier *notification.WorkerPool, webpushOptions *webpush.Options, booking config.BookingConfig) *Handler {
	var v *capacity.Validator
	if s != nil {
		v = capacity.NewValidator(reservationSource{s})
	}
	return &Handler{
		store:     s,
		validator: v,
		notifier:  notifier,
		webpush:   webpushOptions,
		booking:   booking,
	}
}

// reservationSource adapts the store to the capacity.Source interface.
type reservationSource struct {
	store store.Store
}

func (r reservationSource) Overlapping(ctx context.Context, facilityID int64, from, to time.Time, excludeID string) ([]capacity.Interval, error) {
	return r.store.OverlappingReservations(ctx, facilityID, from, to, excludeID)
}
