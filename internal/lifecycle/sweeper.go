package lifecycle

import (
	"context"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"stable-reserve-backend/config"
	"stable-reserve-backend/internal/notification"
	"stable-reserve-backend/internal/store"
)

// Sweeper periodically transitions elapsed reservations (confirmed past
// their end become completed, pending left unconfirmed past their hold
// window become no-shows) and alerts subscribers of facilities whose
// capacity freed up.
type Sweeper struct {
	cfg        *config.Config
	store      store.Store
	workerPool *notification.WorkerPool
}

// NewSweeper creates a sweeper with its own notification worker pool.
func NewSweeper(cfg *config.Config, s store.Store) *Sweeper {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	return &Sweeper{
		cfg:        cfg,
		store:      s,
		workerPool: notification.NewWorkerPool(cfg.WorkerPool.Size, s.DB(), &webpushOptions),
	}
}

// Run starts the sweep loop. It sweeps once immediately, then on the
// configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Lifecycle.Enabled {
		log.Println("Lifecycle sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting lifecycle sweeper...")

	s.workerPool.Start(ctx)

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Lifecycle.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Lifecycle sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Lifecycle.Interval)
		}
	}
}

// SweepOnce performs a single sweep and dispatches availability alerts for
// every facility whose active reservation set shrank.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	facilityIDs, err := s.store.SweepLifecycle(ctx, now, s.cfg.Lifecycle.PendingHold)
	if err != nil {
		log.Printf("Lifecycle sweep failed: %v", err)
		return
	}
	if len(facilityIDs) == 0 {
		return
	}

	log.Printf("Lifecycle sweep freed capacity at %d facilities", len(facilityIDs))
	for _, id := range facilityIDs {
		s.workerPool.Dispatch(id)
	}
}
