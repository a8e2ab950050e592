package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"stable-reserve-backend/config"
	"stable-reserve-backend/internal/mw"
	"stable-reserve-backend/internal/notification"
	"stable-reserve-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.Config, notifier *notification.WorkerPool, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, notifier, webpushOptions, cfg.Booking)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, cfg.Server.RequestIPHeader)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/facilities", caching, handler.GetFacilities)
		api.GET("/facilities/:facility_id/reservations", caching, handler.GetFacilitySchedule)
		api.GET("/facilities/:facility_id/usage", handler.GetFacilityUsage)

		api.POST("/facilities/:facility_id/availability", handler.CheckAvailability)
		api.POST("/facilities/:facility_id/reservations", handler.CreateReservation)
		api.PATCH("/reservations/:reservation_id", handler.UpdateReservation)
		api.POST("/reservations/:reservation_id/cancel", handler.CancelReservation)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
