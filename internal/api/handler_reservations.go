package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stable-reserve-backend/internal/capacity"
	"stable-reserve-backend/internal/model"
	"stable-reserve-backend/internal/timeparse"
)

// reservationRequest is the write payload for reservations. Timestamps are
// accepted in any of the shapes timeparse understands. Horses arrive either
// as horse_ids or through the legacy singular horse_id; the two shapes are
// normalized here so nothing downstream ever branches on them.
type reservationRequest struct {
	StartTime   any     `json:"start_time" binding:"required"`
	EndTime     any     `json:"end_time" binding:"required"`
	HorseIDs    []int64 `json:"horse_ids"`
	HorseID     *int64  `json:"horse_id"` // legacy single-horse clients
	ContactName string  `json:"contact_name"`
	Confirmed   bool    `json:"confirmed"`
}

// normalizedHorses resolves the dual horse shapes into one ID list. The
// horse count the capacity sweep sees is always len(result).
func (r *reservationRequest) normalizedHorses() []int64 {
	if len(r.HorseIDs) > 0 {
		return r.HorseIDs
	}
	if r.HorseID != nil {
		return []int64{*r.HorseID}
	}
	return nil
}

func (r *reservationRequest) window(c *gin.Context) (start, end time.Time, ok bool) {
	var err error
	if start, err = timeparse.Instant(r.StartTime); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time"})
		return start, end, false
	}
	if end, err = timeparse.Instant(r.EndTime); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time"})
		return start, end, false
	}
	return start, end, true
}

// CreateReservation handles POST /api/facilities/{facility_id}/reservations:
// validate capacity, then insert. The validate-then-insert sequence is not
// serialized against concurrent requests; see DESIGN.md.
func (h *Handler) CreateReservation(c *gin.Context) {
	facilityID, ok := facilityIDParam(c)
	if !ok {
		return
	}

	facility, ok := h.loadFacility(c, facilityID)
	if !ok {
		return
	}

	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, ok := req.window(c)
	if !ok {
		return
	}

	horses := req.normalizedHorses()
	if len(horses) > h.booking.MaxHorsesPerReservation {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Too many horses for one reservation"})
		return
	}

	decision, ok := h.checkCapacity(c, facilityID, capacity.Candidate{Start: start, End: end, Horses: len(horses)}, facility.MaxCapacity, "")
	if !ok {
		return
	}
	if !decision.Valid {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": decision.Message, "decision": decision})
		return
	}

	status := model.StatusPending
	if req.Confirmed {
		status = model.StatusConfirmed
	}
	res := model.Reservation{
		FacilityID:  facilityID,
		StartTime:   start,
		EndTime:     end,
		HorseCount:  len(horses),
		Status:      status,
		ContactName: req.ContactName,
	}
	if err := h.store.CreateReservation(c.Request.Context(), &res, horses); err != nil {
		log.Printf("Failed to create reservation: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reservation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reservation": res, "decision": decision})
}

// updateReservationRequest carries the fields a PATCH may change. Omitted
// fields keep their stored values.
type updateReservationRequest struct {
	StartTime any     `json:"start_time"`
	EndTime   any     `json:"end_time"`
	HorseIDs  []int64 `json:"horse_ids"`
	HorseID   *int64  `json:"horse_id"`
}

// UpdateReservation handles PATCH /api/reservations/{reservation_id}. The
// stored row is excluded from the sweep so the old interval is not counted
// against its own replacement.
func (h *Handler) UpdateReservation(c *gin.Context) {
	res, ok := h.loadReservation(c)
	if !ok {
		return
	}
	if !res.IsActive() {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Reservation is no longer active"})
		return
	}

	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end := res.StartTime, res.EndTime
	var err error
	if req.StartTime != nil {
		if start, err = timeparse.Instant(req.StartTime); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time"})
			return
		}
	}
	if req.EndTime != nil {
		if end, err = timeparse.Instant(req.EndTime); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time"})
			return
		}
	}

	horseCount := res.HorseCount
	newHorses := (&reservationRequest{HorseIDs: req.HorseIDs, HorseID: req.HorseID}).normalizedHorses()
	if newHorses != nil {
		if len(newHorses) > h.booking.MaxHorsesPerReservation {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Too many horses for one reservation"})
			return
		}
		horseCount = len(newHorses)
	}

	facility, ok := h.loadFacility(c, res.FacilityID)
	if !ok {
		return
	}

	decision, ok := h.checkCapacity(c, res.FacilityID, capacity.Candidate{Start: start, End: end, Horses: horseCount}, facility.MaxCapacity, res.ID)
	if !ok {
		return
	}
	if !decision.Valid {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": decision.Message, "decision": decision})
		return
	}

	if err := h.store.UpdateReservation(c.Request.Context(), res.ID, start, end, horseCount, newHorses); err != nil {
		log.Printf("Failed to update reservation %s: %v", res.ID, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reservation"})
		return
	}

	res.StartTime, res.EndTime, res.HorseCount = start, end, horseCount
	c.JSON(http.StatusOK, gin.H{"reservation": res, "decision": decision})
}

// CancelReservation handles POST /api/reservations/{reservation_id}/cancel.
// Freed capacity triggers an availability alert for the facility.
func (h *Handler) CancelReservation(c *gin.Context) {
	res, ok := h.loadReservation(c)
	if !ok {
		return
	}
	if !res.IsActive() {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Reservation is no longer active"})
		return
	}

	if err := h.store.SetReservationStatus(c.Request.Context(), res.ID, model.StatusCancelled); err != nil {
		log.Printf("Failed to cancel reservation %s: %v", res.ID, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel reservation"})
		return
	}
	res.Status = model.StatusCancelled

	if h.notifier != nil {
		h.notifier.Dispatch(res.FacilityID)
	}

	c.JSON(http.StatusOK, gin.H{"reservation": res})
}

// availabilityRequest is the dry-run check payload.
type availabilityRequest struct {
	reservationRequest
	ExcludeReservationID string `json:"exclude_reservation_id"`
}

// CheckAvailability handles POST /api/facilities/{facility_id}/availability:
// the capacity decision without a write. Both outcomes are 200; Valid says
// whether the booking would fit.
func (h *Handler) CheckAvailability(c *gin.Context) {
	facilityID, ok := facilityIDParam(c)
	if !ok {
		return
	}

	facility, ok := h.loadFacility(c, facilityID)
	if !ok {
		return
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, ok := req.window(c)
	if !ok {
		return
	}

	decision, ok := h.checkCapacity(c, facilityID, capacity.Candidate{Start: start, End: end, Horses: len(req.normalizedHorses())}, facility.MaxCapacity, req.ExcludeReservationID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, decision)
}

// checkCapacity runs the validator and maps its error taxonomy onto HTTP:
// invalid interval is the caller's fault, anything else is a generic 500
// with the cause logged (never exposed).
func (h *Handler) checkCapacity(c *gin.Context, facilityID int64, cand capacity.Candidate, maxCapacity int, excludeID string) (capacity.Decision, bool) {
	decision, err := h.validator.Validate(c.Request.Context(), facilityID, cand, maxCapacity, excludeID)
	if err != nil {
		if errors.Is(err, capacity.ErrInvalidInterval) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": capacity.ErrInvalidInterval.Error()})
		} else {
			log.Printf("Capacity validation failed for facility %d: %v", facilityID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate capacity"})
		}
		return capacity.Decision{}, false
	}
	return decision, true
}

func (h *Handler) loadFacility(c *gin.Context, facilityID int64) (model.Facility, bool) {
	facility, err := h.store.GetFacility(c.Request.Context(), facilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Facility not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facility"})
		}
		return model.Facility{}, false
	}
	return facility, true
}

func (h *Handler) loadReservation(c *gin.Context) (model.Reservation, bool) {
	res, err := h.store.GetReservation(c.Request.Context(), c.Param("reservation_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservation"})
		}
		return model.Reservation{}, false
	}
	return res, true
}
