package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stable-reserve-backend/internal/model"
	"stable-reserve-backend/internal/timeparse"
)

// FacilityResponse represents the API response for a single facility.
type FacilityResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Kind               string `json:"kind"`
	MaxCapacity        int    `json:"maxCapacity"`
	ActiveReservations int64  `json:"activeReservations"`
}

// GetFacilities handles the GET /api/facilities request.
func (h *Handler) GetFacilities(c *gin.Context) {
	facilities, err := h.store.ListFacilities(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facilities"})
		return
	}

	// Aggregate active reservation counts in one query.
	type AggRow struct {
		FacilityID int64
		Active     int64
	}
	var aggs []AggRow
	if err := h.store.DB().
		Model(&model.Reservation{}).
		Select("facility_id as facility_id, COUNT(*) as active").
		Where("status IN ?", model.ActiveStatuses).
		Group("facility_id").
		Scan(&aggs).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate reservations"})
		return
	}

	aggMap := make(map[int64]int64, len(aggs))
	for _, a := range aggs {
		aggMap[a.FacilityID] = a.Active
	}

	responses := make([]FacilityResponse, 0, len(facilities))
	for _, f := range facilities {
		responses = append(responses, FacilityResponse{
			ID:                 f.ID,
			Name:               f.Name,
			Kind:               f.Kind,
			MaxCapacity:        f.MaxCapacity,
			ActiveReservations: aggMap[f.ID],
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetFacilitySchedule handles GET /api/facilities/{facility_id}/reservations.
// The window defaults to the coming week when from/to are omitted.
func (h *Handler) GetFacilitySchedule(c *gin.Context) {
	facilityID, ok := facilityIDParam(c)
	if !ok {
		return
	}

	from, to, ok := windowQuery(c)
	if !ok {
		return
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), facilityID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}

	if reservations == nil {
		reservations = []model.Reservation{}
	}
	c.JSON(http.StatusOK, reservations)
}

// GetFacilityUsage handles GET /api/facilities/{facility_id}/usage. The
// result is the total horse demand touching the window, not a concurrency
// peak; brief spikes between staggered reservations do not show up here.
func (h *Handler) GetFacilityUsage(c *gin.Context) {
	facilityID, ok := facilityIDParam(c)
	if !ok {
		return
	}

	from, to, ok := windowQuery(c)
	if !ok {
		return
	}

	usage, err := h.validator.CurrentUsage(c.Request.Context(), facilityID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute facility usage"})
		return
	}
	c.JSON(http.StatusOK, usage)
}

func facilityIDParam(c *gin.Context) (int64, bool) {
	facilityID, err := strconv.ParseInt(c.Param("facility_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid facility ID"})
		return 0, false
	}
	return facilityID, true
}

func windowQuery(c *gin.Context) (from, to time.Time, ok bool) {
	now := time.Now().UTC()
	from, to = now, now.AddDate(0, 0, 7)

	if raw := c.Query("from"); raw != "" {
		var err error
		if from, err = timeparse.Instant(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp"})
			return from, to, false
		}
	}
	if raw := c.Query("to"); raw != "" {
		var err error
		if to, err = timeparse.Instant(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp"})
			return from, to, false
		}
	}
	if !from.Before(to) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "'from' must be before 'to'"})
		return from, to, false
	}
	return from, to, true
}
