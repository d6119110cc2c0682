package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/httpresp"
	"github.com/rezervi/rezervi-api/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type ReservationHandler struct {
	queries      *booking.Queries
	changeStatus *booking.ChangeStatus
	reschedule   *booking.Reschedule
}

func NewReservationHandler(
	queries *booking.Queries,
	changeStatus *booking.ChangeStatus,
	reschedule *booking.Reschedule,
) *ReservationHandler {
	return &ReservationHandler{
		queries:      queries,
		changeStatus: changeStatus,
		reschedule:   reschedule,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// ======================================================
// SINGLE RESERVATION
// ======================================================

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "reservation")
	if !ok {
		return
	}

	r, err := h.queries.Get(c.Request.Context(), id, principal(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"reservation": r})
}

func (h *ReservationHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id", "reservation")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.changeStatus.Execute(c.Request.Context(), booking.ChangeStatusInput{
		ReservationID: id,
		Status:        req.Status,
		Principal:     principal(c),
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"reservation": r})
}

func (h *ReservationHandler) Reschedule(c *gin.Context) {
	id, ok := pathID(c, "id", "reservation")
	if !ok {
		return
	}

	var req RescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.reschedule.Execute(c.Request.Context(), booking.RescheduleInput{
		ReservationID: id,
		Date:          req.Date,
		Time:          req.Time,
		Principal:     principal(c),
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"reservation": r})
}

// ======================================================
// LISTINGS
// ======================================================

func (h *ReservationHandler) MyBookings(c *gin.Context) {
	p := principal(c)

	list, err := h.queries.ListForCustomer(c.Request.Context(), p.UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, list)
}

func (h *ReservationHandler) ListByDate(c *gin.Context) {
	businessID, ok := ownBusiness(c)
	if !ok {
		return
	}

	list, err := h.queries.ListByDate(c.Request.Context(), businessID, c.Query("date"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, list)
}

func (h *ReservationHandler) ListByMonth(c *gin.Context) {
	businessID, ok := ownBusiness(c)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		httperr.Respond(c, httperr.InvalidField("year", "must be a number"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		httperr.Respond(c, httperr.InvalidField("month", "must be a number"))
		return
	}

	list, err := h.queries.ListByMonth(c.Request.Context(), businessID, year, month)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, list)
}
