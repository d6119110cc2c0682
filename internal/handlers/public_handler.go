package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rezervi/rezervi-api/internal/dto"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/httpresp"
	"github.com/rezervi/rezervi-api/internal/middleware"
	"github.com/rezervi/rezervi-api/internal/usecase/booking"
	"github.com/rezervi/rezervi-api/internal/usecase/business"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed marks a booking response served from an earlier request
	// with the same Idempotency-Key.
	HeaderReplayed = "Idempotent-Replayed"
)

// ======================================================
// HANDLER
// ======================================================

type PublicHandler struct {
	businesses   *business.Service
	availability *booking.GetAvailability
	book         *booking.Book
}

func NewPublicHandler(
	businesses *business.Service,
	availability *booking.GetAvailability,
	book *booking.Book,
) *PublicHandler {
	return &PublicHandler{
		businesses:   businesses,
		availability: availability,
		book:         book,
	}
}

// ======================================================
// BUSINESSES
// ======================================================

func (h *PublicHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	list, err := h.businesses.Search(
		c.Request.Context(),
		strings.TrimSpace(strings.ToLower(c.Query("type"))),
		c.Query("query"),
		limit,
	)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, list)
}

func (h *PublicHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "business")
	if !ok {
		return
	}

	b, err := h.businesses.Get(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"business": b})
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *PublicHandler) Availability(c *gin.Context) {
	id, ok := pathID(c, "id", "business")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.Respond(c, httperr.InvalidField("date", "is required"))
		return
	}

	res, err := h.availability.Execute(c.Request.Context(), id, date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	out := dto.AvailabilityDTO{Date: res.Date, Slots: make([]dto.SlotDTO, 0, len(res.Slots))}
	for _, s := range res.Slots {
		out.Slots = append(out.Slots, dto.SlotDTO{
			Time:              s.Time.String(),
			EndTime:           s.End.String(),
			CapacityRemaining: s.CapacityRemaining,
		})
	}

	httpresp.OK(c, out)
}

// ======================================================
// BOOKING
// ======================================================

func (h *PublicHandler) Book(c *gin.Context) {
	id, ok := pathID(c, "id", "business")
	if !ok {
		return
	}

	var in booking.BookInput
	if !bindJSON(c, &in) {
		return
	}

	in.BusinessID = id
	in.IdempotencyKey = strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if userID, ok := middleware.UserID(c); ok {
		in.CustomerID = &userID
	}

	res, replayed, err := h.book.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if replayed {
		c.Header(HeaderReplayed, "true")
		httpresp.OK(c, gin.H{"reservation": res})
		return
	}
	httpresp.Created(c, gin.H{"reservation": res})
}
