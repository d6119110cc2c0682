package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/httpresp"
	"github.com/rezervi/rezervi-api/internal/usecase/business"
)

// BusinessHandler serves the owner's own business: profile, settings,
// calendar and audit trail.
type BusinessHandler struct {
	businesses *business.Service
}

func NewBusinessHandler(businesses *business.Service) *BusinessHandler {
	return &BusinessHandler{businesses: businesses}
}

// ======================================================
// PROFILE AND SETTINGS
// ======================================================

func (h *BusinessHandler) Get(c *gin.Context) {
	id, ok := ownBusiness(c)
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

func (h *BusinessHandler) Update(c *gin.Context) {
	id, ok := ownBusiness(c)
	if !ok {
		return
	}

	var patch business.SettingsPatch
	if !bindJSON(c, &patch) {
		return
	}

	b, err := h.businesses.UpdateSettings(c.Request.Context(), id, principal(c).UserID, patch)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"business": b})
}

// ======================================================
// WORKING HOURS
// ======================================================

type WorkingHoursRequest struct {
	Days []business.DayInput `json:"days"`
}

type SpecialDatesRequest struct {
	Dates []business.SpecialDateInput `json:"dates"`
}

func (h *BusinessHandler) GetWorkingHours(c *gin.Context) {
	id, ok := ownBusiness(c)
	if !ok {
		return
	}

	b, err := h.businesses.Get(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, b.WorkingHours)
}

func (h *BusinessHandler) ReplaceWorkingHours(c *gin.Context) {
	id, ok := ownBusiness(c)
	if !ok {
		return
	}

	var req WorkingHoursRequest
	if !bindJSON(c, &req) {
		return
	}

	hours, err := h.businesses.ReplaceWorkingHours(c.Request.Context(), id, principal(c).UserID, req.Days)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, hours)
}

// ======================================================
// SPECIAL DATES
// ======================================================

func (h *BusinessHandler) GetSpecialDates(c *gin.Context) {
	id, ok := ownBusiness(c)
	if !ok {
		return
	}

	b, err := h.businesses.Get(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, b.SpecialDates)
}

func (h *BusinessHandler) ReplaceSpecialDates(c *gin.Context) {
	id, ok := ownBusiness(c)
	if !ok {
		return
	}

	var req SpecialDatesRequest
	if !bindJSON(c, &req) {
		return
	}

	dates, err := h.businesses.ReplaceSpecialDates(c.Request.Context(), id, principal(c).UserID, req.Dates)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, dates)
}

// ======================================================
// AUDIT LOGS
// ======================================================

func (h *BusinessHandler) AuditLogs(c *gin.Context) {
	id, ok := ownBusiness(c)
	if !ok {
		return
	}

	q := business.AuditQuery{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
	}
	q.Page = queryInt(c, "page", 1)
	q.Limit = queryInt(c, "limit", 50)

	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			httperr.Respond(c, httperr.InvalidField("from", "must be an RFC3339 timestamp"))
			return
		}
		q.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			httperr.Respond(c, httperr.InvalidField("to", "must be an RFC3339 timestamp"))
			return
		}
		q.To = &t
	}

	page, err := h.businesses.ListAudit(c.Request.Context(), id, q)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Page(c, page.Logs, page.Page, page.Limit, page.Total)
}
