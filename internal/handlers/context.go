package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/middleware"
	"github.com/rezervi/rezervi-api/internal/usecase/booking"
	"github.com/rezervi/rezervi-api/internal/validators"
)

// principal builds the caller identity set by middleware.Auth.
func principal(c *gin.Context) booking.Principal {
	userID, _ := middleware.UserID(c)
	p := booking.Principal{
		UserID: userID,
		Role:   c.GetString(middleware.ContextUserRole),
	}
	if biz, ok := middleware.BusinessID(c); ok {
		p.BusinessID = &biz
	}
	return p
}

// ownBusiness returns the caller's business or writes 403.
func ownBusiness(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.BusinessID(c)
	if !ok {
		httperr.Respond(c, httperr.Forbidden("no business linked to this account"))
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.Respond(c, httperr.NotFound(resource))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httperr.Respond(c, validators.Translate(err))
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
