package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/auth"
	"github.com/rezervi/rezervi-api/internal/httperr"
)

const (
	ContextUserID     = "userID"
	ContextBusinessID = "businessID"
	ContextUserRole   = "userRole"
)

// Auth rejects requests without a valid bearer token.
func Auth(iss *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httperr.Respond(c, httperr.Unauthorized("missing_authorization_header"))
			return
		}
		if !authenticate(c, iss, header) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent. A bad token is
// still rejected.
func OptionalAuth(iss *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if !authenticate(c, iss, header) {
				return
			}
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRole) != role {
			httperr.Respond(c, httperr.Forbidden("requires role "+role))
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, iss *auth.Issuer, header string) bool {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		httperr.Respond(c, httperr.Unauthorized("invalid_authorization_header"))
		return false
	}

	claims, err := iss.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		httperr.Respond(c, httperr.Unauthorized("invalid_token"))
		return false
	}

	userID, _ := claims.UserID()
	c.Set(ContextUserID, userID)
	c.Set(ContextUserRole, claims.Role)
	if biz, _ := claims.Business(); biz != nil {
		c.Set(ContextBusinessID, *biz)
	}
	return true
}

// UserID returns the authenticated user, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// BusinessID returns the business of an authenticated owner, if any.
func BusinessID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextBusinessID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
