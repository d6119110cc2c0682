package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/httpresp"
	"github.com/rezervi/rezervi-api/internal/usecase/account"
)

type AuthHandler struct {
	accounts *account.Service
}

func NewAuthHandler(accounts *account.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in account.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in account.LoginInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, res)
}
