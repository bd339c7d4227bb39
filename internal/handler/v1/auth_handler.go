package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/service"
)

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	// Role selects the credential store: admin, doctor, or patient.
	Role string `json:"role" binding:"required"`
	// Identifier is the username for admins, the email otherwise.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	role := domain.Role(req.Role)
	if !role.IsValid() {
		respondError(c, http.StatusBadRequest, "role must be admin, doctor, or patient")
		return
	}

	pair, err := h.authSvc.Login(c.Request.Context(), role, req.Identifier, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}
