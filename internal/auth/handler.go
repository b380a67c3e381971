// Package auth implements the optional admin login. It exists only when
// an admin password hash is configured; the dashboard is open otherwise.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/config"
	"github.com/eventflow/checkin-backend/pkg/response"
	"github.com/eventflow/checkin-backend/pkg/utils"
)

// LoginRequest is the body for POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the login response with the bearer token.
type TokenResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	admin  config.AdminConfig
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(admin config.AdminConfig, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{admin: admin, jwt: jwt, logger: logger}
}

// Login handles POST /api/admin/login. Credentials are checked against
// the configured admin email and bcrypt hash.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email e senha são obrigatórios")
		return
	}

	if !strings.EqualFold(req.Email, h.admin.Email) || !utils.CheckPassword(req.Password, h.admin.PasswordHash) {
		h.logger.Warn("admin login rejected", zap.String("email", req.Email))
		response.Unauthorized(c, "Credenciais inválidas")
		return
	}

	token, err := h.jwt.Generate(h.admin.Email, RoleAdmin)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, Email: h.admin.Email, Role: RoleAdmin})
}
