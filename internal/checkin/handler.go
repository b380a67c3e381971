package checkin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/pkg/response"
	"github.com/eventflow/checkin-backend/pkg/utils"
)

// ManualRequest is the body for POST /api/checkin/manual.
type ManualRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AssistanceRequest is the body for POST /api/checkin/assistance.
type AssistanceRequest struct {
	Query         string `json:"query" binding:"required"`
	ParticipantID string `json:"participantId" binding:"required"`
}

// Handler handles check-in HTTP endpoints.
type Handler struct {
	service  *Service
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a check-in handler.
func NewHandler(service *Service, maxUploadMB int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, maxBytes: maxUploadMB * 1024 * 1024, logger: logger}
}

// Face handles POST /api/checkin/face.
func (h *Handler) Face(c *gin.Context) {
	photo, _, err := utils.ReadImageFile(c, "photo", h.maxBytes)
	if err != nil {
		if errors.Is(err, utils.ErrMissingFile) {
			response.BadRequest(c, "Imagem é obrigatória para o checkin")
			return
		}
		response.BadRequestDetail(c, "Imagem inválida", err.Error())
		return
	}

	result, err := h.service.CheckInByFace(c.Request.Context(), photo)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFaceMatch):
			response.NotFoundDetail(c, "Participante não encontrado",
				"Não foi possível identificar sua face. Verifique se você está cadastrado.")
		case errors.Is(err, ErrParticipantNotFound):
			response.NotFound(c, "Dados do participante não encontrados")
		default:
			h.logger.Error("face check-in failed", zap.Error(err))
			response.Internal(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"participant": result.Participant,
		"checkin": gin.H{
			"id":               result.CheckIn.ID,
			"timestamp":        result.CheckIn.Timestamp,
			"alreadyCheckedIn": result.AlreadyCheckedIn,
		},
		"greeting":     result.Greeting,
		"notification": result.Notification,
		"confidence":   result.Confidence,
	})
}

// Manual handles POST /api/checkin/manual.
func (h *Handler) Manual(c *gin.Context) {
	var req ManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email é obrigatório")
		return
	}

	result, err := h.service.CheckInByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			response.NotFound(c, "Participante não encontrado com este email")
			return
		}
		h.logger.Error("manual check-in failed", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"participant": result.Participant,
		"checkin": gin.H{
			"id":        result.CheckIn.ID,
			"timestamp": result.CheckIn.Timestamp,
			"method":    result.CheckIn.Method,
		},
		"greeting":     result.Greeting,
		"notification": result.Notification,
	})
}

// Assistance handles POST /api/checkin/assistance.
func (h *Handler) Assistance(c *gin.Context) {
	var req AssistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Query e participantId são obrigatórios")
		return
	}

	answer, err := h.service.Assist(c.Request.Context(), req.ParticipantID, req.Query)
	if err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			response.NotFound(c, "Participante não encontrado")
			return
		}
		h.logger.Error("assistance failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":  answer,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
