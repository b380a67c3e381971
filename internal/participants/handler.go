package participants

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/internal/faceid"
	"github.com/eventflow/checkin-backend/internal/models"
	"github.com/eventflow/checkin-backend/pkg/response"
	"github.com/eventflow/checkin-backend/pkg/utils"
)

// Store is the participant persistence needed by the handler.
type Store interface {
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	GetByEmail(ctx context.Context, email string) (*models.Participant, error)
	Put(ctx context.Context, p *models.Participant) error
}

// FaceIndexer indexes a registration photo.
type FaceIndexer interface {
	IndexFace(ctx context.Context, image []byte, participantID string) (*faceid.IndexResult, error)
}

// RegisterRequest is the multipart form for POST /api/participants/register.
type RegisterRequest struct {
	Name     string `form:"name" binding:"required,min=2,max=100"`
	Email    string `form:"email" binding:"required,email"`
	Company  string `form:"company" binding:"required,min=2,max=100"`
	Type     string `form:"type" binding:"omitempty,oneof=ADMIN SPEAKER GUEST SPONSOR"`
	Phone    string `form:"phone"`
	Position string `form:"position"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	store    Store
	faces    FaceIndexer
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a participants handler.
func NewHandler(store Store, faces FaceIndexer, maxUploadMB int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, faces: faces, maxBytes: maxUploadMB * 1024 * 1024, logger: logger}
}

// Register handles POST /api/participants/register: validates the form,
// rejects duplicate emails, indexes the photo and stores the record.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequestDetail(c, "Dados inválidos", err.Error())
		return
	}

	existing, err := h.store.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("email lookup failed", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, err.Error())
		return
	}
	if existing != nil {
		response.Conflict(c, "Participante já cadastrado com este email")
		return
	}

	photo, _, err := utils.ReadImageFile(c, "photo", h.maxBytes)
	if err != nil {
		if errors.Is(err, utils.ErrMissingFile) {
			response.BadRequest(c, "Foto é obrigatória para o cadastro")
			return
		}
		response.BadRequestDetail(c, "Foto inválida", err.Error())
		return
	}

	participantID := uuid.New().String()
	faceData, err := h.faces.IndexFace(c.Request.Context(), photo, participantID)
	if err != nil {
		if errors.Is(err, faceid.ErrNoFaceDetected) {
			response.BadRequest(c, "Nenhuma face detectada na imagem")
			return
		}
		h.logger.Error("face indexing failed", zap.Error(err), zap.String("participant_id", participantID))
		response.Internal(c, err.Error())
		return
	}

	participantType := models.ParticipantType(req.Type)
	if participantType == "" {
		participantType = models.TypeGuest
	}
	participant := &models.Participant{
		ID:         participantID,
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Type:       participantType,
		Phone:      req.Phone,
		Position:   req.Position,
		FaceID:     faceData.FaceID,
		ImageKey:   faceData.ImageKey,
		Confidence: faceData.Confidence,
		Status:     models.StatusActive,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Put(c.Request.Context(), participant); err != nil {
		h.logger.Error("store participant failed", zap.Error(err), zap.String("participant_id", participantID))
		response.Internal(c, err.Error())
		return
	}

	h.logger.Info("participant registered",
		zap.String("participant_id", participantID), zap.String("type", string(participantType)))
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Participante cadastrado com sucesso!",
		"participant": participant,
	})
}

// GetByID handles GET /api/participants/:id.
func (h *Handler) GetByID(c *gin.Context) {
	p, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get participant failed", zap.Error(err), zap.String("id", c.Param("id")))
		response.Internal(c, err.Error())
		return
	}
	if p == nil {
		response.NotFound(c, "Participante não encontrado")
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": p})
}
