package chat

import (
	"context"
	"encoding/json"
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

// ParticipantStore is the participant persistence needed to finalize a
// chat registration.
type ParticipantStore interface {
	Put(ctx context.Context, p *models.Participant) error
}

// FaceIndexer indexes the captured photo.
type FaceIndexer interface {
	IndexFace(ctx context.Context, image []byte, participantID string) (*faceid.IndexResult, error)
}

// MessageRequest is the body for POST /api/chat-registration/message.
type MessageRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

type registrationResult struct {
	Participant *models.Participant `json:"participant"`
}

// photoReply is an agent reply optionally extended with the registration
// outcome once the conversation completes.
type photoReply struct {
	*Reply
	RegistrationResult *registrationResult `json:"registrationResult,omitempty"`
}

// Handler handles the chat registration HTTP endpoints.
type Handler struct {
	agent    *Agent
	store    ParticipantStore
	faces    FaceIndexer
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a chat registration handler.
func NewHandler(agent *Agent, store ParticipantStore, faces FaceIndexer, maxUploadMB int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{agent: agent, store: store, faces: faces, maxBytes: maxUploadMB * 1024 * 1024, logger: logger}
}

// Start handles POST /api/chat-registration/start.
func (h *Handler) Start(c *gin.Context) {
	sessionID, reply, err := h.agent.Start(c.Request.Context())
	if err != nil {
		h.logger.Error("start chat failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": sessionID,
		"response":  reply,
	})
}

// Message handles POST /api/chat-registration/message.
func (h *Handler) Message(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "SessionId e message são obrigatórios")
		return
	}

	reply, err := h.agent.ProcessMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(c, "Sessão não encontrada")
			return
		}
		h.logger.Error("process chat message failed", zap.Error(err), zap.String("session_id", req.SessionID))
		response.Internal(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": reply,
	})
}

// Photo handles POST /api/chat-registration/photo. When the agent
// finishes the conversation on this turn, the participant is registered
// right here with the captured photo.
func (h *Handler) Photo(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	photo, _, err := utils.ReadImageFile(c, "photo", h.maxBytes)
	if sessionID == "" || errors.Is(err, utils.ErrMissingFile) {
		response.BadRequest(c, "SessionId e foto são obrigatórios")
		return
	}
	if err != nil {
		response.BadRequestDetail(c, "Foto inválida", err.Error())
		return
	}

	reply, err := h.agent.ProcessPhoto(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(c, "Sessão não encontrada")
			return
		}
		h.logger.Error("process chat photo failed", zap.Error(err), zap.String("session_id", sessionID))
		response.Internal(c, err.Error())
		return
	}

	out := photoReply{Reply: reply}
	if reply.Type == ReplyComplete && reply.Data != nil {
		participant, err := h.register(c.Request.Context(), reply.Data, photo)
		if err != nil {
			if errors.Is(err, faceid.ErrNoFaceDetected) {
				response.BadRequest(c, "Nenhuma face detectada na imagem")
				return
			}
			h.logger.Error("chat registration finalize failed", zap.Error(err), zap.String("session_id", sessionID))
			response.Internal(c, "Dados coletados, mas erro ao finalizar cadastro: "+err.Error())
			return
		}
		out.RegistrationResult = &registrationResult{Participant: participant}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": out,
	})
}

// Complete handles POST /api/chat-registration/complete: finalizes a
// registration from client-held data and photo, without replaying the
// conversation.
func (h *Handler) Complete(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	rawData := c.PostForm("registrationData")
	photo, _, err := utils.ReadImageFile(c, "photo", h.maxBytes)
	if sessionID == "" || rawData == "" || errors.Is(err, utils.ErrMissingFile) {
		response.BadRequest(c, "Dados incompletos para finalizar cadastro")
		return
	}
	if err != nil {
		response.BadRequestDetail(c, "Foto inválida", err.Error())
		return
	}

	var data RegistrationData
	if err := json.Unmarshal([]byte(rawData), &data); err != nil {
		response.BadRequestDetail(c, "Dados incompletos para finalizar cadastro", err.Error())
		return
	}

	participant, err := h.register(c.Request.Context(), &data, photo)
	if err != nil {
		if errors.Is(err, faceid.ErrNoFaceDetected) {
			response.BadRequest(c, "Nenhuma face detectada na imagem")
			return
		}
		h.logger.Error("chat registration complete failed", zap.Error(err), zap.String("session_id", sessionID))
		response.Internal(c, "Erro ao finalizar cadastro: "+err.Error())
		return
	}

	// Session removal is best effort; it may already have expired.
	if err := h.agent.ClearSession(c.Request.Context(), sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		h.logger.Warn("clear chat session failed", zap.Error(err), zap.String("session_id", sessionID))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"participant": participant,
		"message":     "Cadastro realizado com sucesso!",
	})
}

// register stores the collected data as a new participant with an
// indexed face.
func (h *Handler) register(ctx context.Context, data *RegistrationData, photo []byte) (*models.Participant, error) {
	participantID := uuid.New().String()
	faceData, err := h.faces.IndexFace(ctx, photo, participantID)
	if err != nil {
		return nil, err
	}

	participantType := models.ParticipantType(data.Type)
	if !participantType.Valid() {
		participantType = models.TypeGuest
	}
	participant := &models.Participant{
		ID:         participantID,
		Name:       data.Name,
		Email:      data.Email,
		Company:    data.Company,
		Type:       participantType,
		Phone:      data.Phone,
		Position:   data.Position,
		FaceID:     faceData.FaceID,
		ImageKey:   faceData.ImageKey,
		Confidence: faceData.Confidence,
		Status:     models.StatusActive,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Put(ctx, participant); err != nil {
		return nil, err
	}

	h.logger.Info("participant registered via chat",
		zap.String("participant_id", participantID), zap.String("type", string(participantType)))
	return participant, nil
}
