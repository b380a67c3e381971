// Package admin serves the read-only organizer dashboard: listings and
// aggregate stats. Sensitive participant fields never reach the output.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/internal/models"
	"github.com/eventflow/checkin-backend/pkg/response"
)

const defaultCheckinLimit = 50

// ParticipantReader is the participant access needed by the dashboard.
type ParticipantReader interface {
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	ScanAll(ctx context.Context) ([]models.Participant, error)
	Count(ctx context.Context) (int, error)
}

// CheckinReader is the check-in access needed by the dashboard.
type CheckinReader interface {
	ScanAll(ctx context.Context) ([]models.CheckIn, error)
	ListByParticipant(ctx context.Context, participantID string) ([]models.CheckIn, error)
	Count(ctx context.Context) (int, error)
}

// CheckinEntry is a check-in joined with its participant's summary.
type CheckinEntry struct {
	models.CheckIn
	Participant *models.Summary `json:"participant"`
}

// Handler handles admin HTTP endpoints.
type Handler struct {
	participants ParticipantReader
	checkins     CheckinReader
	logger       *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(participants ParticipantReader, checkins CheckinReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{participants: participants, checkins: checkins, logger: logger}
}

// ListParticipants handles GET /api/admin/participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	list, err := h.participants.ScanAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participants": list,
		"total":        len(list),
	})
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	totalParticipants, err := h.participants.Count(ctx)
	if err != nil {
		h.logger.Error("count participants failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	checkins, err := h.checkins.ScanAll(ctx)
	if err != nil {
		h.logger.Error("scan checkins failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}

	facial, manual := 0, 0
	for _, ci := range checkins {
		switch ci.Method {
		case models.MethodFacial:
			facial++
		case models.MethodManual:
			manual++
		}
	}

	rate := "0.00"
	if totalParticipants > 0 {
		rate = fmt.Sprintf("%.2f", float64(len(checkins))/float64(totalParticipants)*100)
	}
	c.JSON(http.StatusOK, gin.H{
		"totalParticipants": totalParticipants,
		"totalCheckins":     len(checkins),
		"checkinsByMethod": gin.H{
			"facial": facial,
			"manual": manual,
		},
		"checkinRate": rate,
	})
}

// ListCheckins handles GET /api/admin/checkins?limit=N. Most recent
// first, each joined with a reduced participant view.
func (h *Handler) ListCheckins(c *gin.Context) {
	limit := defaultCheckinLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	checkins, err := h.checkins.ScanAll(c.Request.Context())
	if err != nil {
		h.logger.Error("scan checkins failed", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	sort.Slice(checkins, func(i, j int) bool {
		return checkins[i].Timestamp > checkins[j].Timestamp
	})
	if len(checkins) > limit {
		checkins = checkins[:limit]
	}

	summaries := make(map[string]*models.Summary)
	entries := make([]CheckinEntry, 0, len(checkins))
	for _, ci := range checkins {
		summary, ok := summaries[ci.ParticipantID]
		if !ok {
			p, err := h.participants.GetByID(c.Request.Context(), ci.ParticipantID)
			if err != nil {
				h.logger.Error("join participant failed", zap.Error(err), zap.String("participant_id", ci.ParticipantID))
				response.Internal(c, err.Error())
				return
			}
			if p != nil {
				s := p.Summary()
				summary = &s
			}
			summaries[ci.ParticipantID] = summary
		}
		entries = append(entries, CheckinEntry{CheckIn: ci, Participant: summary})
	}

	c.JSON(http.StatusOK, gin.H{
		"checkins": entries,
		"total":    len(entries),
	})
}

// GetParticipant handles GET /api/admin/participants/:id: the record
// plus its check-in history, most recent first.
func (h *Handler) GetParticipant(c *gin.Context) {
	p, err := h.participants.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get participant failed", zap.Error(err), zap.String("id", c.Param("id")))
		response.Internal(c, err.Error())
		return
	}
	if p == nil {
		response.NotFound(c, "Participante não encontrado")
		return
	}

	checkins, err := h.checkins.ListByParticipant(c.Request.Context(), p.ID)
	if err != nil {
		h.logger.Error("list participant checkins failed", zap.Error(err), zap.String("id", p.ID))
		response.Internal(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participant": p,
		"checkins":    checkins,
	})
}
