// Package checkin orchestrates the two check-in paths: face recognition
// and manual by email. It ties together the participant store, the face
// identity service, the check-in records and the non-critical greeting
// and notification steps, which degrade internally and never fail a
// check-in.
package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/internal/faceid"
	"github.com/eventflow/checkin-backend/internal/greeting"
	"github.com/eventflow/checkin-backend/internal/models"
	"github.com/eventflow/checkin-backend/internal/notify"
)

var (
	// ErrNoFaceMatch means no indexed face cleared the similarity floor.
	ErrNoFaceMatch = errors.New("no face match")
	// ErrParticipantNotFound means the participant record is missing
	// (unknown email, or a stale face identity reference).
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipantStore is the participant lookup needed by the orchestrator.
type ParticipantStore interface {
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	GetByEmail(ctx context.Context, email string) (*models.Participant, error)
}

// CheckinStore persists check-in attempts and day markers.
type CheckinStore interface {
	Create(ctx context.Context, c *models.CheckIn) error
	FirstOfDay(ctx context.Context, participantID, day string) (bool, error)
}

// FaceSearcher matches a photo against the indexed faces.
type FaceSearcher interface {
	SearchFace(ctx context.Context, image []byte) (*faceid.Match, error)
}

// Greeter produces the personalized welcome. Never fails.
type Greeter interface {
	GenerateGreeting(ctx context.Context, p *models.Participant) *greeting.Greeting
	GenerateAssistance(ctx context.Context, query string, p *models.Participant) string
}

// Notifier dispatches the check-in confirmation. Never fails.
type Notifier interface {
	SendCheckinNotification(ctx context.Context, p *models.Participant, c *models.CheckIn) *notify.Result
}

// Result is the outcome of a completed check-in.
type Result struct {
	Participant      *models.Participant
	CheckIn          *models.CheckIn
	AlreadyCheckedIn bool
	Greeting         *greeting.Greeting
	Notification     *notify.Result
	Confidence       float64
}

// Service runs the check-in workflows.
type Service struct {
	participants ParticipantStore
	checkins     CheckinStore
	faces        FaceSearcher
	greeter      Greeter
	notifier     Notifier
	loc          *time.Location
	logger       *zap.Logger
}

// NewService creates the check-in orchestrator. loc defines the "today"
// boundary for duplicate detection; nil means server local time.
func NewService(participants ParticipantStore, checkins CheckinStore, faces FaceSearcher, greeter Greeter, notifier Notifier, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		participants: participants,
		checkins:     checkins,
		faces:        faces,
		greeter:      greeter,
		notifier:     notifier,
		loc:          loc,
		logger:       logger,
	}
}

// CheckInByFace matches the photo, records the attempt (duplicates are
// recorded with DUPLICATE status, not rejected) and assembles the
// greeting and notification.
func (s *Service) CheckInByFace(ctx context.Context, image []byte) (*Result, error) {
	match, err := s.faces.SearchFace(ctx, image)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrNoFaceMatch
	}

	participant, err := s.participants.GetByID(ctx, match.ParticipantID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		s.logger.Warn("face match references missing participant",
			zap.String("participant_id", match.ParticipantID), zap.String("face_id", match.FaceID))
		return nil, ErrParticipantNotFound
	}

	now := time.Now().In(s.loc)
	first, err := s.checkins.FirstOfDay(ctx, participant.ID, now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	status := models.CheckInSuccess
	if !first {
		status = models.CheckInDuplicate
	}
	record := &models.CheckIn{
		ID:            uuid.New().String(),
		ParticipantID: participant.ID,
		Timestamp:     now.Format(time.RFC3339),
		Method:        models.MethodFacial,
		Confidence:    match.Confidence,
		Status:        status,
	}
	if err := s.checkins.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("face check-in recorded",
		zap.String("participant_id", participant.ID),
		zap.String("status", string(status)),
		zap.Float64("confidence", match.Confidence),
	)
	return &Result{
		Participant:      participant,
		CheckIn:          record,
		AlreadyCheckedIn: !first,
		Greeting:         s.greeter.GenerateGreeting(ctx, participant),
		Notification:     s.notifier.SendCheckinNotification(ctx, participant, record),
		Confidence:       match.Confidence,
	}, nil
}

// CheckInByEmail is the manual fallback path. It records SUCCESS
// unconditionally (no duplicate suppression on this path), but still
// sets the day marker so a later face check-in the same day is flagged
// as a duplicate.
func (s *Service) CheckInByEmail(ctx context.Context, email string) (*Result, error) {
	participant, err := s.participants.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrParticipantNotFound
	}

	now := time.Now().In(s.loc)
	if _, err := s.checkins.FirstOfDay(ctx, participant.ID, now.Format("2006-01-02")); err != nil {
		return nil, err
	}

	record := &models.CheckIn{
		ID:            uuid.New().String(),
		ParticipantID: participant.ID,
		Timestamp:     now.Format(time.RFC3339),
		Method:        models.MethodManual,
		Status:        models.CheckInSuccess,
	}
	if err := s.checkins.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("manual check-in recorded", zap.String("participant_id", participant.ID))
	return &Result{
		Participant:  participant,
		CheckIn:      record,
		Greeting:     s.greeter.GenerateGreeting(ctx, participant),
		Notification: s.notifier.SendCheckinNotification(ctx, participant, record),
	}, nil
}

// Assist answers a free-text question with participant context.
func (s *Service) Assist(ctx context.Context, participantID, query string) (string, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return "", err
	}
	if participant == nil {
		return "", ErrParticipantNotFound
	}
	return s.greeter.GenerateAssistance(ctx, query, participant), nil
}
