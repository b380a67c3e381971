// Package notify sends check-in confirmations over WhatsApp via the
// Twilio messaging API, degrading to a logged mock when credentials are
// missing or delivery fails. Delivery problems never surface as errors
// to the check-in flow.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/internal/models"
)

const (
	// MethodTwilioWhatsApp marks a real delivery through Twilio.
	MethodTwilioWhatsApp = "TWILIO_WHATSAPP"
	// MethodMock marks the logged no-op fallback.
	MethodMock = "WHATSAPP_MOCK"

	defaultBaseURL = "https://api.twilio.com"
)

// Result reports the outcome of a notification attempt. Success is
// always true; Delivered distinguishes a real send from the mock
// fallback so operators can monitor degradation.
type Result struct {
	Success     bool   `json:"success"`
	Method      string `json:"method"`
	Delivered   bool   `json:"delivered"`
	To          string `json:"to,omitempty"`
	MessageSID  string `json:"messageSid,omitempty"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
	Participant string `json:"participant"`
}

// WhatsApp dispatches check-in notifications through Twilio's REST API.
type WhatsApp struct {
	accountSID string
	authToken  string
	from       string
	eventName  string
	baseURL    string
	loc        *time.Location
	client     *http.Client
	logger     *zap.Logger
}

// NewWhatsApp creates the dispatcher. Empty credentials put it in
// permanent mock mode. loc defines the timezone used in the message
// body; nil means server local.
func NewWhatsApp(accountSID, authToken, from, eventName string, loc *time.Location, logger *zap.Logger) *WhatsApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &WhatsApp{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		eventName:  eventName,
		baseURL:    defaultBaseURL,
		loc:        loc,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// SendCheckinNotification formats and attempts delivery of the welcome
// message. Never returns an error: missing configuration and delivery
// failures both resolve to the mock result.
func (w *WhatsApp) SendCheckinNotification(ctx context.Context, p *models.Participant, checkin *models.CheckIn) *Result {
	if w.accountSID == "" || w.authToken == "" {
		w.logger.Info("Twilio credentials not configured, using mock notification",
			zap.String("participant", p.Name))
		return w.mock(p, checkin)
	}
	return w.send(ctx, p, checkin)
}

func (w *WhatsApp) send(ctx context.Context, p *models.Participant, checkin *models.CheckIn) *Result {
	to := FormatWhatsAppNumber(p.Phone)
	body := w.buildWelcomeMessage(p, checkin)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", w.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", w.baseURL, w.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		w.logger.Warn("build twilio request failed, using mock", zap.Error(err))
		return w.mock(p, checkin)
	}
	req.SetBasicAuth(w.accountSID, w.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("twilio delivery failed, using mock", zap.Error(err), zap.String("to", to))
		return w.mock(p, checkin)
	}
	defer resp.Body.Close()

	var twilioResp struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || json.NewDecoder(resp.Body).Decode(&twilioResp) != nil {
		w.logger.Warn("twilio rejected message, using mock",
			zap.Int("status_code", resp.StatusCode), zap.String("to", to))
		return w.mock(p, checkin)
	}

	w.logger.Info("WhatsApp notification sent",
		zap.String("to", to), zap.String("message_sid", twilioResp.SID))
	return &Result{
		Success:     true,
		Method:      MethodTwilioWhatsApp,
		Delivered:   true,
		To:          to,
		MessageSID:  twilioResp.SID,
		Status:      twilioResp.Status,
		Participant: p.Name,
	}
}

func (w *WhatsApp) mock(p *models.Participant, checkin *models.CheckIn) *Result {
	to := FormatWhatsAppNumber(p.Phone)
	body := w.buildWelcomeMessage(p, checkin)
	w.logger.Info("mock WhatsApp notification", zap.String("to", to), zap.String("body", body))
	return &Result{
		Success:     true,
		Method:      MethodMock,
		Delivered:   false,
		To:          to,
		Message:     body,
		Participant: p.Name,
	}
}

func (w *WhatsApp) buildWelcomeMessage(p *models.Participant, checkin *models.CheckIn) string {
	ts, err := time.Parse(time.RFC3339, checkin.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	ts = ts.In(w.loc)

	return fmt.Sprintf(`🎉 *Bem-vindo ao %s!*

Olá *%s*! 👋

✅ Seu check-in foi confirmado com sucesso!
📅 Data: %s
⏰ Horário: %s

%s

Tenha um evento incrível! 🚀

_Mensagem automática do sistema de check-in_`,
		w.eventName, p.Name, ts.Format("02/01/2006"), ts.Format("15:04:05"), personalizedMessage(p.Type))
}

func personalizedMessage(t models.ParticipantType) string {
	switch t {
	case models.TypeSpeaker:
		return "🎤 *Palestrante confirmado!* Boa sorte com sua apresentação!"
	case models.TypeSponsor:
		return "🤝 *Patrocinador VIP!* Obrigado por apoiar nosso evento!"
	case models.TypeAdmin:
		return "👨‍💼 *Organizador ativo!* Tenha um ótimo trabalho!"
	default:
		return "🎯 *Participante registrado!* Aproveite todas as palestras!"
	}
}
