// Package greeting generates personalized greetings and assistance
// answers via the text-generation model, with canned fallbacks so the
// check-in flow never fails on an AI outage.
package greeting

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/internal/llm"
	"github.com/eventflow/checkin-backend/internal/models"
)

// Greeting is the personalized welcome shown after a check-in.
// Fallback marks replies produced locally after a model failure, so
// operators can monitor degradation without the flow ever erroring.
type Greeting struct {
	Greeting        string                 `json:"greeting"`
	Tip             string                 `json:"tip"`
	ParticipantType models.ParticipantType `json:"participantType"`
	Timestamp       string                 `json:"timestamp"`
	Fallback        bool                   `json:"fallback,omitempty"`
}

// Service builds prompts from participant data and parses the model's
// JSON replies.
type Service struct {
	invoker llm.Invoker
	logger  *zap.Logger
}

// NewService creates a greeting generator.
func NewService(invoker llm.Invoker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{invoker: invoker, logger: logger}
}

// GenerateGreeting returns a personalized greeting. Any model failure
// (network, timeout, malformed reply) resolves to a canned fallback;
// this method never returns an error.
func (s *Service) GenerateGreeting(ctx context.Context, p *models.Participant) *Greeting {
	reply, err := s.invoker.Invoke(ctx, "", []llm.Message{
		{Role: "user", Content: greetingPrompt(p)},
	})
	if err != nil {
		s.logger.Warn("greeting generation failed, using fallback",
			zap.Error(err), zap.String("participant", p.Name))
		return fallbackGreeting(p)
	}

	var parsed struct {
		Greeting string `json:"greeting"`
		Tip      string `json:"tip"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil || parsed.Greeting == "" {
		s.logger.Warn("greeting reply not parseable, using fallback",
			zap.String("participant", p.Name))
		return fallbackGreeting(p)
	}
	if parsed.Tip == "" {
		parsed.Tip = tips[rand.Intn(len(tips))]
	}
	return &Greeting{
		Greeting:        parsed.Greeting,
		Tip:             parsed.Tip,
		ParticipantType: p.Type,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

// GenerateAssistance answers a free-text question with participant
// context. Falls back to canned answers keyed by keywords in the query.
func (s *Service) GenerateAssistance(ctx context.Context, query string, p *models.Participant) string {
	reply, err := s.invoker.Invoke(ctx, "", []llm.Message{
		{Role: "user", Content: assistancePrompt(query, p)},
	})
	if err != nil {
		s.logger.Warn("assistance generation failed, using fallback",
			zap.Error(err), zap.String("query", query))
		return fallbackAssistance(query, p)
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err == nil && parsed.Response != "" {
		return parsed.Response
	}
	// Plain-text reply is still usable.
	if trimmed := strings.TrimSpace(reply); trimmed != "" && !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	return fallbackAssistance(query, p)
}

func greetingPrompt(p *models.Participant) string {
	return fmt.Sprintf(`Você é um assistente de eventos amigável. Crie uma saudação personalizada para o participante.

Dados do participante:
- Nome: %s
- Empresa: %s
- Tipo: %s

Responda em JSON com:
{
  "greeting": "saudação calorosa e personalizada",
  "tip": "dica útil sobre o evento"
}

Seja caloroso, profissional e inclua emojis apropriados.`, p.Name, p.Company, p.Type)
}

func assistancePrompt(query string, p *models.Participant) string {
	return fmt.Sprintf(`Você é um assistente de eventos. Responda à pergunta do participante de forma útil e amigável.

Participante: %s (%s)
Pergunta: %s

Informações do evento:
- WiFi: "EventoTech" / senha: "TechEvent2024"
- Agenda: Keynote 9h, Tech Talks 14h, Networking 17h
- Localização: 3 andares - Térreo (recepção), 1º andar (workshops), 2º andar (auditório principal)

Responda em JSON:
{
  "response": "resposta útil e amigável"
}`, p.Name, p.Type, query)
}

// extractJSON returns the first {...} block in s, or s unchanged when
// no braces are found.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
