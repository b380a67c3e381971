package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventflow/checkin-backend/internal/llm"
)

// Reply types returned to the frontend.
const (
	ReplyMessage  = "message"
	ReplyCamera   = "camera_request"
	ReplyComplete = "registration_complete"
	ReplyError    = "error"
)

// Legacy sentinel markers. The agent asks the model for a tagged JSON
// reply, but prose replies carrying these markers are still honored.
const (
	markerCameraRequest        = "CAMERA_REQUEST"
	markerRegistrationComplete = "REGISTRATION_COMPLETE"
)

const contextWindow = 10

const systemPrompt = `Você é um assistente de cadastro para eventos. Sua função é coletar dados dos participantes de forma conversacional e amigável.

DADOS NECESSÁRIOS:
- Nome completo
- Email
- Empresa
- Tipo de participante (GUEST, SPEAKER, SPONSOR, ADMIN)
- Telefone (opcional)
- Cargo (opcional)
- Foto (obrigatória)

REGRAS:
1. Seja amigável e conversacional
2. Faça UMA pergunta por vez
3. Valide os dados conforme coleta
4. Responda SEMPRE com um único objeto JSON no formato:
   {"kind": "ask_field", "message": "sua próxima pergunta"}
5. Quando precisar da foto, responda:
   {"kind": "request_photo", "message": "aviso de que a câmera vai abrir"}
6. Após coletar todos os dados, responda:
   {"kind": "complete", "message": "mensagem de confirmação", "data": {"name": "...", "email": "...", "company": "...", "type": "...", "phone": "...", "position": "..."}}

Inicie cumprimentando e perguntando o nome.`

const openingMessage = "Olá! Gostaria de me cadastrar no evento."

const retryMessage = "Desculpe, tive um problema. Pode repetir sua última informação?"

// RegistrationData is the participant data extracted from the model's
// completion reply.
type RegistrationData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Type     string `json:"type"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
}

// Reply is one agent turn as returned to the frontend.
type Reply struct {
	Type        string            `json:"type"`
	Message     string            `json:"message"`
	NeedsCamera bool              `json:"needsCamera,omitempty"`
	Data        *RegistrationData `json:"data,omitempty"`
}

// Agent drives scripted registration conversations against the model.
type Agent struct {
	store   SessionStore
	invoker llm.Invoker
	logger  *zap.Logger
}

// NewAgent creates the registration agent.
func NewAgent(store SessionStore, invoker llm.Invoker, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{store: store, invoker: invoker, logger: logger}
}

// Start opens a session and returns its id with the agent's opening turn.
func (a *Agent) Start(ctx context.Context) (string, *Reply, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		Collected: make(map[string]string),
		Step:      StepGreeting,
		CreatedAt: time.Now(),
	}
	reply := a.converse(ctx, sess, openingMessage)
	if err := a.store.Put(ctx, sess); err != nil {
		return "", nil, err
	}
	return sess.ID, reply, nil
}

// ProcessMessage appends a user turn and returns the agent's reply.
// A completed registration deletes the session; later messages to the
// same id fail with ErrSessionNotFound.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	sess, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reply := a.converse(ctx, sess, text)
	switch reply.Type {
	case ReplyComplete:
		if err := a.store.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
	case ReplyCamera:
		sess.Step = StepAwaitingPhoto
		fallthrough
	default:
		if err := a.store.Put(ctx, sess); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// ProcessPhoto records the photo capture in the transcript and asks the
// model to finalize. On completion the session is deleted and the
// extracted registration data returned; the photo bytes themselves stay
// with the caller.
func (a *Agent) ProcessPhoto(ctx context.Context, sessionID string) (*Reply, error) {
	sess, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Messages = append(sess.Messages,
		llm.Message{Role: "user", Content: "Foto capturada"},
		llm.Message{Role: "assistant", Content: "Foto capturada com sucesso! Agora vou finalizar seu cadastro."},
	)
	reply := a.converse(ctx, sess, "Por favor, finalize meu cadastro com todos os dados coletados.")

	if reply.Type == ReplyComplete {
		if err := a.store.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return reply, nil
	}
	if err := a.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return reply, nil
}

// ClearSession drops a session explicitly.
func (a *Agent) ClearSession(ctx context.Context, sessionID string) error {
	return a.store.Delete(ctx, sessionID)
}

// converse appends the user turn, invokes the model over the sliding
// context window and parses the reply. Model failures become a generic
// retry reply; the transcript is kept so the conversation can continue.
func (a *Agent) converse(ctx context.Context, sess *Session, userMessage string) *Reply {
	sess.Messages = append(sess.Messages, llm.Message{Role: "user", Content: userMessage})

	out, err := a.invoker.Invoke(ctx, systemPrompt, window(sess.Messages))
	if err != nil {
		a.logger.Warn("chat model call failed", zap.Error(err), zap.String("session_id", sess.ID))
		return &Reply{Type: ReplyError, Message: retryMessage}
	}
	sess.Messages = append(sess.Messages, llm.Message{Role: "assistant", Content: out})

	return parseReply(out)
}

// window returns the last turns of the transcript, forcing the first
// turn to be user-authored as the model API requires.
func window(messages []llm.Message) []llm.Message {
	if len(messages) > contextWindow {
		messages = messages[len(messages)-contextWindow:]
	}
	if len(messages) == 0 || messages[0].Role != "user" {
		messages = append([]llm.Message{{Role: "user", Content: openingMessage}}, messages...)
	}
	return messages
}

// parseReply interprets a model reply: tagged JSON first, legacy
// sentinel markers second, plain prose last.
func parseReply(out string) *Reply {
	if r := parseTagged(out); r != nil {
		return r
	}
	if r := parseSentinels(out); r != nil {
		return r
	}
	return &Reply{Type: ReplyMessage, Message: out}
}

func parseTagged(out string) *Reply {
	var tagged struct {
		Kind    string            `json:"kind"`
		Message string            `json:"message"`
		Data    *RegistrationData `json:"data"`
	}
	if err := json.Unmarshal([]byte(extractJSON(out)), &tagged); err != nil || tagged.Kind == "" {
		return nil
	}
	switch tagged.Kind {
	case "request_photo":
		msg := tagged.Message
		if msg == "" {
			msg = "Agora preciso de uma foto sua para o cadastro. Vou abrir a câmera."
		}
		return &Reply{Type: ReplyCamera, Message: msg, NeedsCamera: true}
	case "complete":
		if tagged.Data == nil {
			return nil
		}
		return &Reply{Type: ReplyComplete, Message: tagged.Message, Data: tagged.Data}
	default:
		return &Reply{Type: ReplyMessage, Message: tagged.Message}
	}
}

func parseSentinels(out string) *Reply {
	if strings.Contains(out, markerCameraRequest) {
		msg := strings.TrimSpace(strings.ReplaceAll(out, markerCameraRequest, ""))
		if msg == "" {
			msg = "Agora preciso de uma foto sua para o cadastro. Vou abrir a câmera."
		}
		return &Reply{Type: ReplyCamera, Message: msg, NeedsCamera: true}
	}
	if idx := strings.Index(out, markerRegistrationComplete); idx >= 0 {
		var data RegistrationData
		if err := json.Unmarshal([]byte(extractJSON(out[idx:])), &data); err == nil && data.Email != "" {
			return &Reply{
				Type:    ReplyComplete,
				Message: strings.TrimSpace(out[:idx]),
				Data:    &data,
			}
		}
	}
	return nil
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
