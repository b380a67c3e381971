package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventflow/checkin-backend/internal/llm"
)

// scriptedInvoker returns its replies in order, then repeats the last one.
type scriptedInvoker struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedInvoker) Invoke(_ context.Context, _ string, _ []llm.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	i := s.calls
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	s.calls++
	return s.replies[i], nil
}

func newTestAgent(invoker llm.Invoker) (*Agent, *MemoryStore) {
	store := NewMemoryStore(time.Minute)
	return NewAgent(store, invoker, nil), store
}

func TestStartOpensSession(t *testing.T) {
	agent, store := newTestAgent(&scriptedInvoker{replies: []string{`{"kind": "ask_field", "message": "Qual o seu nome?"}`}})
	defer store.Close()

	id, reply, err := agent.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id == "" {
		t.Fatal("expected session id")
	}
	if reply.Type != ReplyMessage || reply.Message != "Qual o seu nome?" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if _, err := store.Get(context.Background(), id); err != nil {
		t.Fatalf("session not stored: %v", err)
	}
}

func TestProcessMessageUnknownSession(t *testing.T) {
	agent, store := newTestAgent(&scriptedInvoker{replies: []string{"ok"}})
	defer store.Close()

	if _, err := agent.ProcessMessage(context.Background(), "nope", "oi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

// TestPhotoRequestAdvancesStep checks the tagged photo request marks the
// session as awaiting the capture.
func TestPhotoRequestAdvancesStep(t *testing.T) {
	agent, store := newTestAgent(&scriptedInvoker{replies: []string{
		`{"kind": "ask_field", "message": "Qual o seu nome?"}`,
		`{"kind": "request_photo", "message": "Vou abrir a câmera."}`,
	}})
	defer store.Close()

	id, _, err := agent.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	reply, err := agent.ProcessMessage(context.Background(), id, "João da Silva")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if reply.Type != ReplyCamera || !reply.NeedsCamera {
		t.Fatalf("expected camera request, got %+v", reply)
	}
	sess, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("session gone: %v", err)
	}
	if sess.Step != StepAwaitingPhoto {
		t.Fatalf("expected step %q, got %q", StepAwaitingPhoto, sess.Step)
	}
}

// TestCompletionDeletesSession ensures a finished registration cannot be
// replayed against the same session id.
func TestCompletionDeletesSession(t *testing.T) {
	agent, store := newTestAgent(&scriptedInvoker{replies: []string{
		`{"kind": "ask_field", "message": "Qual o seu nome?"}`,
		`{"kind": "complete", "message": "Cadastro concluído!", "data": {"name": "João", "email": "joao@acme.com", "company": "Acme", "type": "GUEST"}}`,
	}})
	defer store.Close()

	id, _, err := agent.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	reply, err := agent.ProcessMessage(context.Background(), id, "João")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if reply.Type != ReplyComplete {
		t.Fatalf("expected completion, got %+v", reply)
	}
	if reply.Data == nil || reply.Data.Email != "joao@acme.com" {
		t.Fatalf("unexpected data %+v", reply.Data)
	}
	if _, err := store.Get(context.Background(), id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected deleted session, got %v", err)
	}
}

// TestModelFailureKeepsSession lets the user retry after a model outage.
func TestModelFailureKeepsSession(t *testing.T) {
	invoker := &scriptedInvoker{replies: []string{`{"kind": "ask_field", "message": "Qual o seu nome?"}`}}
	agent, store := newTestAgent(invoker)
	defer store.Close()

	id, _, err := agent.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	invoker.err = errors.New("throttled")
	reply, err := agent.ProcessMessage(context.Background(), id, "João")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if reply.Type != ReplyError {
		t.Fatalf("expected error reply, got %+v", reply)
	}
	if _, err := store.Get(context.Background(), id); err != nil {
		t.Fatalf("session must survive a model failure: %v", err)
	}
}

// TestParseReplySentinels keeps the legacy marker protocol working.
func TestParseReplySentinels(t *testing.T) {
	r := parseReply("Perfeito! Agora preciso de uma foto. CAMERA_REQUEST")
	if r.Type != ReplyCamera || !r.NeedsCamera {
		t.Fatalf("expected camera reply, got %+v", r)
	}
	if r.Message != "Perfeito! Agora preciso de uma foto." {
		t.Fatalf("marker not stripped: %q", r.Message)
	}

	r = parseReply(`Tudo certo! REGISTRATION_COMPLETE {"name": "Ana", "email": "ana@acme.com", "company": "Acme", "type": "SPEAKER"}`)
	if r.Type != ReplyComplete {
		t.Fatalf("expected completion, got %+v", r)
	}
	if r.Data == nil || r.Data.Name != "Ana" || r.Data.Email != "ana@acme.com" {
		t.Fatalf("unexpected data %+v", r.Data)
	}
}

func TestParseReplyPlainProse(t *testing.T) {
	r := parseReply("Qual a sua empresa?")
	if r.Type != ReplyMessage || r.Message != "Qual a sua empresa?" {
		t.Fatalf("unexpected reply %+v", r)
	}
}
