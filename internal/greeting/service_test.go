package greeting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eventflow/checkin-backend/internal/llm"
	"github.com/eventflow/checkin-backend/internal/models"
)

type fakeInvoker struct {
	reply string
	err   error
}

func (f *fakeInvoker) Invoke(_ context.Context, _ string, _ []llm.Message) (string, error) {
	return f.reply, f.err
}

func guest(name string) *models.Participant {
	return &models.Participant{ID: "p-1", Name: name, Company: "Acme", Type: models.TypeGuest}
}

// TestGenerateGreetingParsesModelReply accepts a JSON reply, including
// one wrapped in prose.
func TestGenerateGreetingParsesModelReply(t *testing.T) {
	svc := NewService(&fakeInvoker{reply: `Claro! {"greeting": "Olá João! 🎉", "tip": "Keynote às 9h"}`}, nil)
	g := svc.GenerateGreeting(context.Background(), guest("João"))
	if g.Greeting != "Olá João! 🎉" {
		t.Fatalf("unexpected greeting %q", g.Greeting)
	}
	if g.Tip != "Keynote às 9h" {
		t.Fatalf("unexpected tip %q", g.Tip)
	}
	if g.Fallback {
		t.Fatal("parsed reply must not be marked fallback")
	}
	if g.ParticipantType != models.TypeGuest {
		t.Fatalf("unexpected type %q", g.ParticipantType)
	}
	if g.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
}

// TestGenerateGreetingFallsBackOnError never surfaces the model failure.
func TestGenerateGreetingFallsBackOnError(t *testing.T) {
	svc := NewService(&fakeInvoker{err: errors.New("throttled")}, nil)
	g := svc.GenerateGreeting(context.Background(), guest("Ana"))
	if !g.Fallback {
		t.Fatal("expected fallback greeting")
	}
	if !strings.Contains(g.Greeting, "Ana") {
		t.Fatalf("fallback greeting should name the participant: %q", g.Greeting)
	}
	if g.Tip == "" {
		t.Fatal("fallback greeting must carry a tip")
	}
}

// TestGenerateGreetingFallsBackOnGarbage treats an unparseable reply
// like a failure.
func TestGenerateGreetingFallsBackOnGarbage(t *testing.T) {
	svc := NewService(&fakeInvoker{reply: "desculpe, não entendi"}, nil)
	g := svc.GenerateGreeting(context.Background(), guest("Ana"))
	if !g.Fallback {
		t.Fatal("expected fallback greeting")
	}
}

func TestGenerateAssistanceParsesJSON(t *testing.T) {
	svc := NewService(&fakeInvoker{reply: `{"response": "O WiFi é EventoTech."}`}, nil)
	got := svc.GenerateAssistance(context.Background(), "qual o wifi?", guest("Ana"))
	if got != "O WiFi é EventoTech." {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestGenerateAssistanceAcceptsPlainText(t *testing.T) {
	svc := NewService(&fakeInvoker{reply: "O coffee break é às 15h."}, nil)
	got := svc.GenerateAssistance(context.Background(), "coffee?", guest("Ana"))
	if got != "O coffee break é às 15h." {
		t.Fatalf("unexpected answer %q", got)
	}
}

// TestGenerateAssistanceKeywordFallbacks checks the canned answers used
// when the model is unavailable.
func TestGenerateAssistanceKeywordFallbacks(t *testing.T) {
	svc := NewService(&fakeInvoker{err: errors.New("down")}, nil)
	cases := []struct {
		query string
		want  string
	}{
		{"como está a agenda?", "Keynote às 9h"},
		{"onde fica o auditório?", "3 andares"},
		{"qual a senha do wifi?", "EventoTech"},
		{"me ajuda", "Como posso ajudá-lo"},
	}
	for _, tc := range cases {
		got := svc.GenerateAssistance(context.Background(), tc.query, guest("Ana"))
		if !strings.Contains(got, tc.want) {
			t.Fatalf("query %q: answer %q missing %q", tc.query, got, tc.want)
		}
	}
}
