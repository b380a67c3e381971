package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eventflow/checkin-backend/internal/models"
)

func testParticipant() *models.Participant {
	return &models.Participant{
		ID:      "p-1",
		Name:    "Maria Silva",
		Email:   "maria@example.com",
		Company: "Acme",
		Type:    models.TypeSpeaker,
		Phone:   "11999998888",
	}
}

func testCheckin() *models.CheckIn {
	return &models.CheckIn{
		ID:            "c-1",
		ParticipantID: "p-1",
		Timestamp:     "2026-08-31T12:30:00Z",
		Method:        models.MethodFacial,
		Status:        models.CheckInSuccess,
	}
}

// TestSendWithoutCredentialsFallsBackToMock ensures missing credentials
// never fail the flow.
func TestSendWithoutCredentialsFallsBackToMock(t *testing.T) {
	w := NewWhatsApp("", "", "whatsapp:+14155238886", "TDC Event", time.UTC, nil)
	res := w.SendCheckinNotification(context.Background(), testParticipant(), testCheckin())
	if !res.Success {
		t.Fatal("expected success result")
	}
	if res.Delivered {
		t.Fatal("mock result must not claim delivery")
	}
	if res.Method != MethodMock {
		t.Fatalf("expected method %q, got %q", MethodMock, res.Method)
	}
	if res.To != "whatsapp:+5511999998888" {
		t.Fatalf("unexpected recipient %q", res.To)
	}
	if res.Participant != "Maria Silva" {
		t.Fatalf("unexpected participant %q", res.Participant)
	}
}

// TestMockMessageContent checks the welcome message carries the event
// name, participant name and the type-specific line.
func TestMockMessageContent(t *testing.T) {
	w := NewWhatsApp("", "", "whatsapp:+14155238886", "TDC Event", time.UTC, nil)
	res := w.SendCheckinNotification(context.Background(), testParticipant(), testCheckin())
	for _, want := range []string{"TDC Event", "Maria Silva", "Palestrante confirmado", "31/08/2026", "12:30:00"} {
		if !strings.Contains(res.Message, want) {
			t.Fatalf("message missing %q:\n%s", want, res.Message)
		}
	}
}

// TestSendDeliversThroughAPI exercises the real delivery path against a
// stub Twilio endpoint.
func TestSendDeliversThroughAPI(t *testing.T) {
	var gotPath, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("expected basic auth")
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusCreated)
		rw.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	w := NewWhatsApp("AC000", "token", "whatsapp:+14155238886", "TDC Event", time.UTC, nil)
	w.baseURL = srv.URL

	res := w.SendCheckinNotification(context.Background(), testParticipant(), testCheckin())
	if !res.Delivered {
		t.Fatal("expected delivered result")
	}
	if res.Method != MethodTwilioWhatsApp {
		t.Fatalf("expected method %q, got %q", MethodTwilioWhatsApp, res.Method)
	}
	if res.MessageSID != "SM123" || res.Status != "queued" {
		t.Fatalf("unexpected twilio fields: sid=%q status=%q", res.MessageSID, res.Status)
	}
	if gotPath != "/2010-04-01/Accounts/AC000/Messages.json" {
		t.Fatalf("unexpected API path %q", gotPath)
	}
	if gotTo != "whatsapp:+5511999998888" {
		t.Fatalf("unexpected To %q", gotTo)
	}
}

// TestSendFailureFallsBackToMock ensures an API rejection degrades to
// the mock instead of erroring.
func TestSendFailureFallsBackToMock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	w := NewWhatsApp("AC000", "bad-token", "whatsapp:+14155238886", "TDC Event", time.UTC, nil)
	w.baseURL = srv.URL

	res := w.SendCheckinNotification(context.Background(), testParticipant(), testCheckin())
	if res.Delivered {
		t.Fatal("rejected send must not claim delivery")
	}
	if res.Method != MethodMock {
		t.Fatalf("expected method %q, got %q", MethodMock, res.Method)
	}
}
