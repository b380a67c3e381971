package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/checkin-backend/internal/models"
)

type fakeParticipants struct {
	list []models.Participant
}

func (f *fakeParticipants) GetByID(_ context.Context, id string) (*models.Participant, error) {
	for i := range f.list {
		if f.list[i].ID == id {
			return &f.list[i], nil
		}
	}
	return nil, nil
}

func (f *fakeParticipants) ScanAll(_ context.Context) ([]models.Participant, error) {
	return f.list, nil
}

func (f *fakeParticipants) Count(_ context.Context) (int, error) {
	return len(f.list), nil
}

type fakeCheckins struct {
	list []models.CheckIn
}

func (f *fakeCheckins) ScanAll(_ context.Context) ([]models.CheckIn, error) {
	return f.list, nil
}

func (f *fakeCheckins) ListByParticipant(_ context.Context, id string) ([]models.CheckIn, error) {
	var out []models.CheckIn
	for _, c := range f.list {
		if c.ParticipantID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCheckins) Count(_ context.Context) (int, error) {
	return len(f.list), nil
}

func newTestRouter(p *fakeParticipants, c *fakeCheckins) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(p, c, nil)
	r := gin.New()
	r.GET("/api/admin/participants", h.ListParticipants)
	r.GET("/api/admin/participants/:id", h.GetParticipant)
	r.GET("/api/admin/checkins", h.ListCheckins)
	r.GET("/api/admin/stats", h.Stats)
	return r
}

func fixtures() (*fakeParticipants, *fakeCheckins) {
	p := &fakeParticipants{list: []models.Participant{
		{ID: "p-1", Name: "Ana", Email: "ana@acme.com", Company: "Acme", Type: models.TypeGuest, FaceID: "f-1", ImageKey: "k-1"},
		{ID: "p-2", Name: "Bruno", Email: "bruno@acme.com", Company: "Acme", Type: models.TypeSpeaker},
	}}
	c := &fakeCheckins{list: []models.CheckIn{
		{ID: "c-1", ParticipantID: "p-1", Timestamp: "2026-08-30T09:00:00Z", Method: models.MethodFacial, Status: models.CheckInSuccess},
		{ID: "c-2", ParticipantID: "p-2", Timestamp: "2026-08-31T10:00:00Z", Method: models.MethodManual, Status: models.CheckInSuccess},
		{ID: "c-3", ParticipantID: "p-1", Timestamp: "2026-08-31T11:00:00Z", Method: models.MethodFacial, Status: models.CheckInDuplicate},
	}}
	return p, c
}

func TestStats(t *testing.T) {
	router := newTestRouter(fixtures())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		TotalParticipants int    `json:"totalParticipants"`
		TotalCheckins     int    `json:"totalCheckins"`
		CheckinRate       string `json:"checkinRate"`
		CheckinsByMethod  struct {
			Facial int `json:"facial"`
			Manual int `json:"manual"`
		} `json:"checkinsByMethod"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalParticipants != 2 || resp.TotalCheckins != 3 {
		t.Fatalf("unexpected totals %+v", resp)
	}
	if resp.CheckinsByMethod.Facial != 2 || resp.CheckinsByMethod.Manual != 1 {
		t.Fatalf("unexpected method split %+v", resp.CheckinsByMethod)
	}
	if resp.CheckinRate != "150.00" {
		t.Fatalf("unexpected rate %q", resp.CheckinRate)
	}
}

// TestListCheckins checks ordering, the limit and the joined summary,
// and that the sensitive participant fields stay out of the payload.
func TestListCheckins(t *testing.T) {
	router := newTestRouter(fixtures())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/checkins?limit=2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Checkins []struct {
			ID          string          `json:"id"`
			Participant *models.Summary `json:"participant"`
		} `json:"checkins"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Checkins) != 2 {
		t.Fatalf("limit not applied: %+v", resp)
	}
	if resp.Checkins[0].ID != "c-3" || resp.Checkins[1].ID != "c-2" {
		t.Fatalf("not sorted most recent first: %+v", resp.Checkins)
	}
	if resp.Checkins[0].Participant == nil || resp.Checkins[0].Participant.Name != "Ana" {
		t.Fatalf("participant not joined: %+v", resp.Checkins[0].Participant)
	}
	if strings.Contains(w.Body.String(), "f-1") || strings.Contains(w.Body.String(), "k-1") {
		t.Fatalf("sensitive fields leaked: %s", w.Body.String())
	}
}

func TestListParticipants(t *testing.T) {
	router := newTestRouter(fixtures())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/participants", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"total":2`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "faceId") {
		t.Fatalf("sensitive fields leaked: %s", w.Body.String())
	}
}

func TestGetParticipant(t *testing.T) {
	router := newTestRouter(fixtures())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/participants/p-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Participant models.Participant `json:"participant"`
		Checkins    []models.CheckIn   `json:"checkins"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Participant.ID != "p-1" || len(resp.Checkins) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/participants/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
