package participants

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/checkin-backend/internal/faceid"
	"github.com/eventflow/checkin-backend/internal/models"
)

type fakeStore struct {
	byID    map[string]*models.Participant
	byEmail map[string]*models.Participant
	saved   []*models.Participant
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Participant, error) {
	return f.byID[id], nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*models.Participant, error) {
	return f.byEmail[email], nil
}

func (f *fakeStore) Put(_ context.Context, p *models.Participant) error {
	f.saved = append(f.saved, p)
	return nil
}

type fakeIndexer struct {
	err error
}

func (f *fakeIndexer) IndexFace(_ context.Context, _ []byte, participantID string) (*faceid.IndexResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &faceid.IndexResult{
		FaceID:     "face-" + participantID,
		ImageKey:   "participants/" + participantID + "/photo.jpg",
		Confidence: 99.1,
	}, nil
}

func newTestRouter(store *fakeStore, indexer *fakeIndexer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, indexer, 5, nil)
	r := gin.New()
	r.POST("/api/participants/register", h.Register)
	r.GET("/api/participants/:id", h.GetByID)
	return r
}

func registrationForm(t *testing.T, fields map[string]string, withPhoto bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if withPhoto {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create photo part: %v", err)
		}
		part.Write([]byte("fake-jpeg-bytes"))
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"name":    "João da Silva",
		"email":   "joao@acme.com",
		"company": "Acme",
		"type":    "SPEAKER",
		"phone":   "11999998888",
	}
}

// TestRegisterCreatesParticipant covers the happy path and checks the
// sensitive face fields never leak into the response body.
func TestRegisterCreatesParticipant(t *testing.T) {
	store := &fakeStore{byEmail: map[string]*models.Participant{}}
	router := newTestRouter(store, &fakeIndexer{})

	body, contentType := registrationForm(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/api/participants/register", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved participant, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.FaceID == "" || saved.ImageKey == "" {
		t.Fatal("face identity not persisted")
	}
	if saved.Status != models.StatusActive {
		t.Fatalf("expected ACTIVE status, got %q", saved.Status)
	}

	raw := w.Body.String()
	if strings.Contains(raw, "faceId") || strings.Contains(raw, "imageKey") || strings.Contains(raw, saved.FaceID) {
		t.Fatalf("sensitive fields leaked into response: %s", raw)
	}
	var resp struct {
		Message     string             `json:"message"`
		Participant models.Participant `json:"participant"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Participant.Email != "joao@acme.com" || resp.Participant.Type != models.TypeSpeaker {
		t.Fatalf("unexpected participant %+v", resp.Participant)
	}
}

func TestRegisterDefaultsTypeToGuest(t *testing.T) {
	store := &fakeStore{byEmail: map[string]*models.Participant{}}
	router := newTestRouter(store, &fakeIndexer{})

	fields := validFields()
	delete(fields, "type")
	body, contentType := registrationForm(t, fields, true)
	req := httptest.NewRequest(http.MethodPost, "/api/participants/register", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if store.saved[0].Type != models.TypeGuest {
		t.Fatalf("expected GUEST default, got %q", store.saved[0].Type)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := &fakeStore{byEmail: map[string]*models.Participant{
		"joao@acme.com": {ID: "p-0", Email: "joao@acme.com"},
	}}
	router := newTestRouter(store, &fakeIndexer{})

	body, contentType := registrationForm(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/api/participants/register", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "já cadastrado") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRegisterMissingPhoto(t *testing.T) {
	store := &fakeStore{byEmail: map[string]*models.Participant{}}
	router := newTestRouter(store, &fakeIndexer{})

	body, contentType := registrationForm(t, validFields(), false)
	req := httptest.NewRequest(http.MethodPost, "/api/participants/register", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Foto é obrigatória") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRegisterNoFaceDetected(t *testing.T) {
	store := &fakeStore{byEmail: map[string]*models.Participant{}}
	router := newTestRouter(store, &fakeIndexer{err: faceid.ErrNoFaceDetected})

	body, contentType := registrationForm(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/api/participants/register", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Nenhuma face detectada") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if len(store.saved) != 0 {
		t.Fatal("participant must not be saved without an indexed face")
	}
}

func TestGetByID(t *testing.T) {
	store := &fakeStore{byID: map[string]*models.Participant{
		"p-1": {ID: "p-1", Name: "Ana", Email: "ana@acme.com", FaceID: "f-1", ImageKey: "k-1"},
	}}
	router := newTestRouter(store, &fakeIndexer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/participants/p-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "f-1") || strings.Contains(w.Body.String(), "k-1") {
		t.Fatalf("sensitive fields leaked: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/participants/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
