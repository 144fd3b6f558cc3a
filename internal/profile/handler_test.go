package profile

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

func serveAs(h *Handler, userID string, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Mount("/profile", h.Routes())
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_GetFreshUserReturnsEmptyProfile(t *testing.T) {
	h := NewHandler(NewStore(&mockDynamo{}, "juvo_profiles", logging.Default()), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := serveAs(h, "user-1", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"userId":"user-1"`) {
		t.Errorf("expected empty profile for fresh user, got %s", body)
	}
}

func TestHandler_PutPersistsProfile(t *testing.T) {
	mock := &mockDynamo{}
	h := NewHandler(NewStore(mock, "juvo_profiles", logging.Default()), logging.Default())

	body := `{"displayName": "Rhea", "role": "student", "institution": "State University", "caretakerEmail": "dad@example.com", "caretakerPhone": "+911234567890"}`
	req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(body))
	rec := serveAs(h, "user-1", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mock.putInput == nil {
		t.Fatal("expected a PutItem call")
	}
}

func TestHandler_PutRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid caretaker email", `{"caretakerEmail": "not-an-email"}`},
		{"unknown role", `{"role": "admin"}`},
		{"malformed JSON", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockDynamo{}
			h := NewHandler(NewStore(mock, "juvo_profiles", logging.Default()), logging.Default())

			req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(tt.body))
			rec := serveAs(h, "user-1", req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if mock.putInput != nil {
				t.Error("rejected input must not be persisted")
			}
		})
	}
}
