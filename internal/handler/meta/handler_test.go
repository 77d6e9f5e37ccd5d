package meta

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/seohyun-lab/maum-counsel/backend/internal/persona"
)

func TestMetaListsModelsAndCounselor(t *testing.T) {
	handler := New([]string{"gemini-2.5-flash", "gemini-2.5-pro"}, persona.Default())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Models       []string `json:"models"`
		DefaultModel string   `json:"defaultModel"`
		Counselor    struct {
			Name       string `json:"name"`
			Disclaimer string `json:"disclaimer"`
		} `json:"counselor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(body.Models) != 2 {
		t.Fatalf("unexpected model count: %d", len(body.Models))
	}
	if body.DefaultModel != "gemini-2.5-flash" {
		t.Fatalf("unexpected default model: %s", body.DefaultModel)
	}
	if body.Counselor.Name == "" || body.Counselor.Disclaimer == "" {
		t.Fatalf("counselor presentation missing: %+v", body.Counselor)
	}
}
