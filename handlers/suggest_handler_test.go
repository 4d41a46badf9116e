package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pinboard/utils/errors"
)

type stubSuggester struct {
	suggestion string
	err        error

	gotTitle string
	gotLat   float64
	gotLng   float64
}

func (s *stubSuggester) Suggest(ctx context.Context, title string, lat, lng float64) (string, error) {
	s.gotTitle, s.gotLat, s.gotLng = title, lat, lng
	return s.suggestion, s.err
}

func TestSuggestDescription(t *testing.T) {
	stub := &stubSuggester{suggestion: "An iconic waterfront arch built in 1924."}
	h := NewSuggestHandler(stub)

	req := httptestRequest(t, http.MethodPost, "/suggest",
		`{"title":"Gateway of India","lat":18.9,"lng":72.8}`)
	rec := httptest.NewRecorder()
	h.SuggestDescription(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out["suggestion"] != stub.suggestion {
		t.Fatalf("response = %v, want exactly {suggestion: %q}", out, stub.suggestion)
	}
	if stub.gotTitle != "Gateway of India" || stub.gotLat != 18.9 || stub.gotLng != 72.8 {
		t.Errorf("suggester called with (%q, %v, %v)", stub.gotTitle, stub.gotLat, stub.gotLng)
	}
}

func TestSuggestDescriptionUpstreamFailure(t *testing.T) {
	stub := &stubSuggester{err: errors.NewUpstreamError("Failed to generate description", fmt.Errorf("timeout"))}
	h := NewSuggestHandler(stub)

	req := httptestRequest(t, http.MethodPost, "/suggest", `{"title":"Old Fort","lat":12.34,"lng":56.78}`)
	rec := httptest.NewRecorder()
	h.SuggestDescription(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500, body %s", rec.Code, rec.Body)
	}
}

func TestSuggestDescriptionBadBody(t *testing.T) {
	h := NewSuggestHandler(&stubSuggester{})

	req := httptestRequest(t, http.MethodPost, "/suggest", `{"title":`)
	rec := httptest.NewRecorder()
	h.SuggestDescription(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body)
	}
}

func httptestRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}
