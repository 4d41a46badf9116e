package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"pinboard/middleware"
	"pinboard/utils/errors"
)

// Suggester drafts a description for a pin title at given coordinates.
type Suggester interface {
	Suggest(ctx context.Context, title string, lat, lng float64) (string, error)
}

type SuggestHandler struct {
	suggester Suggester
}

func NewSuggestHandler(suggester Suggester) *SuggestHandler {
	return &SuggestHandler{suggester: suggester}
}

// SuggestDescription forwards the title and coordinates to the completion
// upstream and returns the generated text verbatim.
func (h *SuggestHandler) SuggestDescription(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title string  `json:"title"`
		Lat   float64 `json:"lat"`
		Lng   float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	suggestion, err := h.suggester.Suggest(r.Context(), input.Title, input.Lat, input.Lng)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"suggestion": suggestion})
}
