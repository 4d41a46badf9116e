package handlers

import (
	"encoding/json"
	"net/http"

	"pinboard/middleware"
	"pinboard/services"
	"pinboard/utils/errors"
)

type PinHandler struct {
	store services.PinStore
}

func NewPinHandler(store services.PinStore) *PinHandler {
	return &PinHandler{store: store}
}

// ListPins returns all pins, newest first.
func (h *PinHandler) ListPins(w http.ResponseWriter, r *http.Request) {
	pins, err := h.store.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pins)
}

// CreatePin validates and persists a new pin, echoing back the created
// record including its generated id and timestamp.
func (h *PinHandler) CreatePin(w http.ResponseWriter, r *http.Request) {
	var input services.PinInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	pin, err := h.store.Create(r.Context(), input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pin)
}

// DeletePin removes a pin if the supplied userId matches the stored one.
// Ownership is a plain string comparison against a client-supplied value,
// not a server-side session check. Hardening candidate: derive the caller
// identity from the bearer token instead.
func (h *PinHandler) DeletePin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	pin, err := h.store.Get(r.Context(), input.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if pin.UserID != input.UserID {
		middleware.WriteError(w, errors.ErrForbidden)
		return
	}
	if err := h.store.Delete(r.Context(), input.ID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Pin deleted successfully"})
}
