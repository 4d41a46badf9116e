package ui

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"pinboard/models"
	"pinboard/services"
)

// ErrSignInRequired is returned when a map interaction needs a session;
// the caller should redirect to the login page.
var ErrSignInRequired = errors.New("sign in required")

// ErrNoDraft is returned when Submit is called with no open draft.
var ErrNoDraft = errors.New("no open draft")

// Draft is an in-progress pin: coordinates from a map click plus the form
// fields. Never persisted until Submit.
type Draft struct {
	Lat         float64
	Lng         float64
	Title       string
	Description string
	Category    string
}

// View states.
const (
	StateNoSession      = "no-session"
	StateSessionNoDraft = "session-no-draft"
	StateDraftOpen      = "session-draft-open"
	StateSubmitting     = "submitting"
)

const defaultDebounce = time.Second

// MapView orchestrates the pin map: it owns the in-memory pin list, the
// draft, the category filter, and the debounced suggestion fetch.
type MapView struct {
	api     API
	session *Session

	debounceDelay  time.Duration
	suggestTimeout time.Duration

	mu         sync.Mutex
	pins       []models.Pin
	draft      *Draft
	filter     string
	submitting bool
	timer      *time.Timer
	closed     bool
}

func NewMapView(api API, session *Session) *MapView {
	return &MapView{
		api:            api,
		session:        session,
		debounceDelay:  defaultDebounce,
		suggestTimeout: 15 * time.Second,
		filter:         "all",
	}
}

// Load fetches the pin list. A failure leaves the list empty; the map
// shell still renders.
func (v *MapView) Load(ctx context.Context) {
	pins, err := v.api.ListPins(ctx)
	if err != nil {
		log.Printf("Error fetching pins: %v", err)
		pins = []models.Pin{}
	}
	v.mu.Lock()
	v.pins = pins
	v.mu.Unlock()
}

// State reports the current view state.
func (v *MapView) State() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, signedIn := v.session.Current(); !signedIn {
		return StateNoSession
	}
	if v.submitting {
		return StateSubmitting
	}
	if v.draft != nil {
		return StateDraftOpen
	}
	return StateSessionNoDraft
}

// ClickMap opens a draft at the clicked coordinates. Signed-out clicks
// return ErrSignInRequired instead of creating a draft.
func (v *MapView) ClickMap(lat, lng float64) error {
	if _, signedIn := v.session.Current(); !signedIn {
		return ErrSignInRequired
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopTimerLocked()
	v.draft = &Draft{Lat: lat, Lng: lng, Category: models.CategoryLandmark}
	return nil
}

// SetTitle updates the draft title and (re)arms the suggestion debounce:
// one request fires after debounceDelay of no further edits. Clearing the
// title cancels any pending request.
func (v *MapView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft == nil {
		return
	}
	v.draft.Title = title
	v.stopTimerLocked()
	if title == "" {
		return
	}
	lat, lng := v.draft.Lat, v.draft.Lng
	v.timer = time.AfterFunc(v.debounceDelay, func() {
		v.fetchSuggestion(title, lat, lng)
	})
}

// fetchSuggestion runs off the debounce timer. The result is applied only
// if the draft is still open and the title that produced it is still
// current, so a superseded request cannot clobber newer user input.
func (v *MapView) fetchSuggestion(title string, lat, lng float64) {
	ctx, cancel := context.WithTimeout(context.Background(), v.suggestTimeout)
	defer cancel()
	suggestion, err := v.api.Suggest(ctx, title, lat, lng)
	if err != nil {
		log.Printf("Error getting suggestion: %v", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.draft == nil || v.draft.Title != title {
		return
	}
	v.draft.Description = suggestion
}

func (v *MapView) SetDescription(description string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft != nil {
		v.draft.Description = description
	}
}

func (v *MapView) SetCategory(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft != nil && models.ValidCategory(category) {
		v.draft.Category = category
	}
}

// Submit sends the draft to the server. On success the created pin joins
// the in-memory list and the draft closes; on failure the draft stays
// open for retry.
func (v *MapView) Submit(ctx context.Context) error {
	user, signedIn := v.session.Current()
	if !signedIn {
		return ErrSignInRequired
	}

	v.mu.Lock()
	if v.draft == nil {
		v.mu.Unlock()
		return ErrNoDraft
	}
	input := services.PinInput{
		Title:       v.draft.Title,
		Description: v.draft.Description,
		Lat:         v.draft.Lat,
		Lng:         v.draft.Lng,
		UserID:      user.UserID,
		Category:    v.draft.Category,
	}
	v.submitting = true
	v.mu.Unlock()

	pin, err := v.api.CreatePin(ctx, input)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.submitting = false
	if err != nil {
		log.Printf("Error creating pin: %v", err)
		return err
	}
	// Newest first, same order the server lists in.
	v.pins = append([]models.Pin{pin}, v.pins...)
	v.stopTimerLocked()
	v.draft = nil
	return nil
}

// DeletePin removes an owned pin. On failure the list is left unchanged.
func (v *MapView) DeletePin(ctx context.Context, id string) error {
	user, signedIn := v.session.Current()
	if !signedIn {
		return ErrSignInRequired
	}
	if err := v.api.DeletePin(ctx, id, user.UserID); err != nil {
		log.Printf("Error deleting pin: %v", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.pins[:0:0]
	for _, pin := range v.pins {
		if pin.ID != id {
			kept = append(kept, pin)
		}
	}
	v.pins = kept
	return nil
}

// CancelDraft discards the draft and any pending suggestion request.
func (v *MapView) CancelDraft() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopTimerLocked()
	v.draft = nil
}

// Draft returns a snapshot of the open draft.
func (v *MapView) Draft() (Draft, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft == nil {
		return Draft{}, false
	}
	return *v.draft, true
}

// SetCategoryFilter sets the active filter; "all" shows every pin.
func (v *MapView) SetCategoryFilter(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = category
}

func (v *MapView) CategoryFilter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// VisiblePins returns the pins passing the category filter.
func (v *MapView) VisiblePins() []models.Pin {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.filter == "all" {
		return append([]models.Pin(nil), v.pins...)
	}
	var visible []models.Pin
	for _, pin := range v.pins {
		if pin.Category == v.filter {
			visible = append(visible, pin)
		}
	}
	return visible
}

// Close tears the view down, canceling any pending suggestion request.
func (v *MapView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopTimerLocked()
	v.closed = true
	v.draft = nil
}

func (v *MapView) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}
