package ui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pinboard/models"
	"pinboard/services"
)

type stubAPI struct {
	mu        sync.Mutex
	listFn    func(ctx context.Context) ([]models.Pin, error)
	createFn  func(ctx context.Context, input services.PinInput) (models.Pin, error)
	deleteFn  func(ctx context.Context, id, userID string) error
	suggestFn func(ctx context.Context, title string, lat, lng float64) (string, error)

	suggestCalls []string
}

func (s *stubAPI) ListPins(ctx context.Context) ([]models.Pin, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return []models.Pin{}, nil
}

func (s *stubAPI) CreatePin(ctx context.Context, input services.PinInput) (models.Pin, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return models.Pin{}, nil
}

func (s *stubAPI) DeletePin(ctx context.Context, id, userID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id, userID)
	}
	return nil
}

func (s *stubAPI) Suggest(ctx context.Context, title string, lat, lng float64) (string, error) {
	s.mu.Lock()
	s.suggestCalls = append(s.suggestCalls, title)
	s.mu.Unlock()
	if s.suggestFn != nil {
		return s.suggestFn(ctx, title, lat, lng)
	}
	return "", nil
}

func (s *stubAPI) suggested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggestCalls...)
}

type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, email, password string) (string, models.SessionUser, error) {
	return "token", models.SessionUser{UserID: "u1", Email: email}, nil
}

func (stubAuth) Logout(ctx context.Context, token string) error { return nil }

func signedInSession(t *testing.T) *Session {
	t.Helper()
	session := NewSession(stubAuth{})
	if err := session.Login(context.Background(), "u1@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return session
}

func newTestView(t *testing.T, api *stubAPI, session *Session) *MapView {
	t.Helper()
	v := NewMapView(api, session)
	v.debounceDelay = 20 * time.Millisecond
	t.Cleanup(v.Close)
	return v
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestClickMapSignedOut(t *testing.T) {
	v := newTestView(t, &stubAPI{}, NewSession(stubAuth{}))

	if err := v.ClickMap(1.5, 103.8); err != ErrSignInRequired {
		t.Fatalf("error = %v, want ErrSignInRequired", err)
	}
	if _, open := v.Draft(); open {
		t.Fatal("draft opened for signed-out click")
	}
	if got := v.State(); got != StateNoSession {
		t.Fatalf("state = %q, want %q", got, StateNoSession)
	}
}

func TestClickMapOpensDraft(t *testing.T) {
	v := newTestView(t, &stubAPI{}, signedInSession(t))

	if err := v.ClickMap(1.5, 103.8); err != nil {
		t.Fatalf("click: %v", err)
	}
	draft, open := v.Draft()
	if !open {
		t.Fatal("no draft after click")
	}
	if draft.Lat != 1.5 || draft.Lng != 103.8 {
		t.Errorf("draft at (%v, %v), want (1.5, 103.8)", draft.Lat, draft.Lng)
	}
	if draft.Category != models.CategoryLandmark {
		t.Errorf("draft category = %q, want landmark default", draft.Category)
	}
	if got := v.State(); got != StateDraftOpen {
		t.Fatalf("state = %q, want %q", got, StateDraftOpen)
	}
}

// A burst of keystrokes inside the quiet period produces exactly one
// suggestion request, for the last typed title.
func TestDebounceSingleRequest(t *testing.T) {
	api := &stubAPI{
		suggestFn: func(ctx context.Context, title string, lat, lng float64) (string, error) {
			return "suggested text", nil
		},
	}
	v := newTestView(t, api, signedInSession(t))
	if err := v.ClickMap(18.9, 72.8); err != nil {
		t.Fatalf("click: %v", err)
	}

	v.SetTitle("G")
	v.SetTitle("Gateway")
	v.SetTitle("Gateway of India")

	waitFor(t, func() bool { return len(api.suggested()) > 0 })
	time.Sleep(5 * v.debounceDelay)

	calls := api.suggested()
	if len(calls) != 1 {
		t.Fatalf("suggestion requests = %d, want 1 (%v)", len(calls), calls)
	}
	if calls[0] != "Gateway of India" {
		t.Fatalf("suggestion requested for %q, want last title", calls[0])
	}
	draft, _ := v.Draft()
	if draft.Description != "suggested text" {
		t.Fatalf("description = %q, want applied suggestion", draft.Description)
	}
}

func TestClearedTitleCancelsPendingRequest(t *testing.T) {
	api := &stubAPI{}
	v := newTestView(t, api, signedInSession(t))
	if err := v.ClickMap(1, 1); err != nil {
		t.Fatalf("click: %v", err)
	}

	v.SetTitle("Old Fort")
	v.SetTitle("")
	time.Sleep(5 * v.debounceDelay)

	if calls := api.suggested(); len(calls) != 0 {
		t.Fatalf("suggestion requests = %d, want 0 after cleared title", len(calls))
	}
}

// A suggestion that completes after its draft is gone must not be applied.
func TestStaleSuggestionNotApplied(t *testing.T) {
	release := make(chan struct{})
	api := &stubAPI{
		suggestFn: func(ctx context.Context, title string, lat, lng float64) (string, error) {
			<-release
			return "stale text", nil
		},
	}
	v := newTestView(t, api, signedInSession(t))
	if err := v.ClickMap(1, 1); err != nil {
		t.Fatalf("click: %v", err)
	}

	v.SetTitle("Old Fort")
	waitFor(t, func() bool { return len(api.suggested()) == 1 })

	v.CancelDraft()
	close(release)
	time.Sleep(50 * time.Millisecond)

	if _, open := v.Draft(); open {
		t.Fatal("draft reopened by stale suggestion")
	}
	// A fresh draft must not inherit the stale text either.
	if err := v.ClickMap(2, 2); err != nil {
		t.Fatalf("click: %v", err)
	}
	draft, _ := v.Draft()
	if draft.Description != "" {
		t.Fatalf("description = %q, want empty", draft.Description)
	}
}

// A suggestion for a superseded title must not clobber the newer one.
func TestSupersededTitleNotClobbered(t *testing.T) {
	release := make(chan struct{})
	api := &stubAPI{
		suggestFn: func(ctx context.Context, title string, lat, lng float64) (string, error) {
			if title == "Old" {
				<-release
			}
			return "description of " + title, nil
		},
	}
	v := newTestView(t, api, signedInSession(t))
	if err := v.ClickMap(1, 1); err != nil {
		t.Fatalf("click: %v", err)
	}

	v.SetTitle("Old")
	waitFor(t, func() bool { return len(api.suggested()) == 1 })

	v.SetTitle("New")
	waitFor(t, func() bool { return len(api.suggested()) == 2 })
	waitFor(t, func() bool {
		draft, _ := v.Draft()
		return draft.Description == "description of New"
	})

	close(release)
	time.Sleep(50 * time.Millisecond)

	draft, _ := v.Draft()
	if draft.Description != "description of New" {
		t.Fatalf("description = %q, stale suggestion applied", draft.Description)
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotInput services.PinInput
	api := &stubAPI{
		createFn: func(ctx context.Context, input services.PinInput) (models.Pin, error) {
			gotInput = input
			return models.Pin{
				ID:          "pin-1",
				Title:       input.Title,
				Description: input.Description,
				Lat:         input.Lat,
				Lng:         input.Lng,
				UserID:      input.UserID,
				Category:    input.Category,
				CreatedAt:   time.Now(),
			}, nil
		},
	}
	v := newTestView(t, api, signedInSession(t))
	if err := v.ClickMap(12.34, 56.78); err != nil {
		t.Fatalf("click: %v", err)
	}
	v.SetTitle("Old Fort")
	v.SetDescription("A historic fort.")
	v.SetCategory(models.CategoryStory)

	if err := v.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotInput.UserID != "u1" {
		t.Errorf("submitted userId = %q, want current user", gotInput.UserID)
	}
	if gotInput.Lat != 12.34 || gotInput.Lng != 56.78 {
		t.Errorf("submitted coords (%v, %v)", gotInput.Lat, gotInput.Lng)
	}
	if _, open := v.Draft(); open {
		t.Fatal("draft still open after successful submit")
	}
	pins := v.VisiblePins()
	if len(pins) != 1 || pins[0].ID != "pin-1" {
		t.Fatalf("pins = %+v, want the created pin", pins)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	api := &stubAPI{
		createFn: func(ctx context.Context, input services.PinInput) (models.Pin, error) {
			return models.Pin{}, fmt.Errorf("store down")
		},
	}
	v := newTestView(t, api, signedInSession(t))
	if err := v.ClickMap(1, 1); err != nil {
		t.Fatalf("click: %v", err)
	}
	v.SetDescription("d")

	if err := v.Submit(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}
	draft, open := v.Draft()
	if !open {
		t.Fatal("draft closed after failed submit")
	}
	if draft.Description != "d" {
		t.Fatalf("draft description = %q, want preserved", draft.Description)
	}
	if len(v.VisiblePins()) != 0 {
		t.Fatal("pin appended after failed submit")
	}
}

func TestDeletePinRemovesFromList(t *testing.T) {
	pins := []models.Pin{
		{ID: "a", UserID: "u1", Category: models.CategoryLandmark},
		{ID: "b", UserID: "u2", Category: models.CategoryEvent},
	}
	api := &stubAPI{
		listFn: func(ctx context.Context) ([]models.Pin, error) { return pins, nil },
	}
	v := newTestView(t, api, signedInSession(t))
	v.Load(context.Background())

	if err := v.DeletePin(context.Background(), "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := v.VisiblePins()
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("pins after delete = %+v", got)
	}
}

func TestDeletePinFailureLeavesList(t *testing.T) {
	api := &stubAPI{
		listFn: func(ctx context.Context) ([]models.Pin, error) {
			return []models.Pin{{ID: "a", UserID: "u2"}}, nil
		},
		deleteFn: func(ctx context.Context, id, userID string) error {
			return fmt.Errorf("forbidden")
		},
	}
	v := newTestView(t, api, signedInSession(t))
	v.Load(context.Background())

	if err := v.DeletePin(context.Background(), "a"); err == nil {
		t.Fatal("expected delete error")
	}
	if got := v.VisiblePins(); len(got) != 1 {
		t.Fatalf("pins after failed delete = %+v, want unchanged", got)
	}
}

func TestLoadFailureLeavesEmptyList(t *testing.T) {
	api := &stubAPI{
		listFn: func(ctx context.Context) ([]models.Pin, error) {
			return nil, fmt.Errorf("server unreachable")
		},
	}
	v := newTestView(t, api, signedInSession(t))
	v.Load(context.Background())

	if got := v.VisiblePins(); len(got) != 0 {
		t.Fatalf("pins = %+v, want empty", got)
	}
}

func TestCategoryFilter(t *testing.T) {
	all := []models.Pin{
		{ID: "1", Category: models.CategoryLandmark},
		{ID: "2", Category: models.CategoryEvent},
		{ID: "3", Category: models.CategoryStory},
		{ID: "4", Category: models.CategoryAlert},
		{ID: "5", Category: models.CategoryOther},
		{ID: "6", Category: models.CategoryEvent},
	}
	api := &stubAPI{
		listFn: func(ctx context.Context) ([]models.Pin, error) { return all, nil },
	}
	v := newTestView(t, api, signedInSession(t))
	v.Load(context.Background())

	if got := v.VisiblePins(); len(got) != len(all) {
		t.Fatalf("filter 'all' returned %d pins, want %d", len(got), len(all))
	}

	for _, category := range models.Categories {
		v.SetCategoryFilter(category)
		for _, pin := range v.VisiblePins() {
			if pin.Category != category {
				t.Errorf("filter %q returned pin with category %q", category, pin.Category)
			}
		}
	}

	v.SetCategoryFilter(models.CategoryEvent)
	if got := v.VisiblePins(); len(got) != 2 {
		t.Fatalf("filter 'event' returned %d pins, want 2", len(got))
	}
}
