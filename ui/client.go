// Package ui is the browser-side model of the pin map: an API client for
// the server endpoints, an observable session, the map view state and the
// marker set derivation. It holds no rendering code; the map widget and
// tile layer stay in the embedding frontend.
package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pinboard/models"
	"pinboard/services"
	"pinboard/utils/errors"
)

// API is the server surface the map view depends on.
type API interface {
	ListPins(ctx context.Context) ([]models.Pin, error)
	CreatePin(ctx context.Context, input services.PinInput) (models.Pin, error)
	DeletePin(ctx context.Context, id, userID string) error
	Suggest(ctx context.Context, title string, lat, lng float64) (string, error)
}

// APIClient talks JSON to the pinboard server.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *APIClient) do(ctx context.Context, method, path, token string, body, out any) error {
	reqBody := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errors.APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return &apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *APIClient) ListPins(ctx context.Context) ([]models.Pin, error) {
	var pins []models.Pin
	if err := c.do(ctx, http.MethodGet, "/pins", "", nil, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (c *APIClient) CreatePin(ctx context.Context, input services.PinInput) (models.Pin, error) {
	var pin models.Pin
	if err := c.do(ctx, http.MethodPost, "/pins", "", input, &pin); err != nil {
		return models.Pin{}, err
	}
	return pin, nil
}

func (c *APIClient) DeletePin(ctx context.Context, id, userID string) error {
	body := map[string]string{"id": id, "userId": userID}
	return c.do(ctx, http.MethodDelete, "/pins", "", body, nil)
}

func (c *APIClient) Suggest(ctx context.Context, title string, lat, lng float64) (string, error) {
	body := map[string]any{"title": title, "lat": lat, "lng": lng}
	var out struct {
		Suggestion string `json:"suggestion"`
	}
	if err := c.do(ctx, http.MethodPost, "/suggest", "", body, &out); err != nil {
		return "", err
	}
	return out.Suggestion, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (string, models.SessionUser, error) {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		Token string             `json:"token"`
		User  models.SessionUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return "", models.SessionUser{}, err
	}
	return out.Token, out.User, nil
}

func (c *APIClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}
