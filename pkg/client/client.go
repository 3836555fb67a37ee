// Package client is a Go client for the reqgather API. It manages the token
// pair for a signed-in user and transparently refreshes the access token once
// when a request comes back 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrSessionExpired is returned when the access token is rejected and the
// refresh token cannot produce a new pair. The caller must sign in again.
var ErrSessionExpired = errors.New("session expired, sign in required")

// User mirrors the API's user payload.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type authPayload struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a reqgather server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	currentUser  *User
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokens seeds the client with a previously saved token pair.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
	c.currentUser = nil
}

// Tokens returns the current token pair, for persisting across runs.
func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// Login authenticates and stores the returned token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var payload authPayload
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/login", body, &payload); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.accessToken = payload.Token
	c.refreshToken = payload.RefreshToken
	c.currentUser = payload.User
	c.mu.Unlock()
	return payload.User, nil
}

// Register creates an account and stores the returned token pair.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	body := map[string]string{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}
	var payload authPayload
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/register", body, &payload); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.accessToken = payload.Token
	c.refreshToken = payload.RefreshToken
	c.currentUser = payload.User
	c.mu.Unlock()
	return payload.User, nil
}

// Logout invalidates the server-side session and clears local state. Local
// state is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	var body interface{}
	if refreshToken != "" {
		body = map[string]string{"refresh_token": refreshToken}
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", body, nil)
	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.currentUser = nil
	c.mu.Unlock()
	return err
}

// CurrentUser returns the signed-in user, fetching the profile on first use.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	c.mu.Lock()
	cached := c.currentUser
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var user User
	if err := c.Do(ctx, http.MethodGet, "/api/users/profile", nil, &user); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			c.mu.Lock()
			c.accessToken = ""
			c.refreshToken = ""
			c.currentUser = nil
			c.mu.Unlock()
		}
		return nil, err
	}
	c.mu.Lock()
	c.currentUser = &user
	c.mu.Unlock()
	return &user, nil
}

// Do performs an authenticated request. On a 401 it refreshes the token pair
// once and retries the request a single time; if the refresh fails it returns
// ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	status, err := c.attempt(ctx, method, path, body, token, out)
	if err == nil || status != http.StatusUnauthorized {
		return err
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		return ErrSessionExpired
	}

	c.mu.Lock()
	token = c.accessToken
	c.mu.Unlock()

	status, err = c.attempt(ctx, method, path, body, token, out)
	if status == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	return err
}

func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return ErrSessionExpired
	}

	var payload authPayload
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": refreshToken}, &payload); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = payload.Token
	c.refreshToken = payload.RefreshToken
	c.currentUser = payload.User
	c.mu.Unlock()
	return nil
}

// doPublic performs an unauthenticated request, no refresh retry.
func (c *Client) doPublic(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	_, err := c.attempt(ctx, method, path, body, "", out)
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, body interface{}, token string, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return resp.StatusCode, fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err)
		}
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Fields:     env.Errors,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response data: %w", err)
		}
	}
	return resp.StatusCode, nil
}
