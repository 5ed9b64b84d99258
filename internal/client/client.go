// Package client is the caller side of the login flow: it validates what the
// user typed, posts the credentials to the login service, and stores the
// returned identity for whatever runs next.
//
// Errors come in three shapes. ValidationErrors are reported before any
// network call. A *LoginError carries the field the message belongs to and
// wraps ErrNetwork when the server could not be reached, or ErrRejected when
// the server answered with a failure status; storage faults on the server
// side are not distinguished from bad credentials here. ErrInFlight is
// returned when a login is already running on the same Client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

var (
	ErrNetwork  = errors.New("login service unreachable")
	ErrRejected = errors.New("login rejected")
	ErrInFlight = errors.New("login already in progress")
)

const (
	msgServerError = "Server error, please try again later"
	msgLoginFailed = "Login failed"
)

type LoginError struct {
	Field   string
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	identities IdentityStore

	inFlight atomic.Bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, identities IdentityStore, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("server url is required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		identities: identities,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string    `json:"message"`
	Error   string    `json:"error"`
	User    *Identity `json:"user"`
}

// Login validates f, submits it, and on success replaces the stored current
// identity. Only one Login may run at a time per Client.
func (c *Client) Login(ctx context.Context, f Form) (Identity, error) {
	if err := f.Validate(); err != nil {
		return Identity{}, err
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Identity{}, ErrInFlight
	}
	defer c.inFlight.Store(false)

	username := strings.TrimSpace(f.Email)
	resp, err := c.post(ctx, loginRequest{Username: username, Password: f.Password})
	if err != nil {
		return Identity{}, err
	}

	var id Identity
	if resp.User != nil {
		id = Identity{Name: resp.User.Name, Role: resp.User.Role, Email: resp.User.Email}
	} else {
		// Older servers answer with a message only.
		id = Identity{Name: username, Role: defaultRole, Email: username}
	}
	if err := c.identities.SaveCurrent(id); err != nil {
		return Identity{}, fmt.Errorf("save identity: %w", err)
	}

	if f.Remember {
		err = c.identities.Remember(username)
	} else {
		err = c.identities.Forget()
	}
	if err != nil {
		return Identity{}, fmt.Errorf("update remembered user: %w", err)
	}
	return id, nil
}

func (c *Client) post(ctx context.Context, body loginRequest) (loginResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return loginResponse{}, fmt.Errorf("encode login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(b))
	if err != nil {
		return loginResponse{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return loginResponse{}, networkError(err)
	}
	defer res.Body.Close()

	var out loginResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&out)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = msgLoginFailed
		}
		return loginResponse{}, &LoginError{Field: FieldPassword, Message: msg, Err: ErrRejected}
	}
	if decodeErr != nil {
		return loginResponse{}, networkError(decodeErr)
	}
	return out, nil
}

func networkError(err error) error {
	return &LoginError{Field: FieldEmail, Message: msgServerError, Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
}

// Current returns the identity stored by the last successful Login.
func (c *Client) Current() (Identity, error) {
	return c.identities.Current()
}

func (c *Client) Logout() error {
	return c.identities.ClearCurrent()
}
