package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout = 30 * time.Second
	userAgent      = "cryptoalert/1.0"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyToken   = errors.New("empty token in response")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

// Client talks to the alert backend. The zero Token means anonymous calls.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WithToken returns a copy of the client authenticating as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type MonitoringStatus struct {
	Active bool `json:"active"`
}

type Asset struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
}

type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

type Portfolio struct {
	Holdings []Holding `json:"holdings"`
}

type Transaction struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"created_at"`
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		bodyContent, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(bodyContent)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

// do sends the request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	resp, err := c.makeRequest(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method: method,
			Path:   endpoint,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// Me returns the user the client token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CheckToken asks the backend whether the client token is valid. Only the
// status code counts; the body is discarded.
func (c *Client) CheckToken(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/user/me", nil, nil)
}

// Login exchanges credentials for a token. access_token is accepted as an
// alias of token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var loginResp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{
		Username: username,
		Password: password,
	}, &loginResp)
	if err != nil {
		return "", err
	}

	token := loginResp.Token
	if token == "" {
		token = loginResp.AccessToken
	}
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", req, nil)
}

func (c *Client) MonitoringStatus(ctx context.Context) (*MonitoringStatus, error) {
	var status MonitoringStatus
	if err := c.do(ctx, http.MethodGet, "/monitoring/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) StartMonitoring(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/monitoring/start", nil, nil)
}

func (c *Client) StopMonitoring(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/monitoring/stop", nil, nil)
}

// CurrentCrypto lists the tracked assets. It needs no token.
func (c *Client) CurrentCrypto(ctx context.Context) ([]Asset, error) {
	var assets []Asset
	if err := c.do(ctx, http.MethodGet, "/crypto/current", nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (c *Client) GetPortfolio(ctx context.Context) (*Portfolio, error) {
	var portfolio Portfolio
	if err := c.do(ctx, http.MethodGet, "/portfolio", nil, &portfolio); err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (c *Client) GetTransactions(ctx context.Context) ([]Transaction, error) {
	var transactions []Transaction
	if err := c.do(ctx, http.MethodGet, "/portfolio/transactions", nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
