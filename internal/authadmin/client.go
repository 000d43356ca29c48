// Package authadmin is a client for the hosted auth service's admin user API.
package authadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/time/rate"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
)

const maxErrorBody = 4 << 10

// APIError is a non-2xx reply from the auth service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth admin: status %d: %s %s", e.Status, e.Code, e.Message)
}

// Client calls the admin endpoints with the service key.
type Client struct {
	base    *url.URL
	key     string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a client. rps <= 0 disables client-side throttling.
func New(baseURL, serviceKey string, httpClient *http.Client, rps float64) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("auth admin url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("auth admin url: %q is not absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Client{base: u, key: serviceKey, http: httpClient, limiter: lim}, nil
}

type createUserBody struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// CreateUser creates an identity whose email is already confirmed.
func (c *Client) CreateUser(ctx context.Context, u model.NewAuthUser) (model.AuthUser, error) {
	body := createUserBody{Email: u.Email, Password: u.Password, EmailConfirm: true, UserMetadata: u.Metadata}
	var out model.AuthUser
	err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", body, &out)
	if err != nil {
		if alreadyRegistered(err) {
			return model.AuthUser{}, fmt.Errorf("%w: %v", errs.ErrAlreadyExists, err)
		}
		return model.AuthUser{}, err
	}
	if out.ID == uuid.Nil {
		return model.AuthUser{}, fmt.Errorf("auth admin: create user returned no id")
	}
	return out, nil
}

// DeleteUser removes an identity. A missing identity is not an error.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+id.String(), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &e)
	apiErr := &APIError{Status: resp.StatusCode, Code: e.ErrorCode}
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	return apiErr
}

func alreadyRegistered(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case "email_exists", "user_already_exists":
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "already been registered") || strings.Contains(msg, "already registered")
}
