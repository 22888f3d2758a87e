package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
)

// HTTPClient talks to the Maker HTTP API. The cookie jar holds the opaque
// session credential between calls.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// HTTP returns the underlying http.Client (jar included) so other components,
// e.g. the artifact download, reuse the session credential.
func (c *HTTPClient) HTTP() *http.Client {
	return c.http
}

// envelope is the common response wrapper the service uses: exactly one of
// user/error/message is populated depending on the endpoint and outcome.
type envelope struct {
	User    *models.UserSession `json:"user"`
	Error   json.RawMessage     `json:"error"`
	Message string              `json:"message"`
}

// errFromEnvelope turns the polymorphic "error" field (a plain string or a
// field→message map) into a typed error.
func errFromEnvelope(status int, env envelope) error {
	if len(env.Error) > 0 {
		var s string
		if err := json.Unmarshal(env.Error, &s); err == nil {
			return &ServerError{StatusCode: status, Message: s}
		}
		var fields map[string]string
		if err := json.Unmarshal(env.Error, &fields); err == nil && len(fields) > 0 {
			return FieldErrors(fields)
		}
	}
	if env.Message != "" {
		return &ServerError{StatusCode: status, Message: env.Message}
	}
	return &ServerError{StatusCode: status}
}

// do performs one JSON request/response cycle. A nil in skips the request
// body; a nil out discards the response body. Transport failures map to
// ErrUnavailable, 401/403 to ErrUnauthorized, other non-2xx statuses to the
// error carried in the response envelope.
func (c *HTTPClient) do(ctx context.Context, method, path string, in any, out *envelope) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	// some endpoints respond 2xx with an empty body; tolerate decode misses
	// there but keep the body for error reporting otherwise
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return errFromEnvelope(resp.StatusCode, env)
	}

	if out != nil {
		if decodeErr != nil {
			return fmt.Errorf("error decoding response: %w", decodeErr)
		}
		*out = env
	}
	return nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.UserSession, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, ErrUnauthorized
	}
	return env.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	in := map[string]string{"email": email, "password": password}

	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/users/authenticate", in, &env); err != nil {
		return err
	}
	// a 2xx body can still carry a rejection
	if env.User == nil {
		if len(env.Error) > 0 {
			return fmt.Errorf("%w: %v", ErrUnauthorized, errFromEnvelope(http.StatusOK, env))
		}
		return ErrUnauthorized
	}
	return nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/users/logout", nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (*models.UserSession, error) {
	in := map[string]string{"name": name, "email": email, "password": password}

	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/users", in, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, errFromEnvelope(http.StatusOK, env)
	}
	return env.User, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	in := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/tokens/password-reset", in, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, password string) error {
	in := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPut, "/api/users/password", in, nil)
}

// historyRow matches the wire shape of one /api/history element.
type historyRow struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	Language    string `json:"language"`
	Template    string `json:"template"`
	BasePackage string `json:"basePackage"`
	Workers     int    `json:"workers"`
	Model       string `json:"model"`
	ProjectName string `json:"projectName"`
	Prompt      string `json:"prompt"`
}

func (c *HTTPClient) History(ctx context.Context, userID string) ([]models.SessionRecord, error) {
	u := c.baseURL + "/api/history?user_id=" + url.QueryEscape(userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}

	var rows []historyRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("error decoding history: %w", err)
	}

	records := make([]models.SessionRecord, 0, len(rows))
	for _, row := range rows {
		req := models.GenerationRequest{
			Language:    row.Language,
			Template:    row.Template,
			BasePackage: row.BasePackage,
			WorkerCount: row.Workers,
			Model:       row.Model,
			Prompt:      row.Prompt,
			ProjectName: row.ProjectName,
		}
		records = append(records, models.SessionRecord{
			ID:      strconv.Itoa(row.ID),
			Title:   models.DeriveTitle(req),
			Request: req,
		})
	}
	return records, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
