// Package gwsvc is the typed REST gateway to the EaDuck backend. Every
// outbound request carries a bounded timeout, a correlation ID and, when a
// token source is wired, a bearer token.
package gwsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/classroom"
	"github.com/eaduck/client/core/notification"
	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/submission"
	"github.com/eaduck/client/core/task"
)

// TokenSource supplies the current bearer token; empty means anonymous.
type TokenSource func() string

type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	logger core.Logger
}

var _ session.Gateway = (*Client)(nil)

// NewClient builds a gateway client against the configured base URL; an
// explicit URL may be passed instead (tests).
func NewClient(logger core.Logger, baseURL ...string) *Client {
	base := core.Conf.GetString("apiBaseUrl")
	if len(baseURL) > 0 {
		base = baseURL[0]
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: core.Conf.GetDuration("requestTimeout")},
		logger: logger,
	}
}

// SetTokenSource injects the token source; wired after the session manager
// exists since the two reference each other.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

func (c *Client) Login(ctx context.Context, email, password string) (session.LoginResult, error) {
	var res session.LoginResult
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", body, &res, false)
	return res, err
}

func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	body := map[string]string{"token": token}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &res, true); err != nil {
		return "", err
	}
	return res.Token, nil
}

func (c *Client) Me(ctx context.Context) (session.Identity, error) {
	var ident session.Identity
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &ident, true)
	return ident, err
}

func (c *Client) Tasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks, true)
	return tasks, err
}

func (c *Client) Classrooms(ctx context.Context) ([]classroom.Classroom, error) {
	var rooms []classroom.Classroom
	err := c.do(ctx, http.MethodGet, "/classrooms", nil, &rooms, true)
	return rooms, err
}

func (c *Client) MySubmissions(ctx context.Context) ([]submission.Submission, error) {
	var subs []submission.Submission
	err := c.do(ctx, http.MethodGet, "/submissions/me", nil, &subs, true)
	return subs, err
}

func (c *Client) AllSubmissions(ctx context.Context) ([]submission.Submission, error) {
	var subs []submission.Submission
	err := c.do(ctx, http.MethodGet, "/submissions/all", nil, &subs, true)
	return subs, err
}

func (c *Client) UserNotifications(ctx context.Context, userID int) ([]notification.Notification, error) {
	var notifs []notification.Notification
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/notifications/user/%d", userID), nil, &notifs, true)
	return notifs, err
}

// MarkNotificationRead mutates server-side state only; the caller refetches
// the notifications snapshot afterwards instead of patching it locally.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), struct{}{}, nil, true)
}

func (c *Client) EvaluateSubmission(ctx context.Context, id int, in submission.EvaluateSubmission) (submission.Submission, error) {
	var sub submission.Submission
	if err := in.Validate(); err != nil {
		return sub, err
	}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/submissions/%d/evaluate", id), in, &sub, true)
	return sub, err
}

func (c *Client) CreateTask(ctx context.Context, in task.NewTask) (task.Task, error) {
	var t task.Task
	if err := in.Validate(); err != nil {
		return t, err
	}
	err := c.do(ctx, http.MethodPost, "/tasks", in, &t, true)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id int, in task.UpdateTask) (task.Task, error) {
	var t task.Task
	if err := in.Validate(); err != nil {
		return t, err
	}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), in, &t, true)
	return t, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	var reqBody io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrapf(err, "gateway: encoding %s %s body", method, path)
		}
		reqBody = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "gateway: building %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if authed && c.tokens != nil {
		if token := c.tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &core.TransientError{Err: errors.Wrapf(err, "gateway: %s %s", method, path)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "gateway: decoding %s %s response", method, path)
		}
		return nil
	}
	return c.statusError(resp, method, path, authed)
}

// statusError maps a non-2xx response onto the error taxonomy.
func (c *Client) statusError(resp *http.Response, method, path string, authed bool) error {
	msg := readErrorMessage(resp)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if authed {
			return core.ErrSessionExpired
		}
		return &core.AuthenticationError{Message: msg}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		return core.NewConflictError(msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return &core.TransientError{Err: errors.Errorf("gateway: %s %s: %s", method, path, msg)}
	default:
		return errors.Errorf("gateway: %s %s: unexpected status %d: %s", method, path, resp.StatusCode, msg)
	}
}

func readErrorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
