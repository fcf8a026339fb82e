// Package testutil provides an in-memory EaDuck backend for client tests,
// served over httptest with the same JWT auth scheme as the real API.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eaduck/client/core/classroom"
	"github.com/eaduck/client/core/notification"
	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/submission"
	"github.com/eaduck/client/core/task"
)

var secretKey = []byte("secret")

type httpErr struct {
	Error string `json:"error"`
}

// FakeBackend is a stand-in for the EaDuck REST API backed by in-memory
// tables. Mutate it through its methods; reads are what the handlers serve.
type FakeBackend struct {
	App *echo.Echo

	mu            sync.Mutex
	users         map[int]session.Identity
	passwords     map[string]string // by email
	tasks         []task.Task
	submissions   []submission.Submission
	notifications map[int][]notification.Notification
	failRefresh   bool
	taskConflict  string // when set, PUT /tasks/:id answers 409 with this message

	LoginCalls   int32
	RefreshCalls int32
	TaskCalls    int32
}

func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		users:         make(map[int]session.Identity),
		passwords:     make(map[string]string),
		notifications: make(map[int][]notification.Notification),
	}

	app := echo.New()
	app.Pre(middleware.RemoveTrailingSlash())

	app.POST("/auth/login", b.login)
	app.POST("/auth/refresh", b.refresh, b.requireAuth)
	app.GET("/users/me", b.me, b.requireAuth)
	app.GET("/tasks", b.listTasks, b.requireAuth)
	app.POST("/tasks", b.createTask, b.requireAuth)
	app.PUT("/tasks/:id", b.updateTask, b.requireAuth)
	app.GET("/classrooms", b.listClassrooms, b.requireAuth)
	app.GET("/submissions/me", b.mySubmissions, b.requireAuth)
	app.GET("/submissions/all", b.allSubmissions, b.requireAuth)
	app.PUT("/submissions/:id/evaluate", b.evaluateSubmission, b.requireAuth)
	app.GET("/notifications/user/:id", b.userNotifications, b.requireAuth)
	app.PUT("/notifications/:id/read", b.markNotificationRead, b.requireAuth)

	b.App = app
	return b
}

// Start serves the fake API; the caller owns the returned server.
func (b *FakeBackend) Start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(b.App)
	t.Cleanup(srv.Close)
	return srv
}

// AddUser registers an account and returns its identity.
func (b *FakeBackend) AddUser(id int, email, password, role string) session.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	ident := session.Identity{ID: id, Email: email, Role: role, IsActive: true}
	b.users[id] = ident
	b.passwords[email] = password
	return ident
}

func (b *FakeBackend) SetTasks(tasks ...task.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = tasks
}

func (b *FakeBackend) SetSubmissions(subs ...submission.Submission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = subs
}

func (b *FakeBackend) SetNotifications(userID int, notifs ...notification.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications[userID] = notifs
}

// FailRefresh makes POST /auth/refresh answer 500 when on is true.
func (b *FakeBackend) FailRefresh(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = on
}

// SetTaskConflict makes PUT /tasks/:id answer 409 with the given message.
func (b *FakeBackend) SetTaskConflict(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.taskConflict = msg
}

// MintToken issues a token for the given user the way the login handler does;
// use it to call authed endpoints without logging in.
func (b *FakeBackend) MintToken(t *testing.T, userID int) string {
	t.Helper()
	token, err := mintToken(userID)
	if err != nil {
		t.Fatalf("MintToken() failed: %v", err)
	}
	return token
}

func mintToken(userID int) (string, error) {
	claims := jwt.StandardClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

func parseToken(raw string) (int, error) {
	claims := new(jwt.StandardClaims)
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secretKey, nil
	}); err != nil {
		return 0, err
	}
	return strconv.Atoi(claims.Subject)
}

const ctxUserKey = "userID"

func (b *FakeBackend) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, httpErr{Error: "missing or malformed jwt"})
		}
		userID, err := parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, httpErr{Error: "invalid token"})
		}
		c.Set(ctxUserKey, userID)
		return next(c)
	}
}

func (b *FakeBackend) login(c echo.Context) error {
	atomic.AddInt32(&b.LoginCalls, 1)
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	pwd, ok := b.passwords[body.Email]
	if !ok || pwd != body.Password {
		return c.JSON(http.StatusUnauthorized, httpErr{Error: "invalid email or password"})
	}
	for _, u := range b.users {
		if u.Email == body.Email {
			token, err := mintToken(u.ID)
			if err != nil {
				return err
			}
			return c.JSON(http.StatusOK, session.LoginResult{Token: token, UserID: strconv.Itoa(u.ID)})
		}
	}
	return c.JSON(http.StatusUnauthorized, httpErr{Error: "invalid email or password"})
}

func (b *FakeBackend) refresh(c echo.Context) error {
	atomic.AddInt32(&b.RefreshCalls, 1)
	b.mu.Lock()
	fail := b.failRefresh
	b.mu.Unlock()
	if fail {
		return c.JSON(http.StatusInternalServerError, httpErr{Error: "refresh unavailable"})
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil {
		return err
	}
	userID, err := parseToken(body.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, httpErr{Error: "invalid token"})
	}
	token, err := mintToken(userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (b *FakeBackend) me(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ident, ok := b.users[c.Get(ctxUserKey).(int)]
	if !ok {
		return c.JSON(http.StatusUnauthorized, httpErr{Error: "unknown user"})
	}
	return c.JSON(http.StatusOK, ident)
}

func (b *FakeBackend) listTasks(c echo.Context) error {
	atomic.AddInt32(&b.TaskCalls, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	tasks := b.tasks
	if tasks == nil {
		tasks = []task.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (b *FakeBackend) createTask(c echo.Context) error {
	var in task.NewTask
	if err := c.Bind(&in); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := task.Task{
		ID:          len(b.tasks) + 1,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		ClassroomID: in.ClassroomID,
		Type:        in.Type,
		CreatedAt:   time.Now().UTC(),
	}
	b.tasks = append(b.tasks, t)
	return c.JSON(http.StatusCreated, t)
}

func (b *FakeBackend) updateTask(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.taskConflict != "" {
		return c.JSON(http.StatusConflict, httpErr{Error: b.taskConflict})
	}
	id, _ := strconv.Atoi(c.Param("id"))
	var in task.UpdateTask
	if err := c.Bind(&in); err != nil {
		return err
	}
	for i, t := range b.tasks {
		if t.ID == id {
			b.tasks[i].Title = in.Title
			b.tasks[i].Description = in.Description
			b.tasks[i].DueDate = in.DueDate
			return c.JSON(http.StatusOK, b.tasks[i])
		}
	}
	return c.JSON(http.StatusNotFound, httpErr{Error: "task not found"})
}

func (b *FakeBackend) listClassrooms(c echo.Context) error {
	return c.JSON(http.StatusOK, []classroom.Classroom{})
}

func (b *FakeBackend) mySubmissions(c echo.Context) error {
	userID := c.Get(ctxUserKey).(int)
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.JSON(http.StatusOK, submission.ByStudent(b.submissions, userID))
}

func (b *FakeBackend) allSubmissions(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.submissions
	if subs == nil {
		subs = []submission.Submission{}
	}
	return c.JSON(http.StatusOK, subs)
}

func (b *FakeBackend) evaluateSubmission(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	var in submission.EvaluateSubmission
	if err := c.Bind(&in); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.submissions {
		if s.ID == id {
			now := time.Now().UTC()
			b.submissions[i].Grade = &in.Grade
			b.submissions[i].Feedback = in.Feedback
			b.submissions[i].EvaluatedAt = &now
			return c.JSON(http.StatusOK, b.submissions[i])
		}
	}
	return c.JSON(http.StatusNotFound, httpErr{Error: "submission not found"})
}

func (b *FakeBackend) userNotifications(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	notifs := b.notifications[id]
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return c.JSON(http.StatusOK, notifs)
}

func (b *FakeBackend) markNotificationRead(c echo.Context) error {
	id, _ := strconv.Atoi(c.Param("id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for userID, notifs := range b.notifications {
		for i, n := range notifs {
			if n.ID == id {
				b.notifications[userID][i].IsRead = true
				return c.NoContent(http.StatusOK)
			}
		}
	}
	return c.JSON(http.StatusNotFound, httpErr{Error: "notification not found"})
}
