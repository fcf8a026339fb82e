package gwsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/notification"
	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/submission"
	"github.com/eaduck/client/core/task"
	testutil "github.com/eaduck/client/tests"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var _ core.Logger = nopLogger{}

func newTestClient(t *testing.T, b *testutil.FakeBackend, userID int) *Client {
	t.Helper()
	srv := b.Start(t)
	client := NewClient(nopLogger{}, srv.URL)
	if userID != 0 {
		token := b.MintToken(t, userID)
		client.SetTokenSource(func() string { return token })
	}
	return client
}

func TestLogin(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "aluno@eaduck.test", "pwd", session.RoleStudent)
	client := newTestClient(t, b, 0)

	res, err := client.Login(context.Background(), "aluno@eaduck.test", "pwd")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "1", res.UserID)
}

func TestLoginBadCredentials(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "aluno@eaduck.test", "pwd", session.RoleStudent)
	client := newTestClient(t, b, 0)

	_, err := client.Login(context.Background(), "aluno@eaduck.test", "nope")
	require.Error(t, err)
	assert.True(t, core.IsAuthenticationError(err))
	assert.EqualError(t, err, "invalid email or password") // backend message unchanged
}

func TestMe(t *testing.T) {
	b := testutil.NewFakeBackend()
	want := b.AddUser(1, "prof@eaduck.test", "pwd", session.RoleTeacher)
	client := newTestClient(t, b, 1)

	got, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMissingTokenIsSessionExpired(t *testing.T) {
	b := testutil.NewFakeBackend()
	client := newTestClient(t, b, 0)

	_, err := client.Tasks(context.Background())
	assert.Equal(t, core.ErrSessionExpired, err)
}

func TestTasks(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "aluno@eaduck.test", "pwd", session.RoleStudent)
	due := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	b.SetTasks(task.Task{ID: 1, Title: "Trabalho", DueDate: due, ClassroomID: 1, Type: task.TypeTarefa})
	client := newTestClient(t, b, 1)

	tasks, err := client.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Trabalho", tasks[0].Title)
	assert.True(t, tasks[0].DueDate.Equal(due))
}

func TestUpdateTaskConflict(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "prof@eaduck.test", "pwd", session.RoleTeacher)
	b.SetTaskConflict("task already has submissions")
	client := newTestClient(t, b, 1)

	_, err := client.UpdateTask(context.Background(), 1, task.UpdateTask{
		Title:   "Novo título",
		DueDate: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.True(t, core.IsConflict(err))
	assert.EqualError(t, err, "task already has submissions") // verbatim for the UI
}

func TestRefreshFailureIsTransient(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "aluno@eaduck.test", "pwd", session.RoleStudent)
	b.FailRefresh(true)
	client := newTestClient(t, b, 1)

	_, err := client.Refresh(context.Background(), b.MintToken(t, 1))
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))
}

func TestRefreshRotatesToken(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "aluno@eaduck.test", "pwd", session.RoleStudent)
	client := newTestClient(t, b, 1)

	token, err := client.Refresh(context.Background(), b.MintToken(t, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestNotificationsMarkRead(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(1, "aluno@eaduck.test", "pwd", session.RoleStudent)
	b.SetNotifications(1,
		notification.Notification{ID: 10, Message: "Nova tarefa", NotificationType: "TAREFA"},
	)
	client := newTestClient(t, b, 1)

	notifs, err := client.UserNotifications(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, 1, notification.UnreadCount(notifs))

	// mutate-and-refetch: mark read, then reload the snapshot
	require.NoError(t, client.MarkNotificationRead(context.Background(), 10))
	notifs, err = client.UserNotifications(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, notification.UnreadCount(notifs))
}

func TestEvaluateSubmission(t *testing.T) {
	b := testutil.NewFakeBackend()
	b.AddUser(2, "prof@eaduck.test", "pwd", session.RoleTeacher)
	b.SetSubmissions(submission.Submission{ID: 5, TaskID: 1, StudentID: 1, SubmittedAt: time.Now().UTC()})
	client := newTestClient(t, b, 2)

	got, err := client.EvaluateSubmission(context.Background(), 5, submission.EvaluateSubmission{
		Grade:    9.5,
		Feedback: "Muito bom",
	})
	require.NoError(t, err)
	require.NotNil(t, got.Grade)
	assert.Equal(t, 9.5, *got.Grade)
	assert.Equal(t, "Muito bom", got.Feedback)
	assert.NotNil(t, got.EvaluatedAt)
}

func TestEvaluateSubmissionValidation(t *testing.T) {
	b := testutil.NewFakeBackend()
	client := newTestClient(t, b, 1)

	_, err := client.EvaluateSubmission(context.Background(), 5, submission.EvaluateSubmission{Grade: 11})
	assert.Error(t, err) // grade out of range, rejected before the network
}
