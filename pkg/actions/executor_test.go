package actions

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Deliver(ctx context.Context, e Email) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) OnEvent(_ uuid.UUID, name string, _ interface{}) {
	r.events = append(r.events, name)
}

type stubSwitcher struct {
	got string
	err error
}

func (s *stubSwitcher) SetActiveProfile(_ context.Context, _ uuid.UUID, id string) error {
	s.got = id
	return s.err
}

func TestExecuteAll_ContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	mailer := new(mockMailer)
	mailer.On("Deliver", ctx, mock.Anything).Return("", errors.New("smtp down"))

	notifier := &recordingNotifier{}
	exec := NewExecutor(nil)
	exec.Register(KindEmail, NewEmailHandler(mailer))
	exec.Register(KindQuery, NewNotifyHandler(notifier))
	exec.Register(KindTask, HandlerFunc(func(context.Context, Action, ExecContext) (Result, error) {
		panic("boom")
	}))

	results := exec.ExecuteAll(ctx, []Action{
		Email{Subject: "s"},
		Task{Title: "t"},
		Query{Text: "q"},
		UploadRequest{},
	}, ExecContext{UserID: uuid.New()})

	require.Len(t, results, 4)
	assert.False(t, results[0].Success)
	assert.Equal(t, "smtp down", results[0].Error)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "panicked")
	assert.True(t, results[2].Success)
	assert.False(t, results[3].Success)
	assert.Equal(t, "no handler registered", results[3].Error)
	assert.Equal(t, []string{EventAction}, notifier.events)
	mailer.AssertExpectations(t)
}

func TestTaskLog_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.jsonl")
	log := NewTaskLog(path)
	ec := ExecContext{UserID: uuid.New(), SessionID: uuid.New()}

	for _, title := range []string{"one", "two"} {
		res, err := log.Handle(context.Background(), Task{Title: title}, ec)
		require.NoError(t, err)
		assert.True(t, res.Success)
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var titles []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec TaskRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		assert.Equal(t, ec.SessionID.String(), rec.SessionID)
		titles = append(titles, rec.Title)
	}
	assert.Equal(t, []string{"one", "two"}, titles)
}

func TestProfileSwitchHandler(t *testing.T) {
	sw := &stubSwitcher{}
	n := &recordingNotifier{}
	h := NewProfileSwitchHandler(sw, n)

	res, err := h.Handle(context.Background(), ProfileSwitch{Profile: "writer"}, ExecContext{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "writer", sw.got)
	assert.Equal(t, []string{"ask:profile-switched"}, n.events)

	sw.err = errors.New("unknown profile")
	_, err = h.Handle(context.Background(), ProfileSwitch{Profile: "nope"}, ExecContext{})
	assert.EqualError(t, err, "unknown profile")
}
