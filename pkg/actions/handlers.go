package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mailer turns an Email directive into a draft or a sent message and
// returns where it went.
type Mailer interface {
	Deliver(ctx context.Context, email Email) (string, error)
}

type ProfileSwitcher interface {
	SetActiveProfile(ctx context.Context, userID uuid.UUID, profileID string) error
}

type Notifier interface {
	OnEvent(userID uuid.UUID, name string, payload interface{})
}

const EventAction = "ask:action"

func NewEmailHandler(m Mailer) Handler {
	return HandlerFunc(func(ctx context.Context, a Action, _ ExecContext) (Result, error) {
		email, ok := a.(Email)
		if !ok {
			return Result{}, fmt.Errorf("unexpected action %T", a)
		}
		location, err := m.Deliver(ctx, email)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Success: true,
			Message: "email prepared",
			Data:    map[string]interface{}{"location": location, "subject": email.Subject},
		}, nil
	})
}

// TaskRecord is one line of the task log.
type TaskRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Due       string    `json:"due,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskLog appends tasks as JSON lines to a single file.
type TaskLog struct {
	path string
	mu   sync.Mutex
}

func NewTaskLog(path string) *TaskLog {
	return &TaskLog{path: path}
}

func (t *TaskLog) Handle(_ context.Context, a Action, ec ExecContext) (Result, error) {
	task, ok := a.(Task)
	if !ok {
		return Result{}, fmt.Errorf("unexpected action %T", a)
	}
	rec := TaskRecord{
		ID:        uuid.NewString(),
		UserID:    ec.UserID.String(),
		SessionID: ec.SessionID.String(),
		Title:     task.Title,
		Due:       task.Due,
		Priority:  task.Priority,
		Notes:     task.Notes,
		CreatedAt: time.Now().UTC(),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return Result{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return Result{}, err
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: "task recorded", Data: map[string]interface{}{"task_id": rec.ID}}, nil
}

func NewProfileSwitchHandler(s ProfileSwitcher, n Notifier) Handler {
	return HandlerFunc(func(ctx context.Context, a Action, ec ExecContext) (Result, error) {
		sw, ok := a.(ProfileSwitch)
		if !ok {
			return Result{}, fmt.Errorf("unexpected action %T", a)
		}
		if err := s.SetActiveProfile(ctx, ec.UserID, sw.Profile); err != nil {
			return Result{}, err
		}
		if n != nil {
			n.OnEvent(ec.UserID, "ask:profile-switched", map[string]interface{}{
				"profile": sw.Profile,
				"reason":  sw.Reason,
			})
		}
		return Result{Success: true, Message: "profile switched", Data: map[string]interface{}{"profile": sw.Profile}}, nil
	})
}

// NewNotifyHandler forwards directives that need the user interface,
// such as upload prompts and follow-up queries.
func NewNotifyHandler(n Notifier) Handler {
	return HandlerFunc(func(_ context.Context, a Action, ec ExecContext) (Result, error) {
		payload := map[string]interface{}{"kind": string(a.Kind())}
		switch v := a.(type) {
		case UploadRequest:
			payload["reason"] = v.Reason
			payload["file_types"] = v.FileTypes
		case Query:
			payload["text"] = v.Text
		default:
			return Result{}, fmt.Errorf("unexpected action %T", a)
		}
		n.OnEvent(ec.UserID, EventAction, payload)
		return Result{Success: true, Message: "forwarded to client"}, nil
	})
}
