package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ExecContext identifies the exchange that produced the directives.
type ExecContext struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	MessageID uuid.UUID
}

type Result struct {
	Kind    Kind                   `json:"kind"`
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

type Handler interface {
	Handle(ctx context.Context, action Action, ec ExecContext) (Result, error)
}

type HandlerFunc func(ctx context.Context, action Action, ec ExecContext) (Result, error)

func (f HandlerFunc) Handle(ctx context.Context, action Action, ec ExecContext) (Result, error) {
	return f(ctx, action, ec)
}

// Logger is the subset of the application logger the executor writes to.
type Logger interface {
	Info(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

type Executor struct {
	handlers map[Kind]Handler
	logger   Logger
}

func NewExecutor(logger Logger) *Executor {
	return &Executor{handlers: make(map[Kind]Handler), logger: logger}
}

func (e *Executor) Register(kind Kind, h Handler) {
	e.handlers[kind] = h
}

// ExecuteAll runs every action in order. A failing or panicking handler
// yields a failed Result and never stops the remaining actions.
func (e *Executor) ExecuteAll(ctx context.Context, list []Action, ec ExecContext) []Result {
	results := make([]Result, 0, len(list))
	for _, a := range list {
		results = append(results, e.execute(ctx, a, ec))
	}
	return results
}

func (e *Executor) execute(ctx context.Context, a Action, ec ExecContext) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: a.Kind(), Error: fmt.Sprintf("handler panicked: %v", r)}
			e.log(true, "Action handler panicked", a, ec, res.Error)
		}
	}()

	h, ok := e.handlers[a.Kind()]
	if !ok {
		res = Result{Kind: a.Kind(), Error: "no handler registered"}
		e.log(true, "Action skipped", a, ec, res.Error)
		return res
	}

	res, err := h.Handle(ctx, a, ec)
	res.Kind = a.Kind()
	if err != nil {
		res.Success = false
		res.Error = err.Error()
		e.log(true, "Action failed", a, ec, res.Error)
		return res
	}
	e.log(false, "Action executed", a, ec, res.Message)
	return res
}

func (e *Executor) log(isErr bool, msg string, a Action, ec ExecContext, detail string) {
	if e.logger == nil {
		return
	}
	details := map[string]interface{}{
		"kind":       string(a.Kind()),
		"user_id":    ec.UserID.String(),
		"session_id": ec.SessionID.String(),
		"detail":     detail,
	}
	if isErr {
		e.logger.Error("ACTIONS", msg, details)
		return
	}
	e.logger.Info("ACTIONS", msg, details)
}
