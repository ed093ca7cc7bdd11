package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"lucide-core/internal/config"
	"lucide-core/internal/entity"
	"lucide-core/internal/pkg/logger"
	"lucide-core/pkg/actions"
	"lucide-core/pkg/agent"
	"lucide-core/pkg/capture"
	"lucide-core/pkg/events"
	"lucide-core/pkg/llm"
	"lucide-core/pkg/rag"
	"lucide-core/pkg/tokens"

	"github.com/google/uuid"
)

// Events pushed to the window besides state frames.
const (
	EventShowAsk         = "window:show-ask"
	EventState           = "ask:state"
	EventStreamError     = "ask:stream-error"
	EventError           = "ask:error"
	EventProfileSwitched = "ask:profile-switched"
	EventLengthWarning   = "ask:length-warning"
)

// RequestState is the snapshot the window renders. Only the ask service
// mutates it.
type RequestState struct {
	IsLoading       bool       `json:"is_loading"`
	IsStreaming     bool       `json:"is_streaming"`
	CurrentQuestion string     `json:"current_question"`
	CurrentResponse string     `json:"current_response"`
	ShowTextInput   bool       `json:"show_text_input"`
	SessionId       *uuid.UUID `json:"session_id,omitempty"`
}

func idleState() RequestState {
	return RequestState{ShowTextInput: true}
}

// StateObserver is the window. It receives every state transition of the
// active request and the side events.
type StateObserver interface {
	OnStateChange(userId uuid.UUID, state RequestState)
	OnEvent(userId uuid.UUID, name string, payload interface{})
}

type AskSessionStore interface {
	GetOrCreateActive(ctx context.Context, userId uuid.UUID, sessionType entity.SessionType) (*entity.ConversationSession, error)
	AppendMessage(ctx context.Context, message *entity.ConversationMessage) error
	ListRecentMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error)
	UpdateMetadata(ctx context.Context, sessionId uuid.UUID, profile string) (int, error)
	SetTitle(ctx context.Context, sessionId uuid.UUID, title string) error
}

type KnowledgeBase interface {
	Status(ctx context.Context, userId uuid.UUID) (*rag.Status, error)
	RetrieveContext(ctx context.Context, userId uuid.UUID, query string, opts rag.Options) (*rag.RetrievedContext, error)
}

type AgentRouter interface {
	RouteQuestion(ctx context.Context, text string, userId uuid.UUID) (*agent.Route, error)
}

type ProfileManager interface {
	CurrentProfile(userId uuid.UUID) string
	SetActiveProfile(ctx context.Context, userId uuid.UUID, profileId string) error
	SystemPrompt(profileId string) string
}

type ActionRunner interface {
	ExecuteAll(ctx context.Context, list []actions.Action, ec actions.ExecContext) []actions.Result
}

type ModelCapabilities interface {
	SupportsVision(provider, model string) (bool, string)
	MaxOutput(provider, model string) int
}

type ScreenCapturer interface {
	Capture(ctx context.Context) (*capture.Image, error)
}

type UsageRecorder interface {
	Record(ctx context.Context, rec UsageRecord) error
}

type CitationTracker interface {
	Track(ctx context.Context, messageId uuid.UUID, sources []rag.Source) error
}

type TurnIndexer interface {
	Trigger(userId, sessionId uuid.UUID, messageCount int) bool
	TriggerScreenshot(userId, sessionId uuid.UUID, image []byte, mimeType string)
}

// AskDeps are the collaborators of the ask service. Client, Sessions,
// Profiles and Observer are required.
type AskDeps struct {
	Client       llm.StreamClient
	Sessions     AskSessionStore
	Knowledge    KnowledgeBase
	Router       AgentRouter
	Profiles     ProfileManager
	Actions      ActionRunner
	Capabilities ModelCapabilities
	Capturer     ScreenCapturer
	Titles       ITitleService
	Usage        UsageRecorder
	Citations    CitationTracker
	Indexer      TurnIndexer
	Events       EventPublisher
	Observer     StateObserver
	Logger       logger.ILogger
}

type SendResult struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
	SessionId *uuid.UUID `json:"session_id,omitempty"`
	MessageId *uuid.UUID `json:"message_id,omitempty"`
}

type IAskService interface {
	SendMessage(ctx context.Context, userId uuid.UUID, text, historyHint string) SendResult
	CancelActive(reason error) bool
	CancelActiveFor(userId uuid.UUID, reason error) bool
	State() RequestState
}

type askService struct {
	AskDeps
	askCfg  config.AskConfig
	ragOpts rag.Options

	mu     sync.Mutex
	seq    uint64
	active uint64
	cancel context.CancelCauseFunc
	userId uuid.UUID
	state  RequestState
}

func NewAskService(deps AskDeps, askCfg config.AskConfig, ragCfg config.RagConfig) IAskService {
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	return &askService{
		AskDeps: deps,
		askCfg:  askCfg,
		ragOpts: rag.Options{MaxChunks: ragCfg.MaxChunks, MinScore: ragCfg.MinScore},
		state:   idleState(),
	}
}

func (s *askService) State() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CancelActive aborts the in-flight request, if any, with reason as the
// cancellation cause.
func (s *askService) CancelActive(reason error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel(reason)
	return true
}

// CancelActiveFor cancels the in-flight request only when it belongs to
// userId.
func (s *askService) CancelActiveFor(userId uuid.UUID, reason error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil || s.userId != userId {
		return false
	}
	s.cancel(reason)
	return true
}

// begin supersedes the previous request and returns the context and
// token of the new one. The previous context is cancelled before begin
// returns.
func (s *askService) begin(ctx context.Context, userId uuid.UUID, question string) (context.Context, context.CancelCauseFunc, uint64) {
	reqCtx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrNewRequest)
	}
	s.seq++
	tok := s.seq
	s.active = tok
	s.cancel = cancel
	s.userId = userId
	s.state = RequestState{IsLoading: true, CurrentQuestion: question}
	snapshot := s.state
	s.mu.Unlock()

	s.Observer.OnStateChange(userId, snapshot)
	return reqCtx, cancel, tok
}

// update applies fn and broadcasts, unless tok has been superseded.
func (s *askService) update(tok uint64, fn func(*RequestState)) bool {
	s.mu.Lock()
	if s.active != tok {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	snapshot := s.state
	userId := s.userId
	s.mu.Unlock()

	s.Observer.OnStateChange(userId, snapshot)
	return true
}

func (s *askService) isActive(tok uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == tok
}

func (s *askService) release(tok uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == tok {
		s.cancel = nil
	}
}

// safely runs a best-effort stage. Errors and panics are logged and
// swallowed.
func (s *askService) safely(stage string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("ASK", "Stage panicked", map[string]interface{}{"stage": stage, "panic": fmt.Sprint(r)})
		}
	}()
	if err := fn(); err != nil {
		s.Logger.Warn("ASK", "Stage failed", map[string]interface{}{"stage": stage, "error": err.Error()})
	}
}

// turn carries what the stream stage and the post-processing need.
type turn struct {
	tok         uint64
	userId      uuid.UUID
	question    string
	session     *entity.ConversationSession
	userMessage *entity.ConversationMessage
	profile     string
	sources     []rag.Source
	request     *llm.StreamRequest
	hasImage    bool
	inputTokens int
}

func (s *askService) SendMessage(ctx context.Context, userId uuid.UUID, text, historyHint string) SendResult {
	question := strings.TrimSpace(text)
	if question == "" {
		return SendResult{Success: false, Error: ErrEmptyQuestion.Error()}
	}

	s.Observer.OnEvent(userId, EventShowAsk, nil)
	reqCtx, cancel, tok := s.begin(ctx, userId, question)
	defer cancel(nil)
	defer s.release(tok)

	t := &turn{tok: tok, userId: userId, question: question}
	resp, err := s.prepare(reqCtx, t, historyHint)
	if err != nil {
		return s.fail(reqCtx, t, err)
	}
	return s.consume(reqCtx, t, resp)
}

// prepare runs everything up to an open stream: session, routing,
// metadata, knowledge base, vision, budget and the request itself.
func (s *askService) prepare(ctx context.Context, t *turn, historyHint string) (*llm.StreamResponse, error) {
	session, err := s.Sessions.GetOrCreateActive(ctx, t.userId, entity.SessionTypeAsk)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	t.session = session
	s.update(t.tok, func(st *RequestState) { st.SessionId = &session.Id })

	t.userMessage = &entity.ConversationMessage{
		Id:         uuid.New(),
		SessionId:  session.Id,
		Role:       entity.RoleUser,
		Content:    t.question,
		TokenCount: tokens.EstimateTokens(t.question),
		CreatedAt:  time.Now(),
	}
	if err := s.Sessions.AppendMessage(ctx, t.userMessage); err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}

	t.profile = s.Profiles.CurrentProfile(t.userId)
	if s.Router != nil {
		s.safely("routing", func() error { return s.route(ctx, t) })
	}

	s.safely("metadata", func() error {
		count, err := s.Sessions.UpdateMetadata(ctx, session.Id, t.profile)
		if err != nil {
			return err
		}
		if count <= 1 && session.Title == "" && s.Titles != nil {
			title := s.Titles.Generate(ctx, t.question)
			if err := s.Sessions.SetTitle(ctx, session.Id, title); err != nil {
				return err
			}
			session.Title = title
		}
		return nil
	})

	prompt := s.knowledgePrompt(ctx, t)
	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}

	provider, model := s.Client.Provider(), s.Client.Model()
	userMsg := llm.ChatMessage{Role: llm.RoleUser, Content: t.question}
	imageCount := 0
	if s.askCfg.ScreenshotsEnabled {
		supported, reason := false, "model capabilities unknown"
		if s.Capabilities != nil {
			supported, reason = s.Capabilities.SupportsVision(provider, model)
		}
		if supported {
			if img := s.captureScreen(ctx, t); img != nil {
				userMsg.Parts = []llm.ContentPart{
					{Type: llm.PartText, Text: t.question},
					{Type: llm.PartImage, ImageData: img.Data, MimeType: img.MimeType},
				}
				t.hasImage = true
				imageCount = 1
			}
		} else {
			prompt += "\n\nNote: screen capture is enabled but the current model (" + model +
				") cannot read images (" + reason + "). If the user refers to what is on their screen, " +
				"tell them you cannot see it with this model and ask them to describe it or switch to a vision model."
		}
	}

	maxOutput := 0
	if s.Capabilities != nil {
		maxOutput = s.Capabilities.MaxOutput(provider, model)
	}
	budget := tokens.CalculateMaxTokens(t.question, maxOutput)
	if budget.Warning != "" {
		s.Logger.Warn("ASK", "Requested length exceeds model limit", map[string]interface{}{
			"requested": budget.RequestedTokens,
			"max":       budget.MaxTokens,
		})
		if s.isActive(t.tok) {
			s.Observer.OnEvent(t.userId, EventLengthWarning, map[string]interface{}{
				"warning":    budget.Warning,
				"max_tokens": budget.MaxTokens,
			})
		}
	}

	messages := []llm.ChatMessage{{Role: llm.RoleSystem, Content: prompt}}
	if hint := strings.TrimSpace(historyHint); hint != "" {
		messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: "Recent conversation transcript:\n" + hint})
	}
	history, err := s.Sessions.ListRecentMessages(ctx, session.Id, s.askCfg.HistoryLimit)
	if err != nil {
		s.Logger.Warn("ASK", "Failed to load history", map[string]interface{}{"error": err.Error()})
	}
	for _, m := range history {
		if m.Id == t.userMessage.Id || strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, userMsg)

	contents := make([]string, len(messages))
	for i, m := range messages {
		contents[i] = m.TextOnly().Content
	}
	t.inputTokens = tokens.EstimateInputTokens(contents, imageCount)

	if err := s.Client.Configured(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotConfigured, err)
	}

	t.request = &llm.StreamRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   budget.MaxTokens,
		Temperature: float32(s.askCfg.Temperature),
	}
	return s.openStream(ctx, t)
}

// openStream issues the request, retrying once without the image when
// the endpoint rejects multimodal input.
func (s *askService) openStream(ctx context.Context, t *turn) (*llm.StreamResponse, error) {
	resp, err := s.Client.StreamChat(ctx, t.request)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	if !t.hasImage || !isMultimodalError(err) {
		return nil, err
	}

	s.Logger.Warn("ASK", "Retrying without screenshot", map[string]interface{}{
		"error": (&MultimodalUnsupportedError{Cause: err}).Error(),
	})
	textOnly := make([]llm.ChatMessage, len(t.request.Messages))
	for i, m := range t.request.Messages {
		textOnly[i] = m.TextOnly()
	}
	t.request.Messages = textOnly
	t.hasImage = false
	t.inputTokens -= tokens.ImageTokens

	resp, err = s.Client.StreamChat(ctx, t.request)
	if err != nil && ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	return resp, err
}

func (s *askService) route(ctx context.Context, t *turn) error {
	route, err := s.Router.RouteQuestion(ctx, t.question, t.userId)
	if err != nil {
		return err
	}
	if route == nil || route.Confidence <= agent.SwitchThreshold || route.Agent == t.profile {
		return nil
	}
	if err := s.Profiles.SetActiveProfile(ctx, t.userId, route.Agent); err != nil {
		return err
	}

	previous := t.profile
	t.profile = route.Agent
	s.Logger.Info("ASK", "Agent profile switched", map[string]interface{}{
		"from":       previous,
		"to":         route.Agent,
		"confidence": route.Confidence,
	})
	if s.isActive(t.tok) {
		s.Observer.OnEvent(t.userId, EventProfileSwitched, map[string]interface{}{
			"profile":    route.Agent,
			"previous":   previous,
			"confidence": route.Confidence,
			"reason":     route.Reason,
		})
	}
	return nil
}

// knowledgePrompt builds the system prompt. Retrieval and the status
// statement fail independently; the status line is always present.
func (s *askService) knowledgePrompt(ctx context.Context, t *turn) string {
	base := s.Profiles.SystemPrompt(t.profile)
	if s.Knowledge == nil {
		return rag.BuildKnowledgeBaseAwarePrompt(t.question, base, nil, nil).Prompt
	}

	var status *rag.Status
	var retrieved *rag.RetrievedContext
	s.safely("rag-retrieve", func() error {
		st, err := s.Knowledge.Status(ctx, t.userId)
		if err != nil {
			return err
		}
		status = st
		if st.ChunkCount == 0 {
			return nil
		}
		rc, err := s.Knowledge.RetrieveContext(ctx, t.userId, t.question, s.ragOpts)
		if err != nil {
			return err
		}
		retrieved = rc
		return nil
	})

	prompt := base
	s.safely("rag-prompt", func() error {
		res := rag.BuildKnowledgeBaseAwarePrompt(t.question, base, status, retrieved)
		prompt = res.Prompt
		t.sources = res.Sources
		return nil
	})
	return prompt
}

func (s *askService) captureScreen(ctx context.Context, t *turn) *capture.Image {
	if s.Capturer == nil {
		return nil
	}
	img, err := s.Capturer.Capture(ctx)
	if err != nil {
		s.Logger.Warn("ASK", "Screenshot capture failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if s.askCfg.AutoIndex && s.Indexer != nil {
		s.Indexer.TriggerScreenshot(t.userId, t.session.Id, img.Data, img.MimeType)
	}
	return img
}

// consume reads the stream to its end and then runs the post-processing,
// whatever the outcome of the stream.
func (s *askService) consume(ctx context.Context, t *turn, resp *llm.StreamResponse) SendResult {
	stop := context.AfterFunc(ctx, func() { resp.Body.Close() })
	defer stop()
	defer resp.Body.Close()

	s.update(t.tok, func(st *RequestState) {
		st.IsLoading = false
		st.IsStreaming = true
	})

	var (
		answer    strings.Builder
		cancelled bool
		streamErr error
	)
	dec := llm.NewStreamDecoder(resp.Body)
	for {
		frame, err := dec.Next()
		if err != nil {
			if ctx.Err() != nil {
				cancelled = true
			} else if !errors.Is(err, io.EOF) {
				streamErr = &StreamError{Cause: err}
			}
			break
		}
		if frame.Done {
			break
		}
		delta, err := llm.DeltaContent(frame)
		if err != nil {
			if errors.Is(err, llm.ErrMalformedFrame) {
				s.Logger.Debug("ASK", "Skipping malformed frame", map[string]interface{}{"error": err.Error()})
				continue
			}
			streamErr = &StreamError{Cause: err}
			break
		}
		if delta == "" {
			continue
		}
		answer.WriteString(delta)
		current := answer.String()
		s.update(t.tok, func(st *RequestState) { st.CurrentResponse = current })
	}
	if !cancelled && ctx.Err() != nil {
		cancelled = true
	}

	if streamErr != nil {
		s.Logger.Error("ASK", "Stream failed", map[string]interface{}{"error": streamErr.Error()})
		if s.isActive(t.tok) {
			s.Observer.OnEvent(t.userId, EventStreamError, map[string]interface{}{"error": streamErr.Error()})
		}
	}
	if cancelled {
		s.Logger.Info("ASK", "Request cancelled", map[string]interface{}{"reason": context.Cause(ctx).Error()})
	}

	messageId := s.finish(context.WithoutCancel(ctx), t, answer.String())

	s.update(t.tok, func(st *RequestState) {
		st.IsLoading = false
		st.IsStreaming = false
		st.ShowTextInput = true
	})
	return SendResult{Success: true, Cancelled: cancelled, SessionId: &t.session.Id, MessageId: messageId}
}

// finish persists the answer and runs the tracking stages. ctx is not
// cancelled by a superseding request.
func (s *askService) finish(ctx context.Context, t *turn, raw string) *uuid.UUID {
	parsed := actions.Parse(raw)
	answer := parsed.CleanText
	provider, model := s.Client.Provider(), s.Client.Model()

	var messageId *uuid.UUID
	if strings.TrimSpace(answer) != "" {
		msg := &entity.ConversationMessage{
			Id:         uuid.New(),
			SessionId:  t.session.Id,
			Role:       entity.RoleAssistant,
			Content:    answer,
			Model:      model,
			TokenCount: tokens.EstimateTokens(raw),
			CreatedAt:  time.Now(),
		}
		if err := s.Sessions.AppendMessage(ctx, msg); err != nil {
			s.Logger.Error("ASK", "Failed to save answer", map[string]interface{}{"error": err.Error()})
		} else {
			messageId = &msg.Id
		}
	}

	if s.Usage != nil {
		s.safely("usage", func() error {
			return s.Usage.Record(ctx, UsageRecord{
				UserId:       t.userId,
				SessionId:    t.session.Id,
				Provider:     provider,
				Model:        model,
				InputTokens:  t.inputTokens,
				OutputTokens: tokens.EstimateTokens(raw),
			})
		})
	}

	if s.Citations != nil && messageId != nil && len(t.sources) > 0 {
		s.safely("citations", func() error { return s.Citations.Track(ctx, *messageId, t.sources) })
	}

	if s.Actions != nil && len(parsed.Actions) > 0 {
		s.safely("actions", func() error {
			ec := actions.ExecContext{UserID: t.userId, SessionID: t.session.Id}
			if messageId != nil {
				ec.MessageID = *messageId
			}
			results := s.Actions.ExecuteAll(ctx, parsed.Actions, ec)
			s.Observer.OnEvent(t.userId, actions.EventAction, map[string]interface{}{"results": results})
			return nil
		})
	}

	messageCount := 0
	s.safely("metadata", func() error {
		n, err := s.Sessions.UpdateMetadata(ctx, t.session.Id, t.profile)
		messageCount = n
		return err
	})

	if s.askCfg.AutoIndex && s.Indexer != nil && messageId != nil {
		s.Indexer.Trigger(t.userId, t.session.Id, messageCount)
	}

	if s.Events != nil {
		s.safely("event", func() error {
			return s.Events.Publish(ctx, events.New(events.TypeAskCompleted, t.userId.String(), map[string]interface{}{
				"session_id": t.session.Id.String(),
				"answered":   messageId != nil,
				"sources":    len(t.sources),
			}))
		})
	}
	return messageId
}

// fail handles errors before the stream opened. Cancellations end
// quietly; anything else resets the window and is reported.
func (s *askService) fail(ctx context.Context, t *turn, err error) SendResult {
	res := SendResult{Success: false, Error: err.Error()}
	if t.session != nil {
		res.SessionId = &t.session.Id
	}

	// Any cancelled request context ends quietly, whatever its cause.
	if isCancellation(err) || ctx.Err() != nil {
		if cause := context.Cause(ctx); cause != nil {
			res.Error = cause.Error()
		}
		res.Cancelled = true
		s.update(t.tok, func(st *RequestState) { *st = idleState() })
		return res
	}

	s.Logger.Error("ASK", "Request failed", map[string]interface{}{"error": err.Error()})
	if s.update(t.tok, func(st *RequestState) {
		st.IsLoading = false
		st.IsStreaming = false
		st.ShowTextInput = true
		st.CurrentResponse = ""
	}) {
		s.Observer.OnEvent(t.userId, EventError, map[string]interface{}{"error": err.Error()})
	}
	return res
}
