package dto

import "github.com/google/uuid"

type SendMessageRequest struct {
	Text        string `json:"text" validate:"required,max=20000"`
	HistoryHint string `json:"history_hint"`
}

type SendMessageResponse struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
	SessionId *uuid.UUID `json:"session_id,omitempty"`
	MessageId *uuid.UUID `json:"message_id,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// RequestStateResponse mirrors the state frames pushed to the window.
type RequestStateResponse struct {
	IsLoading       bool       `json:"is_loading"`
	IsStreaming     bool       `json:"is_streaming"`
	CurrentQuestion string     `json:"current_question"`
	CurrentResponse string     `json:"current_response"`
	ShowTextInput   bool       `json:"show_text_input"`
	SessionId       *uuid.UUID `json:"session_id,omitempty"`
}
