package server

import (
	"github.com/mohammad-safakhou/wikiask/internal/skill"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AskRequest starts a lookup. SessionID may be empty for a new conversation.
type AskRequest struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
	Lang      string `json:"lang"`
}

// SessionRequest addresses an existing conversation.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// ChooseRequest answers a pending disambiguation question.
type ChooseRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// QueryRequest is a one-shot question that does not use a session.
type QueryRequest struct {
	Utterance string `json:"utterance"`
	Lang      string `json:"lang"`
}

// TurnResponse is the reply to a conversational request.
type TurnResponse struct {
	SessionID string `json:"session_id,omitempty"`
	skill.Reply
}

// QueryResponse tells whether the question was answered.
type QueryResponse struct {
	Answered bool `json:"answered"`
	skill.Reply
}
