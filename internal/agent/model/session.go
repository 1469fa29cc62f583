package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// SessionRecord is the persisted, session-scoped subset of conversation
// state. Chat history is stored separately as a message list.
type SessionRecord struct {
	Role                      string            `json:"role,omitempty"`
	HiringSignals             []string          `json:"hiring_signals,omitempty"`
	ResumeExplicitlyRequested bool              `json:"resume_explicitly_requested"`
	ResumeSent                bool              `json:"resume_sent"`
	AvailabilityMentioned     bool              `json:"availability_mentioned"`
	ContactEmail              string            `json:"contact_email,omitempty"`
	ContactName               string            `json:"contact_name,omitempty"`
	JobDetails                map[string]string `json:"job_details,omitempty"`
	UpdatedAt                 time.Time         `json:"updated_at"`
}

// SessionRepository persists session state and chat history keyed by session
// ID. Implementations must return a zero-value record (not an error) for an
// unknown session so a conversation can always start.
type SessionRepository interface {
	// LoadRecord retrieves the persisted session record.
	LoadRecord(ctx context.Context, sessionID string) (SessionRecord, error)

	// SaveRecord persists the session record, refreshing the session TTL.
	SaveRecord(ctx context.Context, sessionID string, rec SessionRecord) error

	// AddMessage appends a message to the session's chat history.
	AddMessage(ctx context.Context, sessionID string, message *schema.Message) error

	// LoadHistory retrieves the session's chat history in order.
	LoadHistory(ctx context.Context, sessionID string) ([]*schema.Message, error)

	// ClearSession removes all persisted data for a session.
	ClearSession(ctx context.Context, sessionID string) error
}

// TurnInput is the caller-facing input for one request/response cycle.
type TurnInput struct {
	SessionID string `json:"session_id"`
	// Role is honored on the first turn of a session; afterwards the
	// persisted role wins.
	Role  string `json:"role,omitempty"`
	Query string `json:"query"`
}
