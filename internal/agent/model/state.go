package model

import (
	"github.com/cloudwego/eino/schema"

	errx "github.com/folio-agent/server/internal/core/error"
)

// Stash keys used for inter-stage signals that do not warrant a named field.
const (
	StashIsGreeting      = "is_greeting"
	StashFallbackUsed    = "fallback_used"
	StashQueryType       = "query_type"
	StashCodeWouldHelp   = "code_would_help"
	StashDataWouldHelp   = "data_would_help"
	StashRetrievalScores = "retrieval_scores"
	StashGenerationError = "generation_error"
	StashTurnMode        = "turn_mode"
	StashActionsExecuted = "actions_executed"
)

// Query classification tags stored under StashQueryType.
const (
	QueryTypeTechnical   = "technical"
	QueryTypeNarrative   = "narrative"
	QueryTypeDataRequest = "data_request"
	QueryTypeGeneral     = "general"
)

// RetrievedChunk is an immutable scored passage returned by the vector store.
// Score is cosine similarity in [0, 1]; higher means closer.
type RetrievedChunk struct {
	Content  string
	SourceID string
	Score    float64
}

// ConversationState is the single record threaded through every pipeline
// stage for one turn. Each field is written by exactly one stage (or an
// explicitly ordered sequence of stages); no stage reaches backward.
//
// Concurrency model: the pipeline runs one turn at a time to completion for
// a given session, so no locking is needed here. Independent sessions get
// independent instances reconstructed from persisted session data.
type ConversationState struct {
	// SessionID is owned by the caller and read-only to the pipeline.
	SessionID string
	// Role is the persona declared once per session.
	Role Role
	// Query is the current turn's raw user text, set once at construction.
	Query string
	// History holds prior turns as eino messages, append-only.
	History []*schema.Message

	// RetrievedChunks is populated by the retrieval stage and consumed by
	// the generation stage.
	RetrievedChunks []RetrievedChunk

	// HiringSignals accumulates monotonically across the whole session.
	HiringSignals *SignalSet
	// ResumeExplicitlyRequested latches true and is never reset in-session.
	ResumeExplicitlyRequested bool
	// ResumeSent flips true at most once per session, only on a confirmed
	// delivery. The execution stage re-checks it before every send.
	ResumeSent bool
	// AvailabilityMentioned latches after the one allowed Mode 2 mention.
	AvailabilityMentioned bool

	ContactEmail string
	ContactName  string
	// JobDetails is filled conversationally only after the document went out.
	JobDetails map[string]string

	// PlannedActions is produced by the planning stage and consumed, in
	// order, by the execution stage.
	PlannedActions []ActionRequest

	// Stash is an open scratch area for inter-stage signals.
	Stash map[string]any

	answer string
	halted bool
}

// NewConversationState builds the per-turn state from persisted session data
// plus the new query. The record's latched flags carry over unchanged.
func NewConversationState(sessionID string, query string, rec SessionRecord, history []*schema.Message) *ConversationState {
	signals := NewSignalSet()
	for _, t := range rec.HiringSignals {
		signals.Add(HiringSignal(t))
	}
	details := make(map[string]string, len(rec.JobDetails))
	for k, v := range rec.JobDetails {
		details[k] = v
	}
	return &ConversationState{
		SessionID:                 sessionID,
		Role:                      ParseRole(rec.Role),
		Query:                     query,
		History:                   history,
		HiringSignals:             signals,
		ResumeExplicitlyRequested: rec.ResumeExplicitlyRequested,
		ResumeSent:                rec.ResumeSent,
		AvailabilityMentioned:     rec.AvailabilityMentioned,
		ContactEmail:              rec.ContactEmail,
		ContactName:               rec.ContactName,
		JobDetails:                details,
		Stash:                     make(map[string]any),
	}
}

// Answer returns the answer produced so far this turn.
func (s *ConversationState) Answer() string {
	return s.answer
}

// HasAnswer reports whether an answer has been set this turn. The generation
// stage skips itself when a greeting or the grounding-gate fallback already
// answered.
func (s *ConversationState) HasAnswer() bool {
	return s.answer != ""
}

// SetAnswer writes the turn's answer. The answer is write-once: a second set
// is a pipeline contract violation, never silently masked.
func (s *ConversationState) SetAnswer(text string) error {
	if s.answer != "" {
		return errx.Contract("answer already set for session %s", s.SessionID)
	}
	s.answer = text
	return nil
}

// AppendAnswer adds a sentence after the answer is set. Stages after
// generation may append but never overwrite.
func (s *ConversationState) AppendAnswer(text string) {
	if text == "" {
		return
	}
	if s.answer == "" {
		s.answer = text
		return
	}
	s.answer += " " + text
}

// Halt marks the turn short-circuited; the executor stops running stages.
func (s *ConversationState) Halt() {
	s.halted = true
}

// Halted reports whether a stage short-circuited the turn.
func (s *ConversationState) Halted() bool {
	return s.halted
}

// StashBool reads a boolean stash entry, false when absent or mistyped.
func (s *ConversationState) StashBool(key string) bool {
	v, ok := s.Stash[key].(bool)
	return ok && v
}

// StashString reads a string stash entry, empty when absent or mistyped.
func (s *ConversationState) StashString(key string) string {
	v, _ := s.Stash[key].(string)
	return v
}

// Record extracts the subset of state persisted back to session storage at
// turn end.
func (s *ConversationState) Record() SessionRecord {
	details := make(map[string]string, len(s.JobDetails))
	for k, v := range s.JobDetails {
		details[k] = v
	}
	return SessionRecord{
		Role:                      s.Role.String(),
		HiringSignals:             s.HiringSignals.Strings(),
		ResumeExplicitlyRequested: s.ResumeExplicitlyRequested,
		ResumeSent:                s.ResumeSent,
		AvailabilityMentioned:     s.AvailabilityMentioned,
		ContactEmail:              s.ContactEmail,
		ContactName:               s.ContactName,
		JobDetails:                details,
	}
}
