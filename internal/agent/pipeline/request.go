package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/folio-agent/server/internal/agent/model"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Direct résumé-request phrasings. Matched against the lowercased,
// accent-normalised query.
var resumeRequestPatterns = []string{
	"send me the resume", "send me your resume", "send your resume",
	"send the resume", "send me the cv", "send me your cv",
	"can i get your resume", "can i get your cv", "can i have your resume",
	"can i see your resume", "share your resume", "share the resume",
	"copy of your resume", "copy of the resume", "your resume please",
	"resend the resume", "resend your resume", "send it again",
	"are you available for", "is he available for", "is she available for",
	"are they available for",
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	namePattern  = regexp.MustCompile(`(?i)(?:my name is|this is)\s+([A-Za-z][A-Za-z'\-]*(?:\s+[A-Za-z][A-Za-z'\-]*){0,2})`)

	// Company names are capitalised runs after a preposition; the position is
	// whatever noun phrase precedes "position", "role", "opening" or "job".
	companyPattern  = regexp.MustCompile(`\b(?:for|at|with|joining)\s+([A-Z][A-Za-z0-9&.'\-]*(?:\s+[A-Z][A-Za-z0-9&.'\-]*){0,3})`)
	positionPattern = regexp.MustCompile(`(?i)\b(?:the|a|an|our)\s+([A-Za-z][A-Za-z /\-]{2,40}?)\s+(?:position|role|opening|job)`)
)

// NewRequestStage detects an explicit résumé request and latches the flag
// for the rest of the session. Once a request is active it also collects
// contact details opportunistically, and after a confirmed send it keeps
// listening for the company and position so the follow-up question stops
// once both are known. Downstream stages must still check the sent flag,
// not this one, before sending.
func NewRequestStage() Stage {
	return Stage{
		Name: "detect_request",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			if IsResumeRequest(state.Query) && !state.ResumeExplicitlyRequested {
				state.ResumeExplicitlyRequested = true
				logx.Info().
					Str("session_id", state.SessionID).
					Msg("Explicit resume request detected")
			}

			if !state.ResumeExplicitlyRequested {
				return nil
			}

			if state.ContactEmail == "" {
				if email := emailPattern.FindString(state.Query); email != "" {
					state.ContactEmail = email
					logx.Debug().Str("session_id", state.SessionID).Msg("Contact email captured")
				}
			}
			if state.ContactName == "" {
				if m := namePattern.FindStringSubmatch(state.Query); len(m) > 1 {
					state.ContactName = strings.TrimSpace(m[1])
				}
			}

			if state.ResumeSent {
				captureJobDetails(state)
			}
			return nil
		},
	}
}

// captureJobDetails fills company and position from the current query.
// First capture wins, matching the contact-detail rule above.
func captureJobDetails(state *model.ConversationState) {
	if state.JobDetails == nil {
		state.JobDetails = make(map[string]string)
	}
	if state.JobDetails["company"] == "" {
		if m := companyPattern.FindStringSubmatch(state.Query); len(m) > 1 {
			state.JobDetails["company"] = strings.Trim(strings.TrimSpace(m[1]), ".")
			logx.Debug().Str("session_id", state.SessionID).Msg("Job company captured")
		}
	}
	if state.JobDetails["position"] == "" {
		if m := positionPattern.FindStringSubmatch(state.Query); len(m) > 1 {
			state.JobDetails["position"] = strings.TrimSpace(m[1])
			logx.Debug().Str("session_id", state.SessionID).Msg("Job position captured")
		}
	}
}

// IsResumeRequest reports whether the query directly asks for the document.
func IsResumeRequest(query string) bool {
	q := normalizeAccents(strings.ToLower(query))
	for _, p := range resumeRequestPatterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// normalizeAccents folds the accented spellings of résumé so one pattern
// table covers them all.
func normalizeAccents(s string) string {
	return strings.NewReplacer("é", "e", "è", "e", "ê", "e").Replace(s)
}
