package pipeline

import (
	"context"
	"strings"

	"github.com/folio-agent/server/internal/agent/model"
	logx "github.com/folio-agent/server/pkg/logger"
)

// signalPatterns maps each hiring-signal category to the lexical cues that
// trigger it. Detection is a pure substring match over the lowercased query.
var signalPatterns = map[model.HiringSignal][]string{
	model.SignalMentionedHiring: {
		"hiring", "we're recruiting", "recruiting for", "open position",
		"job opening", "open role", "vacancy", "looking to hire",
		"looking for someone", "headcount", "filling a role",
	},
	model.SignalDescribedRole: {
		"senior engineer", "staff engineer", "lead engineer",
		"backend engineer", "software engineer", "the role involves",
		"responsibilities", "the position requires", "we need a",
		"we need an", "ideal candidate",
	},
	model.SignalTeamContext: {
		"our team", "my team", "the team", "our company", "our startup",
		"we're a", "we are a", "our org", "our engineering",
	},
	model.SignalAskedTimeline: {
		"when can you start", "when could you start", "start date",
		"how soon", "notice period", "available to start", "timeline",
		"availability",
	},
	model.SignalBudgetMentioned: {
		"salary", "budget", "compensation", "pay range", "hourly rate",
		"day rate", "equity", "comp band",
	},
}

// NewSignalStage passively detects hiring signals in the query and unions
// them into the session's monotonic signal set. Re-running the same query is
// idempotent: the set can only grow, and never by re-counting known tags.
func NewSignalStage() Stage {
	return Stage{
		Name: "detect_signals",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			detected := DetectSignals(state.Query)
			if len(detected) == 0 {
				return nil
			}
			added := state.HiringSignals.Add(detected...)
			logx.Debug().
				Str("session_id", state.SessionID).
				Int("detected", len(detected)).
				Int("new_tags", added).
				Int("total_tags", state.HiringSignals.Len()).
				Msg("Hiring signals detected")
			return nil
		},
	}
}

// DetectSignals returns the signal tags matched by this query alone.
func DetectSignals(query string) []model.HiringSignal {
	q := strings.ToLower(query)
	var out []model.HiringSignal
	for signal, patterns := range signalPatterns {
		for _, p := range patterns {
			if strings.Contains(q, p) {
				out = append(out, signal)
				break
			}
		}
	}
	return out
}
