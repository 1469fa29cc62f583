package pipeline

import (
	"context"
	"strings"

	"github.com/folio-agent/server/internal/agent/model"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Keyword tables for the deterministic query classifier. Classification uses
// no external calls: identical query and role always produce identical tags.
var (
	technicalTerms = []string{
		"architecture", "latency", "performance", "stack", "code", "api",
		"database", "algorithm", "implementation", "implement", "deploy",
		"scaling", "design", "framework", "infra", "pipeline", "testing",
		"concurrency", "protocol",
	}
	dataRequestTerms = []string{
		"metrics", "numbers", "benchmark", "statistics", "how many",
		"how much", "results", "percentage", "throughput", "uptime",
		"measurements",
	}
	narrativeTerms = []string{
		"tell me about", "story", "journey", "background", "career",
		"experience", "why did", "how did you get", "what led", "path",
		"history",
	}
	codeHelpTerms = []string{"code", "implement", "example", "how do", "how did", "snippet"}
)

// NewClassifierStage tags the query with a type plus helper hints in the
// stash. Ambiguous or empty queries classify to general rather than failing.
func NewClassifierStage() Stage {
	return Stage{
		Name: "classify",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			queryType := classifyQuery(state.Query)
			state.Stash[model.StashQueryType] = queryType
			state.Stash[model.StashCodeWouldHelp] = queryType == model.QueryTypeTechnical &&
				containsAny(strings.ToLower(state.Query), codeHelpTerms)
			state.Stash[model.StashDataWouldHelp] = queryType == model.QueryTypeDataRequest

			logx.Debug().
				Str("session_id", state.SessionID).
				Str("query_type", queryType).
				Msg("Query classified")
			return nil
		},
	}
}

// classifyQuery scores the query against each keyword table and picks the
// strongest category; ties prefer the more specific reading.
func classifyQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return model.QueryTypeGeneral
	}

	technical := countMatches(q, technicalTerms)
	dataReq := countMatches(q, dataRequestTerms)
	narrative := countMatches(q, narrativeTerms)

	switch {
	case dataReq > 0 && dataReq >= technical && dataReq >= narrative:
		return model.QueryTypeDataRequest
	case technical > 0 && technical >= narrative:
		return model.QueryTypeTechnical
	case narrative > 0:
		return model.QueryTypeNarrative
	default:
		return model.QueryTypeGeneral
	}
}

func countMatches(q string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(q, t) {
			n++
		}
	}
	return n
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
