package pipeline

import (
	"context"
	"strings"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/prompts"
	"github.com/folio-agent/server/internal/knowledge"
	logx "github.com/folio-agent/server/pkg/logger"
)

// roleSearchHints enriches the search text so retrieval leans toward the
// material this audience cares about.
var roleSearchHints = map[model.Role]string{
	model.RoleTechnicalEvaluator: "technical architecture implementation",
	model.RoleHiringManager:      "experience impact results",
	model.RoleCasualVisitor:      "",
}

// NewRetrievalStage queries the knowledge base and applies the grounding
// gate: when the collaborator fails, returns nothing, or returns only
// low-confidence matches, the turn answers with the fallback template and
// generation is skipped. No claims are ever generated from ungrounded
// context, and a retrieval failure is never a hard failure of the turn.
func NewRetrievalStage(retriever knowledge.Retriever, cfg model.RetrievalConfig) Stage {
	return Stage{
		Name: "retrieve",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			if state.HasAnswer() {
				return nil
			}

			searchText := composeSearchText(state)

			var (
				chunks []model.RetrievedChunk
				err    error
			)
			if retriever == nil {
				logx.Warn().Str("session_id", state.SessionID).Msg("No retriever configured, treating as retrieval failure")
			} else {
				chunks, err = retriever.Retrieve(ctx, searchText, cfg.TopK)
				if err != nil {
					// Collaborator errors are treated identically to
					// "no results".
					logx.Warn().Err(err).
						Str("session_id", state.SessionID).
						Msg("Retrieval failed, falling back")
					chunks = nil
				}
			}

			state.RetrievedChunks = chunks
			scores := make([]float64, len(chunks))
			for i, c := range chunks {
				scores[i] = c.Score
			}
			state.Stash[model.StashRetrievalScores] = scores

			if !grounded(chunks, cfg.MinScore) {
				if err := state.SetAnswer(prompts.Fallback(state.Query, cfg.Topics)); err != nil {
					return err
				}
				state.Stash[model.StashFallbackUsed] = true
				logx.Info().
					Str("session_id", state.SessionID).
					Int("chunks", len(chunks)).
					Float64("min_score", cfg.MinScore).
					Msg("Grounding gate tripped, fallback answer used")
			}
			return nil
		},
	}
}

// grounded reports whether at least one chunk clears the confidence cutoff.
func grounded(chunks []model.RetrievedChunk, minScore float64) bool {
	for _, c := range chunks {
		if c.Score >= minScore {
			return true
		}
	}
	return false
}

// composeSearchText enriches the raw query with role context for embedding.
func composeSearchText(state *model.ConversationState) string {
	parts := []string{strings.TrimSpace(state.Query)}
	if hint := roleSearchHints[state.Role]; hint != "" {
		parts = append(parts, hint)
	}
	return strings.Join(parts, " ")
}
