package pipeline

import (
	"context"
	"strings"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/prompts"
	logx "github.com/folio-agent/server/pkg/logger"
)

// greetingMaxWords bounds how long an utterance can be and still count as a
// plain greeting; anything longer deserves the full pipeline.
const greetingMaxWords = 4

var greetingLexicon = map[string]struct{}{
	"hi":        {},
	"hello":     {},
	"hey":       {},
	"heya":      {},
	"hiya":      {},
	"yo":        {},
	"howdy":     {},
	"greetings": {},
	"sup":       {},
	"morning":   {},
	"afternoon": {},
	"evening":   {},
}

// NewGreetingStage answers a trivial first-turn "hello" directly and halts
// the turn, avoiding a retrieval/generation round-trip. Any other input
// passes the state through unchanged.
func NewGreetingStage(owner model.OwnerConfig) Stage {
	return Stage{
		Name: "greeting",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			if len(state.History) > 0 || !isShortGreeting(state.Query) {
				return nil
			}

			if err := state.SetAnswer(prompts.Greeting(state.Role, owner.Name)); err != nil {
				return err
			}
			state.Stash[model.StashIsGreeting] = true
			state.Halt()

			logx.Debug().
				Str("session_id", state.SessionID).
				Str("role", state.Role.String()).
				Msg("Greeting short-circuit taken")
			return nil
		},
	}
}

// isShortGreeting reports whether the query is a bounded-length utterance
// containing a greeting-lexicon word.
func isShortGreeting(query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 || len(words) > greetingMaxWords {
		return false
	}
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"")
		if _, ok := greetingLexicon[w]; ok {
			return true
		}
	}
	return false
}
