package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/folio-agent/server/internal/agent/model"
)

//go:embed template/answer_prompt.txt
var answerSystemPrompt string

// audienceStyles maps the declared role to the tone/depth instruction the
// generation prompt carries.
var audienceStyles = map[model.Role]string{
	model.RoleTechnicalEvaluator: "a technical evaluator; be precise, name technologies and trade-offs, do not oversimplify",
	model.RoleHiringManager:      "a hiring manager; lead with impact and outcomes, keep technical depth moderate",
	model.RoleCasualVisitor:      "a casual visitor; keep it friendly and jargon-free",
}

// RenderAnswerSystem renders the grounded-answer system prompt and triggers
// eino prompt callbacks.
func RenderAnswerSystem(ctx context.Context, owner model.OwnerConfig, state *model.ConversationState) (string, error) {
	queryType := state.StashString(model.StashQueryType)
	if queryType == "" {
		queryType = model.QueryTypeGeneral
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(answerSystemPrompt),
	)
	vars := map[string]any{
		"OwnerName":     owner.Name,
		"AudienceStyle": audienceStyles[state.Role],
		"QueryType":     queryType,
		"CodeWouldHelp": state.StashBool(model.StashCodeWouldHelp),
		"DataWouldHelp": state.StashBool(model.StashDataWouldHelp),
		"Chunks":        formatChunks(state.RetrievedChunks),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("answer prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("answer prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// formatChunks lays retrieved passages out as numbered, source-tagged blocks.
func formatChunks(chunks []model.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] (source: %s, score: %.2f)\n%s\n\n", i+1, c.SourceID, c.Score, strings.TrimSpace(c.Content))
	}
	return strings.TrimSpace(b.String())
}
