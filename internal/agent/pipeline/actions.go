package pipeline

import (
	"context"
	"fmt"

	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/prompts"
	"github.com/folio-agent/server/internal/agent/repo"
	"github.com/folio-agent/server/internal/delivery"
	logx "github.com/folio-agent/server/pkg/logger"
)

// ActionRuntime carries the side-effect collaborators. Every field may be
// nil: an absent collaborator degrades the corresponding action gracefully
// instead of failing the turn.
type ActionRuntime struct {
	Sender    delivery.DocumentSender
	Artifacts delivery.ArtifactStore
	Notifier  delivery.OwnerNotifier
	Analytics repo.AnalyticsSink
	Owner     model.OwnerConfig
}

// NewExecutionStage consumes the planned actions in order. This is the only
// stage permitted to perform I/O against delivery collaborators. The
// at-most-once send invariant is enforced here, not at planning time,
// because planning alone cannot guarantee ordering under retried turns.
func NewExecutionStage(rt ActionRuntime) Stage {
	return Stage{
		Name: "execute",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			var executed []string
			for _, action := range state.PlannedActions {
				switch action.Kind {
				case model.ActionAvailabilityMention:
					state.AppendAnswer(prompts.AvailabilityMention(rt.Owner.Name))
					state.AvailabilityMentioned = true

				case model.ActionAskForContactInfo:
					state.AppendAnswer(prompts.AskForContactInfo(rt.Owner.Name))

				case model.ActionSendDocument:
					rt.executeSend(ctx, state, action)

				case model.ActionNotifyOwner:
					rt.executeNotify(ctx, state, action)

				case model.ActionAskForJobDetails:
					state.AppendAnswer(prompts.AskForJobDetails())

				case model.ActionLogAnalytics:
					rt.executeAnalytics(ctx, state, action)

				default:
					return fmt.Errorf("unknown action kind %q", action.Kind)
				}
				executed = append(executed, string(action.Kind))
			}
			state.Stash[model.StashActionsExecuted] = executed
			return nil
		},
	}
}

// executeSend delivers the résumé at most once per session. The sent flag is
// re-checked here and only set on confirmed success; any failure along the
// way leaves it untouched so a later turn can retry.
func (rt ActionRuntime) executeSend(ctx context.Context, state *model.ConversationState, action model.ActionRequest) {
	email, _ := action.Payload["to_email"].(string)
	if email == "" {
		email = state.ContactEmail
	}

	if state.ResumeSent {
		logx.Info().
			Str("session_id", state.SessionID).
			Msg("Send requested but document already sent, skipping")
		state.AppendAnswer(prompts.DocumentAlreadySent(email))
		return
	}
	if email == "" {
		logx.Warn().Str("session_id", state.SessionID).Msg("Send planned without contact email, asking instead")
		state.AppendAnswer(prompts.AskForContactInfo(rt.Owner.Name))
		return
	}
	if rt.Sender == nil || rt.Artifacts == nil {
		logx.Warn().
			Str("session_id", state.SessionID).
			Bool("sender", rt.Sender != nil).
			Bool("artifacts", rt.Artifacts != nil).
			Msg("Document delivery not configured")
		state.AppendAnswer(prompts.DocumentSendFailed)
		return
	}

	name, data, err := rt.Artifacts.Fetch(ctx)
	if err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("Failed to fetch resume artifact")
		state.AppendAnswer(prompts.DocumentSendFailed)
		return
	}

	subject := fmt.Sprintf("Résumé — %s", rt.Owner.Name)
	body := deliveryBody(rt.Owner.Name, state.ContactName)
	if err := rt.Sender.Send(ctx, email, subject, body, name, data); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("Document send failed")
		state.AppendAnswer(prompts.DocumentSendFailed)
		return
	}

	state.ResumeSent = true
	state.AppendAnswer(prompts.DocumentSentConfirmation(email))
}

// executeNotify alerts the owner, fire-and-forget. Failures are logged and
// never block the turn.
func (rt ActionRuntime) executeNotify(ctx context.Context, state *model.ConversationState, action model.ActionRequest) {
	if rt.Notifier == nil {
		logx.Debug().Str("session_id", state.SessionID).Msg("Owner notifier not configured, skipping")
		return
	}

	contact, _ := action.Payload["contact_email"].(string)
	name, _ := action.Payload["contact_name"].(string)
	message := fmt.Sprintf("Résumé requested in session %s by %s <%s>", state.SessionID, orUnknown(name), orUnknown(contact))
	if details, ok := action.Payload["job_details"].(map[string]string); ok && len(details) > 0 {
		message += fmt.Sprintf(" (job details: %v)", details)
	}

	if err := rt.Notifier.Notify(ctx, message); err != nil {
		logx.Warn().Err(err).Str("session_id", state.SessionID).Msg("Owner notification failed")
	}
}

// executeAnalytics writes the per-turn record, enriched with what actually
// ran. A failed write never affects the user-visible answer.
func (rt ActionRuntime) executeAnalytics(ctx context.Context, state *model.ConversationState, action model.ActionRequest) {
	if rt.Analytics == nil {
		return
	}

	event := make(map[string]any, len(action.Payload)+1)
	for k, v := range action.Payload {
		event[k] = v
	}
	// Planning snapshotted resume_sent before execution; report the final
	// value.
	event["resume_sent"] = state.ResumeSent

	if err := rt.Analytics.Record(ctx, event); err != nil {
		logx.Warn().Err(err).Str("session_id", state.SessionID).Msg("Analytics write failed")
	}
}

func deliveryBody(ownerName, contactName string) string {
	greeting := "Hello,"
	if contactName != "" {
		greeting = fmt.Sprintf("Hello %s,", contactName)
	}
	return fmt.Sprintf("%s\n\nAs requested, %s's résumé is attached.\n\nBest regards,\n%s's portfolio assistant", greeting, ownerName, ownerName)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
