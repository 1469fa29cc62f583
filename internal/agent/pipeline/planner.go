package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/folio-agent/server/internal/agent/model"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Turn modes, mutually exclusive per turn. The mode governs how assertively
// the session offers the résumé.
const (
	ModeDefault  = "default"
	ModeSubtle   = "subtle_awareness"
	ModeDeepDive = "deep_dive"
)

// NewPlannerStage decides which side effects are warranted this turn.
// Planning is pure: it reads state and config, performs no I/O, and leaves
// every latched flag untouched (the execution stage owns flag transitions).
func NewPlannerStage(cfg model.PlannerConfig, owner model.OwnerConfig) Stage {
	return Stage{
		Name: "plan",
		Run: func(ctx context.Context, state *model.ConversationState) error {
			actions, mode := PlanActions(state, cfg, owner)
			state.PlannedActions = actions
			state.Stash[model.StashTurnMode] = mode

			logx.Debug().
				Str("session_id", state.SessionID).
				Str("mode", mode).
				Int("actions", len(actions)).
				Msg("Turn actions planned")
			return nil
		},
	}
}

// PlanActions implements the three-mode policy:
//
//   - Mode 1 (default): fewer signals than the threshold and no explicit
//     request. Nothing beyond analytics.
//   - Mode 2 (subtle awareness): enough distinct signals, no explicit
//     request, nothing sent yet, mention not yet made. One availability
//     sentence, once per session.
//   - Mode 3 (deep dive): explicit request and nothing sent. Send the
//     document when an address is known, otherwise ask for one.
//
// After a confirmed send, the planner gathers job details conversationally
// while company or position are still unknown, and a repeat request for the
// document resolves to an already-sent explanation rather than a second
// delivery. Compensation is never asked.
func PlanActions(state *model.ConversationState, cfg model.PlannerConfig, owner model.OwnerConfig) ([]model.ActionRequest, string) {
	threshold := cfg.SignalThreshold
	if threshold <= 0 {
		threshold = 2
	}

	var actions []model.ActionRequest
	mode := ModeDefault

	switch {
	case state.ResumeExplicitlyRequested && !state.ResumeSent:
		mode = ModeDeepDive
		if state.ContactEmail != "" {
			actions = append(actions,
				model.NewActionRequest(model.ActionSendDocument, map[string]any{
					"to_email": state.ContactEmail,
					"to_name":  state.ContactName,
				}),
				model.NewActionRequest(model.ActionNotifyOwner, map[string]any{
					"contact_email": state.ContactEmail,
					"contact_name":  state.ContactName,
					"job_details":   state.JobDetails,
					"session_id":    state.SessionID,
				}),
			)
		} else {
			actions = append(actions, model.NewActionRequest(model.ActionAskForContactInfo, nil))
		}

	case state.ResumeSent && IsResumeRequest(state.Query):
		// A repeat ask after delivery still plans a send; the execution
		// re-check turns it into an already-sent explanation without
		// touching the sender.
		actions = append(actions, model.NewActionRequest(model.ActionSendDocument, map[string]any{
			"to_email": state.ContactEmail,
			"to_name":  state.ContactName,
		}))

	case state.HiringSignals.Len() >= threshold && !state.ResumeSent && !state.AvailabilityMentioned:
		mode = ModeSubtle
		actions = append(actions, model.NewActionRequest(model.ActionAvailabilityMention, map[string]any{
			"owner_name": owner.Name,
		}))
	}

	if state.ResumeSent && missingJobDetails(state.JobDetails) {
		actions = append(actions, model.NewActionRequest(model.ActionAskForJobDetails, nil))
	}

	actions = append(actions, model.NewActionRequest(model.ActionLogAnalytics, map[string]any{
		"turn_id":       uuid.NewString(),
		"session_id":    state.SessionID,
		"role":          state.Role.String(),
		"query_type":    state.StashString(model.StashQueryType),
		"mode":          mode,
		"signal_count":  state.HiringSignals.Len(),
		"signals":       state.HiringSignals.Strings(),
		"fallback_used": state.StashBool(model.StashFallbackUsed),
		"resume_sent":   state.ResumeSent,
	}))

	return actions, mode
}

func missingJobDetails(details map[string]string) bool {
	return details["company"] == "" || details["position"] == ""
}
