package model

// ActionKind identifies a side effect planned for the current turn.
type ActionKind string

const (
	ActionSendDocument        ActionKind = "send_document"
	ActionNotifyOwner         ActionKind = "notify_owner"
	ActionLogAnalytics        ActionKind = "log_analytics"
	ActionAvailabilityMention ActionKind = "append_availability_mention"
	ActionAskForContactInfo   ActionKind = "ask_for_contact_info"
	ActionAskForJobDetails    ActionKind = "ask_for_job_details"
)

// ActionRequest is an immutable request produced by the planning stage and
// consumed exactly once by the execution stage.
type ActionRequest struct {
	Kind    ActionKind
	Payload map[string]any
}

// NewActionRequest builds an action with its own copy of the payload,
// including nested string maps and slices; later state mutation never
// aliases into a planned action.
func NewActionRequest(kind ActionKind, payload map[string]any) ActionRequest {
	cp := make(map[string]any, len(payload))
	for k, v := range payload {
		switch val := v.(type) {
		case map[string]string:
			m := make(map[string]string, len(val))
			for mk, mv := range val {
				m[mk] = mv
			}
			cp[k] = m
		case []string:
			cp[k] = append([]string(nil), val...)
		default:
			cp[k] = v
		}
	}
	return ActionRequest{Kind: kind, Payload: cp}
}
