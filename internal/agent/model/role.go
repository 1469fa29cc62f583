package model

import "strings"

// Role is the declared persona of the visitor, selected once per session.
// It drives greeting wording, prompt style and fallback topic menus.
type Role string

const (
	RoleTechnicalEvaluator Role = "technical_evaluator"
	RoleHiringManager      Role = "hiring_manager"
	RoleCasualVisitor      Role = "casual_visitor"
)

// ParseRole normalises a caller-provided role tag. Unknown or empty values
// fall back to the casual visitor persona so a session can always start.
func ParseRole(v string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleTechnicalEvaluator:
		return RoleTechnicalEvaluator
	case RoleHiringManager:
		return RoleHiringManager
	case RoleCasualVisitor:
		return RoleCasualVisitor
	default:
		return RoleCasualVisitor
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
