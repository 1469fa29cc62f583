package prompts

import (
	"fmt"
	"strings"

	"github.com/folio-agent/server/internal/agent/model"
)

// Canned, deterministic texts produced without a model call: greeting
// answers, the grounding-gate fallback, and the execution-stage sentences.

var greetings = map[model.Role]string{
	model.RoleTechnicalEvaluator: "Hello! I can walk you through %s's projects, architecture decisions and technical background. What would you like to dig into?",
	model.RoleHiringManager:      "Hello! I'm here to tell you about %s's experience, impact and working style. What would you like to know?",
	model.RoleCasualVisitor:      "Hi there! I'm %s's portfolio assistant. Ask me anything about their work, projects or background.",
}

// Greeting returns the role-specific welcome answer.
func Greeting(role model.Role, ownerName string) string {
	tpl, ok := greetings[role]
	if !ok {
		tpl = greetings[model.RoleCasualVisitor]
	}
	return fmt.Sprintf(tpl, ownerName)
}

// Fallback names the query that failed to ground and offers the topic menu.
// Used whenever retrieval fails, returns nothing, or returns only
// low-confidence matches.
func Fallback(query string, topics string) string {
	menu := topics
	if menu == "" {
		menu = "projects, work history, technical skills"
	}
	return fmt.Sprintf(
		"I couldn't find anything reliable in the knowledge base for %q, and I'd rather say so than make something up. Topics I can speak to well: %s. Want to try one of those?",
		strings.TrimSpace(query), menu,
	)
}

// GenerationApology is the polite, non-technical substitute for a provider
// failure. Never exposes error codes to the visitor.
const GenerationApology = "Sorry — I'm having trouble putting an answer together right now. Please give it another try in a moment."

// AvailabilityMention is the single Mode 2 sentence appended to an answer.
func AvailabilityMention(ownerName string) string {
	return fmt.Sprintf("By the way, %s is currently open to new opportunities — happy to share a résumé if that's ever useful.", ownerName)
}

// AskForContactInfo requests an email address when a résumé was asked for
// but no address is known yet.
func AskForContactInfo(ownerName string) string {
	return fmt.Sprintf("I'd be glad to send %s's résumé over — what email address should it go to?", ownerName)
}

// DocumentSentConfirmation confirms a successful delivery.
func DocumentSentConfirmation(email string) string {
	return fmt.Sprintf("Done — the résumé is on its way to %s.", email)
}

// DocumentAlreadySent explains a repeat request without resending.
func DocumentAlreadySent(email string) string {
	if email == "" {
		return "The résumé was already sent earlier in this conversation, so I won't send a duplicate."
	}
	return fmt.Sprintf("The résumé already went out to %s earlier in this conversation, so I won't send a duplicate.", email)
}

// DocumentSendFailed degrades gracefully when delivery is not possible.
const DocumentSendFailed = "I wasn't able to send the résumé just now — I'll make sure it reaches you another way, sorry about that."

// AskForJobDetails gathers role context after a send. Deliberately never
// asks about compensation.
func AskForJobDetails() string {
	return "Out of curiosity — what company and role is this for? It helps tailor any follow-up."
}
