package model

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"30m"`
	History struct {
		MaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"6"`
	}
}

type OwnerConfig struct {
	// Name is the portfolio subject the assistant speaks about.
	Name string `envconfig:"OWNER_NAME" default:"the portfolio owner"`
}

type RetrievalConfig struct {
	TopK int `envconfig:"RETRIEVAL_TOP_K" default:"4"`
	// MinScore is the grounding cutoff: when every retrieved chunk scores
	// below it, the turn answers with the fallback template instead of
	// generation.
	MinScore float64 `envconfig:"RETRIEVAL_MIN_SCORE" default:"0.4"`
	// Topics is the comma-separated menu offered by the fallback answer.
	Topics string `envconfig:"RETRIEVAL_FALLBACK_TOPICS" default:"projects, work history, technical skills, education"`
}

type AnswerModelConfig struct {
	Model     string `envconfig:"ANSWER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens int    `envconfig:"ANSWER_MAX_TOKENS" default:"1024"`
	// Temperature stays low-to-moderate so factual content is stable while
	// phrasing may vary. Held fixed per process, never varied per turn.
	Temperature float32 `envconfig:"ANSWER_TEMPERATURE" default:"0.3"`
}

type EmbeddingConfig struct {
	Model string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
}

type PlannerConfig struct {
	// SignalThreshold is the number of distinct hiring signals that moves
	// the session into the subtle-awareness mode.
	SignalThreshold int `envconfig:"PLANNER_SIGNAL_THRESHOLD" default:"2"`
}
