package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/folio-agent/server/internal/agent"
	"github.com/folio-agent/server/internal/agent/model"
	"github.com/folio-agent/server/internal/agent/pipeline"
	"github.com/folio-agent/server/internal/agent/repo"
	"github.com/folio-agent/server/internal/core"
	"github.com/folio-agent/server/internal/delivery"
	"github.com/folio-agent/server/internal/knowledge"
	logx "github.com/folio-agent/server/pkg/logger"
	pkgredis "github.com/folio-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent demo, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis  pkgredis.Config
	Qdrant knowledge.QdrantConfig

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Owner        model.OwnerConfig
	Answer       model.AnswerModelConfig
	Embedding    model.EmbeddingConfig
	Retrieval    model.RetrievalConfig
	Planner      model.PlannerConfig
	Conversation model.ConversationConfig

	// Side-effect collaborators (each optional; absent means degraded)
	SMTP    delivery.SMTPConfig
	MinIO   delivery.MinIOConfig
	Webhook delivery.WebhookConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()
	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", cfg.Conversation.TTL, err)
	}

	// ====================================================
	// Knowledge base: embedder + vector store
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	genaiClient, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	embedder, err := knowledge.NewGeminiEmbedder(genaiClient, cfg.Embedding.Model)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	retriever, err := knowledge.NewVectorRetriever(embedder, knowledge.NewQdrantClient(cfg.Qdrant))
	if err != nil {
		log.Fatalf("Failed to create retriever: %v", err)
	}

	generator, err := pipeline.NewAnswerModel(ctx, genaiClient, cfg.Answer)
	if err != nil {
		log.Fatalf("Failed to create answer model: %v", err)
	}

	// ====================================================
	// Side-effect collaborators; each degrades to nil when unconfigured
	rt := pipeline.ActionRuntime{
		Owner:     cfg.Owner,
		Analytics: repo.NewRedisAnalyticsSink(rdb, ""),
	}
	if cfg.SMTP.Enabled() {
		rt.Sender = delivery.NewSMTPSender(cfg.SMTP)
	} else {
		log.Println("SMTP not configured, document delivery disabled")
	}
	if cfg.MinIO.Enabled() {
		store, err := delivery.NewMinIOArtifactStore(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to create artifact store: %v", err)
		}
		rt.Artifacts = store
	} else {
		log.Println("MinIO not configured, resume artifact unavailable")
	}
	if cfg.Webhook.Enabled() {
		rt.Notifier = delivery.NewWebhookNotifier(cfg.Webhook)
	} else {
		log.Println("Webhook not configured, owner notifications disabled")
	}

	// ====================================================
	// Assemble the turn pipeline and the agent
	exec := pipeline.New(pipeline.Config{
		Owner:           cfg.Owner,
		Retrieval:       cfg.Retrieval,
		Planner:         cfg.Planner,
		HistoryMaxTurns: cfg.Conversation.History.MaxTurns,
	}, retriever, generator, rt)

	bot, err := agent.New(repo.NewRedisSessionRepository(rdb, ttl), exec)
	if err != nil {
		log.Fatalf("Failed to create agent: %v", err)
	}

	testTurns := []struct {
		description string
		query       string
	}{
		{
			description: "First-turn greeting (short-circuit, no collaborator calls)",
			query:       "hi",
		},
		{
			description: "Technical question grounded in the knowledge base",
			query:       "What's the architecture behind the retrieval pipeline you built?",
		},
		{
			description: "Hiring signals accumulate (role + team context)",
			query:       "We're hiring a senior engineer for our AI team — how did you handle latency?",
		},
		{
			description: "Explicit resume request with contact email",
			query:       "Can I get your résumé? My email is jane@example.com",
		},
		{
			description: "Repeat request must not resend",
			query:       "Could you resend the résumé?",
		},
	}

	sessionID := fmt.Sprintf("demo-session-%d", time.Now().Unix())

	for i, turn := range testTurns {
		fmt.Printf("\nTurn %d: %s\n", i+1, turn.description)
		fmt.Printf("Query: %q\n", turn.query)

		answer, err := bot.Respond(ctx, model.TurnInput{
			SessionID: sessionID,
			Role:      model.RoleTechnicalEvaluator.String(),
			Query:     turn.query,
		})
		if err != nil {
			log.Fatalf("Turn %d failed: %v", i+1, err)
		}

		fmt.Printf("Answer: %s\n", answer)
		fmt.Println("─────────────────────────────────────────────")

		// slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("Demo session completed.")
}
