package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentscout/intake/internal/ai"
	"github.com/talentscout/intake/internal/ai/gemini"
	"github.com/talentscout/intake/internal/ai/ollama"
	"github.com/talentscout/intake/internal/conversation"
	"github.com/talentscout/intake/internal/logger"
	"github.com/talentscout/intake/internal/question"
	"github.com/talentscout/intake/internal/secrets"
	"github.com/talentscout/intake/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive screening session",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run is the main command for the cli.
func run() {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting talentscout",
		zap.String("version", version),
		zap.String("deployment_mode", config.DeploymentMode),
		zap.String("provider", config.AI.Provider),
		zap.String("model", config.AI.Model),
	)

	generator := buildGenerator(ctx, config.AI, zlog)

	var sessStore conversation.Store
	st, err := store.Open(ctx, config.Store.Path)
	if err != nil {
		zlog.Warn("session persistence disabled",
			zap.String("path", config.Store.Path),
			zap.Error(err),
		)
	} else {
		defer st.Close()
		sessStore = st
	}

	timeout := time.Duration(config.AI.TimeoutSeconds) * time.Second
	source := question.NewSource(generator, timeout, zlog)

	for {
		sess := conversation.New(uuid.NewString(), conversation.Deps{
			Generator: generator,
			Questions: source,
			Store:     sessStore,
			Logger:    zlog,
			Timeout:   timeout,
		})

		zlog.Debug("session started", zap.String("session_id", sess.ID()))

		if done := converse(ctx, sess); done {
			return
		}

		again := promptui.Select{
			Label: "Start a new session?",
			Items: []string{PromptYes, PromptNo},
		}
		_, choice, err := again.Run()
		if err != nil || choice == PromptNo {
			return
		}
	}
}

// converse drives one session until it ends. Returns true when the
// process should exit instead of offering a new session.
func converse(ctx context.Context, sess *conversation.Session) bool {
	fmt.Printf("TalentScout: %s\n\n", sess.Greeting())

	input := promptui.Prompt{Label: "You"}

	for {
		text, err := input.Run()
		if err != nil {
			// Ctrl-C / EOF ends the conversation like an exit token,
			// so the farewell still reflects the persistence status.
			fmt.Printf("\nTalentScout: %s\n", sess.Consume(ctx, "exit"))
			return true
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		fmt.Printf("TalentScout: %s\n\n", sess.Consume(ctx, text))

		if sess.Stage() == conversation.StageEnded {
			return false
		}
	}
}

// buildGenerator creates the configured text-completion backend. On
// any failure the assistant keeps running without one: validation
// falls back to the local checks and questions to the static bank.
func buildGenerator(ctx context.Context, cfg *AIConfig, zlog *zap.Logger) ai.Generator {
	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case ai.ProviderOllama:
		return ollama.NewGenerator(cfg.Endpoint, cfg.Model, cfg.MaxTokens)
	case ai.ProviderGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			zlog.Warn("running without a text-completion backend",
				zap.Error(err),
				zap.String("hint", "set GEMINI_API_KEY_FILE or ai.gemini.api-key-file"),
			)
			return nil
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
		if err != nil {
			zlog.Warn("running without a text-completion backend", zap.Error(err))
			return nil
		}
		return generator
	default:
		zlog.Warn("unsupported ai provider, running without a text-completion backend",
			zap.String("provider", cfg.Provider),
		)
		return nil
	}
}
