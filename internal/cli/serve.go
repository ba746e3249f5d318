package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stormyy00/autopr/internal/config"
	"github.com/stormyy00/autopr/internal/forge/github"
	"github.com/stormyy00/autopr/internal/llm"
	"github.com/stormyy00/autopr/internal/merge"
	"github.com/stormyy00/autopr/internal/notify"
	"github.com/stormyy00/autopr/internal/review"
	"github.com/stormyy00/autopr/internal/server"
)

var portFlag int

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Listen port (default from config or 5000)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the PR automation HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		port := portFlag
		if port == 0 {
			port = cfg.Server.Port
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		forgeClient := github.New(cfg.GitHub.Org, cfg.GitHub.Repo, cfg.GitHub.Token)
		slog.Info("connected to GitHub repo", "repo", cfg.GitHub.FullRepo())

		notifier := notify.New(cfg.Discord.WebhookURL)
		if cfg.Discord.WebhookURL == "" {
			slog.Warn("DISCORD_WEBHOOK_URL not set, Discord notifications disabled")
		}

		llmClient := llm.NewCopilotClient(cfg.Analyzer.Model)
		if err := llmClient.Start(ctx); err != nil {
			// The service still runs: the analyzer surfaces model
			// failures as review text rather than refusing requests.
			slog.Warn("copilot LLM client not available", "error", err)
		} else {
			defer llmClient.Stop()
		}

		analyzer := review.New(forgeClient, llmClient, notifier, review.Config{
			Repo:          cfg.GitHub.FullRepo(),
			MaxPatchChars: cfg.Analyzer.MaxPatchChars,
			MaxDiffChars:  cfg.Analyzer.MaxDiffChars,
			Timeout:       cfg.Analyzer.ParseTimeout(),
		})
		gate := merge.New(forgeClient, notifier, merge.Config{
			Repo: cfg.GitHub.FullRepo(),
		})

		srv := server.New(cfg, forgeClient, analyzer, gate, notifier)
		return srv.Run(ctx, port)
	},
}
