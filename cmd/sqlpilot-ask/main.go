// Command sqlpilot-ask runs one or more questions through the agent from the
// terminal and prints the generated SQL, the result table, and optionally a
// business insight.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sqlpilot/sqlpilot/internal/agent"
	"github.com/sqlpilot/sqlpilot/internal/config"
	"github.com/sqlpilot/sqlpilot/internal/database"
	"github.com/sqlpilot/sqlpilot/internal/llm"
	"github.com/sqlpilot/sqlpilot/internal/observability"
	"github.com/sqlpilot/sqlpilot/internal/schema"
)

func main() {
	insight := flag.Bool("insight", false, "generate a business insight for each successful result")
	flag.Parse()

	questions := flag.Args()
	if len(questions) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sqlpilot-ask [-insight] \"question\" [\"question\" ...]")
		os.Exit(2)
	}

	if err := run(context.Background(), questions, *insight); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, questions []string, withInsight bool) error {
	cfg, err := config.LoadFromEnv("sqlpilot-ask")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	generator, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initialize generation client: %w", err)
	}

	queryAgent, err := agent.New(ctx, agent.Config{
		DB:          db,
		Dialect:     schema.Dialect(cfg.Database.Driver),
		Schema:      cfg.Database.Schema,
		Generator:   generator,
		MaxAttempts: cfg.Agent.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build query agent: %w", err)
	}

	for _, question := range questions {
		fmt.Printf("Question: %s\n", question)
		state, err := queryAgent.Run(ctx, question)
		if err != nil {
			return fmt.Errorf("run question %q: %w", question, err)
		}

		fmt.Printf("SQL (%d attempt(s)):\n%s\n", state.Attempts, state.SQLQuery)
		if state.Error != "" {
			fmt.Printf("Failed: %s\n\n", state.Error)
			continue
		}
		fmt.Printf("Result:\n%s\n", state.QueryResult)

		if withInsight {
			text, err := queryAgent.GenerateInsight(ctx, question, state.QueryResult)
			if err != nil {
				return fmt.Errorf("generate insight: %w", err)
			}
			fmt.Printf("Insight:\n%s\n", text)
		}
		fmt.Println()
	}
	return nil
}
