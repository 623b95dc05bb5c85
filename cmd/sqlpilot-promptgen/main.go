// Command sqlpilot-promptgen introspects the configured database and writes
// the full schema-grounded system directive to a file for review.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sqlpilot/sqlpilot/internal/config"
	"github.com/sqlpilot/sqlpilot/internal/database"
	"github.com/sqlpilot/sqlpilot/internal/prompt"
	"github.com/sqlpilot/sqlpilot/internal/schema"
)

func main() {
	out := flag.String("out", "system_directive.txt", "output file for the generated directive")
	flag.Parse()

	if err := run(context.Background(), *out); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out string) error {
	cfg, err := config.LoadFromEnv("sqlpilot-promptgen")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	description, err := schema.Describe(ctx, db, schema.Options{
		Dialect: schema.Dialect(cfg.Database.Driver),
		Schema:  cfg.Database.Schema,
	})
	if err != nil {
		return fmt.Errorf("describe schema: %w", err)
	}

	directive := prompt.SystemDirective(description.Render())
	if err := os.WriteFile(out, []byte(directive), 0o644); err != nil {
		return fmt.Errorf("write directive: %w", err)
	}
	fmt.Printf("wrote %d tables to %s (%d bytes)\n", len(description.Tables), out, len(directive))
	return nil
}
