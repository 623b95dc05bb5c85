// Package agent implements the question-to-answer control loop. A run walks
// an explicit state machine: the question is admitted, a SQL candidate is
// generated, executed, and validated; execution failures feed back into the
// next generation attempt until the query succeeds or attempts are exhausted.
package agent

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sqlpilot/sqlpilot/internal/executor"
	"github.com/sqlpilot/sqlpilot/internal/llm"
	"github.com/sqlpilot/sqlpilot/internal/observability"
	"github.com/sqlpilot/sqlpilot/internal/prompt"
	"github.com/sqlpilot/sqlpilot/internal/schema"
)

// feedbackTemplate wraps the engine error for the repair attempt. The error
// text is forwarded verbatim; the model sees exactly what the engine said.
const feedbackTemplate = "The previous query resulted in an error: %s. Please fix the SQL."

// State is the record a run accumulates. Error and QueryResult are mutually
// exclusive after an execution step; Attempts counts generation attempts.
type State struct {
	Question    string `json:"question"`
	SQLQuery    string `json:"sql_query"`
	QueryResult string `json:"query_result"`
	Error       string `json:"error,omitempty"`
	Attempts    int    `json:"attempts"`
}

type phase int

const (
	phaseAnalyzing phase = iota
	phaseGenerating
	phaseExecuting
	phaseValidating
	phaseTerminated
)

func (p phase) String() string {
	switch p {
	case phaseAnalyzing:
		return "analyzing"
	case phaseGenerating:
		return "generating"
	case phaseExecuting:
		return "executing"
	case phaseValidating:
		return "validating"
	default:
		return "terminated"
	}
}

// next is the pure transition function. Validation is the only branch point:
// a clean execution terminates, a failed one loops back to generation until
// the attempt budget is spent.
func next(p phase, st State, maxAttempts int) phase {
	switch p {
	case phaseAnalyzing:
		return phaseGenerating
	case phaseGenerating:
		return phaseExecuting
	case phaseExecuting:
		return phaseValidating
	case phaseValidating:
		if st.Error == "" || st.Attempts >= maxAttempts {
			return phaseTerminated
		}
		return phaseGenerating
	default:
		return phaseTerminated
	}
}

// Executor runs one read-only statement and renders its outcome.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (executor.Result, error)
}

type Config struct {
	DB      *sql.DB
	Dialect schema.Dialect
	// Schema is the database namespace to introspect; empty picks the
	// dialect default.
	Schema    string
	Generator llm.Client
	// Executor overrides the default database-backed executor.
	Executor    Executor
	MaxAttempts int
	Metrics     observability.Metrics
	Logger      *slog.Logger
}

// Agent holds everything shared across runs: the generation client, the
// executor, and the schema-grounded system directive built once at
// construction. Safe for concurrent use; each run owns its State.
type Agent struct {
	generator   llm.Client
	executor    Executor
	description schema.Description
	directive   string
	maxAttempts int
	metrics     observability.Metrics
	logger      *slog.Logger
}

// New introspects the schema and builds the system directive. Introspection
// failure is fatal; an agent without schema grounding cannot generate.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generation client is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	exec := cfg.Executor
	if exec == nil {
		exec = executor.New(cfg.DB)
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	description, err := schema.Describe(ctx, cfg.DB, schema.Options{Dialect: cfg.Dialect, Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("describe schema: %w", err)
	}

	return &Agent{
		generator:   cfg.Generator,
		executor:    exec,
		description: description,
		directive:   prompt.SystemDirective(description.Render()),
		maxAttempts: maxAttempts,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// Schema returns the introspected schema description.
func (a *Agent) Schema() schema.Description {
	return a.description
}

// Directive returns the full system directive sent on every generation call.
func (a *Agent) Directive() string {
	return a.directive
}

// Run walks the state machine for one question and returns the terminal
// state. A generation-transport failure aborts the run and propagates;
// execution failures are recoverable and drive the retry loop. After
// exhaustion the state carries the last engine error.
func (a *Agent) Run(ctx context.Context, question string) (State, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return State{}, fmt.Errorf("question must not be empty")
	}

	start := time.Now()
	defer func() { a.metrics.ObserveDuration("agent_run", time.Since(start)) }()

	st := State{Question: question}
	for p := phaseAnalyzing; p != phaseTerminated; p = next(p, st, a.maxAttempts) {
		switch p {
		case phaseAnalyzing:
			// Admission point, reserved for relevance filtering.
			st.Attempts = 0
		case phaseGenerating:
			genStart := time.Now()
			completion, err := a.generator.Generate(ctx, a.buildMessages(st))
			if err != nil {
				return st, fmt.Errorf("generate sql: %w", err)
			}
			a.metrics.ObserveDuration("generate_sql", time.Since(genStart))
			st.SQLQuery = completion.Text
			st.Attempts++
			a.logger.Debug("sql candidate generated", "attempt", st.Attempts, "tokens", completion.TotalTokens)
		case phaseExecuting:
			result, err := a.executor.Execute(ctx, st.SQLQuery)
			if err != nil {
				st.Error = err.Error()
				st.QueryResult = ""
				a.logger.Warn("query execution failed", "attempt", st.Attempts, "error", st.Error)
			} else {
				st.QueryResult = result.Rendered
				st.Error = ""
			}
		case phaseValidating:
			// No mutation; the transition function reads the state as is.
		}
	}

	if st.Error != "" {
		a.logger.Warn("run exhausted attempts", "attempts", st.Attempts, "error", st.Error)
	} else {
		a.logger.Info("run completed", "attempts", st.Attempts)
	}
	return st, nil
}

// buildMessages assembles the generation conversation: the schema-grounded
// directive, the question, and, on a retry, the previous engine error.
func (a *Agent) buildMessages(st State) []llm.Message {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.directive},
		{Role: llm.RoleUser, Content: st.Question},
	}
	if st.Error != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(feedbackTemplate, st.Error),
		})
	}
	return messages
}

// GenerateInsight is a single stateless call that summarizes an execution
// result against the question that produced it.
func (a *Agent) GenerateInsight(ctx context.Context, question, resultText string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}
	completion, err := a.generator.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.InsightDirective()},
		{Role: llm.RoleUser, Content: fmt.Sprintf("User Question: %s\nSQL Result:\n%s", question, resultText)},
	})
	if err != nil {
		return "", fmt.Errorf("generate insight: %w", err)
	}
	return completion.Text, nil
}
