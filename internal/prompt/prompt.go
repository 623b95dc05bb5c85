// Package prompt builds the fixed directives sent to the generation
// service. Both builders are pure functions over their inputs.
package prompt

import "strings"

const sqlInstructions = `You are an expert SQL analyst for a relational database.
Given a user question, respond with a single SQL query that answers it.

Rules:
- Output ONLY the SQL query. No markdown, no commentary, no explanation.
- Use only the tables and columns listed in the schema below.
- Generate read-only queries: SELECT (or WITH ... SELECT) statements only.
  Never produce INSERT, UPDATE, DELETE, DROP, ALTER, or any other statement
  that modifies data or schema.
- Prefer explicit column lists over SELECT * where reasonable.
- If the question cannot be answered from the schema, return a query against
  the closest matching tables rather than prose.

Database schema:
`

const insightInstructions = `You are a business analyst. Based on the following SQL result and user question, write a short, clear business insight. Focus on trends, anomalies, or actionable findings.`

// SystemDirective combines the fixed instruction block with the rendered
// schema description. Built once per agent and shared across runs.
func SystemDirective(schemaText string) string {
	return sqlInstructions + strings.TrimSpace(schemaText) + "\n"
}

// InsightDirective frames the single-shot result-summary call.
func InsightDirective() string {
	return insightInstructions
}
