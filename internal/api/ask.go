package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sqlpilot/sqlpilot/internal/observability"
)

type askRequest struct {
	Question string `json:"question"`
	// Insight asks for a follow-up summary of the result in the same call.
	Insight bool `json:"insight,omitempty"`
}

type askResponse struct {
	Question    string `json:"question"`
	SQLQuery    string `json:"sql_query"`
	QueryResult string `json:"query_result"`
	Error       string `json:"error,omitempty"`
	Attempts    int    `json:"attempts"`
	Insight     string `json:"insight,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", false)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "question is required", false)
		return
	}

	state, err := deps.Agent.Run(r.Context(), req.Question)
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "agent run failed",
				slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
				slog.String("error", err.Error()),
			)
		}
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", err.Error(), true)
		return
	}

	resp := askResponse{
		Question:    state.Question,
		SQLQuery:    state.SQLQuery,
		QueryResult: state.QueryResult,
		Error:       state.Error,
		Attempts:    state.Attempts,
	}
	if req.Insight && state.Error == "" {
		insight, err := deps.Agent.GenerateInsight(r.Context(), state.Question, state.QueryResult)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadGateway, "INSIGHT_FAILED", err.Error(), true)
			return
		}
		resp.Insight = insight
	}
	writeJSON(w, http.StatusOK, resp)
}

type insightRequest struct {
	Question string `json:"question"`
	Result   string `json:"result"`
}

func handleInsight(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", false)
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Result) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "question and result are required", false)
		return
	}

	insight, err := deps.Agent.GenerateInsight(r.Context(), req.Question, req.Result)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "INSIGHT_FAILED", err.Error(), true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insight": insight})
}

func handleSchema(deps Dependencies, w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, deps.Agent.Schema())
}
