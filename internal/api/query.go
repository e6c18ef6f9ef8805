package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/prompt"
)

type historyTurn struct {
	User string `json:"user"`
	SQL  string `json:"sql"`
}

type askRequest struct {
	Question            string        `json:"question"`
	ConversationHistory []historyTurn `json:"conversation_history"`
}

type askResponse struct {
	SQL        string           `json:"sql"`
	Result     string           `json:"result"`
	TableData  []map[string]any `json:"tableData"`
	Confidence string           `json:"confidence"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Asker == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	history := make([]prompt.Turn, 0, len(request.ConversationHistory))
	for _, turn := range request.ConversationHistory {
		history = append(history, prompt.Turn{User: turn.User, SQL: turn.SQL})
	}

	response, err := deps.Asker.Ask(r.Context(), request.Question, history)
	if err != nil {
		writeAskError(deps, w, r, err)
		return
	}

	tableData := response.TableData
	if tableData == nil {
		tableData = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		SQL:        response.SQL,
		Result:     response.Answer,
		TableData:  tableData,
		Confidence: response.Confidence,
	})
}

func writeAskError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	var askErr *pipeline.AskError
	if !errors.As(err, &askErr) {
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "request failed", true, map[string]any{"details": err.Error()})
		return
	}

	switch askErr.Kind {
	case pipeline.KindGeneration:
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_GENERATION_FAILED", askErr.Message, false, map[string]any{"sql": askErr.SQL})
	case pipeline.KindExecution:
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_EXECUTION_FAILED", askErr.Message, false, map[string]any{"sql": askErr.SQL})
	default:
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "ask pipeline failed", "error", askErr.Error())
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", askErr.Message, true, nil)
	}
}
