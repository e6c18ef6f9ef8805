// Package answer turns query results into a natural-language reply.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/prompt"
)

// Composer produces the final answer via a second model call. A failed
// call degrades to a templated summary instead of failing the request.
type Composer struct {
	Client      llm.Client
	Temperature float64
	MaxTokens   int
	Logger      *slog.Logger
}

func (c Composer) Compose(ctx context.Context, question, sqlText string, result executor.Result) string {
	p := prompt.ComposeAnswer(question, sqlText, result.Rows)
	start := time.Now()
	text, err := c.Client.Complete(ctx, llm.Request{
		Prompt:      p,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	observability.ObserveLLMCall("answer", time.Since(start))
	if err != nil {
		if c.Logger != nil {
			c.Logger.WarnContext(ctx, "answer generation failed, using fallback", slog.String("error", err.Error()))
		}
		return Fallback(result)
	}
	return strings.TrimSpace(text)
}

// Fallback is the templated summary used when the model is unavailable.
func Fallback(result executor.Result) string {
	if len(result.Rows) == 0 {
		return "Die Abfrage wurde ausgeführt, hat aber keine Ergebnisse zurückgegeben."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Die Abfrage hat %d Ergebnis(se) zurückgegeben.", len(result.Rows))
	first := result.Rows[0]
	var parts []string
	for _, col := range result.Columns {
		if v, ok := first[col]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", col, v))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " Erste Zeile: %s.", strings.Join(parts, ", "))
	}
	return b.String()
}
