// Package generate owns the bounded compose→invoke→validate loop that turns
// a question into validated SQL, feeding rejection reasons back into the next
// attempt.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/prompt"
	"github.com/askdb/askdb/internal/sqlguard"
)

const DefaultMaxAttempts = 3

// Input is everything one generation run needs. The schema text and knowledge
// corpus are rebuilt by the caller per request.
type Input struct {
	Question   string
	SchemaText string
	Knowledge  []json.RawMessage
	History    []prompt.Turn
}

// Generation is the loop's outcome. A non-empty Reason marks a soft failure:
// SQL that exhausted all attempts without passing validation. Callers must not
// execute such SQL without deciding how to surface it.
type Generation struct {
	SQL      string
	Attempts int
	Reason   string
}

// Rejected reports whether the generation is a soft failure.
func (g Generation) Rejected() bool {
	return g.Reason != ""
}

// Validator is satisfied by sqlguard.Validator.
type Validator interface {
	Validate(ctx context.Context, raw string) (string, error)
}

type Generator struct {
	Client      llm.Client
	Validator   Validator
	MaxAttempts int
	Temperature float64
	MaxTokens   int
	Logger      *slog.Logger
}

// Generate runs at most MaxAttempts sequential attempts. Transport errors are
// consumed like policy rejections so the next prompt can react to them, but
// exhausting the loop on a transport error is fatal: no prompt can fix an
// outage. Exhausting on a policy rejection returns the last SQL together with
// its rejection reason as a soft failure.
func (g *Generator) Generate(ctx context.Context, in Input) (Generation, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var (
		lastSQL       string
		lastReason    string
		lastTransport error
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Generation{}, err
		}

		composeInput := prompt.Input{
			Question:   in.Question,
			SchemaText: in.SchemaText,
			Knowledge:  in.Knowledge,
			History:    in.History,
		}
		if attempt > 1 {
			composeInput.PriorError = lastReason
		}
		promptText := prompt.Compose(composeInput)

		callStart := time.Now()
		raw, err := g.Client.Complete(ctx, llm.Request{
			Prompt:      promptText,
			Temperature: g.Temperature,
			MaxTokens:   g.MaxTokens,
		})
		observability.ObserveLLMCall("sql", time.Since(callStart))
		if err != nil {
			observability.ObserveGenerationAttempt("transport_error")
			g.log(ctx, slog.LevelWarn, "llm call failed", attempt, err.Error())
			lastReason = err.Error()
			lastTransport = err
			continue
		}
		lastTransport = nil

		cleaned, err := g.Validator.Validate(ctx, raw)
		if err == nil {
			observability.ObserveGenerationAttempt("accepted")
			g.log(ctx, slog.LevelDebug, "candidate accepted", attempt, "")
			return Generation{SQL: cleaned, Attempts: attempt}, nil
		}

		var rejection *sqlguard.Rejection
		if !errors.As(err, &rejection) {
			// The engine itself was unreachable during validation.
			observability.ObserveGenerationAttempt("transport_error")
			g.log(ctx, slog.LevelWarn, "validation failed", attempt, err.Error())
			lastReason = err.Error()
			lastTransport = err
			continue
		}

		observability.ObserveGenerationAttempt("rejected")
		g.log(ctx, slog.LevelInfo, "candidate rejected", attempt, rejection.Reason)
		lastSQL = cleaned
		lastReason = rejection.Reason
	}

	observability.IncrementGenerationExhausted()
	if lastTransport != nil {
		return Generation{}, fmt.Errorf("sql generation failed after %d attempts: %w", maxAttempts, lastTransport)
	}
	return Generation{SQL: lastSQL, Attempts: maxAttempts, Reason: lastReason}, nil
}

func (g *Generator) log(ctx context.Context, level slog.Level, msg string, attempt int, reason string) {
	if g.Logger == nil {
		return
	}
	attrs := []any{slog.Int("attempt", attempt)}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}
	g.Logger.Log(ctx, level, msg, attrs...)
}
