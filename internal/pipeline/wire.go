package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/askdb/askdb/internal/answer"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/generate"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
)

// FromConfig assembles the full ask pipeline from configuration.
func FromConfig(cfg config.Config, logger *slog.Logger) (*Service, llm.Client, error) {
	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("build llm client: %w", err)
	}

	meanings, err := schema.LoadMeanings(cfg.Database.MeaningsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load column meanings: %w", err)
	}
	knowledge, err := schema.LoadKnowledge(cfg.Database.KnowledgePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load knowledge base: %w", err)
	}

	service := &Service{
		Schema: schema.Builder{
			Path:       cfg.Database.Path,
			SampleRows: cfg.Database.SampleRows,
			Meanings:   meanings,
		},
		Knowledge: knowledge,
		Generator: &generate.Generator{
			Client:      client,
			Validator:   sqlguard.Validator{DatabasePath: cfg.Database.Path},
			MaxAttempts: cfg.Generation.MaxAttempts,
			Temperature: cfg.LLM.SQLTemperature,
			MaxTokens:   cfg.LLM.SQLMaxTokens,
			Logger:      logger,
		},
		Executor: executor.Executor{DatabasePath: cfg.Database.Path},
		Answerer: answer.Composer{
			Client:      client,
			Temperature: cfg.LLM.AnswerTemperature,
			MaxTokens:   cfg.LLM.AnswerMaxTokens,
			Logger:      logger,
		},
		RowCap: cfg.Database.ResponseRowCap,
		Logger: logger,
	}
	return service, client, nil
}
