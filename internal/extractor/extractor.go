// Package extractor turns a raw voice transcript into a candidate item
// batch via an LLM structured-extraction call. Its output is best-effort
// and untrusted: everything it returns goes through the validation
// pipeline before touching the store.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"fridgetrack/internal/models"
)

// Extractor wraps an LLM model behind the transcript-parsing call.
type Extractor struct {
	model llms.Model
}

// New creates an Extractor backed by the given model.
func New(model llms.Model) *Extractor {
	return &Extractor{model: model}
}

// Extract asks the model to parse the transcript into candidate items,
// given the current inventory names as matching hints.
func (e *Extractor) Extract(ctx context.Context, transcript string, inventoryNames []string) (models.CandidateBatch, error) {
	prompt := buildPrompt(transcript, inventoryNames)

	resp, err := e.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0), llms.WithJSONMode())
	if err != nil {
		return models.CandidateBatch{}, fmt.Errorf("failed to generate extraction: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return models.CandidateBatch{}, fmt.Errorf("empty response from model")
	}

	var batch models.CandidateBatch
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Content)), &batch); err != nil {
		return models.CandidateBatch{}, fmt.Errorf("invalid JSON in model output: %w", err)
	}
	return batch, nil
}

// stripFences removes a markdown code fence some models wrap around JSON
// output even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
