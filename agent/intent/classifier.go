// Package intent estimates a lead's purchase readiness from their latest
// message plus recent conversation context.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
	llmx "github.com/fitlead/fitlead/agent/llm"
)

type classifierLLMOutput struct {
	IntentLevel   string   `json:"intent_level"`
	Reasoning     string   `json:"reasoning"`
	KeyIndicators []string `json:"key_indicators"`
}

// Classifier is stateless: the same message and history always produce the
// same request. It never returns an error; any internal failure yields the
// canonical medium fallback so a turn is never blocked by classification.
type Classifier struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

var _ contractx.Classifier = (*Classifier)(nil)

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Classifier, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier prompt", contractx.ErrPromptMissing)
	}

	runner, err := llmx.CompileStructuredGraph[classifierLLMOutput](ctx, chatModel, systemPrompt, "intent.classifier_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Classifier{runner: runner}, nil
}

func (c *Classifier) Classify(ctx context.Context, message, history string) contractx.IntentClassification {
	if history == "" {
		history = "No previous context"
	}

	payload := map[string]any{
		"user_message":         message,
		"conversation_history": history,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return fallback(err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return fallback(err)
	}

	level, ok := contractx.ParseIntentLevel(strings.ToLower(strings.TrimSpace(out.IntentLevel)))
	if !ok {
		return fallback(fmt.Errorf("%w: intent_level=%q", contractx.ErrSchemaViolation, out.IntentLevel))
	}

	cls := contractx.IntentClassification{
		Level:         level,
		Reasoning:     strings.TrimSpace(out.Reasoning),
		KeyIndicators: out.KeyIndicators,
	}
	log.Debug().
		Str("intent_level", string(cls.Level)).
		Strs("key_indicators", cls.KeyIndicators).
		Msg("intent classified")
	return cls
}

func fallback(cause error) contractx.IntentClassification {
	log.Warn().Err(cause).Msg("intent classification failed, defaulting to medium")
	return contractx.IntentClassification{
		Level:         contractx.IntentMedium,
		Reasoning:     "Unable to classify intent, defaulting to medium",
		KeyIndicators: []string{},
	}
}
