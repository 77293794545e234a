// Package memory folds each completed exchange into the lead's persisted
// profile without ever corrupting identity or counters.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
	leadx "github.com/fitlead/fitlead/agent/lead"
	llmx "github.com/fitlead/fitlead/agent/llm"
)

// Manager derives the next profile from the current one plus the latest
// exchange. Content fields are merged from model output; metadata
// (session id, created_at, last_intent, version) is always carried over
// verbatim from the current record, so a hallucinating model can never
// corrupt identity or counters. On any failure the input is returned
// unchanged.
type Manager struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.MemoryManager = (*Manager)(nil)

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Manager, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: memory manager prompt", contractx.ErrPromptMissing)
	}

	runner, err := llmx.CompileChatGraph(ctx, chatModel, systemPrompt, "memory.manager_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile memory graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Manager{runner: runner}, nil
}

func (m *Manager) Update(
	ctx context.Context,
	current *leadx.Memory,
	userMessage, agentReply, history string,
) *leadx.Memory {
	if current == nil {
		return nil
	}
	if history == "" {
		history = "No previous conversation"
	}

	input := fmt.Sprintf(
		"CURRENT MEMORY:\n%s\nUSER'S LATEST MESSAGE:\n%s\n\nAGENT'S RESPONSE:\n%s\n\nRECENT CONVERSATION HISTORY:\n%s",
		current.Snapshot(), userMessage, agentReply, history,
	)

	msg, err := m.runner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", current.SessionID).
			Msg("memory update model call failed, keeping profile unchanged")
		return current.Clone()
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		log.Warn().Str("session_id", current.SessionID).
			Msg("memory update returned empty content, keeping profile unchanged")
		return current.Clone()
	}

	fields, err := parseProfileBlock(msg.Content)
	if err != nil {
		log.Warn().Err(err).Str("session_id", current.SessionID).
			Msg("memory update unparsable, keeping profile unchanged")
		return current.Clone()
	}

	return merge(current, fields)
}

// merge applies parsed field values onto a clone of current, then restamps
// protected metadata from current and advances the message counter.
func merge(current *leadx.Memory, parsed map[string]string) *leadx.Memory {
	updated := current.Clone()

	for _, f := range leadx.Fields {
		v, ok := parsed[f.JSONKey]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		// A confirmed value is never regressed to a sentinel; it may only
		// be replaced by a new confirmed value.
		if leadx.IsSentinel(v) && !leadx.IsSentinel(f.Get(current)) {
			continue
		}
		f.Set(updated, v)
	}

	updated.SessionID = current.SessionID
	updated.CreatedAt = current.CreatedAt
	updated.LastIntent = current.LastIntent
	updated.Version = current.Version
	updated.TotalMessages = current.TotalMessages + 1
	return updated
}

// parseProfileBlock accepts the structured JSON object the prompt asks for,
// falling back to the legacy "Label: value" block for compatibility.
func parseProfileBlock(content string) (map[string]string, error) {
	raw := stripCodeFence(content)

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		out := make(map[string]string, len(obj))
		for _, f := range leadx.Fields {
			if v, ok := obj[f.JSONKey]; ok {
				if s, ok := v.(string); ok {
					out[f.JSONKey] = s
				}
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	return parseLabeledBlock(raw)
}

// parseLabeledBlock matches each line's leading label against the canonical
// field table. Unrecognized lines are ignored.
func parseLabeledBlock(content string) (map[string]string, error) {
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		label := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		for _, f := range leadx.Fields {
			if labelMatches(f.Label, label) {
				out[f.JSONKey] = value
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no recognizable profile fields", contractx.ErrSchemaViolation)
	}
	return out, nil
}

// labelMatches tolerates truncated labels like "Past Experience" or
// "Health" the way the legacy block format produced them.
func labelMatches(canonical, got string) bool {
	if strings.EqualFold(canonical, got) {
		return true
	}
	head := canonical
	if idx := strings.IndexAny(canonical, "/("); idx > 0 {
		head = strings.TrimSpace(canonical[:idx])
	}
	return strings.EqualFold(head, got)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
