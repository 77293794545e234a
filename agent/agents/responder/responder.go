// Package responder runs the persona-driven generation pipeline for one
// turn: persona + intent + memory context in, final reply plus an ordered
// trace of every operation performed out.
package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
	toolx "github.com/fitlead/fitlead/agent/tool"
)

// maxToolIterations bounds the generate/execute loop so a model that keeps
// requesting tools cannot spin a turn forever.
const maxToolIterations = 8

type Responder struct {
	model   einomodel.ToolCallingChatModel
	exec    toolx.Executor
	persona string
	allowed map[string]struct{}
}

var _ contractx.Responder = (*Responder)(nil)

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	persona string,
	exec toolx.Executor,
) (*Responder, error) {
	if strings.TrimSpace(persona) == "" {
		return nil, fmt.Errorf("%w: responder persona prompt", contractx.ErrPromptMissing)
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: tool executor is required", contractx.ErrValidation)
	}

	infos := toolx.Infos()
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind responder tools: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info != nil && strings.TrimSpace(info.Name) != "" {
			allowed[info.Name] = struct{}{}
		}
	}

	return &Responder{
		model:   toolModel,
		exec:    exec,
		persona: strings.TrimSpace(persona),
		allowed: allowed,
	}, nil
}

func (r *Responder) Respond(ctx context.Context, req contractx.ResponderRequest) (contractx.ResponderResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.ResponderResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	messages := r.seedMessages(req)
	trace := make([]contractx.ToolInvocation, 0, 2)

	for i := 0; i < maxToolIterations; i++ {
		msg, err := r.model.Generate(ctx, messages)
		if err != nil {
			return contractx.ResponderResponse{}, fmt.Errorf("%w: responder invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return contractx.ResponderResponse{}, fmt.Errorf("%w: empty responder message", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				return contractx.ResponderResponse{}, fmt.Errorf("%w: responder produced empty reply", contractx.ErrSchemaViolation)
			}
			return contractx.ResponderResponse{Reply: reply, ToolTrace: trace}, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			inv := r.execute(ctx, call)
			trace = append(trace, inv)
			messages = append(messages, &schema.Message{
				Role:       schema.Tool,
				Content:    invocationContent(inv),
				ToolCallID: call.ID,
			})
		}
	}

	return contractx.ResponderResponse{}, fmt.Errorf("%w: tool loop exceeded %d iterations", contractx.ErrModelInvoke, maxToolIterations)
}

func (r *Responder) seedMessages(req contractx.ResponderRequest) []*schema.Message {
	messages := []*schema.Message{
		schema.SystemMessage(r.persona),
	}

	if req.Intent.Level != "" {
		intentCtx := fmt.Sprintf("Current user intent level: %s", strings.ToUpper(string(req.Intent.Level)))
		if req.Intent.Reasoning != "" {
			intentCtx += "\nIntent reasoning: " + req.Intent.Reasoning
		}
		messages = append(messages, schema.SystemMessage(intentCtx))
	}
	if req.MemoryContext != "" {
		messages = append(messages, schema.SystemMessage(req.MemoryContext))
	}
	if req.History != "" {
		messages = append(messages, schema.SystemMessage("RECENT CONVERSATION:\n"+req.History))
	}

	return append(messages, schema.UserMessage(req.UserMessage))
}

// execute parses the call's arguments and dispatches it. Malformed
// arguments become a structured failure fed back to the model within the
// same turn, never an error crossing the turn boundary.
func (r *Responder) execute(ctx context.Context, call schema.ToolCall) contractx.ToolInvocation {
	name := strings.TrimSpace(call.Function.Name)

	if _, ok := r.allowed[name]; !ok {
		log.Warn().Str("tool", name).Msg("responder requested unknown tool")
		return contractx.ToolInvocation{Tool: name, Error: fmt.Sprintf("tool=%s is not available", name)}
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return contractx.ToolInvocation{
				Tool:  name,
				Error: fmt.Sprintf("invalid tool arguments: %v", err),
			}
		}
	}

	return r.exec(ctx, name, args)
}

func invocationContent(inv contractx.ToolInvocation) string {
	if inv.Error != "" {
		raw, _ := json.Marshal(map[string]any{"success": false, "error": inv.Error})
		return string(raw)
	}
	return inv.Result
}
