package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// System prompts are injected as template values, not template text, so
// literal braces in prompt files cannot collide with FString placeholders.
func promptTemplate() einoprompt.ChatTemplate {
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system_prompt}"),
		schema.UserMessage("{input}"),
	)
}

func injectSystemPrompt(systemPrompt string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in map[string]any) (map[string]any, error) {
		out := make(map[string]any, len(in)+1)
		for k, v := range in {
			out[k] = v
		}
		out["system_prompt"] = systemPrompt
		return out, nil
	})
}

// CompileStructuredGraph builds a prompt -> model -> JSON-parse pipeline
// producing a typed T from the model's content.
func CompileStructuredGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddLambdaNode("inject_prompt", injectSystemPrompt(systemPrompt)); err != nil {
		return nil, fmt.Errorf("add structured inject node: %w", err)
	}
	if err := graph.AddChatTemplateNode("prompt", promptTemplate()); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "inject_prompt"},
		{"inject_prompt", "prompt"},
		{"prompt", "model"},
		{"model", "parse_json"},
		{"parse_json", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add structured edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}

// CompileChatGraph builds a prompt -> model pipeline returning the raw
// message, for callers that parse content themselves.
func CompileChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddLambdaNode("inject_prompt", injectSystemPrompt(systemPrompt)); err != nil {
		return nil, fmt.Errorf("add chat inject node: %w", err)
	}
	if err := graph.AddChatTemplateNode("prompt", promptTemplate()); err != nil {
		return nil, fmt.Errorf("add chat prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add chat model node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "inject_prompt"},
		{"inject_prompt", "prompt"},
		{"prompt", "model"},
		{"model", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add chat edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return runner, nil
}
