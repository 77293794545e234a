// Package tool defines the closed set of operations the generation
// pipeline may invoke, with typed argument contracts and an explicit
// dispatch switch.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
)

const (
	ToolGetAvailableSlots = "get_available_slots"
	ToolBookTrial         = "book_trial"
	ToolGymInfo           = "get_gym_information"
)

// Executor runs one named operation and records the invocation. Argument
// problems and provider failures surface inside the invocation record,
// never as Go errors, so a bad tool call cannot abort the turn.
type Executor func(ctx context.Context, tool string, args map[string]any) contractx.ToolInvocation

// Infos describes the callable operations for the responder model.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolGetAvailableSlots,
			Desc: "Check available time slots for gym trial bookings. Call before offering concrete times.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"days_ahead": {Type: schema.Integer, Desc: "How many days to look ahead (default 7)"},
			}),
		},
		{
			Name: ToolBookTrial,
			Desc: "Book a gym trial. Only call with the user's name, email, and a confirmed slot time.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"email":     {Type: schema.String, Desc: "User's email address", Required: true},
				"name":      {Type: schema.String, Desc: "User's full name", Required: true},
				"slot_time": {Type: schema.String, Desc: "Chosen slot start time (ISO 8601)", Required: true},
				"timezone":  {Type: schema.String, Desc: "User's IANA timezone (optional)"},
			}),
		},
		{
			Name: ToolGymInfo,
			Desc: "Retrieve gym facts: facilities, classes, trainers, hours, membership plans, trial benefits, success stories.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Which information is needed", Required: true},
			}),
		},
	}
}

// NewExecutor wires the catalog to its collaborators.
func NewExecutor(gateway contractx.SchedulingGateway, gym GymConfig) Executor {
	return func(ctx context.Context, tool string, args map[string]any) contractx.ToolInvocation {
		inv := contractx.ToolInvocation{Tool: tool, Args: args}

		switch tool {
		case ToolGetAvailableSlots:
			executeGetSlots(ctx, gateway, &inv)
		case ToolBookTrial:
			executeBookTrial(ctx, gateway, &inv)
		case ToolGymInfo:
			executeGymInfo(gym, &inv)
		default:
			inv.Error = fmt.Sprintf("tool=%s is not available", tool)
		}

		log.Info().
			Str("tool", tool).
			Bool("failed", inv.Error != "").
			Msg("tool invoked")
		return inv
	}
}

func executeGetSlots(ctx context.Context, gateway contractx.SchedulingGateway, inv *contractx.ToolInvocation) {
	days := intArg(inv.Args, "days_ahead", 7)

	slots, err := gateway.ListSlots(ctx, days)
	if err != nil {
		inv.Error = fmt.Sprintf("error fetching slots: %v", err)
		return
	}
	if len(slots) == 0 {
		setResult(inv, map[string]any{
			"success": false,
			"message": "No available slots found in the specified time range",
		})
		return
	}

	formatted := make([]string, 0, len(slots))
	for i, s := range slots {
		formatted = append(formatted, fmt.Sprintf("%d. %s", i+1, s.Formatted))
	}
	setResult(inv, map[string]any{
		"success":         true,
		"available_slots": slots,
		"formatted_list":  formatted,
		"message":         fmt.Sprintf("Found %d available slots", len(slots)),
	})
}

func executeBookTrial(ctx context.Context, gateway contractx.SchedulingGateway, inv *contractx.ToolInvocation) {
	email := strArg(inv.Args, "email")
	name := strArg(inv.Args, "name")
	slotTime := strArg(inv.Args, "slot_time")
	timezone := strArg(inv.Args, "timezone")

	var missing []string
	for arg, v := range map[string]string{"email": email, "name": name, "slot_time": slotTime} {
		if v == "" {
			missing = append(missing, arg)
		}
	}
	if len(missing) > 0 {
		inv.Error = fmt.Sprintf("missing required arguments: %s", strings.Join(missing, ", "))
		return
	}

	result := gateway.CreateBooking(ctx, email, name, slotTime, timezone)
	inv.Booking = &result
	setResult(inv, result)
}

func executeGymInfo(gym GymConfig, inv *contractx.ToolInvocation) {
	query := strArg(inv.Args, "query")
	setResult(inv, lookupGymInfo(gym, query))
}

func setResult(inv *contractx.ToolInvocation, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		inv.Error = fmt.Sprintf("marshal tool result: %v", err)
		return
	}
	inv.Result = string(raw)
}

func strArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intArg(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return def
}
