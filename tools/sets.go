package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitagent/agent"
	"fitagent/gateway"
	"fitagent/lifecycle"
)

// ExerciseAdd is the search→resolve→attach workflow. An exact catalog
// match attaches immediately; several partial matches come back as
// candidates for the user to pick from.
type ExerciseAdd struct{ facade *agent.Facade }

func NewExerciseAdd(facade *agent.Facade) *ExerciseAdd { return &ExerciseAdd{facade: facade} }

func (t *ExerciseAdd) Name() string  { return "exercise_add" }
func (t *ExerciseAdd) Title() string { return "Add Exercises to Session" }
func (t *ExerciseAdd) Description() string {
	return "Resolves exercise names against the catalog and attaches matches to the date's session. Ambiguous names return candidates instead of guessing."
}

func (t *ExerciseAdd) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"date": dateSchema(),
			"exercises": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name": {Type: "string"},
						"type": {Type: "string", Enum: []any{string(gateway.ExerciseStrength), string(gateway.ExerciseCardio)}},
					},
					Required: []string{"name", "type"},
				},
			},
		},
		Required: []string{"date", "exercises"},
	})
}

func (t *ExerciseAdd) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session":  {Type: "object"},
			"outcomes": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		},
		Required: []string{"session", "outcomes"},
	}
}

func (t *ExerciseAdd) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	date, err := stringArg(input, "date")
	if err != nil {
		return nil, err
	}

	raw, ok := input["exercises"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("\"exercises\" is required")
	}
	requests := make([]agent.ExerciseRequest, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("\"exercises\" entries must be objects")
		}
		name, err := stringArg(m, "name")
		if err != nil {
			return nil, err
		}
		kind, err := stringArg(m, "type")
		if err != nil {
			return nil, err
		}
		requests = append(requests, agent.ExerciseRequest{Name: name, Kind: gateway.ExerciseType(kind)})
	}

	result, err := t.facade.AddExercises(ctx, caller, date, requests)
	if err != nil {
		return nil, err
	}
	return toMap(result), nil
}

// SetPlan is phase A of two-phase logging: define planned sets under an
// attached exercise.
type SetPlan struct{ facade *agent.Facade }

func NewSetPlan(facade *agent.Facade) *SetPlan { return &SetPlan{facade: facade} }

func (t *SetPlan) Name() string  { return "set_plan" }
func (t *SetPlan) Title() string { return "Plan Sets" }
func (t *SetPlan) Description() string {
	return "Creates planned set logs under a session detail. Strength sets need reps; cardio sets need a duration."
}

func (t *SetPlan) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session_id":        idSchema(),
			"session_detail_id": idSchema(),
			"sets": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"planned_reps":     {Type: "integer"},
						"weight_kg":        {Type: "number"},
						"duration_seconds": {Type: "integer"},
						"notes":            {Type: "string"},
					},
				},
			},
		},
		Required: []string{"session_id", "session_detail_id", "sets"},
	})
}

func (t *SetPlan) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"sets": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		},
		Required: []string{"sets"},
	}
}

func (t *SetPlan) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	sessionID, err := int64Arg(input, "session_id")
	if err != nil {
		return nil, err
	}
	detailID, err := int64Arg(input, "session_detail_id")
	if err != nil {
		return nil, err
	}

	raw, ok := input["sets"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("\"sets\" is required")
	}
	planned := make([]lifecycle.PlannedSet, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("\"sets\" entries must be objects")
		}
		var p lifecycle.PlannedSet
		if reps, ok := asInt64(m["planned_reps"]); ok {
			p.Reps = int(reps)
		}
		if w, ok := asFloat64(m["weight_kg"]); ok {
			p.WeightKg = w
		}
		if d, ok := asInt64(m["duration_seconds"]); ok {
			p.DurationSeconds = int(d)
		}
		p.Notes, _ = m["notes"].(string)
		planned = append(planned, p)
	}

	sets, err := t.facade.PlanSets(ctx, caller, sessionID, detailID, planned)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sets": toMapSlice(sets)}, nil
}

// SetRecord is phase B: record actual values against a planned set.
type SetRecord struct{ facade *agent.Facade }

func NewSetRecord(facade *agent.Facade) *SetRecord { return &SetRecord{facade: facade} }

func (t *SetRecord) Name() string  { return "set_record" }
func (t *SetRecord) Title() string { return "Record Set" }
func (t *SetRecord) Description() string {
	return "Records actual values for a planned set. Sets execute in ascending id order; a completed set is immutable."
}

func (t *SetRecord) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session_id":        idSchema(),
			"session_detail_id": idSchema(),
			"set_id":            idSchema(),
			"actual_reps":       {Type: "integer"},
			"weight_kg":         {Type: "number"},
			"duration_seconds":  {Type: "integer"},
			"notes":             {Type: "string"},
			"completed":         {Type: "boolean"},
		},
		Required: []string{"session_id", "session_detail_id", "set_id"},
	})
}

func (t *SetRecord) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"set": {Type: "object"},
		},
		Required: []string{"set"},
	}
}

func (t *SetRecord) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	sessionID, err := int64Arg(input, "session_id")
	if err != nil {
		return nil, err
	}
	detailID, err := int64Arg(input, "session_detail_id")
	if err != nil {
		return nil, err
	}
	setID, err := int64Arg(input, "set_id")
	if err != nil {
		return nil, err
	}

	var actual lifecycle.ActualSet
	if reps, ok := asInt64(input["actual_reps"]); ok {
		actual.Reps = int(reps)
	}
	if w, ok := asFloat64(input["weight_kg"]); ok {
		actual.WeightKg = w
	}
	if d, ok := asInt64(input["duration_seconds"]); ok {
		actual.DurationSeconds = int(d)
	}
	actual.Notes, _ = input["notes"].(string)
	actual.Completed, _ = input["completed"].(bool)

	set, err := t.facade.RecordSet(ctx, caller, sessionID, detailID, setID, actual)
	if err != nil {
		return nil, err
	}
	return map[string]any{"set": toMap(set)}, nil
}

func toMapSlice[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, toMap(item))
	}
	return out
}
