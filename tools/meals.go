package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitagent/agent"
	"fitagent/gateway"
)

var mealTypeEnum = []any{
	string(gateway.MealBreakfast),
	string(gateway.MealLunch),
	string(gateway.MealDinner),
	string(gateway.MealSnack),
}

// MealLog is the check-first meal tool. A meal type that already exists
// with contents comes back with those contents so the user can decide.
type MealLog struct{ facade *agent.Facade }

func NewMealLog(facade *agent.Facade) *MealLog { return &MealLog{facade: facade} }

func (t *MealLog) Name() string  { return "meal_log" }
func (t *MealLog) Title() string { return "Log or Reuse Meal" }
func (t *MealLog) Description() string {
	return "Returns the meal for a date and meal type, creating it only when none exists. An existing non-empty meal is returned with its contents for the user to confirm."
}

func (t *MealLog) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"date":      dateSchema(),
			"meal_type": {Type: "string", Enum: mealTypeEnum},
			"notes":     {Type: "string"},
		},
		Required: []string{"date", "meal_type"},
	})
}

func (t *MealLog) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"meal":     {Type: "object"},
			"created":  {Type: "boolean"},
			"existing": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		},
		Required: []string{"meal", "created"},
	}
}

func (t *MealLog) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	date, err := stringArg(input, "date")
	if err != nil {
		return nil, err
	}
	mealType, err := stringArg(input, "meal_type")
	if err != nil {
		return nil, err
	}
	notes, _ := input["notes"].(string)

	result, err := t.facade.LogMeal(ctx, caller, date, gateway.MealType(mealType), notes)
	if err != nil {
		return nil, err
	}
	return toMap(result), nil
}

// FoodAdd resolves food names and attaches them to a meal with serving
// counts. Every food entry must carry a serving quantity.
type FoodAdd struct{ facade *agent.Facade }

func NewFoodAdd(facade *agent.Facade) *FoodAdd { return &FoodAdd{facade: facade} }

func (t *FoodAdd) Name() string  { return "food_add" }
func (t *FoodAdd) Title() string { return "Add Foods to Meal" }
func (t *FoodAdd) Description() string {
	return "Resolves food names against the catalog and attaches matches to a meal. A missing serving quantity blocks that food only."
}

func (t *FoodAdd) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"meal_id": idSchema(),
			"foods": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"servings": {Type: "number"},
					},
					Required: []string{"name"},
				},
			},
		},
		Required: []string{"meal_id", "foods"},
	})
}

func (t *FoodAdd) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"outcomes": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		},
		Required: []string{"outcomes"},
	}
}

func (t *FoodAdd) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	mealID, err := int64Arg(input, "meal_id")
	if err != nil {
		return nil, err
	}

	raw, ok := input["foods"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("\"foods\" is required")
	}
	requests := make([]agent.FoodRequest, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("\"foods\" entries must be objects")
		}
		name, err := stringArg(m, "name")
		if err != nil {
			return nil, err
		}
		servings, _ := asFloat64(m["servings"])
		requests = append(requests, agent.FoodRequest{Name: name, Servings: servings})
	}

	result, err := t.facade.AddFoods(ctx, caller, mealID, requests)
	if err != nil {
		return nil, err
	}
	return toMap(result), nil
}

// FoodRemove detaches a food from a meal after a fresh detail read.
type FoodRemove struct{ facade *agent.Facade }

func NewFoodRemove(facade *agent.Facade) *FoodRemove { return &FoodRemove{facade: facade} }

func (t *FoodRemove) Name() string  { return "food_remove" }
func (t *FoodRemove) Title() string { return "Remove Food from Meal" }
func (t *FoodRemove) Description() string {
	return "Removes a named food from a meal. The meal's current contents are re-read first; remembered ids are never trusted."
}

func (t *FoodRemove) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"meal_id": idSchema(),
			"name":    {Type: "string"},
		},
		Required: []string{"meal_id", "name"},
	})
}

func (t *FoodRemove) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"removed":    {Type: "object"},
			"state":      {Type: "string"},
			"candidates": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		},
		Required: []string{"state"},
	}
}

func (t *FoodRemove) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	mealID, err := int64Arg(input, "meal_id")
	if err != nil {
		return nil, err
	}
	name, err := stringArg(input, "name")
	if err != nil {
		return nil, err
	}

	result, err := t.facade.RemoveFood(ctx, caller, mealID, name)
	if err != nil {
		return nil, err
	}
	return toMap(result), nil
}

// ServingUpdate rewrites serving counts for several meal items at once.
type ServingUpdate struct{ facade *agent.Facade }

func NewServingUpdate(facade *agent.Facade) *ServingUpdate { return &ServingUpdate{facade: facade} }

func (t *ServingUpdate) Name() string  { return "serving_update" }
func (t *ServingUpdate) Title() string { return "Update Meal Servings" }
func (t *ServingUpdate) Description() string {
	return "Updates serving counts for one or more meal items with per-item outcomes."
}

func (t *ServingUpdate) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"meal_id": idSchema(),
			"changes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"meal_detail_id": idSchema(),
						"servings":       {Type: "number"},
					},
					Required: []string{"meal_detail_id", "servings"},
				},
			},
		},
		Required: []string{"meal_id", "changes"},
	})
}

func (t *ServingUpdate) OutputSchema() *jsonschema.Schema { return bulkResultSchema() }

func (t *ServingUpdate) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	mealID, err := int64Arg(input, "meal_id")
	if err != nil {
		return nil, err
	}

	raw, ok := input["changes"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("\"changes\" is required")
	}
	changes := make([]agent.ServingChange, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("\"changes\" entries must be objects")
		}
		id, err := int64Arg(m, "meal_detail_id")
		if err != nil {
			return nil, err
		}
		servings, _ := asFloat64(m["servings"])
		changes = append(changes, agent.ServingChange{MealDetailID: id, Servings: servings})
	}

	res, err := t.facade.UpdateServings(ctx, caller, mealID, changes)
	if err != nil {
		return nil, err
	}
	return toMap(res), nil
}

// MealDelete deletes meals by id list or date range.
type MealDelete struct{ facade *agent.Facade }

func NewMealDelete(facade *agent.Facade) *MealDelete { return &MealDelete{facade: facade} }

func (t *MealDelete) Name() string  { return "meal_delete" }
func (t *MealDelete) Title() string { return "Delete Meals" }
func (t *MealDelete) Description() string {
	return "Deletes meals by ids or an inclusive date range with per-item outcomes."
}

func (t *MealDelete) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"meal_ids":   {Type: "array", Items: idSchema()},
			"start_date": dateSchema(),
			"end_date":   dateSchema(),
		},
	})
}

func (t *MealDelete) OutputSchema() *jsonschema.Schema { return bulkResultSchema() }

func (t *MealDelete) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}

	if _, ok := input["meal_ids"]; ok {
		ids, err := idsArg(input, "meal_ids")
		if err != nil {
			return nil, err
		}
		res, err := t.facade.DeleteMeals(ctx, caller, ids)
		if err != nil {
			return nil, err
		}
		return toMap(res), nil
	}

	start, err := stringArg(input, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := stringArg(input, "end_date")
	if err != nil {
		return nil, err
	}
	res, err := t.facade.DeleteMealRange(ctx, caller, start, end)
	if err != nil {
		return nil, err
	}
	return toMap(res), nil
}
