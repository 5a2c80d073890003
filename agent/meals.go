package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
	"fitagent/resolve"
)

// MealResult reports the check-first meal workflow. When the meal type
// already existed with contents, Existing is populated and the caller
// must ask the user whether to add or replace before touching it.
type MealResult struct {
	Meal     gateway.Meal         `json:"meal"`
	Created  bool                 `json:"created"`
	Existing []gateway.MealDetail `json:"existing,omitempty"`
}

func (r MealResult) NeedsClarification() bool { return len(r.Existing) > 0 }

// FoodRequest names a food with its serving count.
type FoodRequest struct {
	Name     string
	Servings float64
}

// FoodOutcome is the per-food result of an attach.
type FoodOutcome struct {
	Query      string                 `json:"query"`
	Detail     *gateway.MealDetail    `json:"detail,omitempty"`
	Entry      *gateway.CatalogEntry  `json:"entry,omitempty"`
	State      string                 `json:"state"`
	Candidates []gateway.CatalogEntry `json:"candidates,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
}

type AddFoodsResult struct {
	Outcomes []FoodOutcome `json:"outcomes"`
}

// LogMeal is the check-first meal workflow: one meal per (user, date,
// type). An existing, non-empty meal comes back as a clarification
// outcome instead of being merged into silently.
func (f *Facade) LogMeal(ctx context.Context, caller gateway.Caller, date string, mealType gateway.MealType, notes string) (MealResult, error) {
	meal, created, err := f.engine.EnsureMeal(ctx, caller, date, mealType, notes)

	var notEmpty *lifecycle.MealNotEmptyError
	if errors.As(err, &notEmpty) {
		result := MealResult{Meal: notEmpty.Meal, Existing: notEmpty.Details}
		f.logOp("meal.log", caller, map[string]any{"date": date, "type": mealType}, result, nil)
		return result, nil
	}
	if err != nil {
		f.logOp("meal.log", caller, map[string]any{"date": date, "type": mealType}, nil, err)
		return MealResult{}, err
	}

	result := MealResult{Meal: meal, Created: created}
	f.logOp("meal.log", caller, map[string]any{"date": date, "type": mealType}, result, nil)
	return result, nil
}

// AddFoods resolves and attaches each requested food. A food that fails
// to resolve, or arrives without a serving count, is recorded in its own
// outcome; resolved siblings still go through.
func (f *Facade) AddFoods(ctx context.Context, caller gateway.Caller, mealID int64, requests []FoodRequest) (AddFoodsResult, error) {
	result := AddFoodsResult{Outcomes: make([]FoodOutcome, 0, len(requests))}

	for _, req := range requests {
		outcome := FoodOutcome{Query: req.Name}

		candidates, err := f.gw.SearchFoods(ctx, caller, req.Name)
		if err != nil {
			f.logOp("meal.add_foods", caller, map[string]any{"meal_id": mealID, "name": req.Name}, nil, err)
			return result, fmt.Errorf("search foods %q: %w", req.Name, err)
		}

		res := resolve.Resolve(req.Name, candidates)
		outcome.State = res.State.String()
		outcome.Candidates = res.Candidates

		if res.State == resolve.Resolved {
			entry := res.Entry
			outcome.Entry = &entry
			detail, err := f.engine.AttachFood(ctx, caller, mealID, entry.ID, req.Servings)
			if err != nil {
				if errors.Is(err, lifecycle.ErrMissingServing) {
					outcome.Reason = "missing serving quantity"
					result.Outcomes = append(result.Outcomes, outcome)
					continue
				}
				f.logOp("meal.add_foods", caller, map[string]any{"meal_id": mealID, "name": req.Name}, nil, err)
				return result, err
			}
			outcome.Detail = &detail
			slog.Info("FACADE: Food attached", "meal_id", mealID, "food", entry.Name, "servings", req.Servings)
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	f.logOp("meal.add_foods", caller, map[string]any{"meal_id": mealID, "count": len(requests)}, result, nil)
	return result, nil
}

// RemoveFoodResult reports a food removal, or the resolution that blocked it.
type RemoveFoodResult struct {
	Removed    *gateway.MealDetail    `json:"removed,omitempty"`
	State      string                 `json:"state"`
	Candidates []gateway.CatalogEntry `json:"candidates,omitempty"`
}

// RemoveFood finds the named food in a fresh read of the meal's details
// and detaches it. The detail id always comes from the read performed
// here, never from earlier conversation turns.
func (f *Facade) RemoveFood(ctx context.Context, caller gateway.Caller, mealID int64, foodName string) (RemoveFoodResult, error) {
	candidates, err := f.gw.SearchFoods(ctx, caller, foodName)
	if err != nil {
		return RemoveFoodResult{}, fmt.Errorf("search foods %q: %w", foodName, err)
	}

	res := resolve.Resolve(foodName, candidates)
	if res.State != resolve.Resolved {
		result := RemoveFoodResult{State: res.State.String(), Candidates: res.Candidates}
		f.logOp("meal.remove_food", caller, map[string]any{"meal_id": mealID, "name": foodName}, result, nil)
		return result, nil
	}

	details, err := f.gw.MealDetails(ctx, caller, mealID)
	if err != nil {
		return RemoveFoodResult{}, fmt.Errorf("list details for meal %d: %w", mealID, err)
	}
	for _, d := range details {
		if d.FoodID == res.Entry.ID {
			if err := f.engine.DetachFood(ctx, caller, mealID, d.ID); err != nil {
				f.logOp("meal.remove_food", caller, map[string]any{"meal_id": mealID, "name": foodName}, nil, err)
				return RemoveFoodResult{}, err
			}
			removed := d
			result := RemoveFoodResult{Removed: &removed, State: res.State.String()}
			f.logOp("meal.remove_food", caller, map[string]any{"meal_id": mealID, "name": foodName}, result, nil)
			return result, nil
		}
	}

	err = fmt.Errorf("%s is not part of meal %d: %w", foodName, mealID, lifecycle.ErrNotFound)
	f.logOp("meal.remove_food", caller, map[string]any{"meal_id": mealID, "name": foodName}, nil, err)
	return RemoveFoodResult{}, err
}

// ServingChange retargets one meal detail at a new serving count.
type ServingChange struct {
	MealDetailID int64
	Servings     float64
}

// UpdateServings applies a batch of serving changes with per-item outcomes.
func (f *Facade) UpdateServings(ctx context.Context, caller gateway.Caller, mealID int64, changes []ServingChange) (bulk.Result, error) {
	// Duplicate ids collapse to one dispatch; the last change wins.
	byID := make(map[int64]float64, len(changes))
	ids := make([]int64, 0, len(changes))
	for _, ch := range changes {
		if _, seen := byID[ch.MealDetailID]; !seen {
			ids = append(ids, ch.MealDetailID)
		}
		byID[ch.MealDetailID] = ch.Servings
	}

	res, err := f.bulk.Apply(ctx, ids, func(ctx context.Context, id int64) error {
		return f.engine.UpdateServings(ctx, caller, mealID, id, byID[id])
	})
	f.logOp("meal.update_servings", caller, map[string]any{"meal_id": mealID, "count": len(changes)}, res, err)
	return res, err
}

// DeleteMeals removes meals by explicit id list, one outcome per id.
func (f *Facade) DeleteMeals(ctx context.Context, caller gateway.Caller, ids []int64) (bulk.Result, error) {
	res, err := f.bulk.Apply(ctx, ids, func(ctx context.Context, id int64) error {
		return f.gw.DeleteMeal(ctx, caller, id)
	})
	f.logOp("meal.delete_meals", caller, map[string]any{"ids": ids}, res, err)
	return res, err
}

// DeleteMealRange removes every meal in an inclusive date range.
func (f *Facade) DeleteMealRange(ctx context.Context, caller gateway.Caller, start, end string) (bulk.Result, error) {
	res, err := f.bulk.ApplyRange(ctx, start, end, func(ctx context.Context, date string) ([]int64, error) {
		meals, err := f.gw.MealsByDate(ctx, caller, date, "")
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(meals))
		for _, m := range meals {
			ids = append(ids, m.ID)
		}
		return ids, nil
	}, func(ctx context.Context, id int64) error {
		return f.gw.DeleteMeal(ctx, caller, id)
	})
	f.logOp("meal.delete_meal_range", caller, map[string]any{"start": start, "end": end}, res, err)
	return res, err
}
