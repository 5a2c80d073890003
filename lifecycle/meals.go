package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"fitagent/gateway"
)

// EnsureMeal returns the meal for (caller, date, type), creating it when
// absent. When the meal already exists and holds at least one item the
// call fails with MealNotEmptyError carrying the contents, so the caller
// can ask whether to add to it or replace it. The backend is not trusted
// to enforce the singleton: the check-first read always happens here.
func (e *Engine) EnsureMeal(ctx context.Context, caller gateway.Caller, date string, mealType gateway.MealType, notes string) (gateway.Meal, bool, error) {
	existing, err := e.gw.MealsByDate(ctx, caller, date, mealType)
	if err != nil {
		return gateway.Meal{}, false, fmt.Errorf("look up %s meal for %s: %w", mealType, date, err)
	}
	if len(existing) > 0 {
		meal := existing[0]
		details, err := e.gw.MealDetails(ctx, caller, meal.ID)
		if err != nil {
			return gateway.Meal{}, false, fmt.Errorf("list details for meal %d: %w", meal.ID, err)
		}
		if len(details) > 0 {
			return meal, false, &MealNotEmptyError{Meal: meal, Details: details}
		}
		return meal, false, nil
	}

	created, err := e.gw.CreateMeal(ctx, caller, date, mealType, notes)
	if err != nil {
		return gateway.Meal{}, false, fmt.Errorf("create %s meal for %s: %w", mealType, date, err)
	}
	slog.Info("ENGINE: Created meal", "meal_id", created.ID, "date", date, "type", mealType, "user_id", caller.UserID)
	return created, true, nil
}

// AttachFood adds one food to a meal. A serving quantity is mandatory;
// nothing is created without one.
func (e *Engine) AttachFood(ctx context.Context, caller gateway.Caller, mealID, foodID int64, servings float64) (gateway.MealDetail, error) {
	if servings <= 0 {
		return gateway.MealDetail{}, fmt.Errorf("food %d: %w", foodID, ErrMissingServing)
	}
	details, err := e.gw.AttachFoods(ctx, caller, mealID, []gateway.FoodServing{{FoodID: foodID, NumberOfServings: servings}})
	if err != nil {
		return gateway.MealDetail{}, fmt.Errorf("attach food %d to meal %d: %w", foodID, mealID, err)
	}
	if len(details) == 0 {
		return gateway.MealDetail{}, fmt.Errorf("backend returned no detail for food %d: %w", foodID, ErrNotFound)
	}
	return details[0], nil
}

// DetachFood removes one item from a meal. The detail id is verified
// against a fresh read first; an id remembered from an earlier turn is
// never deleted blind.
func (e *Engine) DetachFood(ctx context.Context, caller gateway.Caller, mealID, mealDetailID int64) error {
	details, err := e.gw.MealDetails(ctx, caller, mealID)
	if err != nil {
		return fmt.Errorf("list details for meal %d: %w", mealID, err)
	}
	found := false
	for _, d := range details {
		if d.ID == mealDetailID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("detail %d is not part of meal %d: %w", mealDetailID, mealID, ErrNotFound)
	}
	if err := e.gw.DeleteMealDetail(ctx, caller, mealDetailID); err != nil {
		return fmt.Errorf("detach meal detail %d: %w", mealDetailID, err)
	}
	return nil
}

// UpdateServings rewrites the serving count of an existing meal item,
// after the same fresh-read verification DetachFood performs.
func (e *Engine) UpdateServings(ctx context.Context, caller gateway.Caller, mealID, mealDetailID int64, servings float64) error {
	if servings <= 0 {
		return fmt.Errorf("detail %d: %w", mealDetailID, ErrMissingServing)
	}
	details, err := e.gw.MealDetails(ctx, caller, mealID)
	if err != nil {
		return fmt.Errorf("list details for meal %d: %w", mealID, err)
	}
	for _, d := range details {
		if d.ID == mealDetailID {
			d.NumberOfServings = servings
			if err := e.gw.UpdateMealDetail(ctx, caller, d); err != nil {
				return fmt.Errorf("update meal detail %d: %w", mealDetailID, err)
			}
			return nil
		}
	}
	return fmt.Errorf("detail %d is not part of meal %d: %w", mealDetailID, mealID, ErrNotFound)
}
