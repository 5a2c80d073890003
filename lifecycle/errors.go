package lifecycle

import (
	"errors"
	"fmt"

	"fitagent/gateway"
)

var (
	// ErrInvalidTransition rejects any status change that is not strictly
	// forward, and any completion of a future-dated session.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrMissingServing rejects a meal detail without a positive serving count.
	ErrMissingServing = errors.New("missing serving quantity")

	// ErrOutOfOrderExecution rejects executing a set while an earlier
	// sibling under the same session detail is still planned.
	ErrOutOfOrderExecution = errors.New("set logs must be executed in ascending order")

	// ErrNotFound is returned when a referenced record does not exist in a
	// fresh backend read. Ids are never trusted from stale memory.
	ErrNotFound = errors.New("record not found")
)

// MissingRequiredFieldError reports the planned field an exercise type
// demands: reps for strength work, duration for cardio.
type MissingRequiredFieldError struct {
	Kind  gateway.ExerciseType
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s set requires %s", e.Kind, e.Field)
}

// MealNotEmptyError signals that the meal for (user, date, type) already
// exists with contents. The caller decides whether to add or replace; the
// engine never silently merges.
type MealNotEmptyError struct {
	Meal    gateway.Meal
	Details []gateway.MealDetail
}

func (e *MealNotEmptyError) Error() string {
	return fmt.Sprintf("meal %d (%s on %s) already has %d item(s)", e.Meal.ID, e.Meal.MealType, e.Meal.LogDate, len(e.Details))
}
