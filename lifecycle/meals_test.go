package lifecycle_test

import (
	"context"
	"testing"

	"fitagent/gateway"
	"fitagent/lifecycle"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestEnsureMeal(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	engine := lifecycle.NewEngine(fake, fixedClock)

	meal, created, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealLunch, "post workout")
	must.NoError(t, err)
	should.True(t, created)
	should.Equal(t, gateway.MealLunch, meal.MealType)

	// The singleton applies per (user, date, type): an empty existing meal
	// is reused, not duplicated.
	again, created, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealLunch, "")
	must.NoError(t, err)
	should.False(t, created)
	should.Equal(t, meal.ID, again.ID)
	should.Equal(t, 1, countCalls(fake.Calls, "CreateMeal"))

	// A different meal type on the same date is its own meal.
	dinner, created, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealDinner, "")
	must.NoError(t, err)
	should.True(t, created)
	should.NotEqual(t, meal.ID, dinner.ID)
}

func TestEnsureMealRefusesNonEmptyMeal(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	engine := lifecycle.NewEngine(fake, fixedClock)

	meal, _, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealBreakfast, "")
	must.NoError(t, err)
	_, err = engine.AttachFood(ctx, testCaller, meal.ID, 11, 2)
	must.NoError(t, err)

	_, _, err = engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealBreakfast, "")
	var notEmpty *lifecycle.MealNotEmptyError
	must.ErrorAs(t, err, &notEmpty)
	should.Equal(t, meal.ID, notEmpty.Meal.ID)
	must.Len(t, notEmpty.Details, 1, "the error must carry the contents for the clarifying question")
	should.Equal(t, int64(11), notEmpty.Details[0].FoodID)
}

func TestAttachFoodRequiresServings(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	engine := lifecycle.NewEngine(fake, fixedClock)

	meal, _, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealSnack, "")
	must.NoError(t, err)

	_, err = engine.AttachFood(ctx, testCaller, meal.ID, 11, 0)
	must.ErrorIs(t, err, lifecycle.ErrMissingServing)
	should.Zero(t, countCalls(fake.Calls, "AttachFoods"), "nothing may be created without a serving count")

	detail, err := engine.AttachFood(ctx, testCaller, meal.ID, 11, 1.5)
	must.NoError(t, err)
	should.Equal(t, 1.5, detail.NumberOfServings)
}

func TestDetachFoodVerifiesAgainstFreshRead(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	engine := lifecycle.NewEngine(fake, fixedClock)

	meal, _, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealDinner, "")
	must.NoError(t, err)
	detail, err := engine.AttachFood(ctx, testCaller, meal.ID, 11, 1)
	must.NoError(t, err)

	// A detail id remembered from an earlier turn that no longer exists.
	err = engine.DetachFood(ctx, testCaller, meal.ID, detail.ID+100)
	must.ErrorIs(t, err, lifecycle.ErrNotFound)
	should.Len(t, fake.MealItems, 1)

	err = engine.DetachFood(ctx, testCaller, meal.ID, detail.ID)
	must.NoError(t, err)
	should.Empty(t, fake.MealItems)
}

func TestUpdateServings(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	engine := lifecycle.NewEngine(fake, fixedClock)

	meal, _, err := engine.EnsureMeal(ctx, testCaller, "2026-03-10", gateway.MealDinner, "")
	must.NoError(t, err)
	detail, err := engine.AttachFood(ctx, testCaller, meal.ID, 11, 1)
	must.NoError(t, err)

	err = engine.UpdateServings(ctx, testCaller, meal.ID, detail.ID, 0)
	must.ErrorIs(t, err, lifecycle.ErrMissingServing)

	err = engine.UpdateServings(ctx, testCaller, meal.ID, detail.ID+100, 2)
	must.ErrorIs(t, err, lifecycle.ErrNotFound)

	err = engine.UpdateServings(ctx, testCaller, meal.ID, detail.ID, 2.5)
	must.NoError(t, err)
	should.Equal(t, 2.5, fake.MealItems[detail.ID].NumberOfServings)
}
