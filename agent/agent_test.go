package agent_test

import (
	"context"
	"testing"
	"time"

	"fitagent"
	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
	"fitagent/resolve"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

var testCaller = gateway.Caller{UserID: 7, Token: "test-token"}

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

// memLogger records operation log entries for assertions.
type memLogger struct {
	ops []fitagent.OperationLog
}

func (l *memLogger) LogOperation(op fitagent.OperationLog) error {
	l.ops = append(l.ops, op)
	return nil
}

func newTestFacade(fake *gateway.Fake) (*agent.Facade, *memLogger) {
	audit := &memLogger{}
	engine := lifecycle.NewEngine(fake, fixedClock)
	facade := agent.New(fake, engine, bulk.New(2, time.Second), audit)
	return facade, audit
}

func TestStartWorkoutLogsOperation(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, audit := newTestFacade(fake)

	session, err := facade.StartWorkout(ctx, testCaller, "2026-03-10", "push day")
	must.NoError(t, err)
	should.Equal(t, gateway.StatusPlanned, session.Status)

	must.Len(t, audit.ops, 1)
	should.Equal(t, "workout.start", audit.ops[0].Intent)
	should.Equal(t, testCaller.UserID, audit.ops[0].UserID)
	should.Equal(t, facade.RunID(), audit.ops[0].RunID)
}

func TestAddExercises(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	fake.Exercises = []gateway.CatalogEntry{
		{ID: 1, Name: "Squat"},
		{ID: 2, Name: "Jump Squat"},
		{ID: 3, Name: "Bench Press"},
		{ID: 4, Name: "Overhead Press"},
	}
	facade, _ := newTestFacade(fake)

	result, err := facade.AddExercises(ctx, testCaller, "2026-03-10", []agent.ExerciseRequest{
		{Name: "Squat", Kind: gateway.ExerciseStrength},
		{Name: "press", Kind: gateway.ExerciseStrength},
		{Name: "Zercher Carry", Kind: gateway.ExerciseStrength},
	})
	must.NoError(t, err)
	must.Len(t, result.Outcomes, 3)

	// Exact match attaches despite "Jump Squat" also matching.
	should.Equal(t, resolve.Resolved.String(), result.Outcomes[0].State)
	must.NotNil(t, result.Outcomes[0].Detail)
	should.Equal(t, int64(1), result.Outcomes[0].Detail.ExerciseID)

	// Ambiguity is an outcome for the user, not an error, and it does not
	// abort the resolved sibling above.
	should.Equal(t, resolve.Ambiguous.String(), result.Outcomes[1].State)
	should.Nil(t, result.Outcomes[1].Detail)
	must.Len(t, result.Outcomes[1].Candidates, 2)

	should.Equal(t, resolve.NotFound.String(), result.Outcomes[2].State)

	should.Len(t, fake.Details, 1, "only the resolved exercise may be attached")
}

func TestPlanSetsRequiresAttachedDetail(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	session, err := facade.StartWorkout(ctx, testCaller, "2026-03-10", "")
	must.NoError(t, err)

	_, err = facade.PlanSets(ctx, testCaller, session.ID, 999, []lifecycle.PlannedSet{{Reps: 5}})
	must.ErrorIs(t, err, agent.ErrPrecedentRequired)
	should.Empty(t, fake.Sets)
}

func TestPlanSetsDerivesKindFromDetail(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	fake.Exercises = []gateway.CatalogEntry{{ID: 9, Name: "Rowing Machine"}}
	facade, _ := newTestFacade(fake)

	result, err := facade.AddExercises(ctx, testCaller, "2026-03-10", []agent.ExerciseRequest{
		{Name: "Rowing Machine", Kind: gateway.ExerciseCardio},
	})
	must.NoError(t, err)
	detail := result.Outcomes[0].Detail
	must.NotNil(t, detail)

	// Cardio rules apply because the detail was attached as cardio.
	_, err = facade.PlanSets(ctx, testCaller, result.Session.ID, detail.ID, []lifecycle.PlannedSet{{Reps: 10}})
	var fieldErr *lifecycle.MissingRequiredFieldError
	must.ErrorAs(t, err, &fieldErr)
	should.Equal(t, "duration_seconds", fieldErr.Field)

	sets, err := facade.PlanSets(ctx, testCaller, result.Session.ID, detail.ID, []lifecycle.PlannedSet{{DurationSeconds: 1200}})
	must.NoError(t, err)
	must.Len(t, sets, 1)
	should.Equal(t, 1200, sets[0].DurationSeconds)
}

func TestLogMealClarification(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	first, err := facade.LogMeal(ctx, testCaller, "2026-03-10", gateway.MealLunch, "")
	must.NoError(t, err)
	should.True(t, first.Created)
	should.False(t, first.NeedsClarification())

	_, err = fake.AttachFoods(ctx, testCaller, first.Meal.ID, []gateway.FoodServing{{FoodID: 11, NumberOfServings: 2}})
	must.NoError(t, err)

	// The occupied meal comes back as a clarification outcome, not an error
	// and not a silent merge.
	second, err := facade.LogMeal(ctx, testCaller, "2026-03-10", gateway.MealLunch, "")
	must.NoError(t, err)
	should.False(t, second.Created)
	must.True(t, second.NeedsClarification())
	should.Equal(t, first.Meal.ID, second.Meal.ID)
	must.Len(t, second.Existing, 1)
	should.Equal(t, int64(11), second.Existing[0].FoodID)
}

func TestAddFoods(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	fake.Foods = []gateway.CatalogEntry{
		{ID: 11, Name: "Chicken Breast"},
		{ID: 12, Name: "Brown Rice"},
	}
	facade, _ := newTestFacade(fake)

	meal, err := facade.LogMeal(ctx, testCaller, "2026-03-10", gateway.MealDinner, "")
	must.NoError(t, err)

	result, err := facade.AddFoods(ctx, testCaller, meal.Meal.ID, []agent.FoodRequest{
		{Name: "chicken breast", Servings: 1.5},
		{Name: "Brown Rice"}, // no servings
	})
	must.NoError(t, err)
	must.Len(t, result.Outcomes, 2)

	must.NotNil(t, result.Outcomes[0].Detail)
	should.Equal(t, 1.5, result.Outcomes[0].Detail.NumberOfServings)

	should.Nil(t, result.Outcomes[1].Detail)
	should.Equal(t, "missing serving quantity", result.Outcomes[1].Reason)

	should.Len(t, fake.MealItems, 1, "the item without servings must not be created")
}

func TestRemoveFood(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	fake.Foods = []gateway.CatalogEntry{
		{ID: 11, Name: "Chicken Breast"},
		{ID: 12, Name: "Brown Rice"},
	}
	facade, _ := newTestFacade(fake)

	meal, err := facade.LogMeal(ctx, testCaller, "2026-03-10", gateway.MealDinner, "")
	must.NoError(t, err)
	added, err := facade.AddFoods(ctx, testCaller, meal.Meal.ID, []agent.FoodRequest{{Name: "Chicken Breast", Servings: 1}})
	must.NoError(t, err)
	must.NotNil(t, added.Outcomes[0].Detail)

	// A food that resolves but is not on the meal.
	_, err = facade.RemoveFood(ctx, testCaller, meal.Meal.ID, "Brown Rice")
	must.ErrorIs(t, err, lifecycle.ErrNotFound)

	result, err := facade.RemoveFood(ctx, testCaller, meal.Meal.ID, "chicken")
	must.NoError(t, err)
	must.NotNil(t, result.Removed)
	should.Equal(t, int64(11), result.Removed.FoodID)
	should.Empty(t, fake.MealItems)
}

func TestDeleteSessionsReportsPerItemOutcomes(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	var ids []int64
	for _, date := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		s, err := fake.CreateSession(ctx, testCaller, date, "")
		must.NoError(t, err)
		ids = append(ids, s.ID)
	}
	fake.FailOn["DeleteSession/2"] = &gateway.Error{StatusCode: 404, Message: "session 2 not found"}

	res, err := facade.DeleteSessions(ctx, testCaller, ids)
	must.NoError(t, err)

	should.Equal(t, []int64{1, 3}, res.Succeeded)
	must.Len(t, res.Failed, 1)
	should.Equal(t, int64(2), res.Failed[0].ID)
	should.Equal(t, "2 of 3 succeeded", res.Summary())
}

func TestDeleteSessionRange(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	inRange := []string{"2026-03-01", "2026-03-02"}
	for _, date := range inRange {
		_, err := fake.CreateSession(ctx, testCaller, date, "")
		must.NoError(t, err)
	}
	outside, err := fake.CreateSession(ctx, testCaller, "2026-03-05", "")
	must.NoError(t, err)

	res, err := facade.DeleteSessionRange(ctx, testCaller, "2026-03-01", "2026-03-03")
	must.NoError(t, err)

	should.Len(t, res.Succeeded, 2)
	should.Empty(t, res.Failed)
	should.Len(t, fake.Sessions, 1)
	should.Contains(t, fake.Sessions, outside.ID, "sessions outside the range are untouched")
}

func TestUpdateSessionsStatus(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	planned, err := fake.CreateSession(ctx, testCaller, "2026-03-01", "")
	must.NoError(t, err)
	completed, err := fake.CreateSession(ctx, testCaller, "2026-03-02", "")
	must.NoError(t, err)
	fake.Sessions[completed.ID] = gateway.Session{
		ID: completed.ID, UserID: testCaller.UserID, ScheduledDate: "2026-03-02", Status: gateway.StatusCompleted,
	}

	res, err := facade.UpdateSessionsStatus(ctx, testCaller, []int64{planned.ID, completed.ID}, gateway.StatusCompleted, "")
	must.NoError(t, err)

	should.Equal(t, []int64{planned.ID}, res.Succeeded)
	must.Len(t, res.Failed, 1)
	should.Equal(t, completed.ID, res.Failed[0].ID, "the already-completed session fails its item only")
	should.Equal(t, gateway.StatusCompleted, fake.Sessions[planned.ID].Status)
}

func TestUpdateSessionsStatusRefusesInProgress(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	planned, err := fake.CreateSession(ctx, testCaller, "2026-03-01", "")
	must.NoError(t, err)

	res, err := facade.UpdateSessionsStatus(ctx, testCaller, []int64{planned.ID}, gateway.StatusInProgress, "")
	must.NoError(t, err)

	should.Empty(t, res.Succeeded)
	must.Len(t, res.Failed, 1)
	should.Equal(t, gateway.StatusPlanned, fake.Sessions[planned.ID].Status, "the session must stay untouched")
}

func TestUpdateSessionStatusRange(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	inRange1, err := fake.CreateSession(ctx, testCaller, "2026-03-01", "")
	must.NoError(t, err)
	inRange2, err := fake.CreateSession(ctx, testCaller, "2026-03-03", "")
	must.NoError(t, err)
	outside, err := fake.CreateSession(ctx, testCaller, "2026-03-10", "")
	must.NoError(t, err)

	res, err := facade.UpdateSessionStatusRange(ctx, testCaller, "2026-03-01", "2026-03-05", gateway.StatusCompleted, "week wrap-up")
	must.NoError(t, err)

	should.Equal(t, []int64{inRange1.ID, inRange2.ID}, res.Succeeded)
	should.Empty(t, res.Failed)
	should.Equal(t, gateway.StatusCompleted, fake.Sessions[inRange1.ID].Status)
	should.Equal(t, gateway.StatusCompleted, fake.Sessions[inRange2.ID].Status)
	should.Equal(t, gateway.StatusPlanned, fake.Sessions[outside.ID].Status, "sessions outside the range are untouched")
}

func TestGetSessionLog(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	fake.Exercises = []gateway.CatalogEntry{{ID: 1, Name: "Squat"}}
	facade, _ := newTestFacade(fake)

	_, err := facade.GetSessionLog(ctx, testCaller, "2026-03-10")
	must.ErrorIs(t, err, lifecycle.ErrNotFound)

	added, err := facade.AddExercises(ctx, testCaller, "2026-03-10", []agent.ExerciseRequest{{Name: "Squat", Kind: gateway.ExerciseStrength}})
	must.NoError(t, err)
	detail := added.Outcomes[0].Detail
	_, err = facade.PlanSets(ctx, testCaller, added.Session.ID, detail.ID, []lifecycle.PlannedSet{{Reps: 5, WeightKg: 100}})
	must.NoError(t, err)

	log, err := facade.GetSessionLog(ctx, testCaller, "2026-03-10")
	must.NoError(t, err)
	should.Equal(t, added.Session.ID, log.Session.ID)
	must.Len(t, log.Exercises, 1)
	must.Len(t, log.Exercises[0].Sets, 1)
	should.Equal(t, gateway.StatusPlanned, log.Exercises[0].Sets[0].Status)
}

func TestUpdateServingsDeduplicatesChanges(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	meal, err := fake.CreateMeal(ctx, testCaller, "2026-03-10", gateway.MealLunch, "")
	must.NoError(t, err)
	details, err := fake.AttachFoods(ctx, testCaller, meal.ID, []gateway.FoodServing{{FoodID: 11, NumberOfServings: 1}})
	must.NoError(t, err)
	detailID := details[0].ID

	res, err := facade.UpdateServings(ctx, testCaller, meal.ID, []agent.ServingChange{
		{MealDetailID: detailID, Servings: 2},
		{MealDetailID: detailID, Servings: 3.5},
	})
	must.NoError(t, err)

	should.Equal(t, []int64{detailID}, res.Succeeded, "duplicate ids collapse to one outcome")
	should.Empty(t, res.Failed)
	should.Equal(t, "1 of 1 succeeded", res.Summary())
	should.InDelta(t, 3.5, fake.MealItems[detailID].NumberOfServings, 0.001, "the last change wins")

	updates := 0
	for _, call := range fake.Calls {
		if call == "UpdateMealDetail" {
			updates++
		}
	}
	should.Equal(t, 1, updates, "the duplicate id must be dispatched once")
}

func TestListMonthSessions(t *testing.T) {
	ctx := context.Background()
	fake := gateway.NewFake()
	facade, _ := newTestFacade(fake)

	for _, date := range []string{"2026-03-02", "2026-03-15", "2026-04-01"} {
		_, err := facade.StartWorkout(ctx, testCaller, date, "")
		must.NoError(t, err)
	}

	sessions, err := facade.ListMonthSessions(ctx, testCaller, "2026-03")
	must.NoError(t, err)
	must.Len(t, sessions, 2)
	should.Equal(t, "2026-03-02", sessions[0].ScheduledDate)
	should.Equal(t, "2026-03-15", sessions[1].ScheduledDate)

	sessions, err = facade.ListMonthSessions(ctx, testCaller, "2026-05")
	must.NoError(t, err)
	should.Empty(t, sessions)
}
