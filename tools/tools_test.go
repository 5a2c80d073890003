package tools

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestRegistry(t *testing.T) (*Registry, *gateway.Fake) {
	t.Helper()
	fake := gateway.NewFake()
	fake.Exercises = []gateway.CatalogEntry{
		{ID: 1, Name: "Squat"},
		{ID: 2, Name: "Jump Squat"},
	}
	fake.Foods = []gateway.CatalogEntry{
		{ID: 11, Name: "Chicken Breast"},
	}
	engine := lifecycle.NewEngine(fake, fixedClock)
	facade := agent.New(fake, engine, bulk.New(2, time.Second), nil)
	registry, err := NewRegistry(facade)
	must.NoError(t, err)
	return registry, fake
}

func withTestCaller(input map[string]any) map[string]any {
	input["user_id"] = 7.0
	input["auth_token"] = "test-token"
	return input
}

func TestNewRegistry(t *testing.T) {
	registry, _ := newTestRegistry(t)

	wantTools := []string{
		"session_start", "session_complete", "session_delete", "session_status_update", "session_log_get",
		"exercise_add", "set_plan", "set_record",
		"meal_log", "food_add", "food_remove", "serving_update", "meal_delete",
	}
	should.Len(t, registry.GetTools(), len(wantTools))
	for _, name := range wantTools {
		tool, err := registry.GetTool(name)
		must.NoError(t, err, name)
		should.Equal(t, name, tool.Name())
		should.NotEmpty(t, tool.Description(), name)
	}

	_, err := registry.GetTool("nope")
	must.Error(t, err)

	_, err = NewRegistry(nil)
	must.Error(t, err)
}

func TestEveryToolRequiresCallerIdentity(t *testing.T) {
	registry, _ := newTestRegistry(t)

	for _, tool := range registry.GetTools() {
		t.Run(tool.Name(), func(t *testing.T) {
			schema := tool.InputSchema()
			should.Contains(t, schema.Required, "user_id")
			should.Contains(t, schema.Required, "auth_token")

			_, err := tool.Run(context.Background(), map[string]any{})
			must.ErrorIs(t, err, errMissingCaller, "a call without identity must be refused before any backend call")
		})
	}
}

func TestSessionStartRun(t *testing.T) {
	registry, fake := newTestRegistry(t)
	tool, err := registry.GetTool("session_start")
	must.NoError(t, err)

	output, err := tool.Run(context.Background(), withTestCaller(map[string]any{
		"date":  "2026-03-10",
		"notes": "push day",
	}))
	must.NoError(t, err)

	should.Equal(t, "2026-03-10", output["scheduled_date"])
	should.Equal(t, string(gateway.StatusPlanned), output["status"])
	should.Equal(t, float64(7), output["user_id"])
	should.Len(t, fake.Sessions, 1)

	// Same date again reuses the session.
	again, err := tool.Run(context.Background(), withTestCaller(map[string]any{"date": "2026-03-10"}))
	must.NoError(t, err)
	should.Equal(t, output["session_id"], again["session_id"])
	should.Len(t, fake.Sessions, 1)
}

func TestExerciseAddRun(t *testing.T) {
	registry, fake := newTestRegistry(t)
	tool, err := registry.GetTool("exercise_add")
	must.NoError(t, err)

	output, err := tool.Run(context.Background(), withTestCaller(map[string]any{
		"date":      "2026-03-10",
		"exercises": []any{map[string]any{"name": "Squat", "type": "Strength"}},
	}))
	must.NoError(t, err)

	outcomes, ok := output["outcomes"].([]any)
	must.True(t, ok)
	must.Len(t, outcomes, 1)
	first, ok := outcomes[0].(map[string]any)
	must.True(t, ok)
	should.Equal(t, "resolved", first["state"])
	should.Len(t, fake.Details, 1)
}

func TestSessionDeleteRun(t *testing.T) {
	registry, fake := newTestRegistry(t)
	tool, err := registry.GetTool("session_delete")
	must.NoError(t, err)

	ctx := context.Background()
	caller := gateway.Caller{UserID: 7, Token: "test-token"}
	a, err := fake.CreateSession(ctx, caller, "2026-03-01", "")
	must.NoError(t, err)
	b, err := fake.CreateSession(ctx, caller, "2026-03-02", "")
	must.NoError(t, err)

	tests := []struct {
		name  string
		input map[string]any
	}{
		{
			name:  "by explicit ids",
			input: map[string]any{"session_ids": []any{float64(a.ID)}},
		},
		{
			name:  "by date range",
			input: map[string]any{"start_date": "2026-03-02", "end_date": "2026-03-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := tool.Run(ctx, withTestCaller(tt.input))
			must.NoError(t, err)
			succeeded, ok := output["succeeded"].([]any)
			must.True(t, ok)
			should.Len(t, succeeded, 1)
		})
	}

	should.NotContains(t, fake.Sessions, a.ID)
	should.NotContains(t, fake.Sessions, b.ID)
}

func TestSessionStatusUpdateRun(t *testing.T) {
	registry, fake := newTestRegistry(t)
	tool, err := registry.GetTool("session_status_update")
	must.NoError(t, err)

	should.Equal(t, []any{string(gateway.StatusCompleted)}, tool.InputSchema().Properties["status"].Enum,
		"in progress is inferred from set execution and must not be requestable")

	ctx := context.Background()
	caller := gateway.Caller{UserID: 7, Token: "test-token"}
	a, err := fake.CreateSession(ctx, caller, "2026-03-01", "")
	must.NoError(t, err)
	b, err := fake.CreateSession(ctx, caller, "2026-03-02", "")
	must.NoError(t, err)

	tests := []struct {
		name   string
		input  map[string]any
		wantID int64
	}{
		{
			name:   "by explicit ids",
			input:  map[string]any{"session_ids": []any{float64(a.ID)}, "status": "Completed"},
			wantID: a.ID,
		},
		{
			name:   "by date range",
			input:  map[string]any{"start_date": "2026-03-02", "end_date": "2026-03-02", "status": "Completed"},
			wantID: b.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := tool.Run(ctx, withTestCaller(tt.input))
			must.NoError(t, err)
			succeeded, ok := output["succeeded"].([]any)
			must.True(t, ok)
			should.Equal(t, []any{float64(tt.wantID)}, succeeded)
			should.Equal(t, gateway.StatusCompleted, fake.Sessions[tt.wantID].Status)
		})
	}
}

func TestMealLogRun(t *testing.T) {
	registry, fake := newTestRegistry(t)
	mealLog, err := registry.GetTool("meal_log")
	must.NoError(t, err)
	foodAdd, err := registry.GetTool("food_add")
	must.NoError(t, err)

	output, err := mealLog.Run(context.Background(), withTestCaller(map[string]any{
		"date":      "2026-03-10",
		"meal_type": "Lunch",
	}))
	must.NoError(t, err)
	should.Equal(t, true, output["created"])

	meal, ok := output["meal"].(map[string]any)
	must.True(t, ok)
	mealID := meal["meal_id"]

	_, err = foodAdd.Run(context.Background(), withTestCaller(map[string]any{
		"meal_id": mealID,
		"foods":   []any{map[string]any{"name": "chicken breast", "servings": 2.0}},
	}))
	must.NoError(t, err)
	should.Len(t, fake.MealItems, 1)

	// Logging the same meal again surfaces the clarification outcome.
	again, err := mealLog.Run(context.Background(), withTestCaller(map[string]any{
		"date":      "2026-03-10",
		"meal_type": "Lunch",
	}))
	must.NoError(t, err)
	should.Equal(t, false, again["created"])
	existing, ok := again["existing"].([]any)
	must.True(t, ok)
	should.Len(t, existing, 1)
}

func TestSetPlanAndRecordRun(t *testing.T) {
	registry, fake := newTestRegistry(t)
	ctx := context.Background()

	exerciseAdd, err := registry.GetTool("exercise_add")
	must.NoError(t, err)
	added, err := exerciseAdd.Run(ctx, withTestCaller(map[string]any{
		"date":      "2026-03-10",
		"exercises": []any{map[string]any{"name": "Squat", "type": "Strength"}},
	}))
	must.NoError(t, err)

	session := added["session"].(map[string]any)
	outcome := added["outcomes"].([]any)[0].(map[string]any)
	detail := outcome["detail"].(map[string]any)

	setPlan, err := registry.GetTool("set_plan")
	must.NoError(t, err)
	planned, err := setPlan.Run(ctx, withTestCaller(map[string]any{
		"session_id":        session["session_id"],
		"session_detail_id": detail["session_detail_id"],
		"sets":              []any{map[string]any{"planned_reps": 5.0, "weight_kg": 100.0}},
	}))
	must.NoError(t, err)

	sets := planned["sets"].([]any)
	must.Len(t, sets, 1)
	firstSet := sets[0].(map[string]any)
	should.Equal(t, string(gateway.StatusPlanned), firstSet["status"])

	setRecord, err := registry.GetTool("set_record")
	must.NoError(t, err)
	recorded, err := setRecord.Run(ctx, withTestCaller(map[string]any{
		"session_id":        session["session_id"],
		"session_detail_id": detail["session_detail_id"],
		"set_id":            firstSet["set_id"],
		"actual_reps":       5.0,
		"weight_kg":         102.5,
		"completed":         true,
	}))
	must.NoError(t, err)
	recordedSet := recorded["set"].(map[string]any)
	should.Equal(t, string(gateway.StatusCompleted), recordedSet["status"])

	// Executing the first set pulled the session into progress.
	for _, s := range fake.Sessions {
		should.Equal(t, gateway.StatusInProgress, s.Status)
	}
}

func TestInstrumentedToolDelegates(t *testing.T) {
	registry, _ := newTestRegistry(t)

	tracer := sdktrace.NewTracerProvider().Tracer("test")
	meter := sdkmetric.NewMeterProvider().Meter("test")
	instrumented := InstrumentRegistry(registry, tracer, meter)

	should.Len(t, instrumented.GetTools(), len(registry.GetTools()))

	tool, err := instrumented.GetTool("session_start")
	must.NoError(t, err)
	should.Equal(t, "session_start", tool.Name())

	output, err := tool.Run(context.Background(), withTestCaller(map[string]any{"date": "2026-03-10"}))
	must.NoError(t, err)
	should.Equal(t, "2026-03-10", output["scheduled_date"])

	_, err = tool.Run(context.Background(), map[string]any{})
	must.ErrorIs(t, err, errMissingCaller, "errors pass through the decorator unchanged")
}
