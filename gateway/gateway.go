// Package gateway is the client for the fitness backend, the system of
// record for workout sessions, set logs, meals, and the exercise/food
// catalogs. The engine only ever talks to the backend through the API
// interface; ids are assigned by the backend and round-tripped as-is.
package gateway

import (
	"context"
	"fmt"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Status is the lifecycle state shared by sessions and set logs.
// It only ever moves forward.
type Status string

const (
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Rank orders statuses for forward-only transition checks.
func (s Status) Rank() int {
	switch s {
	case StatusPlanned:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
)

type ExerciseType string

const (
	ExerciseStrength ExerciseType = "Strength"
	ExerciseCardio   ExerciseType = "Cardio"
)

// Caller identifies who every backend call is made on behalf of. There is
// no default user and no default token; both travel with each call.
type Caller struct {
	UserID int64
	Token  string
}

type Session struct {
	ID            int64  `json:"session_id"`
	UserID        int64  `json:"user_id"`
	ScheduledDate string `json:"scheduled_date"`
	Status        Status `json:"status"`
	Notes         string `json:"notes,omitempty"`
}

type SessionDetail struct {
	ID           int64        `json:"session_detail_id"`
	SessionID    int64        `json:"session_id"`
	ExerciseID   int64        `json:"exercise_id"`
	ExerciseType ExerciseType `json:"exercise_type"`
}

type SetLog struct {
	ID              int64   `json:"set_id"`
	SessionDetailID int64   `json:"session_detail_id"`
	PlannedReps     int     `json:"planned_rep"`
	ActualReps      int     `json:"actual_rep"`
	WeightKg        float64 `json:"weight_kg,omitempty"`
	DurationSeconds int     `json:"duration_seconds"`
	Status          Status  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
}

type Meal struct {
	ID       int64    `json:"meal_id"`
	UserID   int64    `json:"user_id"`
	LogDate  string   `json:"log_date"`
	MealType MealType `json:"meal_type"`
	Notes    string   `json:"notes,omitempty"`
}

type MealDetail struct {
	ID               int64   `json:"meal_detail_id"`
	MealID           int64   `json:"meal_id"`
	FoodID           int64   `json:"food_id"`
	NumberOfServings float64 `json:"number_of_servings"`
}

// CatalogEntry is a row from the exercise or food catalog. The nutritional
// fields are only populated for foods.
type CatalogEntry struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CaloriesPerServing float64 `json:"calories_per_serving,omitempty"`
	ProteinPerServing  float64 `json:"protein_per_serving,omitempty"`
	CarbsPerServing    float64 `json:"carbs_per_serving,omitempty"`
	FatPerServing      float64 `json:"fat_per_serving,omitempty"`
	ServingType        string  `json:"serving_type,omitempty"`
}

// ExerciseRef names an exercise to attach to a session.
type ExerciseRef struct {
	ExerciseID   int64        `json:"exercise_id"`
	ExerciseType ExerciseType `json:"exercise_type"`
}

// FoodServing names a food to attach to a meal with its serving count.
type FoodServing struct {
	FoodID           int64   `json:"food_id"`
	NumberOfServings float64 `json:"number_of_serving"`
}

// API is the backend capability surface the engine depends on.
type API interface {
	CreateSession(ctx context.Context, caller Caller, date, notes string) (Session, error)
	SessionByID(ctx context.Context, caller Caller, sessionID int64) (Session, error)
	SessionsByDate(ctx context.Context, caller Caller, date string) ([]Session, error)
	SessionsByMonth(ctx context.Context, caller Caller, month string) ([]Session, error)
	UpdateSessionStatus(ctx context.Context, caller Caller, sessionID int64, status Status, note string) error
	DeleteSession(ctx context.Context, caller Caller, sessionID int64) error

	AttachExercises(ctx context.Context, caller Caller, sessionID int64, exercises []ExerciseRef) ([]SessionDetail, error)
	SessionDetails(ctx context.Context, caller Caller, sessionID int64) ([]SessionDetail, error)
	DeleteSessionDetail(ctx context.Context, caller Caller, sessionDetailID int64) error

	CreateSetLogs(ctx context.Context, caller Caller, sessionDetailID int64, planned []SetLog) ([]SetLog, error)
	UpdateSetLog(ctx context.Context, caller Caller, set SetLog) (SetLog, error)
	DeleteSetLog(ctx context.Context, caller Caller, setID int64) error
	SetLogs(ctx context.Context, caller Caller, sessionDetailID int64) ([]SetLog, error)

	CreateMeal(ctx context.Context, caller Caller, date string, mealType MealType, notes string) (Meal, error)
	MealsByDate(ctx context.Context, caller Caller, date string, mealType MealType) ([]Meal, error)
	DeleteMeal(ctx context.Context, caller Caller, mealID int64) error

	AttachFoods(ctx context.Context, caller Caller, mealID int64, foods []FoodServing) ([]MealDetail, error)
	MealDetails(ctx context.Context, caller Caller, mealID int64) ([]MealDetail, error)
	UpdateMealDetail(ctx context.Context, caller Caller, detail MealDetail) error
	DeleteMealDetail(ctx context.Context, caller Caller, mealDetailID int64) error

	SearchExercises(ctx context.Context, caller Caller, name string) ([]CatalogEntry, error)
	SearchFoods(ctx context.Context, caller Caller, name string) ([]CatalogEntry, error)
}

// Error is a non-2xx backend response. Status and message are carried
// through verbatim; the engine never rewrites backend error text.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %d %s", e.StatusCode, e.Message)
}
