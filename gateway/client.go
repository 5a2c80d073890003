package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the REST implementation of API.
type Client struct {
	baseURL    string
	httpClient doer
}

func NewClient(baseURL string, httpClient doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Err     string          `json:"error"`
}

func (c *Client) call(ctx context.Context, caller Caller, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+caller.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	var env envelope
	if len(raw) > 0 {
		// Tolerate empty bodies; anything else must be the envelope.
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Err
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

func userQuery(caller Caller) url.Values {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(caller.UserID, 10))
	return q
}

func (c *Client) CreateSession(ctx context.Context, caller Caller, date, notes string) (Session, error) {
	body := map[string]any{"user_id": caller.UserID, "scheduled_date": date}
	if notes != "" {
		body["notes"] = notes
	}
	var s Session
	if err := c.call(ctx, caller, http.MethodPost, "/api/ai/sessions", nil, body, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (c *Client) SessionByID(ctx context.Context, caller Caller, sessionID int64) (Session, error) {
	q := userQuery(caller)
	q.Set("session_id", strconv.FormatInt(sessionID, 10))
	var sessions []Session
	if err := c.call(ctx, caller, http.MethodGet, "/api/workouts", q, nil, &sessions); err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, &Error{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("session %d not found", sessionID)}
	}
	return sessions[0], nil
}

func (c *Client) SessionsByDate(ctx context.Context, caller Caller, date string) ([]Session, error) {
	q := userQuery(caller)
	q.Set("date", date)
	var sessions []Session
	if err := c.call(ctx, caller, http.MethodGet, "/api/workouts", q, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) SessionsByMonth(ctx context.Context, caller Caller, month string) ([]Session, error) {
	q := userQuery(caller)
	q.Set("month", month)
	var sessions []Session
	if err := c.call(ctx, caller, http.MethodGet, "/api/workouts", q, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) UpdateSessionStatus(ctx context.Context, caller Caller, sessionID int64, status Status, note string) error {
	body := map[string]any{
		"session_id": sessionID,
		"userId":     caller.UserID,
		"status":     status,
	}
	if note != "" {
		body["note"] = note
	}
	return c.call(ctx, caller, http.MethodPut, "/api/workouts", nil, body, nil)
}

func (c *Client) DeleteSession(ctx context.Context, caller Caller, sessionID int64) error {
	body := map[string]any{"session_ids": []int64{sessionID}}
	return c.call(ctx, caller, http.MethodDelete, "/ai/workout-sessions", nil, body, nil)
}

func (c *Client) AttachExercises(ctx context.Context, caller Caller, sessionID int64, exercises []ExerciseRef) ([]SessionDetail, error) {
	body := map[string]any{"session_id": sessionID, "exercises": exercises}
	var details []SessionDetail
	if err := c.call(ctx, caller, http.MethodPost, "/api/ai/session-details", nil, body, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (c *Client) SessionDetails(ctx context.Context, caller Caller, sessionID int64) ([]SessionDetail, error) {
	var details []SessionDetail
	path := "/api/ai/session-details/" + strconv.FormatInt(sessionID, 10)
	if err := c.call(ctx, caller, http.MethodGet, path, nil, nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (c *Client) DeleteSessionDetail(ctx context.Context, caller Caller, sessionDetailID int64) error {
	body := map[string]any{"session_detail_ids": []int64{sessionDetailID}}
	return c.call(ctx, caller, http.MethodDelete, "/api/ai/session-details", nil, body, nil)
}

func (c *Client) CreateSetLogs(ctx context.Context, caller Caller, sessionDetailID int64, planned []SetLog) ([]SetLog, error) {
	body := map[string]any{"session_detail_id": sessionDetailID, "planned_detail": planned}
	var sets []SetLog
	if err := c.call(ctx, caller, http.MethodPost, "/ai/workout-sessions/logs", nil, body, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *Client) UpdateSetLog(ctx context.Context, caller Caller, set SetLog) (SetLog, error) {
	var updated SetLog
	if err := c.call(ctx, caller, http.MethodPut, "/workout/logs", nil, set, &updated); err != nil {
		return SetLog{}, err
	}
	return updated, nil
}

func (c *Client) DeleteSetLog(ctx context.Context, caller Caller, setID int64) error {
	body := map[string]any{"set_ids": []int64{setID}}
	return c.call(ctx, caller, http.MethodDelete, "/workout/logs", nil, body, nil)
}

func (c *Client) SetLogs(ctx context.Context, caller Caller, sessionDetailID int64) ([]SetLog, error) {
	var sets []SetLog
	path := "/workout/logs/" + strconv.FormatInt(sessionDetailID, 10)
	if err := c.call(ctx, caller, http.MethodGet, path, nil, nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *Client) CreateMeal(ctx context.Context, caller Caller, date string, mealType MealType, notes string) (Meal, error) {
	body := map[string]any{"user_id": caller.UserID, "log_date": date, "meal_type": mealType}
	if notes != "" {
		body["notes"] = notes
	}
	var m Meal
	if err := c.call(ctx, caller, http.MethodPost, "/api/ai/meals", nil, body, &m); err != nil {
		return Meal{}, err
	}
	return m, nil
}

func (c *Client) MealsByDate(ctx context.Context, caller Caller, date string, mealType MealType) ([]Meal, error) {
	q := userQuery(caller)
	q.Set("log_date", date)
	if mealType != "" {
		q.Set("meal_type", string(mealType))
	}
	var meals []Meal
	if err := c.call(ctx, caller, http.MethodGet, "/api/ai/meals", q, nil, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (c *Client) DeleteMeal(ctx context.Context, caller Caller, mealID int64) error {
	body := map[string]any{"meal_ids": []int64{mealID}}
	return c.call(ctx, caller, http.MethodDelete, "/api/ai/meals", nil, body, nil)
}

func (c *Client) AttachFoods(ctx context.Context, caller Caller, mealID int64, foods []FoodServing) ([]MealDetail, error) {
	body := map[string]any{"meal_id": mealID, "food_ids": foods}
	var details []MealDetail
	if err := c.call(ctx, caller, http.MethodPost, "/api/ai/meal-foods", nil, body, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (c *Client) MealDetails(ctx context.Context, caller Caller, mealID int64) ([]MealDetail, error) {
	var details []MealDetail
	path := "/api/ai/meal-foods/" + strconv.FormatInt(mealID, 10)
	if err := c.call(ctx, caller, http.MethodGet, path, nil, nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (c *Client) UpdateMealDetail(ctx context.Context, caller Caller, detail MealDetail) error {
	return c.call(ctx, caller, http.MethodPut, "/api/ai/meal-foods", nil, detail, nil)
}

func (c *Client) DeleteMealDetail(ctx context.Context, caller Caller, mealDetailID int64) error {
	body := map[string]any{"meal_detail_ids": []int64{mealDetailID}}
	return c.call(ctx, caller, http.MethodDelete, "/api/ai/meal-foods", nil, body, nil)
}

func (c *Client) SearchExercises(ctx context.Context, caller Caller, name string) ([]CatalogEntry, error) {
	q := url.Values{}
	q.Set("name", name)
	var raw []struct {
		ExerciseID int64  `json:"exercise_id"`
		Name       string `json:"name"`
	}
	if err := c.call(ctx, caller, http.MethodGet, "/api/exercises", q, nil, &raw); err != nil {
		return nil, err
	}
	entries := make([]CatalogEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, CatalogEntry{ID: r.ExerciseID, Name: r.Name})
	}
	return entries, nil
}

func (c *Client) SearchFoods(ctx context.Context, caller Caller, name string) ([]CatalogEntry, error) {
	q := url.Values{}
	q.Set("name", name)
	var raw []struct {
		FoodID             int64   `json:"food_id"`
		Name               string  `json:"name"`
		CaloriesPerServing float64 `json:"calories_per_serving"`
		ProteinPerServing  float64 `json:"protein_per_serving"`
		CarbsPerServing    float64 `json:"carbs_per_serving"`
		FatPerServing      float64 `json:"fat_per_serving"`
		ServingType        string  `json:"serving_type"`
	}
	if err := c.call(ctx, caller, http.MethodGet, "/api/foods", q, nil, &raw); err != nil {
		return nil, err
	}
	entries := make([]CatalogEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, CatalogEntry{
			ID:                 r.FoodID,
			Name:               r.Name,
			CaloriesPerServing: r.CaloriesPerServing,
			ProteinPerServing:  r.ProteinPerServing,
			CarbsPerServing:    r.CarbsPerServing,
			FatPerServing:      r.FatPerServing,
			ServingType:        r.ServingType,
		})
	}
	return entries, nil
}
