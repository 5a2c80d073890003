package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Fake is an in-memory API implementation for tests. It hands out
// ascending ids the way the real backend does and supports per-operation
// failure injection via FailOn.
type Fake struct {
	mu     sync.Mutex
	nextID int64

	Sessions  map[int64]Session
	Details   map[int64]SessionDetail
	Sets      map[int64]SetLog
	Meals     map[int64]Meal
	MealItems map[int64]MealDetail
	Exercises []CatalogEntry
	Foods     []CatalogEntry

	// FailOn maps an operation name (e.g. "DeleteSession") to an error.
	// When the error is keyed by "op/id" it only fires for that id.
	FailOn map[string]error

	// Calls records operation names in invocation order.
	Calls []string
}

func NewFake() *Fake {
	return &Fake{
		Sessions:  map[int64]Session{},
		Details:   map[int64]SessionDetail{},
		Sets:      map[int64]SetLog{},
		Meals:     map[int64]Meal{},
		MealItems: map[int64]MealDetail{},
		FailOn:    map[string]error{},
	}
}

func (f *Fake) fail(op string, id int64) error {
	if err, ok := f.FailOn[fmt.Sprintf("%s/%d", op, id)]; ok {
		return err
	}
	if err, ok := f.FailOn[op]; ok {
		return err
	}
	return nil
}

func (f *Fake) begin(op string, id int64) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, op)
	err := f.fail(op, id)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

func notFound(kind string, id int64) error {
	return &Error{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("%s %d not found", kind, id)}
}

func (f *Fake) CreateSession(ctx context.Context, caller Caller, date, notes string) (Session, error) {
	if err := f.begin("CreateSession", 0); err != nil {
		return Session{}, err
	}
	defer f.mu.Unlock()
	s := Session{ID: f.id(), UserID: caller.UserID, ScheduledDate: date, Status: StatusPlanned, Notes: notes}
	f.Sessions[s.ID] = s
	return s, nil
}

func (f *Fake) SessionByID(ctx context.Context, caller Caller, sessionID int64) (Session, error) {
	if err := f.begin("SessionByID", sessionID); err != nil {
		return Session{}, err
	}
	defer f.mu.Unlock()
	s, ok := f.Sessions[sessionID]
	if !ok {
		return Session{}, notFound("session", sessionID)
	}
	return s, nil
}

func (f *Fake) SessionsByDate(ctx context.Context, caller Caller, date string) ([]Session, error) {
	if err := f.begin("SessionsByDate", 0); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.Sessions {
		if s.UserID == caller.UserID && s.ScheduledDate == date {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

func (f *Fake) SessionsByMonth(ctx context.Context, caller Caller, month string) ([]Session, error) {
	if err := f.begin("SessionsByMonth", 0); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.Sessions {
		if s.UserID == caller.UserID && len(s.ScheduledDate) >= 7 && s.ScheduledDate[:7] == month {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

func (f *Fake) UpdateSessionStatus(ctx context.Context, caller Caller, sessionID int64, status Status, note string) error {
	if err := f.begin("UpdateSessionStatus", sessionID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	s, ok := f.Sessions[sessionID]
	if !ok {
		return notFound("session", sessionID)
	}
	s.Status = status
	if note != "" {
		s.Notes = note
	}
	f.Sessions[sessionID] = s
	return nil
}

func (f *Fake) DeleteSession(ctx context.Context, caller Caller, sessionID int64) error {
	if err := f.begin("DeleteSession", sessionID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Sessions[sessionID]; !ok {
		return notFound("session", sessionID)
	}
	delete(f.Sessions, sessionID)
	return nil
}

func (f *Fake) AttachExercises(ctx context.Context, caller Caller, sessionID int64, exercises []ExerciseRef) ([]SessionDetail, error) {
	if err := f.begin("AttachExercises", sessionID); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	if _, ok := f.Sessions[sessionID]; !ok {
		return nil, notFound("session", sessionID)
	}
	out := make([]SessionDetail, 0, len(exercises))
	for _, ex := range exercises {
		d := SessionDetail{ID: f.id(), SessionID: sessionID, ExerciseID: ex.ExerciseID, ExerciseType: ex.ExerciseType}
		f.Details[d.ID] = d
		out = append(out, d)
	}
	return out, nil
}

func (f *Fake) SessionDetails(ctx context.Context, caller Caller, sessionID int64) ([]SessionDetail, error) {
	if err := f.begin("SessionDetails", sessionID); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []SessionDetail
	for _, d := range f.Details {
		if d.SessionID == sessionID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) DeleteSessionDetail(ctx context.Context, caller Caller, sessionDetailID int64) error {
	if err := f.begin("DeleteSessionDetail", sessionDetailID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Details[sessionDetailID]; !ok {
		return notFound("session detail", sessionDetailID)
	}
	delete(f.Details, sessionDetailID)
	return nil
}

func (f *Fake) CreateSetLogs(ctx context.Context, caller Caller, sessionDetailID int64, planned []SetLog) ([]SetLog, error) {
	if err := f.begin("CreateSetLogs", sessionDetailID); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	if _, ok := f.Details[sessionDetailID]; !ok {
		return nil, notFound("session detail", sessionDetailID)
	}
	out := make([]SetLog, 0, len(planned))
	for _, p := range planned {
		p.ID = f.id()
		p.SessionDetailID = sessionDetailID
		f.Sets[p.ID] = p
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) UpdateSetLog(ctx context.Context, caller Caller, set SetLog) (SetLog, error) {
	if err := f.begin("UpdateSetLog", set.ID); err != nil {
		return SetLog{}, err
	}
	defer f.mu.Unlock()
	if _, ok := f.Sets[set.ID]; !ok {
		return SetLog{}, notFound("set log", set.ID)
	}
	f.Sets[set.ID] = set
	return set, nil
}

func (f *Fake) DeleteSetLog(ctx context.Context, caller Caller, setID int64) error {
	if err := f.begin("DeleteSetLog", setID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Sets[setID]; !ok {
		return notFound("set log", setID)
	}
	delete(f.Sets, setID)
	return nil
}

func (f *Fake) SetLogs(ctx context.Context, caller Caller, sessionDetailID int64) ([]SetLog, error) {
	if err := f.begin("SetLogs", sessionDetailID); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []SetLog
	for _, s := range f.Sets {
		if s.SessionDetailID == sessionDetailID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) CreateMeal(ctx context.Context, caller Caller, date string, mealType MealType, notes string) (Meal, error) {
	if err := f.begin("CreateMeal", 0); err != nil {
		return Meal{}, err
	}
	defer f.mu.Unlock()
	m := Meal{ID: f.id(), UserID: caller.UserID, LogDate: date, MealType: mealType, Notes: notes}
	f.Meals[m.ID] = m
	return m, nil
}

func (f *Fake) MealsByDate(ctx context.Context, caller Caller, date string, mealType MealType) ([]Meal, error) {
	if err := f.begin("MealsByDate", 0); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []Meal
	for _, m := range f.Meals {
		if m.UserID != caller.UserID || m.LogDate != date {
			continue
		}
		if mealType != "" && m.MealType != mealType {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) DeleteMeal(ctx context.Context, caller Caller, mealID int64) error {
	if err := f.begin("DeleteMeal", mealID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.Meals[mealID]; !ok {
		return notFound("meal", mealID)
	}
	delete(f.Meals, mealID)
	return nil
}

func (f *Fake) AttachFoods(ctx context.Context, caller Caller, mealID int64, foods []FoodServing) ([]MealDetail, error) {
	if err := f.begin("AttachFoods", mealID); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	if _, ok := f.Meals[mealID]; !ok {
		return nil, notFound("meal", mealID)
	}
	out := make([]MealDetail, 0, len(foods))
	for _, fd := range foods {
		d := MealDetail{ID: f.id(), MealID: mealID, FoodID: fd.FoodID, NumberOfServings: fd.NumberOfServings}
		f.MealItems[d.ID] = d
		out = append(out, d)
	}
	return out, nil
}

func (f *Fake) MealDetails(ctx context.Context, caller Caller, mealID int64) ([]MealDetail, error) {
	if err := f.begin("MealDetails", mealID); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []MealDetail
	for _, d := range f.MealItems {
		if d.MealID == mealID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) UpdateMealDetail(ctx context.Context, caller Caller, detail MealDetail) error {
	if err := f.begin("UpdateMealDetail", detail.ID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.MealItems[detail.ID]; !ok {
		return notFound("meal detail", detail.ID)
	}
	f.MealItems[detail.ID] = detail
	return nil
}

func (f *Fake) DeleteMealDetail(ctx context.Context, caller Caller, mealDetailID int64) error {
	if err := f.begin("DeleteMealDetail", mealDetailID); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if _, ok := f.MealItems[mealDetailID]; !ok {
		return notFound("meal detail", mealDetailID)
	}
	delete(f.MealItems, mealDetailID)
	return nil
}

func (f *Fake) SearchExercises(ctx context.Context, caller Caller, name string) ([]CatalogEntry, error) {
	if err := f.begin("SearchExercises", 0); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return searchByName(f.Exercises, name), nil
}

func (f *Fake) SearchFoods(ctx context.Context, caller Caller, name string) ([]CatalogEntry, error) {
	if err := f.begin("SearchFoods", 0); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return searchByName(f.Foods, name), nil
}

func sortSessions(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
}

func searchByName(entries []CatalogEntry, name string) []CatalogEntry {
	out := make([]CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if containsFold(e.Name, name) {
			out = append(out, e)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
