package agent

import (
	"context"
	"fmt"
	"log/slog"

	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
	"fitagent/resolve"
)

// AttachOutcome is the per-name result of an exercise attach: either a
// session detail, or the resolution that needs the user's input.
type AttachOutcome struct {
	Query      string                 `json:"query"`
	Detail     *gateway.SessionDetail `json:"detail,omitempty"`
	Resolution resolve.Resolution     `json:"-"`
	State      string                 `json:"state"`
	Candidates []gateway.CatalogEntry `json:"candidates,omitempty"`
}

// AddExercisesResult reports the session used and one outcome per
// requested name. Unresolved names never abort resolved siblings.
type AddExercisesResult struct {
	Session  gateway.Session `json:"session"`
	Outcomes []AttachOutcome `json:"outcomes"`
}

// StartWorkout is the check-first session workflow: it reuses the
// caller's session for the date or creates one.
func (f *Facade) StartWorkout(ctx context.Context, caller gateway.Caller, date, notes string) (gateway.Session, error) {
	session, err := f.engine.EnsureSession(ctx, caller, date, notes)
	f.logOp("workout.start", caller, map[string]any{"date": date}, session, err)
	return session, err
}

// AddExercises ensures the date's session, then search→resolve→attach for
// every name. Exercise kind comes with each request since the catalog
// search does not carry it.
type ExerciseRequest struct {
	Name string
	Kind gateway.ExerciseType
}

func (f *Facade) AddExercises(ctx context.Context, caller gateway.Caller, date string, requests []ExerciseRequest) (AddExercisesResult, error) {
	session, err := f.engine.EnsureSession(ctx, caller, date, "")
	if err != nil {
		f.logOp("workout.add_exercises", caller, map[string]any{"date": date}, nil, err)
		return AddExercisesResult{}, err
	}

	result := AddExercisesResult{Session: session, Outcomes: make([]AttachOutcome, 0, len(requests))}
	for _, req := range requests {
		outcome := AttachOutcome{Query: req.Name}

		candidates, err := f.gw.SearchExercises(ctx, caller, req.Name)
		if err != nil {
			f.logOp("workout.add_exercises", caller, map[string]any{"date": date, "name": req.Name}, nil, err)
			return result, fmt.Errorf("search exercises %q: %w", req.Name, err)
		}

		res := resolve.Resolve(req.Name, candidates)
		outcome.Resolution = res
		outcome.State = res.State.String()
		outcome.Candidates = res.Candidates

		if res.State == resolve.Resolved {
			detail, err := f.engine.AttachExercise(ctx, caller, session.ID, res.Entry.ID, req.Kind)
			if err != nil {
				f.logOp("workout.add_exercises", caller, map[string]any{"date": date, "name": req.Name}, nil, err)
				return result, err
			}
			outcome.Detail = &detail
			slog.Info("FACADE: Exercise attached", "session_id", session.ID, "exercise", res.Entry.Name, "detail_id", detail.ID)
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	f.logOp("workout.add_exercises", caller, map[string]any{"date": date, "count": len(requests)}, result, nil)
	return result, nil
}

// PlanSets is phase A of set logging. The session detail must already be
// attached to the session; anything else is an out-of-order call.
func (f *Facade) PlanSets(ctx context.Context, caller gateway.Caller, sessionID, sessionDetailID int64, planned []lifecycle.PlannedSet) ([]gateway.SetLog, error) {
	details, err := f.gw.SessionDetails(ctx, caller, sessionID)
	if err != nil {
		f.logOp("workout.plan_sets", caller, map[string]any{"session_id": sessionID}, nil, err)
		return nil, fmt.Errorf("list details for session %d: %w", sessionID, err)
	}

	var kind gateway.ExerciseType
	found := false
	for _, d := range details {
		if d.ID == sessionDetailID {
			kind = d.ExerciseType
			found = true
			break
		}
	}
	if !found {
		err := fmt.Errorf("detail %d is not attached to session %d: %w", sessionDetailID, sessionID, ErrPrecedentRequired)
		f.logOp("workout.plan_sets", caller, map[string]any{"session_id": sessionID, "session_detail_id": sessionDetailID}, nil, err)
		return nil, err
	}

	sets, err := f.engine.DefineSets(ctx, caller, sessionDetailID, kind, planned)
	f.logOp("workout.plan_sets", caller, map[string]any{"session_id": sessionID, "session_detail_id": sessionDetailID, "count": len(planned)}, sets, err)
	return sets, err
}

// RecordSet is phase B of set logging.
func (f *Facade) RecordSet(ctx context.Context, caller gateway.Caller, sessionID, sessionDetailID, setID int64, actual lifecycle.ActualSet) (gateway.SetLog, error) {
	set, err := f.engine.ExecuteSet(ctx, caller, sessionID, sessionDetailID, setID, actual)
	f.logOp("workout.record_set", caller, map[string]any{"session_id": sessionID, "set_id": setID}, set, err)
	return set, err
}

// CompleteSession advances a session to its terminal state, subject to
// the engine's temporal and all-sets-completed rules.
func (f *Facade) CompleteSession(ctx context.Context, caller gateway.Caller, sessionID int64, note string) error {
	err := f.engine.AdvanceSessionStatus(ctx, caller, sessionID, gateway.StatusCompleted, note)
	f.logOp("workout.complete", caller, map[string]any{"session_id": sessionID}, nil, err)
	return err
}

// ExerciseLog pairs a session detail with its set logs, in execution order.
type ExerciseLog struct {
	Detail gateway.SessionDetail `json:"detail"`
	Sets   []gateway.SetLog      `json:"sets"`
}

// SessionLog is the full read model for one date.
type SessionLog struct {
	Session   gateway.Session `json:"session"`
	Exercises []ExerciseLog   `json:"exercises"`
}

// GetSessionLog reads a date's session with its exercises and sets.
func (f *Facade) GetSessionLog(ctx context.Context, caller gateway.Caller, date string) (SessionLog, error) {
	sessions, err := f.gw.SessionsByDate(ctx, caller, date)
	if err != nil {
		return SessionLog{}, fmt.Errorf("look up session for %s: %w", date, err)
	}
	if len(sessions) == 0 {
		return SessionLog{}, fmt.Errorf("no session on %s: %w", date, lifecycle.ErrNotFound)
	}

	log := SessionLog{Session: sessions[0]}
	details, err := f.gw.SessionDetails(ctx, caller, log.Session.ID)
	if err != nil {
		return SessionLog{}, fmt.Errorf("list details for session %d: %w", log.Session.ID, err)
	}
	for _, d := range details {
		sets, err := f.gw.SetLogs(ctx, caller, d.ID)
		if err != nil {
			return SessionLog{}, fmt.Errorf("list set logs for detail %d: %w", d.ID, err)
		}
		log.Exercises = append(log.Exercises, ExerciseLog{Detail: d, Sets: sets})
	}
	return log, nil
}

// ListMonthSessions reads every session in a calendar month ("2026-03").
func (f *Facade) ListMonthSessions(ctx context.Context, caller gateway.Caller, month string) ([]gateway.Session, error) {
	sessions, err := f.gw.SessionsByMonth(ctx, caller, month)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", month, err)
	}
	return sessions, nil
}

// DeleteSessions removes sessions by explicit id list, one outcome per id.
func (f *Facade) DeleteSessions(ctx context.Context, caller gateway.Caller, ids []int64) (bulk.Result, error) {
	res, err := f.bulk.Apply(ctx, ids, func(ctx context.Context, id int64) error {
		return f.gw.DeleteSession(ctx, caller, id)
	})
	f.logOp("workout.delete_sessions", caller, map[string]any{"ids": ids}, res, err)
	return res, err
}

// DeleteSessionRange removes every session in an inclusive date range.
func (f *Facade) DeleteSessionRange(ctx context.Context, caller gateway.Caller, start, end string) (bulk.Result, error) {
	res, err := f.bulk.ApplyRange(ctx, start, end, f.sessionIDsOn(caller), func(ctx context.Context, id int64) error {
		return f.gw.DeleteSession(ctx, caller, id)
	})
	f.logOp("workout.delete_session_range", caller, map[string]any{"start": start, "end": end}, res, err)
	return res, err
}

// UpdateSessionsStatus advances many sessions through the engine, so each
// item still honors the transition rules individually.
func (f *Facade) UpdateSessionsStatus(ctx context.Context, caller gateway.Caller, ids []int64, target gateway.Status, note string) (bulk.Result, error) {
	res, err := f.bulk.Apply(ctx, ids, func(ctx context.Context, id int64) error {
		return f.engine.AdvanceSessionStatus(ctx, caller, id, target, note)
	})
	f.logOp("workout.update_sessions_status", caller, map[string]any{"ids": ids, "target": target}, res, err)
	return res, err
}

// UpdateSessionStatusRange advances every session in an inclusive date
// range, with the same per-item rule enforcement as the id-list variant.
func (f *Facade) UpdateSessionStatusRange(ctx context.Context, caller gateway.Caller, start, end string, target gateway.Status, note string) (bulk.Result, error) {
	res, err := f.bulk.ApplyRange(ctx, start, end, f.sessionIDsOn(caller), func(ctx context.Context, id int64) error {
		return f.engine.AdvanceSessionStatus(ctx, caller, id, target, note)
	})
	f.logOp("workout.update_session_status_range", caller, map[string]any{"start": start, "end": end, "target": target}, res, err)
	return res, err
}

func (f *Facade) sessionIDsOn(caller gateway.Caller) func(ctx context.Context, date string) ([]int64, error) {
	return func(ctx context.Context, date string) ([]int64, error) {
		sessions, err := f.gw.SessionsByDate(ctx, caller, date)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(sessions))
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
		return ids, nil
	}
}
