// Package lifecycle enforces the deterministic rules of the workout and
// meal log: one session per (user, date), one meal per (user, date, type),
// forward-only status transitions, and the two-phase set logging protocol.
// Every rule that the dialog layer used to describe in prose lives here as
// a typed operation with a typed failure.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fitagent/gateway"
)

// Engine mediates all session and meal mutations against the backend.
// It holds no state of its own; the backend remains the system of record.
type Engine struct {
	gw  gateway.API
	now func() time.Time
}

// NewEngine wires an engine to a backend. now may be nil, in which case
// the wall clock is used; tests inject a fixed clock for the temporal rules.
func NewEngine(gw gateway.API, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{gw: gw, now: now}
}

func (e *Engine) today() string {
	return e.now().Format(gateway.DateLayout)
}

// EnsureSession returns the session for (caller, date), creating it only
// when no session exists yet. Repeated calls never create duplicates.
func (e *Engine) EnsureSession(ctx context.Context, caller gateway.Caller, date, notes string) (gateway.Session, error) {
	existing, err := e.gw.SessionsByDate(ctx, caller, date)
	if err != nil {
		return gateway.Session{}, fmt.Errorf("look up session for %s: %w", date, err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	created, err := e.gw.CreateSession(ctx, caller, date, notes)
	if err != nil {
		return gateway.Session{}, fmt.Errorf("create session for %s: %w", date, err)
	}
	slog.Info("ENGINE: Created session", "session_id", created.ID, "date", date, "user_id", caller.UserID)
	return created, nil
}

// AdvanceSessionStatus moves a session strictly forward. Completed is the
// only status callers may request: InProgress is inferred from the first
// executed set (see ExecuteSet), never taken as input. Completion is
// refused while the session is future-dated or while any set log under it
// is not yet completed.
func (e *Engine) AdvanceSessionStatus(ctx context.Context, caller gateway.Caller, sessionID int64, target gateway.Status, note string) error {
	if target != gateway.StatusCompleted {
		return fmt.Errorf("session status %q is inferred, not requested: %w", target, ErrInvalidTransition)
	}

	session, err := e.gw.SessionByID(ctx, caller, sessionID)
	if err != nil {
		return fmt.Errorf("look up session %d: %w", sessionID, err)
	}

	if target.Rank() <= session.Status.Rank() {
		return fmt.Errorf("session %d is already %q: %w", sessionID, session.Status, ErrInvalidTransition)
	}

	if session.ScheduledDate > e.today() {
		return fmt.Errorf("session %d is scheduled for %s: %w", sessionID, session.ScheduledDate, ErrInvalidTransition)
	}
	if err := e.requireAllSetsCompleted(ctx, caller, sessionID); err != nil {
		return err
	}

	if err := e.gw.UpdateSessionStatus(ctx, caller, sessionID, target, note); err != nil {
		return fmt.Errorf("update session %d status: %w", sessionID, err)
	}
	slog.Info("ENGINE: Session status advanced", "session_id", sessionID, "from", session.Status, "to", target)
	return nil
}

func (e *Engine) requireAllSetsCompleted(ctx context.Context, caller gateway.Caller, sessionID int64) error {
	details, err := e.gw.SessionDetails(ctx, caller, sessionID)
	if err != nil {
		return fmt.Errorf("list details for session %d: %w", sessionID, err)
	}
	for _, d := range details {
		sets, err := e.gw.SetLogs(ctx, caller, d.ID)
		if err != nil {
			return fmt.Errorf("list set logs for detail %d: %w", d.ID, err)
		}
		for _, s := range sets {
			if s.Status != gateway.StatusCompleted {
				return fmt.Errorf("set %d under detail %d is %q: %w", s.ID, d.ID, s.Status, ErrInvalidTransition)
			}
		}
	}
	return nil
}

// AttachExercise adds one exercise to an existing session.
func (e *Engine) AttachExercise(ctx context.Context, caller gateway.Caller, sessionID, exerciseID int64, kind gateway.ExerciseType) (gateway.SessionDetail, error) {
	if _, err := e.gw.SessionByID(ctx, caller, sessionID); err != nil {
		return gateway.SessionDetail{}, fmt.Errorf("look up session %d: %w", sessionID, err)
	}
	details, err := e.gw.AttachExercises(ctx, caller, sessionID, []gateway.ExerciseRef{{ExerciseID: exerciseID, ExerciseType: kind}})
	if err != nil {
		return gateway.SessionDetail{}, fmt.Errorf("attach exercise %d to session %d: %w", exerciseID, sessionID, err)
	}
	if len(details) == 0 {
		return gateway.SessionDetail{}, fmt.Errorf("backend returned no detail for exercise %d: %w", exerciseID, ErrNotFound)
	}
	return details[0], nil
}

// DetachExercise removes one exercise (and its backend-side logs) from a session.
func (e *Engine) DetachExercise(ctx context.Context, caller gateway.Caller, sessionDetailID int64) error {
	if err := e.gw.DeleteSessionDetail(ctx, caller, sessionDetailID); err != nil {
		return fmt.Errorf("detach session detail %d: %w", sessionDetailID, err)
	}
	return nil
}
