package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"fitagent/gateway"
)

// PlannedSet is the define-phase input for one set.
type PlannedSet struct {
	Reps            int
	WeightKg        float64
	DurationSeconds int
	Notes           string
}

// ActualSet is the execute-phase input for one set. Completed flips the
// set straight to its terminal state; otherwise it lands in progress.
type ActualSet struct {
	Reps            int
	WeightKg        float64
	DurationSeconds int
	Notes           string
	Completed       bool
}

// DefineSets is phase A of the logging protocol: it creates planned set
// logs under a session detail. Strength work requires planned reps and
// zeroes duration; cardio requires duration and zeroes the rep fields.
func (e *Engine) DefineSets(ctx context.Context, caller gateway.Caller, sessionDetailID int64, kind gateway.ExerciseType, planned []PlannedSet) ([]gateway.SetLog, error) {
	rows := make([]gateway.SetLog, 0, len(planned))
	for i, p := range planned {
		switch kind {
		case gateway.ExerciseStrength:
			if p.Reps <= 0 {
				return nil, fmt.Errorf("set %d: %w", i+1, &MissingRequiredFieldError{Kind: kind, Field: "planned_reps"})
			}
			p.DurationSeconds = 0
		case gateway.ExerciseCardio:
			if p.DurationSeconds <= 0 {
				return nil, fmt.Errorf("set %d: %w", i+1, &MissingRequiredFieldError{Kind: kind, Field: "duration_seconds"})
			}
			p.Reps = 0
			p.WeightKg = 0
		default:
			return nil, fmt.Errorf("unknown exercise type %q", kind)
		}
		rows = append(rows, gateway.SetLog{
			SessionDetailID: sessionDetailID,
			PlannedReps:     p.Reps,
			WeightKg:        p.WeightKg,
			DurationSeconds: p.DurationSeconds,
			Status:          gateway.StatusPlanned,
			Notes:           p.Notes,
		})
	}

	created, err := e.gw.CreateSetLogs(ctx, caller, sessionDetailID, rows)
	if err != nil {
		return nil, fmt.Errorf("define sets for detail %d: %w", sessionDetailID, err)
	}
	slog.Info("ENGINE: Planned sets defined", "session_detail_id", sessionDetailID, "count", len(created))
	return created, nil
}

// ExecuteSet is phase B: it records actual values against a planned set.
// Sets under one detail execute in ascending id order; a completed set is
// immutable; the owning session enters progress on the first executed set.
func (e *Engine) ExecuteSet(ctx context.Context, caller gateway.Caller, sessionID, sessionDetailID, setID int64, actual ActualSet) (gateway.SetLog, error) {
	details, err := e.gw.SessionDetails(ctx, caller, sessionID)
	if err != nil {
		return gateway.SetLog{}, fmt.Errorf("list details for session %d: %w", sessionID, err)
	}
	if !hasDetail(details, sessionDetailID) {
		return gateway.SetLog{}, fmt.Errorf("detail %d is not part of session %d: %w", sessionDetailID, sessionID, ErrNotFound)
	}

	sets, err := e.gw.SetLogs(ctx, caller, sessionDetailID)
	if err != nil {
		return gateway.SetLog{}, fmt.Errorf("list set logs for detail %d: %w", sessionDetailID, err)
	}

	var current *gateway.SetLog
	for i := range sets {
		s := sets[i]
		if s.ID == setID {
			current = &sets[i]
			continue
		}
		if s.ID < setID && s.Status == gateway.StatusPlanned {
			return gateway.SetLog{}, fmt.Errorf("set %d is still planned ahead of set %d: %w", s.ID, setID, ErrOutOfOrderExecution)
		}
	}
	if current == nil {
		return gateway.SetLog{}, fmt.Errorf("set %d under detail %d: %w", setID, sessionDetailID, ErrNotFound)
	}
	if current.Status == gateway.StatusCompleted {
		return gateway.SetLog{}, fmt.Errorf("set %d is already completed: %w", setID, ErrInvalidTransition)
	}

	updated := *current
	updated.ActualReps = actual.Reps
	if actual.WeightKg > 0 {
		updated.WeightKg = actual.WeightKg
	}
	if actual.DurationSeconds > 0 {
		updated.DurationSeconds = actual.DurationSeconds
	}
	if actual.Notes != "" {
		updated.Notes = actual.Notes
	}
	if actual.Completed {
		updated.Status = gateway.StatusCompleted
	} else {
		updated.Status = gateway.StatusInProgress
	}

	saved, err := e.gw.UpdateSetLog(ctx, caller, updated)
	if err != nil {
		return gateway.SetLog{}, fmt.Errorf("execute set %d: %w", setID, err)
	}

	// First executed set pulls the session out of Planned. The session
	// status is inferred here, never an external input.
	session, err := e.gw.SessionByID(ctx, caller, sessionID)
	if err != nil {
		return gateway.SetLog{}, fmt.Errorf("look up session %d: %w", sessionID, err)
	}
	if session.Status == gateway.StatusPlanned {
		if err := e.gw.UpdateSessionStatus(ctx, caller, sessionID, gateway.StatusInProgress, ""); err != nil {
			return gateway.SetLog{}, fmt.Errorf("mark session %d in progress: %w", sessionID, err)
		}
		slog.Info("ENGINE: Session entered progress", "session_id", sessionID, "set_id", setID)
	}

	return saved, nil
}

// DeleteSet removes one set log.
func (e *Engine) DeleteSet(ctx context.Context, caller gateway.Caller, setID int64) error {
	if err := e.gw.DeleteSetLog(ctx, caller, setID); err != nil {
		return fmt.Errorf("delete set %d: %w", setID, err)
	}
	return nil
}

func hasDetail(details []gateway.SessionDetail, id int64) bool {
	for _, d := range details {
		if d.ID == id {
			return true
		}
	}
	return false
}
