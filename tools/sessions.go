package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitagent/agent"
	"fitagent/gateway"
)

// SessionStart is the check-first session tool: it reuses the date's
// session or creates one, never both.
type SessionStart struct{ facade *agent.Facade }

func NewSessionStart(facade *agent.Facade) *SessionStart { return &SessionStart{facade: facade} }

func (t *SessionStart) Name() string  { return "session_start" }
func (t *SessionStart) Title() string { return "Start or Reuse Workout Session" }
func (t *SessionStart) Description() string {
	return "Returns the workout session for a date, creating it only when none exists. At most one session per user and date."
}

func (t *SessionStart) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"date":  dateSchema(),
			"notes": {Type: "string"},
		},
		Required: []string{"date"},
	})
}

func (t *SessionStart) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session_id":     idSchema(),
			"user_id":        idSchema(),
			"scheduled_date": dateSchema(),
			"status":         {Type: "string"},
		},
		Required: []string{"session_id", "scheduled_date", "status"},
	}
}

func (t *SessionStart) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	date, err := stringArg(input, "date")
	if err != nil {
		return nil, err
	}
	notes, _ := input["notes"].(string)

	session, err := t.facade.StartWorkout(ctx, caller, date, notes)
	if err != nil {
		return nil, err
	}
	return toMap(session), nil
}

// SessionComplete flips a session to Completed, subject to the temporal
// and all-sets-completed rules.
type SessionComplete struct{ facade *agent.Facade }

func NewSessionComplete(facade *agent.Facade) *SessionComplete {
	return &SessionComplete{facade: facade}
}

func (t *SessionComplete) Name() string  { return "session_complete" }
func (t *SessionComplete) Title() string { return "Complete Workout Session" }
func (t *SessionComplete) Description() string {
	return "Marks a session Completed. Fails for future-dated sessions and while any set log is unfinished."
}

func (t *SessionComplete) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session_id": idSchema(),
			"note":       {Type: "string"},
		},
		Required: []string{"session_id"},
	})
}

func (t *SessionComplete) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"completed":  {Type: "boolean"},
			"session_id": idSchema(),
		},
		Required: []string{"completed", "session_id"},
	}
}

func (t *SessionComplete) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	sessionID, err := int64Arg(input, "session_id")
	if err != nil {
		return nil, err
	}
	note, _ := input["note"].(string)

	if err := t.facade.CompleteSession(ctx, caller, sessionID, note); err != nil {
		return nil, err
	}
	return map[string]any{"completed": true, "session_id": float64(sessionID)}, nil
}

// SessionDelete deletes sessions by id list or by date range, reporting
// per-item outcomes either way.
type SessionDelete struct{ facade *agent.Facade }

func NewSessionDelete(facade *agent.Facade) *SessionDelete { return &SessionDelete{facade: facade} }

func (t *SessionDelete) Name() string  { return "session_delete" }
func (t *SessionDelete) Title() string { return "Delete Workout Sessions" }
func (t *SessionDelete) Description() string {
	return "Deletes sessions by ids or an inclusive date range. Returns succeeded ids and itemized failures, never a bare boolean."
}

func (t *SessionDelete) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session_ids": {Type: "array", Items: idSchema()},
			"start_date":  dateSchema(),
			"end_date":    dateSchema(),
		},
	})
}

func (t *SessionDelete) OutputSchema() *jsonschema.Schema { return bulkResultSchema() }

func (t *SessionDelete) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}

	if _, ok := input["session_ids"]; ok {
		ids, err := idsArg(input, "session_ids")
		if err != nil {
			return nil, err
		}
		res, err := t.facade.DeleteSessions(ctx, caller, ids)
		if err != nil {
			return nil, err
		}
		return toMap(res), nil
	}

	start, err := stringArg(input, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := stringArg(input, "end_date")
	if err != nil {
		return nil, err
	}
	res, err := t.facade.DeleteSessionRange(ctx, caller, start, end)
	if err != nil {
		return nil, err
	}
	return toMap(res), nil
}

// SessionStatusUpdate advances many sessions at once, by id list or by
// date range; each item still honors the forward-only transition rules
// individually. InProgress is inferred from set execution and cannot be
// requested here.
type SessionStatusUpdate struct{ facade *agent.Facade }

func NewSessionStatusUpdate(facade *agent.Facade) *SessionStatusUpdate {
	return &SessionStatusUpdate{facade: facade}
}

func (t *SessionStatusUpdate) Name() string  { return "session_status_update" }
func (t *SessionStatusUpdate) Title() string { return "Update Session Statuses" }
func (t *SessionStatusUpdate) Description() string {
	return "Advances the status of sessions by ids or an inclusive date range, with per-item outcomes. Only Completed can be requested."
}

func (t *SessionStatusUpdate) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session_ids": {Type: "array", Items: idSchema()},
			"start_date":  dateSchema(),
			"end_date":    dateSchema(),
			"status":      {Type: "string", Enum: []any{string(gateway.StatusCompleted)}},
			"note":        {Type: "string"},
		},
		Required: []string{"status"},
	})
}

func (t *SessionStatusUpdate) OutputSchema() *jsonschema.Schema { return bulkResultSchema() }

func (t *SessionStatusUpdate) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	status, err := stringArg(input, "status")
	if err != nil {
		return nil, err
	}
	note, _ := input["note"].(string)

	if _, ok := input["session_ids"]; ok {
		ids, err := idsArg(input, "session_ids")
		if err != nil {
			return nil, err
		}
		res, err := t.facade.UpdateSessionsStatus(ctx, caller, ids, gateway.Status(status), note)
		if err != nil {
			return nil, err
		}
		return toMap(res), nil
	}

	start, err := stringArg(input, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := stringArg(input, "end_date")
	if err != nil {
		return nil, err
	}
	res, err := t.facade.UpdateSessionStatusRange(ctx, caller, start, end, gateway.Status(status), note)
	if err != nil {
		return nil, err
	}
	return toMap(res), nil
}

// SessionLogGet reads a date's full session log: exercises and sets.
type SessionLogGet struct{ facade *agent.Facade }

func NewSessionLogGet(facade *agent.Facade) *SessionLogGet { return &SessionLogGet{facade: facade} }

func (t *SessionLogGet) Name() string  { return "session_log_get" }
func (t *SessionLogGet) Title() string { return "Get Session Log" }
func (t *SessionLogGet) Description() string {
	return "Returns the session for a date with its exercises and set logs in execution order."
}

func (t *SessionLogGet) InputSchema() *jsonschema.Schema {
	return withCaller(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"date": dateSchema(),
		},
		Required: []string{"date"},
	})
}

func (t *SessionLogGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"session":   {Type: "object"},
			"exercises": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		},
		Required: []string{"session"},
	}
}

func (t *SessionLogGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	caller, err := callerFrom(input)
	if err != nil {
		return nil, err
	}
	date, err := stringArg(input, "date")
	if err != nil {
		return nil, err
	}

	log, err := t.facade.GetSessionLog(ctx, caller, date)
	if err != nil {
		return nil, err
	}
	return toMap(log), nil
}

func bulkResultSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"succeeded": {Type: "array", Items: idSchema()},
			"failed": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":     idSchema(),
						"reason": {Type: "string"},
					},
					Required: []string{"id", "reason"},
				},
			},
		},
		Required: []string{"succeeded", "failed"},
	}
}
