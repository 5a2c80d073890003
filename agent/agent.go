// Package agent is the orchestration facade: the one entry point the
// outer dialog layer calls. It sequences resolver, lifecycle, and bulk
// calls into the documented workflows and owns no state of its own.
// Ambiguity and already-filled meals come back as first-class outcomes
// for the caller to turn into clarifying questions, never as silent
// default choices.
package agent

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"fitagent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/lifecycle"
)

// ErrPrecedentRequired rejects a call whose prerequisite step has not
// happened, instead of attempting a backend call that would be refused.
var ErrPrecedentRequired = errors.New("a prerequisite step has not been performed")

// Facade composes the resolver, lifecycle engine, and bulk coordinator.
// One Facade processes one user turn at a time; the bulk coordinator is
// the only source of concurrency underneath it.
type Facade struct {
	gw     gateway.API
	engine *lifecycle.Engine
	bulk   *bulk.Coordinator
	audit  fitagent.OperationLogger
	runID  string
}

// New wires a facade. audit may be nil; it defaults to the no-op logger.
func New(gw gateway.API, engine *lifecycle.Engine, coordinator *bulk.Coordinator, audit fitagent.OperationLogger) *Facade {
	return NewWithRunID(gw, engine, coordinator, audit, uuid.NewString())
}

// NewWithRunID wires a facade with an externally chosen run id, so a
// caller can correlate the operation log with its own artifacts.
func NewWithRunID(gw gateway.API, engine *lifecycle.Engine, coordinator *bulk.Coordinator, audit fitagent.OperationLogger, runID string) *Facade {
	if audit == nil {
		audit = fitagent.NewNoOpOperationLogger()
	}
	if coordinator == nil {
		coordinator = bulk.New(bulk.DefaultWorkers, bulk.DefaultItemTimeout)
	}
	return &Facade{
		gw:     gw,
		engine: engine,
		bulk:   coordinator,
		audit:  audit,
		runID:  runID,
	}
}

// RunID identifies this facade's turn in the operation log.
func (f *Facade) RunID() string { return f.runID }

func (f *Facade) logOp(intent string, caller gateway.Caller, input map[string]any, outcome any, err error) {
	op := fitagent.OperationLog{
		RunID:     f.runID,
		Timestamp: time.Now(),
		Intent:    intent,
		UserID:    caller.UserID,
		Input:     input,
		Outcome:   outcome,
	}
	if err != nil {
		op.Error = err.Error()
	}
	// Audit failures never fail the workflow itself.
	_ = f.audit.LogOperation(op)
}
