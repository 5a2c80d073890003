// Package bulk expands a multi-target request into per-item gateway
// operations and accounts for every item independently. One failing item
// never aborts its siblings, and a cancelled run still reports the items
// that finished.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultWorkers bounds in-flight gateway calls per Apply.
	DefaultWorkers = 5
	// DefaultItemTimeout caps every single item operation.
	DefaultItemTimeout = 10 * time.Second

	ReasonTimeout  = "timeout"
	ReasonCanceled = "canceled"
)

// ErrNoIDs rejects a structurally invalid request; it is the only way an
// Apply call fails as a whole.
var ErrNoIDs = errors.New("bulk: no ids to operate on")

// ItemOp performs the operation for one id.
type ItemOp func(ctx context.Context, id int64) error

// Failure is one item that did not go through.
type Failure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// Result is the aggregate outcome callers report as "N of M succeeded".
type Result struct {
	Succeeded []int64   `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

func (r Result) Total() int { return len(r.Succeeded) + len(r.Failed) }

func (r Result) Summary() string {
	return fmt.Sprintf("%d of %d succeeded", len(r.Succeeded), r.Total())
}

// Coordinator runs item operations with a bounded worker fan-out.
type Coordinator struct {
	workers     int64
	itemTimeout time.Duration
}

func New(workers int, itemTimeout time.Duration) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}
	return &Coordinator{workers: int64(workers), itemTimeout: itemTimeout}
}

// Apply runs op once per id, at most `workers` in flight, each item under
// its own timeout. Items are attempted regardless of sibling failures;
// once ctx is cancelled the remaining items are recorded as canceled
// without discarding outcomes already collected.
func (c *Coordinator) Apply(ctx context.Context, ids []int64, op ItemOp) (Result, error) {
	if len(ids) == 0 {
		return Result{}, ErrNoIDs
	}

	sem := semaphore.NewWeighted(c.workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	res := Result{Succeeded: make([]int64, 0, len(ids)), Failed: make([]Failure, 0)}

	record := func(id int64, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			res.Succeeded = append(res.Succeeded, id)
		case errors.Is(err, context.DeadlineExceeded):
			res.Failed = append(res.Failed, Failure{ID: id, Reason: ReasonTimeout})
		case errors.Is(err, context.Canceled):
			res.Failed = append(res.Failed, Failure{ID: id, Reason: ReasonCanceled})
		default:
			res.Failed = append(res.Failed, Failure{ID: id, Reason: err.Error()})
		}
	}

	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Run cancelled before this item started.
			record(id, context.Canceled)
			continue
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer sem.Release(1)
			itemCtx, cancel := context.WithTimeout(ctx, c.itemTimeout)
			defer cancel()
			record(id, op(itemCtx, id))
		}(id)
	}
	wg.Wait()

	sort.Slice(res.Succeeded, func(i, j int) bool { return res.Succeeded[i] < res.Succeeded[j] })
	sort.Slice(res.Failed, func(i, j int) bool { return res.Failed[i].ID < res.Failed[j].ID })

	slog.Info("BULK: Apply finished", "total", res.Total(), "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	return res, nil
}

// ApplyRange resolves an inclusive calendar date range to concrete ids,
// one resolve read per date, then dispatches exactly like Apply. A range
// that resolves to nothing returns an empty result, not an error.
func (c *Coordinator) ApplyRange(ctx context.Context, start, end string, resolveDate func(ctx context.Context, date string) ([]int64, error), op ItemOp) (Result, error) {
	days, err := datesBetween(start, end)
	if err != nil {
		return Result{}, err
	}

	var ids []int64
	for _, day := range days {
		dayIDs, err := resolveDate(ctx, day)
		if err != nil {
			return Result{}, fmt.Errorf("resolve ids for %s: %w", day, err)
		}
		ids = append(ids, dayIDs...)
	}
	if len(ids) == 0 {
		return Result{Succeeded: []int64{}, Failed: []Failure{}}, nil
	}
	return c.Apply(ctx, ids, op)
}

func datesBetween(start, end string) ([]string, error) {
	const layout = "2006-01-02"
	from, err := time.Parse(layout, start)
	if err != nil {
		return nil, fmt.Errorf("parse start date %q: %w", start, err)
	}
	to, err := time.Parse(layout, end)
	if err != nil {
		return nil, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end, start)
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(layout))
	}
	return days, nil
}
