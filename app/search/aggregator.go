package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grantscout/grantscout/app/grant"
	"github.com/grantscout/grantscout/app/sources"
)

// ErrAllSourcesUnavailable reports that every adapter that was attempted for
// a query failed or timed out. Skipped adapters do not count as attempts.
var ErrAllSourcesUnavailable = errors.New("all search sources unavailable")

// UnavailableError wraps ErrAllSourcesUnavailable with the per-source
// breakdown so callers can report which sources failed and how.
type UnavailableError struct {
	Statuses []grant.SourceStatus
}

func (e *UnavailableError) Error() string {
	return ErrAllSourcesUnavailable.Error()
}

func (e *UnavailableError) Unwrap() error {
	return ErrAllSourcesUnavailable
}

// Aggregator fans a query out to its adapters concurrently. Each adapter runs
// under its own timeout and error boundary, so one slow or broken source only
// costs its own contribution. Results concatenate in adapter declaration
// order, keeping the final ranking deterministic regardless of wall-clock
// completion order.
type Aggregator struct {
	adapters       []sources.Adapter
	timeout        time.Duration
	perSourceLimit int
}

func NewAggregator(adapters []sources.Adapter, timeout time.Duration, perSourceLimit int) *Aggregator {
	return &Aggregator{
		adapters:       adapters,
		timeout:        timeout,
		perSourceLimit: perSourceLimit,
	}
}

type adapterResult struct {
	records []grant.Record
	status  grant.SourceStatus
}

// Run executes the fan-out. The returned statuses carry one entry per
// adapter, in declaration order.
func (a *Aggregator) Run(ctx context.Context, query grant.SearchQuery) ([]grant.Record, []grant.SourceStatus, error) {
	slots := make([]adapterResult, len(a.adapters))

	g, groupCtx := errgroup.WithContext(ctx)

	attempted := 0
	for i, adapter := range a.adapters {
		if !adapter.Enabled(query) {
			slots[i].status = grant.SourceStatus{
				Name:   adapter.Name(),
				Status: grant.SourceStatusSkipped,
			}
			continue
		}
		attempted++

		g.Go(func() error {
			slots[i] = a.runAdapter(groupCtx, adapter, query)
			return nil // adapter failures stay in the slot, never abort siblings
		})
	}

	// Workers only return nil; Wait is a join point.
	_ = g.Wait()

	var records []grant.Record
	statuses := make([]grant.SourceStatus, 0, len(slots))
	succeeded := 0

	for _, slot := range slots {
		statuses = append(statuses, slot.status)
		if slot.status.Status == grant.SourceStatusOK {
			succeeded++
			records = append(records, slot.records...)
		}
	}

	if attempted > 0 && succeeded == 0 {
		return nil, statuses, &UnavailableError{Statuses: statuses}
	}

	return records, statuses, nil
}

// runAdapter is the per-adapter error boundary: timeout, panic recovery, and
// error classification all terminate here.
func (a *Aggregator) runAdapter(ctx context.Context, adapter sources.Adapter, query grant.SearchQuery) (result adapterResult) {
	result.status = grant.SourceStatus{Name: adapter.Name()}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Adapter panicked", "adapter", adapter.Name(), "panic", r)
			result.records = nil
			result.status.Status = grant.SourceStatusError
			result.status.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	adapterCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	records, err := adapter.Search(adapterCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || adapterCtx.Err() == context.DeadlineExceeded {
			result.status.Status = grant.SourceStatusTimeout
		} else {
			result.status.Status = grant.SourceStatusError
		}
		result.status.Error = err.Error()
		slog.Warn("Adapter failed", "adapter", adapter.Name(), "status", result.status.Status, "error", err)
		return result
	}

	if len(records) > a.perSourceLimit {
		records = records[:a.perSourceLimit]
	}

	result.records = records
	result.status.Status = grant.SourceStatusOK
	result.status.Count = len(records)
	return result
}
