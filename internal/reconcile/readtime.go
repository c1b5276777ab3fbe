package reconcile

import (
	"context"
	"fmt"
	"maps"

	"github.com/shelfsync/shelfsync/internal/calendar"
	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// SyncReadTimes merges the account's daily reading totals into the Day
// database. Today is always present, with zero seconds if WeRead has no
// entry for it yet.
func (r *Reconciler) SyncReadTimes(ctx context.Context) error {
	series, err := r.remote.ReadTimes(ctx)
	if err != nil {
		return remoteErr(err, "fetch read times")
	}
	series = maps.Clone(series)
	if series == nil {
		series = make(map[int64]int64)
	}
	today := calendar.StartOfDay(r.opts.Now().In(r.opts.Location)).Unix()
	if _, ok := series[today]; !ok {
		series[today] = 0
	}

	stored, err := r.index.DayRecords(ctx, r.dbs.Day)
	if err != nil {
		return err
	}
	plan := PlanSamples(series, stored)
	if err := r.applyUpdates(ctx, plan); err != nil {
		return err
	}

	for _, s := range plan.Creates {
		if err := r.createDay(ctx, s); err != nil {
			return err
		}
	}
	r.logger.Debug("read times synced",
		"days", len(series),
		"created", len(plan.Creates),
		"updated", len(plan.Updates),
	)
	return nil
}

func (r *Reconciler) createDay(ctx context.Context, s Sample) error {
	at := r.at(s.Timestamp)
	label := calendar.Label(at, calendar.Day)

	// A stored node with this label may lack a timestamp or carry another; reuse it.
	id, ok, err := r.resolver.Lookup(ctx, r.dbs.Day, label)
	if err != nil {
		return fmt.Errorf("look up day %s: %w", label, err)
	}
	if ok {
		props := workspace.Properties{
			layout.PropDuration:  workspace.Int(s.Duration),
			layout.PropTimestamp: workspace.Int(s.Timestamp),
		}
		if _, err := r.ws.UpdatePage(ctx, id, props, ""); err != nil {
			return fmt.Errorf("update day %s: %w", label, err)
		}
		r.stats.RecordsUpdated++
		return nil
	}

	parents, err := r.resolver.Parents(ctx, at)
	if err != nil {
		return fmt.Errorf("resolve day %s: %w", label, err)
	}
	props := sampleProperties(s, at, r.opts.Location)
	parents.Apply(props)

	page, err := r.ws.CreatePage(ctx, r.dbs.Day, props, calendar.NodeIcon, "")
	if err != nil {
		return fmt.Errorf("create day %s: %w", label, err)
	}
	r.index.Remember(r.dbs.Day, label, page.ID)
	r.stats.RecordsCreated++
	return nil
}
