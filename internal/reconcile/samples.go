package reconcile

import (
	"maps"
	"slices"

	"github.com/shelfsync/shelfsync/internal/domain"
)

// Sample is a remote reading duration for the day starting at Timestamp.
type Sample struct {
	Timestamp int64
	Duration  int64
}

// Update rewrites the duration of a stored record.
type Update struct {
	RecordID string
	Sample
}

// Plan is the set of writes that brings stored samples in line with a
// remote series.
type Plan struct {
	Updates []Update
	// Creates is ordered by timestamp.
	Creates   []Sample
	Unchanged int
}

// Writes returns the number of writes the plan issues.
func (p Plan) Writes() int {
	return len(p.Updates) + len(p.Creates)
}

// PlanSamples matches stored records to the remote series by timestamp.
// A stored record claims its remote sample and is updated when the
// durations differ. Remote samples nobody claimed are created. Stored
// records absent from the remote series are left alone, as is any second
// record for an already claimed timestamp.
func PlanSamples(remote map[int64]int64, stored []domain.StoredSample) Plan {
	pending := maps.Clone(remote)
	var plan Plan
	for _, s := range stored {
		duration, ok := pending[s.Timestamp]
		if !ok {
			continue
		}
		delete(pending, s.Timestamp)
		if s.NoDuration || s.Duration != duration {
			plan.Updates = append(plan.Updates, Update{RecordID: s.RecordID, Sample: Sample{s.Timestamp, duration}})
			continue
		}
		plan.Unchanged++
	}
	for _, ts := range slices.Sorted(maps.Keys(pending)) {
		plan.Creates = append(plan.Creates, Sample{Timestamp: ts, Duration: pending[ts]})
	}
	return plan
}
