package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfsync/shelfsync/internal/domain"
)

func TestPlanSamples(t *testing.T) {
	const t1, t2, t3 = 100, 200, 300

	tests := []struct {
		name   string
		remote map[int64]int64
		stored []domain.StoredSample
		want   Plan
	}{
		{
			name:   "unchanged, untouched and new",
			remote: map[int64]int64{t1: 5, t3: 7},
			stored: []domain.StoredSample{
				{RecordID: "r1", Timestamp: t1, Duration: 5},
				{RecordID: "r2", Timestamp: t2, Duration: 10},
			},
			want: Plan{Creates: []Sample{{t3, 7}}, Unchanged: 1},
		},
		{
			name:   "changed duration",
			remote: map[int64]int64{t1: 6},
			stored: []domain.StoredSample{{RecordID: "r1", Timestamp: t1, Duration: 5}},
			want:   Plan{Updates: []Update{{RecordID: "r1", Sample: Sample{t1, 6}}}},
		},
		{
			name:   "row without duration",
			remote: map[int64]int64{t1: 0},
			stored: []domain.StoredSample{{RecordID: "r1", Timestamp: t1, NoDuration: true}},
			want:   Plan{Updates: []Update{{RecordID: "r1", Sample: Sample{t1, 0}}}},
		},
		{
			name:   "duplicate stored rows",
			remote: map[int64]int64{t1: 9},
			stored: []domain.StoredSample{
				{RecordID: "first", Timestamp: t1, Duration: 9},
				{RecordID: "second", Timestamp: t1, Duration: 1},
			},
			want: Plan{Unchanged: 1},
		},
		{
			name:   "creates ascend",
			remote: map[int64]int64{t3: 3, t1: 1, t2: 2},
			want:   Plan{Creates: []Sample{{t1, 1}, {t2, 2}, {t3, 3}}},
		},
		{
			name:   "empty remote",
			stored: []domain.StoredSample{{RecordID: "r1", Timestamp: t1, Duration: 5}},
			want:   Plan{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanSamples(tt.remote, tt.stored))
		})
	}
}

func TestPlanSamples_DoesNotMutateRemote(t *testing.T) {
	remote := map[int64]int64{1: 1, 2: 2}
	PlanSamples(remote, []domain.StoredSample{{RecordID: "r", Timestamp: 1, Duration: 1}})
	assert.Len(t, remote, 2)
}

func TestPlanSamples_IsIdempotent(t *testing.T) {
	remote := map[int64]int64{100: 5, 200: 7, 300: 0}
	first := PlanSamples(remote, nil)
	assert.Equal(t, 3, first.Writes())

	var stored []domain.StoredSample
	for i, s := range first.Creates {
		stored = append(stored, domain.StoredSample{RecordID: string(rune('a' + i)), Timestamp: s.Timestamp, Duration: s.Duration})
	}
	second := PlanSamples(remote, stored)
	assert.Zero(t, second.Writes())
	assert.Equal(t, 3, second.Unchanged)
}
