package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestYesterday(t *testing.T) {
	assert.Equal(t, day(2026, 3, 9), Yesterday(time.Date(2026, 3, 10, 0, 0, 1, 0, time.UTC)))
	assert.Equal(t, day(2025, 12, 31), Yesterday(time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)))
}

func TestPreviousSaturday(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{day(2026, 3, 14).Add(5 * time.Minute), day(2026, 3, 7)}, // Saturday
		{day(2026, 3, 15), day(2026, 3, 14)},                     // Sunday
		{day(2026, 3, 20).Add(23 * time.Hour), day(2026, 3, 14)}, // Friday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PreviousSaturday(tt.now), tt.now.Weekday().String())
	}
}

func TestSnapshotService(t *testing.T) {
	ctx := context.Background()
	store := &fakeLeaderboardStore{}
	svc := NewSnapshotService(store, nil, func() time.Time { return day(2026, 3, 14).Add(10 * time.Minute) })

	res, err := svc.ComputeDaily(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-13", res.RunDate)
	assert.EqualValues(t, 3, res.Rows)

	res, err = svc.ComputeWeekly(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-07", res.WeekStart)

	_, err = svc.ComputeWeekly(ctx, day(2026, 3, 9))
	assert.ErrorIs(t, err, ErrInvalidInput)

	d, err := ParseSnapshotDate("2026-02-28")
	require.NoError(t, err)
	_, err = svc.ComputeDaily(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2026, 3, 13), d}, store.daily)

	_, err = ParseSnapshotDate("28/02/2026")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewSnapshotService(nil, nil, nil).ComputeDaily(ctx, time.Time{})
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

type tickRecorder struct{ synced, finalized int }

func (r *tickRecorder) SyncStatuses(context.Context) (int, error) {
	r.synced++
	return 1, nil
}

func (r *tickRecorder) FinalizeDue(context.Context) (int, error) {
	r.finalized++
	return 0, nil
}

func TestSchedulerTickAndJobs(t *testing.T) {
	rec := &tickRecorder{}
	s, err := NewScheduler(rec, NewSnapshotService(&fakeLeaderboardStore{}, nil, nil), nil)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	assert.Len(t, s.sched.Jobs(), 3)
	s.Tick(context.Background())
	assert.Equal(t, 1, rec.synced)
	assert.Equal(t, 1, rec.finalized)
}
