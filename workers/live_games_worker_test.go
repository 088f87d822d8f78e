package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"illusion-arcade/services"
)

type countingTracker struct {
	calls  atomic.Int32
	forced atomic.Int32
}

func (c *countingTracker) Get(_ context.Context, force bool) *services.LiveSnapshot {
	c.calls.Add(1)
	if force {
		c.forced.Add(1)
	}
	return &services.LiveSnapshot{}
}

func TestLiveGamesWorker_WarmsOnStartAndTicks(t *testing.T) {
	tr := &countingTracker{}
	w := NewLiveGamesWorker(tr, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	assert.Eventually(t, func() bool { return tr.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, tr.forced.Load())
}
