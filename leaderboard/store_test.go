package leaderboard

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_OrderAndTieBreak(t *testing.T) {
	s, err := NewStore(200, "")
	require.NoError(t, err)

	require.NoError(t, s.Submit("g", Entry{Player: "A", Score: 10, CreatedAt: 1}))
	require.NoError(t, s.Submit("g", Entry{Player: "B", Score: 20, CreatedAt: 2}))
	require.NoError(t, s.Submit("g", Entry{Player: "C", Score: 20, CreatedAt: 3}))

	want := []Entry{
		{Player: "C", Score: 20, CreatedAt: 3},
		{Player: "B", Score: 20, CreatedAt: 2},
	}
	if diff := cmp.Diff(want, s.Top("g", 2)); diff != "" {
		t.Errorf("Top mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_LimitClamp(t *testing.T) {
	s, err := NewStore(200, "")
	require.NoError(t, err)
	for i := 0; i < 80; i++ {
		require.NoError(t, s.Submit("g", Entry{Player: "p", Score: int64(i), CreatedAt: int64(i)}))
	}

	assert.Len(t, s.Top("g", 0), 1)
	assert.Len(t, s.Top("g", -5), 1)
	assert.Len(t, s.Top("g", 1000), 50)
	assert.Empty(t, s.Top("unknown", 10))
}

func TestStore_MaxKeep(t *testing.T) {
	s, err := NewStore(3, "")
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Submit("g", Entry{Player: "p", Score: int64(i), CreatedAt: int64(i)}))
	}

	top := s.Top("g", 50)
	require.Len(t, top, 3)
	assert.EqualValues(t, 5, top[0].Score)
	assert.EqualValues(t, 3, top[2].Score)
}

func TestStore_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")

	s, err := NewStore(200, path)
	require.NoError(t, err)
	require.NoError(t, s.Submit("boss-rush", Entry{Player: "Ada", Score: 42, CreatedAt: 7}))

	reopened, err := NewStore(200, path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Player: "Ada", Score: 42, CreatedAt: 7}}, reopened.Top("boss-rush", 10))
}

func TestStore_ConcurrentSubmit(t *testing.T) {
	s, err := NewStore(1000, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Submit("g", Entry{Player: "p", Score: int64(i), CreatedAt: int64(i)})
		}(i)
	}
	wg.Wait()

	top := s.Top("g", 50)
	require.Len(t, top, 50)
	assert.EqualValues(t, 99, top[0].Score)
}
