// Package leaderboard keeps an in-process top list per game. It serves the
// leaderboard when no database is configured.
package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	DefaultMaxKeep = 200
	maxLimit       = 50
)

// Entry is one submitted score. CreatedAt is epoch milliseconds.
type Entry struct {
	Player    string `json:"player"`
	Score     int64  `json:"score"`
	CreatedAt int64  `json:"createdAt"`
}

// Store holds at most maxKeep entries per game, best first. Ties keep the
// newest entry first.
type Store struct {
	mu      sync.RWMutex
	data    map[string][]Entry
	maxKeep int
	path    string
}

// NewStore returns an empty store. When path is set, existing entries are
// loaded from it and every submit rewrites it.
func NewStore(maxKeep int, path string) (*Store, error) {
	if maxKeep <= 0 {
		maxKeep = DefaultMaxKeep
	}
	s := &Store{data: make(map[string][]Entry), maxKeep: maxKeep, path: path}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("failed to parse leaderboard file: %w", err)
		}
	}
	for game := range s.data {
		s.data[game] = s.trim(s.data[game])
	}
	return s, nil
}

// Submit appends e to the game's list and trims it.
func (s *Store) Submit(gameSlug string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[gameSlug] = s.trim(append(s.data[gameSlug], e))
	if s.path == "" {
		return nil
	}
	return s.persistLocked()
}

// Top returns up to limit entries, limit clamped to [1, 50].
func (s *Store) Top(gameSlug string, limit int) []Entry {
	limit = max(1, min(limit, maxLimit))

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.data[gameSlug]
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]Entry, len(list))
	copy(out, list)
	return out
}

func (s *Store) trim(list []Entry) []Entry {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].CreatedAt > list[j].CreatedAt
	})
	if len(list) > s.maxKeep {
		list = list[:s.maxKeep]
	}
	return list
}

// persistLocked writes the whole store to a temp file and renames it over path.
func (s *Store) persistLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".leaderboard-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
