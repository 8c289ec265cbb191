// Package profile holds the logged-in user and their ranking stats.
package profile

import (
	"sync"

	"github.com/smartstocks/pvp-tui/internal/client"
)

// Store is safe for concurrent use. The session controller writes to it at
// match end; views read from it.
type Store struct {
	mu    sync.RWMutex
	user  client.User
	stats client.UserStats
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// SetLogin records the result of a login.
func (s *Store) SetLogin(resp *client.LoginResponse) {
	if resp == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.User != nil {
		s.user = *resp.User
	}
	if resp.Stats != nil {
		s.stats = *resp.Stats
	}
}

// UserID returns the local user's id, or "" before login.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.ID
}

// User returns a copy of the user summary.
func (s *Store) User() client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Stats returns a copy of the stats.
func (s *Store) Stats() client.UserStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// UpdateStats applies the points and tier reported at match end. An empty
// tier leaves the current one in place.
func (s *Store) UpdateStats(points int, tier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.SmartPoints = points
	if tier != "" {
		s.stats.RankTier = tier
	}
}

// RecordResult updates the win/loss tallies and the streak. A win with no
// reported streak extends the local one.
func (s *Store) RecordResult(result string, streak int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch result {
	case "win":
		s.stats.TotalWins++
		if streak > 0 {
			s.stats.WinStreak = streak
		} else {
			s.stats.WinStreak++
		}
	case "loss":
		s.stats.TotalLosses++
		s.stats.WinStreak = 0
	}
}
