package profile

import (
	"sync"
	"testing"

	"github.com/smartstocks/pvp-tui/internal/client"
)

func TestSetLogin(t *testing.T) {
	s := NewStore()
	s.SetLogin(nil)
	if s.UserID() != "" {
		t.Fatal("nil login should leave the store empty")
	}

	s.SetLogin(&client.LoginResponse{
		User:  &client.User{ID: "u1", Username: "ana"},
		Stats: &client.UserStats{SmartPoints: 1500, RankTier: "silver"},
	})
	if s.UserID() != "u1" || s.User().Username != "ana" {
		t.Errorf("User() = %+v", s.User())
	}
	if st := s.Stats(); st.SmartPoints != 1500 || st.RankTier != "silver" {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestUpdateStatsKeepsTierWhenEmpty(t *testing.T) {
	s := NewStore()
	s.UpdateStats(900, "bronze")
	s.UpdateStats(1100, "")
	if st := s.Stats(); st.SmartPoints != 1100 || st.RankTier != "bronze" {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestRecordResult(t *testing.T) {
	tests := []struct {
		name       string
		results    []string
		streaks    []int
		wins       int
		losses     int
		wantStreak int
	}{
		{"local streak", []string{"win", "win"}, []int{0, 0}, 2, 0, 2},
		{"server streak wins", []string{"win"}, []int{7}, 1, 0, 7},
		{"loss resets", []string{"win", "win", "loss"}, []int{0, 0, 0}, 2, 1, 0},
		{"draw leaves streak", []string{"win", "draw"}, []int{0, 0}, 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			for i, r := range tt.results {
				s.RecordResult(r, tt.streaks[i])
			}
			st := s.Stats()
			if st.TotalWins != tt.wins || st.TotalLosses != tt.losses || st.WinStreak != tt.wantStreak {
				t.Errorf("Stats() = %+v, want wins=%d losses=%d streak=%d", st, tt.wins, tt.losses, tt.wantStreak)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.UpdateStats(n, "gold")
			s.RecordResult("win", 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Stats()
			_ = s.User()
		}()
	}
	wg.Wait()
	if s.Stats().TotalWins != 8 {
		t.Errorf("TotalWins = %d, want 8", s.Stats().TotalWins)
	}
}
