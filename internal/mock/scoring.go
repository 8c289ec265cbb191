package mock

import "github.com/smartstocks/pvp-tui/internal/client"

const (
	roundBasePoints = 100
	speedBonusMax   = 50
	winBasePoints   = 200
	lossPoints      = -100
)

// RoundPoints scores one decision. A correct decision earns the base plus a
// speed bonus that shrinks linearly to zero at the time limit.
func RoundPoints(correct bool, elapsed float64, limit int) int {
	if !correct {
		return 0
	}
	if limit <= 0 {
		return roundBasePoints
	}
	bonus := int((float64(limit) - elapsed) / float64(limit) * speedBonusMax)
	if bonus < 0 {
		bonus = 0
	}
	if bonus > speedBonusMax {
		bonus = speedBonusMax
	}
	return roundBasePoints + bonus
}

// WinPoints is the ranking reward for a win, with 100 extra for every third
// consecutive win.
func WinPoints(streak int) int {
	return winBasePoints + ((streak+1)/3)*100
}

// MatchPoints returns the ranking delta for an outcome ("you", "opponent" or
// "tie") given the current win streak.
func MatchPoints(winner string, streak int) int {
	switch winner {
	case "you":
		return WinPoints(streak)
	case "opponent":
		return lossPoints
	}
	return 0
}

// Tier maps a point total to a rank tier name.
func Tier(points int) string {
	return client.TierFor(points).Name
}
