package client

import "strings"

// RankTier is one rung of the SmartPoints ladder.
type RankTier struct {
	Name      string
	MinPoints int
}

// RankLadder lists the tiers from lowest to highest.
var RankLadder = []RankTier{
	{"bronze", 0},
	{"silver", 1000},
	{"gold", 2500},
	{"platinum", 5000},
	{"master", 10000},
}

// TierFor returns the highest tier whose threshold points reaches.
func TierFor(points int) RankTier {
	t := RankLadder[0]
	for _, r := range RankLadder {
		if points >= r.MinPoints {
			t = r
		}
	}
	return t
}

// NextTier returns the tier above points, or false at the top.
func NextTier(points int) (RankTier, bool) {
	for _, r := range RankLadder {
		if points < r.MinPoints {
			return r, true
		}
	}
	return RankTier{}, false
}

// TierIndex returns the ladder position of a tier name, ignoring case, or -1.
// "maestro" is accepted for master.
func TierIndex(name string) int {
	name = strings.ToLower(name)
	if name == "maestro" {
		name = "master"
	}
	for i, r := range RankLadder {
		if r.Name == name {
			return i
		}
	}
	return -1
}
