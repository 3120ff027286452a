package npc

import (
	"fmt"
	"strings"
)

// Difficulty selects a Profile. Tiers only move thresholds and noise;
// every tier returns legal actions.
type Difficulty byte

const (
	Easy   Difficulty = 1
	Medium Difficulty = 2
	Hard   Difficulty = 3
)

var DifficultyDictionary = map[Difficulty]string{
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
}

func (d Difficulty) String() string {
	if s, ok := DifficultyDictionary[d]; ok {
		return s
	}
	return "unknown"
}

func (d Difficulty) Valid() bool {
	_, ok := profiles[d]
	return ok
}

func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range DifficultyDictionary {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// Profile holds the tunable parameters of the rule brain.
type Profile struct {
	BidThreshold float64 `json:"bidThreshold"` // 0.0–1.0: minimum hand strength to bid at all
	Caution      float64 `json:"caution"`      // 0.0–1.0: share of estimated points held back from the bid
	Randomness   float64 `json:"randomness"`   // 0.0–1.0: decision noise
	Counting     bool    `json:"counting"`     // refuses to win tricks worth negative points
}

var profiles = map[Difficulty]Profile{
	Easy:   {BidThreshold: 0.45, Caution: 0.45, Randomness: 0.30},
	Medium: {BidThreshold: 0.35, Caution: 0.30, Randomness: 0.10, Counting: true},
	Hard:   {BidThreshold: 0.28, Caution: 0.20, Randomness: 0.0, Counting: true},
}

// ProfileFor returns the Medium profile for unknown tiers.
func ProfileFor(d Difficulty) Profile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[Medium]
}
