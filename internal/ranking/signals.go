// Package ranking holds the scoring primitives shared by the suggestion,
// search and feed rankers. Everything here is a pure function of its inputs,
// except UniformJitter which draws from math/rand.
package ranking

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// MusicianRole is the account role that earns RoleBonus.
const MusicianRole = "musician"

// IDSet is a set of account or tag ids.
type IDSet map[uint64]struct{}

func NewIDSet(ids ...uint64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id uint64) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(ids ...uint64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Slice returns the members in no particular order.
func (s IDSet) Slice() []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// IntersectCount counts the distinct ids that are also members of s.
// It backs shared-skill, mutual-follower and followed-by-following counts.
func IntersectCount(s IDSet, ids []uint64) int {
	if len(s) == 0 || len(ids) == 0 {
		return 0
	}
	seen := make(map[uint64]struct{}, len(ids))
	n := 0
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.Has(id) {
			n++
		}
	}
	return n
}

// SameCity is 1 when both cities are set and exactly equal.
func SameCity(a, b string) int {
	if a == "" || b == "" || a != b {
		return 0
	}
	return 1
}

// RecencyScore rewards recently active accounts and penalizes dormant ones.
// A nil lastActive contributes nothing.
func RecencyScore(lastActive *time.Time, now time.Time) float64 {
	if lastActive == nil {
		return 0
	}
	days := int(now.Sub(*lastActive).Hours() / 24)
	switch {
	case days <= 7:
		return 10
	case days <= 30:
		return 5
	case days <= 60:
		return 1
	default:
		return -3
	}
}

// TextMatchScore boosts usernames that start with or contain the query.
func TextMatchScore(query, username string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	u := strings.ToLower(username)
	switch {
	case strings.HasPrefix(u, q):
		return 5
	case strings.Contains(u, q):
		return 2
	default:
		return 0
	}
}

// RoleBonus is +2 for musicians. Accounts without a role get nothing.
func RoleBonus(role string) float64 {
	if role == MusicianRole {
		return 2
	}
	return 0
}

// Jitter yields freshness noise added once per candidate.
type Jitter func() float64

// UniformJitter draws from [0, 1). Results are intentionally not reproducible.
func UniformJitter() float64 { return rand.Float64() }

// NoJitter disables freshness noise.
func NoJitter() float64 { return 0 }

// Round3 rounds to three decimal places.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
