package ranking

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// AgeDays is the whole number of days since createdAt, floored at 1 so that
// same-day items do not divide by zero.
func AgeDays(createdAt, now time.Time) int {
	days := int(now.Sub(createdAt) / day)
	if days < 1 {
		return 1
	}
	return days
}

// GigTrendingScore weighs total reviews, reviews in the last 30 days and age.
func GigTrendingScore(reviewCount, recentReviews int, createdAt, now time.Time) float64 {
	return float64(reviewCount*2+recentReviews*3) + 30/float64(AgeDays(createdAt, now))
}

// ReviewTrendingScore weighs age and the star rating.
func ReviewTrendingScore(rating int, createdAt, now time.Time) float64 {
	return 10/float64(AgeDays(createdAt, now)) + float64(rating)
}

// SinceCutoff parses a feed window such as "24h", "7d" or "3m" (one month is
// 30 days). ok is false for "all", an empty value, or anything unparseable;
// callers treat that as no filter.
func SinceCutoff(since string, now time.Time) (cutoff time.Time, ok bool) {
	s := strings.ToLower(strings.TrimSpace(since))
	if s == "" || s == "all" || len(s) < 2 {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	var unit time.Duration
	switch s[len(s)-1] {
	case 'h':
		unit = time.Hour
	case 'd':
		unit = day
	case 'm':
		unit = 30 * day
	default:
		return time.Time{}, false
	}
	if int64(n) > math.MaxInt64/int64(unit) {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(n) * unit), true
}
