package service

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"gigconnect/internal/metrics"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"

	"go.uber.org/zap"
)

type SuggestionConfig struct {
	Limit          int
	CacheTTL       time.Duration
	ActiveWindow   time.Duration
	TrendingWindow time.Duration
}

type SuggestionService struct {
	graph   SocialGraph
	cache   SuggestionCache
	cfg     SuggestionConfig
	jitter  ranking.Jitter
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSuggestionService(graph SocialGraph, cache SuggestionCache, cfg SuggestionConfig, jitter ranking.Jitter, log *zap.Logger, m *metrics.Metrics) *SuggestionService {
	if jitter == nil {
		jitter = ranking.NoJitter
	}
	return &SuggestionService{
		graph:   graph,
		cache:   cache,
		cfg:     cfg,
		jitter:  jitter,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

type BasicSuggestion struct {
	ID                  uint64  `json:"id"`
	Username            string  `json:"username"`
	ProfileImage        *string `json:"profile_image"`
	MutualFollowers     int     `json:"mutual_followers"`
	FollowedByFollowing int     `json:"followed_by_following"`
	SharedSkills        int     `json:"shared_skills"`
	SameCity            int     `json:"same_city"`
}

// BasicSuggestions reports the eligible total and the top of the ranking.
type BasicSuggestions struct {
	Count   int               `json:"count"`
	Results []BasicSuggestion `json:"results"`
}

type ScoredSuggestion struct {
	ID           uint64  `json:"id"`
	Username     string  `json:"username"`
	ProfileImage *string `json:"profile_image"`
	Score        float64 `json:"score"`
}

type AdvancedSuggestions struct {
	Count   int                `json:"count"`
	Results []ScoredSuggestion `json:"results"`
}

// Basic ranks every eligible account lexicographically on
// (mutual followers, followed by following, shared skills, same city),
// all descending, then by username.
func (s *SuggestionService) Basic(ctx context.Context, viewerID uint64) (*BasicSuggestions, error) {
	start := time.Now()
	v, err := loadViewer(ctx, s.graph, viewerID)
	if err != nil {
		return nil, err
	}
	cands, err := s.graph.Candidates(ctx, mysql.CandidateQuery{Exclude: v.exclusions(true)})
	if err != nil {
		return nil, fmt.Errorf("basic suggestions candidates: %w", err)
	}
	followersOf, skillsOf, err := candidateSignals(ctx, s.graph, accountIDs(cands))
	if err != nil {
		return nil, fmt.Errorf("basic suggestions signals: %w", err)
	}

	list := make([]BasicSuggestion, 0, len(cands))
	for _, c := range cands {
		list = append(list, BasicSuggestion{
			ID:                  c.ID,
			Username:            c.Username,
			ProfileImage:        imageOrNil(c.ProfileImage),
			MutualFollowers:     ranking.IntersectCount(v.followers, followersOf[c.ID]),
			FollowedByFollowing: ranking.IntersectCount(v.following, followersOf[c.ID]),
			SharedSkills:        ranking.IntersectCount(v.skills, skillsOf[c.ID]),
			SameCity:            ranking.SameCity(v.account.City, c.City),
		})
	}
	slices.SortStableFunc(list, func(a, b BasicSuggestion) int {
		return cmpOr(
			cmp.Compare(b.MutualFollowers, a.MutualFollowers),
			cmp.Compare(b.FollowedByFollowing, a.FollowedByFollowing),
			cmp.Compare(b.SharedSkills, a.SharedSkills),
			cmp.Compare(b.SameCity, a.SameCity),
			cmp.Compare(a.Username, b.Username),
		)
	})

	out := &BasicSuggestions{Count: len(list), Results: list[:min(len(list), s.cfg.Limit)]}
	s.metrics.ObserveRanking(metrics.EngineBasic, len(cands), time.Since(start))
	return out, nil
}

// Advanced returns the rendered JSON response. A cached response is returned
// byte for byte; otherwise candidates active within the window are scored,
// the top of the ranking is rendered and cached for the TTL. Cache failures
// are logged and never fail the request.
func (s *SuggestionService) Advanced(ctx context.Context, viewerID uint64) ([]byte, error) {
	if body, ok, err := s.cache.Get(ctx, viewerID); err != nil {
		s.metrics.IncCache(metrics.CacheError)
		s.log.Warn("suggestion cache read failed", zap.Uint64("viewer_id", viewerID), zap.Error(err))
	} else if ok {
		s.metrics.IncCache(metrics.CacheHit)
		return body, nil
	} else {
		s.metrics.IncCache(metrics.CacheMiss)
	}

	resp, err := s.rankAdvanced(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode suggestions: %w", err)
	}
	if err := s.cache.Set(ctx, viewerID, body, s.cfg.CacheTTL); err != nil {
		s.log.Warn("suggestion cache write failed", zap.Uint64("viewer_id", viewerID), zap.Error(err))
	}
	return body, nil
}

func (s *SuggestionService) rankAdvanced(ctx context.Context, viewerID uint64) (*AdvancedSuggestions, error) {
	start := time.Now()
	v, err := loadViewer(ctx, s.graph, viewerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	activeSince := now.Add(-s.cfg.ActiveWindow)
	cands, err := s.graph.Candidates(ctx, mysql.CandidateQuery{
		Exclude:     v.exclusions(true),
		ActiveSince: &activeSince,
	})
	if err != nil {
		return nil, fmt.Errorf("advanced suggestions candidates: %w", err)
	}
	ids := accountIDs(cands)
	followersOf, skillsOf, err := candidateSignals(ctx, s.graph, ids)
	if err != nil {
		return nil, fmt.Errorf("advanced suggestions signals: %w", err)
	}
	trending, err := s.graph.ActiveFollowerCounts(ctx, ids, now.Add(-s.cfg.TrendingWindow))
	if err != nil {
		return nil, fmt.Errorf("advanced suggestions trending: %w", err)
	}

	origin := v.point()
	list := make([]ScoredSuggestion, 0, len(cands))
	for _, c := range cands {
		score := float64(ranking.IntersectCount(v.followers, followersOf[c.ID]))*4 +
			float64(ranking.IntersectCount(v.following, followersOf[c.ID]))*3 +
			float64(ranking.IntersectCount(v.skills, skillsOf[c.ID]))*2 +
			float64(ranking.SameCity(v.account.City, c.City))*2 +
			float64(trending[c.ID]) +
			ranking.ProximityScore(origin, ranking.PointOf(c.Latitude, c.Longitude), ranking.SuggestionGeoScale) +
			ranking.RoleBonus(c.Role) +
			s.jitter()
		list = append(list, ScoredSuggestion{
			ID:           c.ID,
			Username:     c.Username,
			ProfileImage: imageOrNil(c.ProfileImage),
			Score:        ranking.Round3(score),
		})
	}
	slices.SortStableFunc(list, func(a, b ScoredSuggestion) int {
		return cmpOr(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Username, b.Username))
	})
	list = list[:min(len(list), s.cfg.Limit)]

	s.metrics.ObserveRanking(metrics.EngineAdvanced, len(cands), time.Since(start))
	return &AdvancedSuggestions{Count: len(list), Results: list}, nil
}

// Invalidate drops the cached suggestions of the given viewers. It is called
// after writes that change who a viewer may see.
func (s *SuggestionService) Invalidate(ctx context.Context, viewerIDs ...uint64) {
	if err := s.cache.Delete(ctx, viewerIDs...); err != nil {
		s.log.Warn("suggestion cache invalidation failed", zap.Uint64s("viewer_ids", viewerIDs), zap.Error(err))
	}
}
