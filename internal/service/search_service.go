package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gigconnect/internal/metrics"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"
)

type SearchService struct {
	graph       SocialGraph
	pageSize    int
	maxPageSize int
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewSearchService(graph SocialGraph, pageSize, maxPageSize int, m *metrics.Metrics) *SearchService {
	return &SearchService{
		graph:       graph,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		metrics:     m,
		now:         time.Now,
	}
}

// SearchQuery holds the hard filters. ViewerID 0 searches anonymously.
type SearchQuery struct {
	Q        string
	SkillID  uint64
	City     string
	Country  string
	ViewerID uint64
	Page     int
	PageSize int
}

type SearchResult struct {
	AccountView
	Score float64 `json:"score"`
}

type SearchPage struct {
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Next     *int           `json:"next"`
	Previous *int           `json:"previous"`
	Results  []SearchResult `json:"results"`
}

// Search filters accounts, scores them against the viewer and pages the
// ranking. Anonymous viewers only get the recency and text signals.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) (*SearchPage, error) {
	start := time.Now()
	cq := mysql.CandidateQuery{
		Query:   strings.TrimSpace(q.Q),
		SkillID: q.SkillID,
		City:    strings.TrimSpace(q.City),
		Country: strings.TrimSpace(q.Country),
	}

	var v *viewer
	if q.ViewerID > 0 {
		var err error
		if v, err = loadViewer(ctx, s.graph, q.ViewerID); err != nil {
			return nil, err
		}
		cq.Exclude = v.exclusions(false)
	}

	cands, err := s.graph.Candidates(ctx, cq)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	var followersOf, skillsOf map[uint64][]uint64
	var origin *ranking.Coordinates
	if v != nil {
		if followersOf, skillsOf, err = candidateSignals(ctx, s.graph, accountIDs(cands)); err != nil {
			return nil, fmt.Errorf("search signals: %w", err)
		}
		origin = v.point()
	}

	now := s.now()
	results := make([]SearchResult, 0, len(cands))
	for i := range cands {
		c := &cands[i]
		score := ranking.RecencyScore(c.LastActiveAt, now) + ranking.TextMatchScore(cq.Query, c.Username)
		if v != nil {
			score += float64(ranking.IntersectCount(v.skills, skillsOf[c.ID]))*3 +
				float64(ranking.IntersectCount(v.followers, followersOf[c.ID]))*2 +
				ranking.ProximityScore(origin, ranking.PointOf(c.Latitude, c.Longitude), ranking.SearchGeoScale)
		}
		results = append(results, SearchResult{AccountView: NewAccountView(c), Score: ranking.Round3(score)})
	}
	slices.SortStableFunc(results, func(a, b SearchResult) int {
		return cmpOr(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Username, b.Username))
	})

	page, size := ranking.NormalizePage(q.Page, q.PageSize, s.pageSize, s.maxPageSize)
	p := ranking.Paginate(results, page, size)
	s.metrics.ObserveRanking(metrics.EngineSearch, len(cands), time.Since(start))
	return &SearchPage{
		Count:    p.Count,
		Page:     p.Page,
		PageSize: p.PageSize,
		Next:     pageLink(p.HasNext(), p.Page+1),
		Previous: pageLink(p.HasPrevious(), p.Page-1),
		Results:  p.Items,
	}, nil
}

func pageLink(ok bool, n int) *int {
	if !ok {
		return nil
	}
	return &n
}
