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

	"golang.org/x/sync/errgroup"
)

const (
	FeedTypeGig    = "gig"
	FeedTypeReview = "review"

	SortRecent   = "recent"
	SortTrending = "trending"

	// reviews newer than this count as recent on a gig
	recentReviewWindow = 30 * 24 * time.Hour
)

type GigActivitySource interface {
	GigActivity(ctx context.Context, organizerIDs []uint64, openOnly bool, recentSince time.Time, limit int) ([]mysql.GigActivity, error)
}

type ReviewActivitySource interface {
	ReviewActivity(ctx context.Context, reviewerIDs []uint64, limit int) ([]mysql.ReviewActivity, error)
}

type FeedConfig struct {
	GigLimit    int
	ReviewLimit int
	PageSize    int
	MaxPageSize int
}

type FeedService struct {
	graph   SocialGraph
	gigs    GigActivitySource
	reviews ReviewActivitySource
	cfg     FeedConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewFeedService(graph SocialGraph, gigs GigActivitySource, reviews ReviewActivitySource, cfg FeedConfig, m *metrics.Metrics) *FeedService {
	return &FeedService{graph: graph, gigs: gigs, reviews: reviews, cfg: cfg, metrics: m, now: time.Now}
}

type FeedQuery struct {
	ViewerID    uint64
	Since       string
	Type        string
	Sort        string
	IncludeSelf bool
	Page        int
	PageSize    int
}

// FeedItem is a gig or a review in one shape. Type-specific fields are
// omitted for the other type.
type FeedItem struct {
	Type            string     `json:"type"`
	ID              uint64     `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UserID          uint64     `json:"user_id"`
	Username        string     `json:"username"`
	ProfileImageURL *string    `json:"profile_image_url"`
	Score           float64    `json:"score"`
	Title           string     `json:"title,omitempty"`
	Location        string     `json:"location,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	Rating          *int       `json:"rating,omitempty"`
	Comment         *string    `json:"comment,omitempty"`
	ReviewedUserID  *uint64    `json:"reviewed_user_id,omitempty"`
	ReviewedUser    *string    `json:"reviewed_username,omitempty"`
}

type FeedPage struct {
	Count    int        `json:"count"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Next     *int       `json:"next"`
	Previous *int       `json:"previous"`
	Results  []FeedItem `json:"results"`
}

// Feed merges gigs organized and reviews written by the accounts the viewer
// follows (and the viewer, unless excluded), then filters, sorts and pages.
func (s *FeedService) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	start := time.Now()
	v, err := loadViewer(ctx, s.graph, q.ViewerID)
	if err != nil {
		return nil, err
	}
	visible := ranking.NewIDSet()
	for id := range v.following {
		if !v.blocked.Has(id) {
			visible.Add(id)
		}
	}
	if q.IncludeSelf {
		visible.Add(v.account.ID)
	}

	now := s.now()
	authors := visible.Slice()
	var gigs []mysql.GigActivity
	var reviews []mysql.ReviewActivity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		gigs, err = s.gigs.GigActivity(gctx, authors, false, now.Add(-recentReviewWindow), s.cfg.GigLimit)
		return
	})
	g.Go(func() (err error) {
		reviews, err = s.reviews.ReviewActivity(gctx, authors, s.cfg.ReviewLimit)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feed pull: %w", err)
	}

	items := make([]FeedItem, 0, len(gigs)+len(reviews))
	for i := range gigs {
		items = append(items, gigItem(&gigs[i], now))
	}
	for i := range reviews {
		items = append(items, reviewItem(&reviews[i], now))
	}

	if cutoff, ok := ranking.SinceCutoff(q.Since, now); ok {
		items = slices.DeleteFunc(items, func(it FeedItem) bool { return it.CreatedAt.Before(cutoff) })
	}
	if t := normalizeFeedType(q.Type); t != "" {
		items = slices.DeleteFunc(items, func(it FeedItem) bool { return it.Type != t })
	}
	sortFeed(items, q.Sort)

	page, size := ranking.NormalizePage(q.Page, q.PageSize, s.cfg.PageSize, s.cfg.MaxPageSize)
	p := ranking.Paginate(items, page, size)
	s.metrics.ObserveRanking(metrics.EngineFeed, len(gigs)+len(reviews), time.Since(start))
	return &FeedPage{
		Count:    p.Count,
		Page:     p.Page,
		PageSize: p.PageSize,
		Next:     pageLink(p.HasNext(), p.Page+1),
		Previous: pageLink(p.HasPrevious(), p.Page-1),
		Results:  p.Items,
	}, nil
}

func gigItem(g *mysql.GigActivity, now time.Time) FeedItem {
	date := g.Date
	return FeedItem{
		Type:            FeedTypeGig,
		ID:              g.ID,
		CreatedAt:       g.CreatedAt,
		UserID:          g.OrganizerID,
		Username:        g.OrganizerUsername,
		ProfileImageURL: imageOrNil(g.OrganizerImage),
		Score:           ranking.GigTrendingScore(g.ReviewCount, g.RecentReviews, g.CreatedAt, now),
		Title:           g.Title,
		Location:        g.Location,
		Date:            &date,
	}
}

func reviewItem(r *mysql.ReviewActivity, now time.Time) FeedItem {
	rating, comment, reviewed, reviewedName := r.Rating, r.Comment, r.ReviewedID, r.ReviewedUsername
	return FeedItem{
		Type:            FeedTypeReview,
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		UserID:          r.ReviewerID,
		Username:        r.ReviewerUsername,
		ProfileImageURL: imageOrNil(r.ReviewerImage),
		Score:           ranking.ReviewTrendingScore(r.Rating, r.CreatedAt, now),
		Rating:          &rating,
		Comment:         &comment,
		ReviewedUserID:  &reviewed,
		ReviewedUser:    &reviewedName,
	}
}

// normalizeFeedType maps gig(s)/review(s) to an item type; anything else
// means no type filter.
func normalizeFeedType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "gig", "gigs":
		return FeedTypeGig
	case "review", "reviews":
		return FeedTypeReview
	default:
		return ""
	}
}

// sortFeed orders by score (trending) or creation time (default), both
// descending. Ties fall back to type then id, descending.
func sortFeed(items []FeedItem, mode string) {
	trending := strings.EqualFold(strings.TrimSpace(mode), SortTrending)
	slices.SortFunc(items, func(a, b FeedItem) int {
		var primary int
		if trending {
			primary = cmp.Compare(b.Score, a.Score)
		} else {
			primary = b.CreatedAt.Compare(a.CreatedAt)
		}
		return cmpOr(primary, cmp.Compare(b.Type, a.Type), cmp.Compare(b.ID, a.ID))
	})
}
