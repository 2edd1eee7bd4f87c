package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigconnect/internal/model"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"
)

type ReviewService struct {
	reviews  *mysql.ReviewRepository
	gigs     *mysql.GigRepository
	accounts *mysql.AccountRepository
}

func NewReviewService(reviews *mysql.ReviewRepository, gigs *mysql.GigRepository, accounts *mysql.AccountRepository) *ReviewService {
	return &ReviewService{reviews: reviews, gigs: gigs, accounts: accounts}
}

type ReviewInput struct {
	ReviewedID uint64 `json:"reviewed_user"`
	GigID      uint64 `json:"gig"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

type ReviewView struct {
	ID         uint64    `json:"id"`
	ReviewerID uint64    `json:"reviewer_id"`
	ReviewedID uint64    `json:"reviewed_user_id"`
	GigID      uint64    `json:"gig_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func newReviewView(rv *model.Review) ReviewView {
	return ReviewView{
		ID:         rv.ID,
		ReviewerID: rv.ReviewerID,
		ReviewedID: rv.ReviewedID,
		GigID:      rv.GigID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		CreatedAt:  rv.CreatedAt,
	}
}

type ReviewPage struct {
	Count    int64        `json:"count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Next     *int         `json:"next"`
	Previous *int         `json:"previous"`
	Results  []ReviewView `json:"results"`
}

// Create records a 1..5 rating of another account for a gig and refreshes
// the reviewed account's average.
func (s *ReviewService) Create(ctx context.Context, reviewerID uint64, in ReviewInput) (*ReviewView, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if in.ReviewedID == reviewerID {
		return nil, ErrSelfAction
	}
	if _, err := s.accounts.FindByID(ctx, in.ReviewedID); err != nil {
		return nil, notFound(err, ErrAccountNotFound, "load reviewed account")
	}
	if _, err := s.gigs.FindByID(ctx, in.GigID); err != nil {
		return nil, notFound(err, ErrGigNotFound, "load gig")
	}
	rv := &model.Review{
		ReviewerID: reviewerID,
		ReviewedID: in.ReviewedID,
		GigID:      in.GigID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, mysql.ErrDuplicateReview) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	v := newReviewView(rv)
	return &v, nil
}

func (s *ReviewService) List(ctx context.Context, f mysql.ReviewFilter, page, size int) (*ReviewPage, error) {
	page, size = ranking.NormalizePage(page, size, 10, 50)
	f.Offset, f.Limit = (page-1)*size, size
	list, total, err := s.reviews.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	views := make([]ReviewView, 0, len(list))
	for i := range list {
		views = append(views, newReviewView(&list[i]))
	}
	return &ReviewPage{
		Count:    total,
		Page:     page,
		PageSize: size,
		Next:     pageLink(int64(page*size) < total, page+1),
		Previous: pageLink(page > 1, page-1),
		Results:  views,
	}, nil
}

// Delete is restricted to the reviewer.
func (s *ReviewService) Delete(ctx context.Context, id, meID uint64) error {
	rv, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrReviewNotFound, "load review")
	}
	if rv.ReviewerID != meID {
		return ErrNotOwner
	}
	if err := s.reviews.Delete(ctx, rv); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
