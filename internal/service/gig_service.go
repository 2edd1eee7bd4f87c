package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gigconnect/internal/model"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"
)

type GigService struct {
	gigs     *mysql.GigRepository
	tags     *mysql.TagRepository
	accounts *mysql.AccountRepository
}

func NewGigService(gigs *mysql.GigRepository, tags *mysql.TagRepository, accounts *mysql.AccountRepository) *GigService {
	return &GigService{gigs: gigs, tags: tags, accounts: accounts}
}

type TagView struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type GigView struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	OrganizerID uint64    `json:"organizer_id"`
	IsOpen      bool      `json:"is_open"`
	Tags        []TagView `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

func newGigView(g *model.Gig) GigView {
	tags := make([]TagView, 0, len(g.Tags))
	for _, t := range g.Tags {
		tags = append(tags, TagView{ID: t.ID, Name: t.Name})
	}
	return GigView{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Date:        g.Date,
		Location:    g.Location,
		OrganizerID: g.OrganizerID,
		IsOpen:      g.IsOpen,
		Tags:        tags,
		CreatedAt:   g.CreatedAt,
	}
}

type GigInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
	IsOpen      *bool      `json:"is_open"`
	Tags        *[]uint64  `json:"tags"`
}

type GigQuery struct {
	ViewerID    uint64
	OrganizerID uint64
	OpenOnly    bool
	// Recommended keeps gigs tagged with one of the viewer's skills.
	Recommended bool
	Page        int
	PageSize    int
}

type GigPage struct {
	Count    int64     `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Next     *int      `json:"next"`
	Previous *int      `json:"previous"`
	Results  []GigView `json:"results"`
}

func (s *GigService) Create(ctx context.Context, organizerID uint64, in GigInput) (*GigView, error) {
	if in.Title == nil || in.Date == nil {
		return nil, fmt.Errorf("%w: title and date are required", ErrInvalidInput)
	}
	if err := validateGig(in); err != nil {
		return nil, err
	}
	g := &model.Gig{
		Title:       strings.TrimSpace(*in.Title),
		Date:        *in.Date,
		OrganizerID: organizerID,
		IsOpen:      true,
	}
	if in.Description != nil {
		g.Description = *in.Description
	}
	if in.Location != nil {
		g.Location = strings.TrimSpace(*in.Location)
	}
	if in.IsOpen != nil {
		g.IsOpen = *in.IsOpen
	}
	var tagIDs []uint64
	if in.Tags != nil {
		tagIDs = *in.Tags
	}
	if err := s.gigs.Create(ctx, g, tagIDs); err != nil {
		return nil, fmt.Errorf("create gig: %w", err)
	}
	return s.Get(ctx, g.ID)
}

func (s *GigService) Get(ctx context.Context, id uint64) (*GigView, error) {
	g, err := s.gigs.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrGigNotFound, "load gig")
	}
	v := newGigView(g)
	return &v, nil
}

// Update is restricted to the organizer.
func (s *GigService) Update(ctx context.Context, id, meID uint64, in GigInput) (*GigView, error) {
	if err := s.owned(ctx, id, meID); err != nil {
		return nil, err
	}
	if err := validateGig(in); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Date != nil {
		fields["date"] = *in.Date
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if in.IsOpen != nil {
		fields["is_open"] = *in.IsOpen
	}
	if err := s.gigs.Update(ctx, id, fields, in.Tags); err != nil {
		return nil, fmt.Errorf("update gig: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *GigService) Delete(ctx context.Context, id, meID uint64) error {
	if err := s.owned(ctx, id, meID); err != nil {
		return err
	}
	if err := s.gigs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete gig: %w", err)
	}
	return nil
}

// List orders gigs by date. A recommended listing for a viewer without
// skills is empty.
func (s *GigService) List(ctx context.Context, q GigQuery) (*GigPage, error) {
	page, size := ranking.NormalizePage(q.Page, q.PageSize, 10, 50)
	f := mysql.GigFilter{OrganizerID: q.OrganizerID, OpenOnly: q.OpenOnly, Offset: (page - 1) * size, Limit: size}
	if q.Recommended && q.ViewerID != 0 {
		skills, err := s.accounts.Skills(ctx, q.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("load skills: %w", err)
		}
		if len(skills) == 0 {
			return &GigPage{Page: page, PageSize: size, Previous: pageLink(page > 1, page-1), Results: []GigView{}}, nil
		}
		for _, t := range skills {
			f.TagIDs = append(f.TagIDs, t.ID)
		}
	}
	list, total, err := s.gigs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	views := make([]GigView, 0, len(list))
	for i := range list {
		views = append(views, newGigView(&list[i]))
	}
	return &GigPage{
		Count:    total,
		Page:     page,
		PageSize: size,
		Next:     pageLink(int64(page*size) < total, page+1),
		Previous: pageLink(page > 1, page-1),
		Results:  views,
	}, nil
}

func (s *GigService) Tags(ctx context.Context) ([]TagView, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagView{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// CreateTag records who created the tag when createdBy is non-zero.
func (s *GigService) CreateTag(ctx context.Context, name string, createdBy uint64) (*TagView, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 50 {
		return nil, fmt.Errorf("%w: tag name must be 1 to 50 characters", ErrInvalidInput)
	}
	var by *uint64
	if createdBy != 0 {
		by = &createdBy
	}
	t, err := s.tags.Create(ctx, name, by)
	if errors.Is(err, mysql.ErrTagExists) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return &TagView{ID: t.ID, Name: t.Name}, nil
}

func (s *GigService) owned(ctx context.Context, id, meID uint64) error {
	g, err := s.gigs.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrGigNotFound, "load gig")
	}
	if g.OrganizerID != meID {
		return ErrNotOwner
	}
	return nil
}

func validateGig(in GigInput) error {
	if in.Title != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*in.Title)); n == 0 || n > 100 {
			return fmt.Errorf("%w: title must be 1 to 100 characters", ErrInvalidInput)
		}
	}
	if in.Date != nil && in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if in.Location != nil && utf8.RuneCountInString(*in.Location) > 200 {
		return fmt.Errorf("%w: location is too long", ErrInvalidInput)
	}
	return nil
}
