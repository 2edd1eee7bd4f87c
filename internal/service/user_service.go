package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"gigconnect/internal/model"
	"gigconnect/internal/pkg"
	"gigconnect/internal/ranking"
	"gigconnect/internal/repository/mysql"
	"gigconnect/internal/repository/redis"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleMusician  = ranking.MusicianRole
	RoleOrganizer = "organizer"
)

const minPasswordLen = 8

type UserDeps struct {
	Accounts *mysql.AccountRepository
	Follows  *mysql.FollowRepository
	Requests *mysql.FollowRequestRepository
	Blocks   *mysql.BlockRepository
	Tags     *mysql.TagRepository
	Reviews  *mysql.ReviewRepository
	Gigs     *mysql.GigRepository
	Graph    SocialGraph
	Sessions *redis.SessionRepository
	Issuer   *pkg.Issuer
	Cache    CacheInvalidator
}

type UserService struct {
	UserDeps
	log *zap.Logger
	now func() time.Time
}

func NewUserService(d UserDeps, log *zap.Logger) *UserService {
	return &UserService{UserDeps: d, log: log, now: time.Now}
}

type RegisterInput struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	Bio       string   `json:"bio"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Skills    []uint64 `json:"skills"`
}

// ProfileUpdate carries the fields to change; nil means unchanged.
type ProfileUpdate struct {
	Bio          *string   `json:"bio"`
	ProfileImage *string   `json:"profile_image"`
	City         *string   `json:"city"`
	Country      *string   `json:"country"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Website      *string   `json:"website"`
	Instagram    *string   `json:"instagram"`
	Soundcloud   *string   `json:"soundcloud"`
	Youtube      *string   `json:"youtube"`
	IsAvailable  *bool     `json:"is_available"`
	Role         *string   `json:"role"`
	Skills       *[]uint64 `json:"skills"`
}

type Profile struct {
	AccountView
	Email  string      `json:"email"`
	Skills []model.Tag `json:"skills"`
}

type PublicProfile struct {
	AccountView
	Skills        []model.Tag     `json:"skills"`
	RecentReviews []ProfileReview `json:"recent_reviews"`
	RecentGigs    []ProfileGig    `json:"recent_organized_gigs"`
	IsFollowing   bool            `json:"is_following"`
	IsFollowedBy  bool            `json:"is_followed_by"`
	IsMutual      bool            `json:"is_mutual"`
	IsOwner       bool            `json:"is_owner"`
	FollowStatus  string          `json:"follow_status"`
	IsBlocked     bool            `json:"is_blocked"`
}

type ProfileReview struct {
	ID               uint64    `json:"id"`
	ReviewerUsername string    `json:"reviewer_username"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
}

type ProfileGig struct {
	ID       uint64    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	IsOpen   bool      `json:"is_open"`
}

type UserPage struct {
	Count    int64         `json:"count"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Next     *int          `json:"next"`
	Previous *int          `json:"previous"`
	Results  []AccountView `json:"results"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 32 {
		return nil, fmt.Errorf("%w: username must be 3 to 32 characters", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if err := validateRole(in.Role); err != nil {
		return nil, err
	}
	if err := s.checkTags(ctx, in.Skills); err != nil {
		return nil, err
	}
	taken, err := s.Accounts.Taken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if taken {
		return nil, ErrAccountTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acc := &model.Account{
		Username:    in.Username,
		Email:       in.Email,
		Password:    string(hash),
		Role:        in.Role,
		Bio:         in.Bio,
		City:        strings.TrimSpace(in.City),
		Country:     strings.TrimSpace(in.Country),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		IsAvailable: true,
	}
	if err := s.Accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if len(in.Skills) > 0 {
		if err := s.Accounts.SetSkills(ctx, acc.ID, in.Skills); err != nil {
			return nil, fmt.Errorf("set skills: %w", err)
		}
	}
	return acc, nil
}

// Login accepts a username or an email. The new access token replaces any
// earlier session.
func (s *UserService) Login(ctx context.Context, login, password string) (*pkg.Pair, error) {
	acc, err := s.Accounts.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, acc.ID)
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, id, err := s.Issuer.Refresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if _, err := s.Accounts.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return s.saveSession(ctx, id, pair)
}

func (s *UserService) startSession(ctx context.Context, id uint64) (*pkg.Pair, error) {
	pair, err := s.Issuer.GeneratePair(id)
	if err != nil {
		return nil, fmt.Errorf("sign tokens: %w", err)
	}
	return s.saveSession(ctx, id, pair)
}

func (s *UserService) saveSession(ctx context.Context, id uint64, pair *pkg.Pair) (*pkg.Pair, error) {
	if err := s.Sessions.Save(ctx, id, pair.AccessToken); err != nil {
		return nil, err
	}
	if err := s.Accounts.TouchLastActive(ctx, id, s.now()); err != nil {
		s.log.Warn("touch last active", zap.Uint64("account_id", id), zap.Error(err))
	}
	return pair, nil
}

// Authenticate resolves an access token to its account. Only the token of
// the latest login is accepted; each use extends the session.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (uint64, error) {
	claims, err := s.Issuer.ParseAccess(accessToken)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	current, err := s.Sessions.Get(ctx, claims.AccountID)
	if errors.Is(err, redis.ErrTokenNotFound) || (err == nil && current != accessToken) {
		return 0, ErrSessionRevoked
	}
	if err != nil {
		return 0, err
	}
	if err := s.Sessions.Save(ctx, claims.AccountID, accessToken); err != nil {
		return 0, err
	}
	return claims.AccountID, nil
}

func (s *UserService) Logout(ctx context.Context, id uint64) error {
	return s.Sessions.Delete(ctx, id)
}

// ChangePassword also ends the current session.
func (s *UserService) ChangePassword(ctx context.Context, id uint64, oldPassword, newPassword string) error {
	acc, err := s.account(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(oldPassword)) != nil {
		return fmt.Errorf("%w: old password is incorrect", ErrInvalidInput)
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.Accounts.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.Logout(ctx, id)
}

func (s *UserService) Profile(ctx context.Context, id uint64) (*Profile, error) {
	acc, err := s.account(ctx, id)
	if err != nil {
		return nil, err
	}
	skills, err := s.Accounts.Skills(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	return &Profile{AccountView: NewAccountView(acc), Email: acc.Email, Skills: nonNil(skills)}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint64, in ProfileUpdate) (*Profile, error) {
	if _, err := s.account(ctx, id); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	setStr := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	setStr("bio", in.Bio)
	setStr("profile_image", in.ProfileImage)
	setStr("city", in.City)
	setStr("country", in.Country)
	setStr("website", in.Website)
	setStr("instagram", in.Instagram)
	setStr("soundcloud", in.Soundcloud)
	setStr("youtube", in.Youtube)
	if in.Role != nil {
		if err := validateRole(*in.Role); err != nil {
			return nil, err
		}
		fields["role"] = *in.Role
	}
	if in.Latitude != nil {
		fields["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		fields["longitude"] = *in.Longitude
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}
	if in.Skills != nil {
		if err := s.checkTags(ctx, *in.Skills); err != nil {
			return nil, err
		}
	}

	if err := s.Accounts.UpdateProfile(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if in.Skills != nil {
		if err := s.Accounts.SetSkills(ctx, id, *in.Skills); err != nil {
			return nil, fmt.Errorf("set skills: %w", err)
		}
	}
	s.Cache.Invalidate(ctx, id)
	return s.Profile(ctx, id)
}

// DeleteAccount removes the account with all its edges and ends its session.
func (s *UserService) DeleteAccount(ctx context.Context, id uint64) error {
	if _, err := s.account(ctx, id); err != nil {
		return err
	}
	if err := s.Accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.Cache.Invalidate(ctx, id)
	if err := s.Sessions.Delete(ctx, id); err != nil {
		s.log.Warn("drop session of deleted account", zap.Uint64("account_id", id), zap.Error(err))
	}
	return nil
}

// ListUsers pages every account except the viewer and anyone blocked in
// either direction.
func (s *UserService) ListUsers(ctx context.Context, viewerID uint64, page, size int) (*UserPage, error) {
	blocked, err := s.blockedEither(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	exclude := append(blocked, viewerID)
	page, size = ranking.NormalizePage(page, size, 10, 50)
	list, total, err := s.Accounts.List(ctx, exclude, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	views := make([]AccountView, 0, len(list))
	for i := range list {
		views = append(views, NewAccountView(&list[i]))
	}
	return &UserPage{
		Count:    total,
		Page:     page,
		PageSize: size,
		Next:     pageLink(int64(page*size) < total, page+1),
		Previous: pageLink(page > 1, page-1),
		Results:  views,
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (*AccountView, error) {
	acc, err := s.account(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewAccountView(acc)
	return &v, nil
}

// PublicProfile renders targetID as seen by viewerID (0 for anonymous).
// Blocked pairs are refused.
func (s *UserService) PublicProfile(ctx context.Context, viewerID, targetID uint64) (*PublicProfile, error) {
	acc, err := s.account(ctx, targetID)
	if err != nil {
		return nil, err
	}
	out := &PublicProfile{AccountView: NewAccountView(acc), FollowStatus: FollowStatusNone}
	if viewerID != 0 && viewerID != targetID {
		blocked, err := s.Blocks.IsBlockedEither(ctx, viewerID, targetID)
		if err != nil {
			return nil, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			return nil, ErrBlocked
		}
		if out.IsFollowing, err = s.Follows.IsFollowing(ctx, viewerID, targetID); err != nil {
			return nil, err
		}
		if out.IsFollowedBy, err = s.Follows.IsFollowing(ctx, targetID, viewerID); err != nil {
			return nil, err
		}
		out.IsMutual = out.IsFollowing && out.IsFollowedBy
		if out.FollowStatus, err = followStatus(ctx, s.Follows, s.Requests, viewerID, targetID); err != nil {
			return nil, err
		}
	}
	out.IsOwner = viewerID == targetID

	if out.Skills, err = s.Accounts.Skills(ctx, targetID); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	out.Skills = nonNil(out.Skills)
	reviews, _, err := s.Reviews.List(ctx, mysql.ReviewFilter{ReviewedID: targetID, Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	if out.RecentReviews, err = s.profileReviews(ctx, reviews); err != nil {
		return nil, err
	}
	gigs, _, err := s.Gigs.List(ctx, mysql.GigFilter{OrganizerID: targetID, Recent: true, Limit: 3})
	if err != nil {
		return nil, fmt.Errorf("load gigs: %w", err)
	}
	out.RecentGigs = make([]ProfileGig, 0, len(gigs))
	for _, g := range gigs {
		out.RecentGigs = append(out.RecentGigs, ProfileGig{ID: g.ID, Title: g.Title, Date: g.Date, Location: g.Location, IsOpen: g.IsOpen})
	}
	return out, nil
}

// profileReviews resolves reviewer names; deleted reviewers render blank.
func (s *UserService) profileReviews(ctx context.Context, reviews []model.Review) ([]ProfileReview, error) {
	out := make([]ProfileReview, 0, len(reviews))
	names := map[uint64]string{}
	for _, rv := range reviews {
		name, ok := names[rv.ReviewerID]
		if !ok {
			a, err := s.Accounts.FindByID(ctx, rv.ReviewerID)
			switch {
			case err == nil:
				name = a.Username
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, fmt.Errorf("load reviewer: %w", err)
			}
			names[rv.ReviewerID] = name
		}
		out = append(out, ProfileReview{
			ID:               rv.ID,
			ReviewerUsername: name,
			Rating:           rv.Rating,
			Comment:          rv.Comment,
			CreatedAt:        rv.CreatedAt,
		})
	}
	return out, nil
}

func (s *UserService) blockedEither(ctx context.Context, id uint64) ([]uint64, error) {
	blocks, err := s.Graph.BlockIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	by, err := s.Graph.BlockedByIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	return append(blocks, by...), nil
}

func (s *UserService) checkTags(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	uniq := ranking.NewIDSet(ids...)
	n, err := s.Tags.CountExisting(ctx, uniq.Slice())
	if err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if n != int64(len(uniq)) {
		return fmt.Errorf("%w: unknown skill tag", ErrInvalidInput)
	}
	return nil
}

func (s *UserService) account(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := s.Accounts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound, "load account")
	}
	return a, nil
}

func validateRole(role string) error {
	switch role {
	case "", RoleMusician, RoleOrganizer:
		return nil
	}
	return fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, RoleMusician, RoleOrganizer)
}
