package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateCommunityInput creates a neighborhood group.
type CreateCommunityInput struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Category    string  `json:"category" validate:"required,max=50"`
	Lat         float64 `json:"latitude" validate:"latitude"`
	Lon         float64 `json:"longitude" validate:"longitude"`
}

// CreatePostInput is a new message in a community feed.
type CreatePostInput struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body" validate:"required,max=10000"`
}

// CreateCommentInput is a reply to a post.
type CreateCommentInput struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// ListCommunitiesInput filters a community listing.
type ListCommunitiesInput struct {
	Category string
	ListOptions
}

// CommunityView is a community as returned by the API.
type CommunityView struct {
	domain.Community
	Distance *float64 `json:"distance,omitempty"`
}

// Communities manages communities, their members and feeds.
type Communities struct {
	repo          domain.CommunityRepository
	validate      *validator.Validate
	defaultRadius float64
	pageSize      int
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewCommunities creates the community service.
func NewCommunities(repo domain.CommunityRepository, defaultRadiusKm float64, pageSize int, metrics *observability.Metrics, logger *slog.Logger) *Communities {
	return &Communities{
		repo:          repo,
		validate:      newValidator(),
		defaultRadius: defaultRadiusKm,
		pageSize:      pageSize,
		metrics:       metrics,
		logger:        logger,
	}
}

// Create stores a new community with no members.
func (s *Communities) Create(ctx context.Context, in CreateCommunityInput) (domain.Community, error) {
	if err := check(s.validate, in); err != nil {
		return domain.Community{}, err
	}
	c := domain.Community{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Lat:         in.Lat,
		Lon:         in.Lon,
		CreatedAt:   domain.Now().UTC(),
	}
	if err := s.repo.CreateCommunity(ctx, &c); err != nil {
		return domain.Community{}, fmt.Errorf("create community: %w", err)
	}
	s.logger.Info("community created", "community_id", c.ID, "name", c.Name)
	return c, nil
}

// Get returns one community.
func (s *Communities) Get(ctx context.Context, id uuid.UUID) (domain.Community, error) {
	c, err := s.repo.GetCommunity(ctx, id)
	if err != nil {
		return domain.Community{}, fmt.Errorf("get community %s: %w", id, err)
	}
	return c, nil
}

// List filters communities and pushes them through the discovery pipeline.
func (s *Communities) List(ctx context.Context, in ListCommunitiesInput) (domain.Page[CommunityView], error) {
	stages := in.stages(s.defaultRadius)
	communities, err := s.repo.ListCommunities(ctx, domain.CommunityFilter{
		Category: strings.ToLower(normalizeCategory(in.Category)),
		Center:   in.Center,
		RadiusKm: stages.RadiusKm,
	})
	if err != nil {
		return domain.Page[CommunityView]{}, fmt.Errorf("list communities: %w", err)
	}

	return listThrough(communities, domain.Community.GeoEntity,
		func(c domain.Community, d *float64) CommunityView {
			return CommunityView{Community: c, Distance: d}
		}, stages, s.metrics), nil
}

// Join adds userID to the community. Joining twice is a conflict.
func (s *Communities) Join(ctx context.Context, communityID, userID uuid.UUID) (domain.Community, error) {
	c, err := s.repo.JoinCommunity(ctx, communityID, userID)
	if err != nil {
		return domain.Community{}, fmt.Errorf("join community %s: %w", communityID, err)
	}
	s.logger.Info("community joined", "community_id", communityID, "user_id", userID, "members", c.MemberCount)
	return c, nil
}

// CreatePost adds a post to a community feed.
func (s *Communities) CreatePost(ctx context.Context, communityID, authorID uuid.UUID, in CreatePostInput) (domain.Post, error) {
	if err := check(s.validate, in); err != nil {
		return domain.Post{}, err
	}
	if _, err := s.Get(ctx, communityID); err != nil {
		return domain.Post{}, err
	}
	p := domain.Post{
		ID:          uuid.New(),
		CommunityID: communityID,
		AuthorID:    authorID,
		Title:       strings.TrimSpace(in.Title),
		Body:        strings.TrimSpace(in.Body),
		CreatedAt:   domain.Now().UTC(),
	}
	if err := s.repo.CreatePost(ctx, &p); err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// Posts lists a community feed, newest first.
func (s *Communities) Posts(ctx context.Context, communityID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Post], error) {
	if _, err := s.Get(ctx, communityID); err != nil {
		return domain.Page[domain.Post]{}, err
	}
	page = domain.NormalizePage(page.Page, page.Limit, s.pageSize)
	posts, total, err := s.repo.ListPosts(ctx, communityID, page)
	if err != nil {
		return domain.Page[domain.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return domain.Page[domain.Post]{Items: nonNil(posts), Pagination: domain.NewPagination(total, page)}, nil
}

// CreateComment replies to a post.
func (s *Communities) CreateComment(ctx context.Context, postID, authorID uuid.UUID, in CreateCommentInput) (domain.Comment, error) {
	if err := check(s.validate, in); err != nil {
		return domain.Comment{}, err
	}
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return domain.Comment{}, fmt.Errorf("get post %s: %w", postID, err)
	}
	c := domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      strings.TrimSpace(in.Body),
		CreatedAt: domain.Now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, &c); err != nil {
		return domain.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Comments lists the replies to a post, oldest first.
func (s *Communities) Comments(ctx context.Context, postID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Comment], error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return domain.Page[domain.Comment]{}, fmt.Errorf("get post %s: %w", postID, err)
	}
	page = domain.NormalizePage(page.Page, page.Limit, s.pageSize)
	comments, total, err := s.repo.ListComments(ctx, postID, page)
	if err != nil {
		return domain.Page[domain.Comment]{}, fmt.Errorf("list comments: %w", err)
	}
	return domain.Page[domain.Comment]{Items: nonNil(comments), Pagination: domain.NewPagination(total, page)}, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
