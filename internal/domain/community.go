package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Community is a neighborhood group anchored at a location.
type Community struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Lat         float64   `json:"latitude"`
	Lon         float64   `json:"longitude"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GeoEntity reduces the community for distance annotation and filtering.
func (c Community) GeoEntity() GeoEntity {
	return GeoEntity{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		Lat:         c.Lat,
		Lon:         c.Lon,
	}
}

// Post is a message in a community feed.
type Post struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"communityId"`
	AuthorID    uuid.UUID `json:"authorId"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"postId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommunityFilter narrows a community listing.
type CommunityFilter struct {
	Category string
	Center   *Coordinates
	RadiusKm float64
}

// CommunityRepository persists communities, their members, posts and comments.
type CommunityRepository interface {
	CreateCommunity(ctx context.Context, c *Community) error
	GetCommunity(ctx context.Context, id uuid.UUID) (Community, error)
	ListCommunities(ctx context.Context, f CommunityFilter) ([]Community, error)
	JoinCommunity(ctx context.Context, communityID, userID uuid.UUID) (Community, error)

	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (Post, error)
	ListPosts(ctx context.Context, communityID uuid.UUID, page PageRequest) ([]Post, int, error)

	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, postID uuid.UUID, page PageRequest) ([]Comment, int, error)
}
