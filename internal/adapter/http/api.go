package http

import (
	"context"
	"io"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
	"github.com/google/uuid"
)

// LocationService resolves and searches caller locations.
type LocationService interface {
	Locate(ctx context.Context, device *domain.Coordinates, clientIP string) domain.Resolution
	Search(ctx context.Context, query string) (domain.UserLocation, error)
}

// DashboardService assembles weather, air quality and news.
type DashboardService interface {
	Build(ctx context.Context, loc domain.UserLocation) service.DashboardView
	Weather(ctx context.Context, loc domain.UserLocation) service.WeatherView
	News(ctx context.Context, location string, page domain.PageRequest) service.NewsView
}

// DiscoveryService finds nearby services.
type DiscoveryService interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// IncidentService manages reported incidents.
type IncidentService interface {
	Create(ctx context.Context, in service.CreateIncidentInput, reporterID *uuid.UUID) (service.IncidentView, error)
	Get(ctx context.Context, id uuid.UUID) (service.IncidentView, error)
	List(ctx context.Context, in service.ListIncidentsInput) (domain.Page[service.IncidentView], error)
	Update(ctx context.Context, id uuid.UUID, in service.UpdateIncidentInput) (service.IncidentView, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) (service.IncidentView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadPhoto(ctx context.Context, id uuid.UUID, contentType string, r io.Reader, size int64) (service.IncidentView, error)
}

// CommunityService manages communities and their feeds.
type CommunityService interface {
	Create(ctx context.Context, in service.CreateCommunityInput) (domain.Community, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Community, error)
	List(ctx context.Context, in service.ListCommunitiesInput) (domain.Page[service.CommunityView], error)
	Join(ctx context.Context, communityID, userID uuid.UUID) (domain.Community, error)
	CreatePost(ctx context.Context, communityID, authorID uuid.UUID, in service.CreatePostInput) (domain.Post, error)
	Posts(ctx context.Context, communityID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Post], error)
	CreateComment(ctx context.Context, postID, authorID uuid.UUID, in service.CreateCommentInput) (domain.Comment, error)
	Comments(ctx context.Context, postID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Comment], error)
}

// UserService is the admin user back-office.
type UserService interface {
	Create(ctx context.Context, in service.CreateUserInput) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context, search string, page domain.PageRequest) (domain.Page[domain.User], error)
	UpdateRole(ctx context.Context, id uuid.UUID, in service.UpdateRoleInput) (domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// API bundles the services the routes delegate to.
type API struct {
	Locations   LocationService
	Dashboard   DashboardService
	Discovery   DiscoveryService
	Incidents   IncidentService
	Communities CommunityService
	Users       UserService
}
