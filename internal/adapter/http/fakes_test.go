package http_test

import (
	"context"
	"io"

	httpadapter "github.com/couchcryptid/urbanpulse-service/internal/adapter/http"
	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
	"github.com/google/uuid"
)

var testLocation = domain.UserLocation{
	Lat:     40.7580,
	Lon:     -73.9855,
	City:    "New York",
	State:   "New York",
	Country: "United States",
	Source:  domain.SourceDevice,
}

type fakeLocations struct {
	gotDevice *domain.Coordinates
	gotIP     string
	located   bool
	fallback  bool
	searchErr error
	gotQuery  string
}

func (f *fakeLocations) Locate(_ context.Context, device *domain.Coordinates, ip string) domain.Resolution {
	f.located, f.gotDevice, f.gotIP = true, device, ip
	loc := testLocation
	transitions := []domain.ResolveState{domain.StateIdle, domain.StateLocating, domain.StateResolved}
	if f.fallback {
		loc = domain.DefaultFallbackLocation()
		transitions = []domain.ResolveState{domain.StateIdle, domain.StateLocating, domain.StateFailed, domain.StateResolved}
	}
	if device != nil {
		loc.Lat, loc.Lon = device.Lat, device.Lon
	}
	return domain.Resolution{Location: loc, Transitions: transitions}
}

func (f *fakeLocations) Search(_ context.Context, query string) (domain.UserLocation, error) {
	f.gotQuery = query
	if f.searchErr != nil {
		return domain.UserLocation{}, f.searchErr
	}
	loc := testLocation
	loc.Source = domain.SourceSearch
	return loc, nil
}

type fakeDashboard struct {
	gotLocation domain.UserLocation
	gotNews     string
	gotPage     domain.PageRequest
}

func (f *fakeDashboard) Build(_ context.Context, loc domain.UserLocation) service.DashboardView {
	f.gotLocation = loc
	return service.DashboardView{
		Location:   loc,
		Weather:    domain.EmptyWeatherReport(loc.DisplayName()),
		AirQuality: domain.DefaultAirQuality(),
		News:       domain.Paginate([]domain.Article{}, 1, 8),
		Fallbacks:  []string{service.SectionWeather},
	}
}

func (f *fakeDashboard) Weather(_ context.Context, loc domain.UserLocation) service.WeatherView {
	f.gotLocation = loc
	return service.WeatherView{
		Weather:    domain.WeatherReport{Location: loc.DisplayName(), Hourly: []domain.HourlyForecast{}, Daily: []domain.DailyForecast{}},
		AirQuality: domain.AirQuality{AQI: 3, Category: "Moderate"},
		Fallbacks:  []string{},
	}
}

func (f *fakeDashboard) News(_ context.Context, location string, page domain.PageRequest) service.NewsView {
	f.gotNews, f.gotPage = location, page
	return service.NewsView{Page: domain.PlaceholderNews(location, page), Fallback: true}
}

type fakeDiscovery struct {
	got    pipeline.Request
	result pipeline.Result
	err    error
}

func (f *fakeDiscovery) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.got = req
	return f.result, f.err
}

// fakeIncidents implements only the methods a test sets; the embedded
// interface panics on anything else.
type fakeIncidents struct {
	httpadapter.IncidentService
	create    func(service.CreateIncidentInput, *uuid.UUID) (service.IncidentView, error)
	get       func(uuid.UUID) (service.IncidentView, error)
	list      func(service.ListIncidentsInput) (domain.Page[service.IncidentView], error)
	update    func(uuid.UUID, service.UpdateIncidentInput) (service.IncidentView, error)
	setStatus func(uuid.UUID, domain.IncidentStatus) (service.IncidentView, error)
	del       func(uuid.UUID) error
	upload    func(uuid.UUID, string, []byte, int64) (service.IncidentView, error)
}

func (f *fakeIncidents) Create(_ context.Context, in service.CreateIncidentInput, reporter *uuid.UUID) (service.IncidentView, error) {
	return f.create(in, reporter)
}

func (f *fakeIncidents) Get(_ context.Context, id uuid.UUID) (service.IncidentView, error) {
	return f.get(id)
}

func (f *fakeIncidents) List(_ context.Context, in service.ListIncidentsInput) (domain.Page[service.IncidentView], error) {
	return f.list(in)
}

func (f *fakeIncidents) Update(_ context.Context, id uuid.UUID, in service.UpdateIncidentInput) (service.IncidentView, error) {
	return f.update(id, in)
}

func (f *fakeIncidents) SetStatus(_ context.Context, id uuid.UUID, status domain.IncidentStatus) (service.IncidentView, error) {
	return f.setStatus(id, status)
}

func (f *fakeIncidents) Delete(_ context.Context, id uuid.UUID) error {
	return f.del(id)
}

func (f *fakeIncidents) UploadPhoto(_ context.Context, id uuid.UUID, contentType string, r io.Reader, size int64) (service.IncidentView, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return service.IncidentView{}, err
	}
	return f.upload(id, contentType, data, size)
}

type fakeCommunities struct {
	httpadapter.CommunityService
	list          func(service.ListCommunitiesInput) (domain.Page[service.CommunityView], error)
	join          func(uuid.UUID, uuid.UUID) (domain.Community, error)
	createPost    func(uuid.UUID, uuid.UUID, service.CreatePostInput) (domain.Post, error)
	posts         func(uuid.UUID, domain.PageRequest) (domain.Page[domain.Post], error)
	createComment func(uuid.UUID, uuid.UUID, service.CreateCommentInput) (domain.Comment, error)
	comments      func(uuid.UUID, domain.PageRequest) (domain.Page[domain.Comment], error)
	create        func(service.CreateCommunityInput) (domain.Community, error)
}

func (f *fakeCommunities) List(_ context.Context, in service.ListCommunitiesInput) (domain.Page[service.CommunityView], error) {
	return f.list(in)
}

func (f *fakeCommunities) Join(_ context.Context, communityID, userID uuid.UUID) (domain.Community, error) {
	return f.join(communityID, userID)
}

func (f *fakeCommunities) CreatePost(_ context.Context, communityID, authorID uuid.UUID, in service.CreatePostInput) (domain.Post, error) {
	return f.createPost(communityID, authorID, in)
}

func (f *fakeCommunities) Posts(_ context.Context, communityID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Post], error) {
	return f.posts(communityID, page)
}

func (f *fakeCommunities) CreateComment(_ context.Context, postID, authorID uuid.UUID, in service.CreateCommentInput) (domain.Comment, error) {
	return f.createComment(postID, authorID, in)
}

func (f *fakeCommunities) Comments(_ context.Context, postID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Comment], error) {
	return f.comments(postID, page)
}

func (f *fakeCommunities) Create(_ context.Context, in service.CreateCommunityInput) (domain.Community, error) {
	return f.create(in)
}

type fakeUsers struct {
	httpadapter.UserService
	list       func(string, domain.PageRequest) (domain.Page[domain.User], error)
	create     func(service.CreateUserInput) (domain.User, error)
	get        func(uuid.UUID) (domain.User, error)
	updateRole func(uuid.UUID, service.UpdateRoleInput) (domain.User, error)
	del        func(uuid.UUID) error
}

func (f *fakeUsers) List(_ context.Context, search string, page domain.PageRequest) (domain.Page[domain.User], error) {
	return f.list(search, page)
}

func (f *fakeUsers) Create(_ context.Context, in service.CreateUserInput) (domain.User, error) {
	return f.create(in)
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (domain.User, error) {
	return f.get(id)
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, in service.UpdateRoleInput) (domain.User, error) {
	return f.updateRole(id, in)
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	return f.del(id)
}
