package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- incidents ---

type memIncidents struct {
	items   map[uuid.UUID]domain.Incident
	filters []domain.IncidentFilter
	err     error
}

func newMemIncidents(incs ...domain.Incident) *memIncidents {
	m := &memIncidents{items: map[uuid.UUID]domain.Incident{}}
	for _, inc := range incs {
		m.items[inc.ID] = inc
	}
	return m
}

func (m *memIncidents) CreateIncident(_ context.Context, inc *domain.Incident) error {
	if m.err != nil {
		return m.err
	}
	m.items[inc.ID] = *inc
	return nil
}

func (m *memIncidents) GetIncident(_ context.Context, id uuid.UUID) (domain.Incident, error) {
	inc, ok := m.items[id]
	if !ok {
		return domain.Incident{}, domain.ErrNotFound
	}
	return inc, nil
}

func (m *memIncidents) ListIncidents(_ context.Context, f domain.IncidentFilter) ([]domain.Incident, error) {
	m.filters = append(m.filters, f)
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Incident
	for _, inc := range m.items {
		if f.Status != "" && inc.Status != f.Status {
			continue
		}
		if f.Category != "" && inc.Category != f.Category {
			continue
		}
		out = append(out, inc)
	}
	slices.SortFunc(out, func(a, b domain.Incident) int { return strings.Compare(a.Title, b.Title) })
	return out, nil
}

func (m *memIncidents) UpdateIncident(_ context.Context, inc *domain.Incident) error {
	if _, ok := m.items[inc.ID]; !ok {
		return domain.ErrNotFound
	}
	m.items[inc.ID] = *inc
	return nil
}

func (m *memIncidents) DeleteIncident(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.IncidentEvent
	err    error
}

func (m *mockPublisher) PublishIncidentEvent(_ context.Context, e domain.IncidentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type mockPhotos struct {
	key     string
	putErr  error
	gotType string
	gotSize int64
}

func (m *mockPhotos) PutPhoto(_ context.Context, id uuid.UUID, contentType string, r io.Reader, size int64) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.gotType, m.gotSize = contentType, size
	m.key = "incidents/" + id.String() + "/photo.jpg"
	return m.key, nil
}

func (m *mockPhotos) PhotoURL(_ context.Context, key string) (string, error) {
	return "https://photos.example/" + key, nil
}

// --- communities ---

type memCommunities struct {
	communities map[uuid.UUID]domain.Community
	members     map[uuid.UUID]map[uuid.UUID]bool
	posts       []domain.Post
	comments    []domain.Comment
}

func newMemCommunities(cs ...domain.Community) *memCommunities {
	m := &memCommunities{
		communities: map[uuid.UUID]domain.Community{},
		members:     map[uuid.UUID]map[uuid.UUID]bool{},
	}
	for _, c := range cs {
		m.communities[c.ID] = c
	}
	return m
}

func (m *memCommunities) CreateCommunity(_ context.Context, c *domain.Community) error {
	m.communities[c.ID] = *c
	return nil
}

func (m *memCommunities) GetCommunity(_ context.Context, id uuid.UUID) (domain.Community, error) {
	c, ok := m.communities[id]
	if !ok {
		return domain.Community{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *memCommunities) ListCommunities(_ context.Context, f domain.CommunityFilter) ([]domain.Community, error) {
	var out []domain.Community
	for _, c := range m.communities {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Community) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *memCommunities) JoinCommunity(_ context.Context, communityID, userID uuid.UUID) (domain.Community, error) {
	c, ok := m.communities[communityID]
	if !ok {
		return domain.Community{}, domain.ErrNotFound
	}
	if m.members[communityID] == nil {
		m.members[communityID] = map[uuid.UUID]bool{}
	}
	if m.members[communityID][userID] {
		return domain.Community{}, domain.ErrConflict
	}
	m.members[communityID][userID] = true
	c.MemberCount++
	m.communities[communityID] = c
	return c, nil
}

func (m *memCommunities) CreatePost(_ context.Context, p *domain.Post) error {
	m.posts = append(m.posts, *p)
	return nil
}

func (m *memCommunities) GetPost(_ context.Context, id uuid.UUID) (domain.Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Post{}, domain.ErrNotFound
}

func (m *memCommunities) ListPosts(_ context.Context, communityID uuid.UUID, page domain.PageRequest) ([]domain.Post, int, error) {
	var all []domain.Post
	for _, p := range m.posts {
		if p.CommunityID == communityID {
			all = append(all, p)
		}
	}
	return window(all, page), len(all), nil
}

func (m *memCommunities) CreateComment(_ context.Context, c *domain.Comment) error {
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memCommunities) ListComments(_ context.Context, postID uuid.UUID, page domain.PageRequest) ([]domain.Comment, int, error) {
	var all []domain.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			all = append(all, c)
		}
	}
	return window(all, page), len(all), nil
}

func window[T any](all []T, page domain.PageRequest) []T {
	start := min(page.Offset(), len(all))
	end := min(start+page.Limit, len(all))
	return all[start:end]
}

// --- users ---

type memUsers struct {
	users      map[uuid.UUID]domain.User
	lastSearch string
	lastPage   domain.PageRequest
}

func newMemUsers(us ...domain.User) *memUsers {
	m := &memUsers{users: map[uuid.UUID]domain.User{}}
	for _, u := range us {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) CreateUser(_ context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) ListUsers(_ context.Context, search string, page domain.PageRequest) ([]domain.User, int, error) {
	m.lastSearch, m.lastPage = search, page
	var all []domain.User
	for _, u := range m.users {
		if search == "" || strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(search)) {
			all = append(all, u)
		}
	}
	slices.SortFunc(all, func(a, b domain.User) int { return strings.Compare(a.Name, b.Name) })
	return window(all, page), len(all), nil
}

func (m *memUsers) UpdateUserRole(_ context.Context, id uuid.UUID, role domain.Role) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	return u, nil
}

func (m *memUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// --- providers ---

type mockWeather struct {
	report     domain.WeatherReport
	aq         domain.AirQuality
	weatherErr error
	aqErr      error
}

func (m *mockWeather) Weather(context.Context, domain.Coordinates) (domain.WeatherReport, error) {
	return m.report, m.weatherErr
}

func (m *mockWeather) AirQuality(context.Context, domain.Coordinates) (domain.AirQuality, error) {
	return m.aq, m.aqErr
}

type mockNews struct {
	page     domain.Page[domain.Article]
	err      error
	location string
	req      domain.PageRequest
}

func (m *mockNews) News(_ context.Context, location string, page domain.PageRequest) (domain.Page[domain.Article], error) {
	m.location, m.req = location, page
	return m.page, m.err
}

var errUpstream = errors.New("upstream exploded")
