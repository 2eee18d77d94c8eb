// Command seed fills a development database with users, communities, posts
// and incidents scattered around a center point. It goes through the service
// layer so every record passes the same validation as API writes.
//
// Usage:
//
//	go run ./cmd/seed -lat 40.7128 -lon -74.0060 -incidents 40 -communities 8
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/adapter/postgres"
	"github.com/couchcryptid/urbanpulse-service/internal/config"
	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// kmPerDegreeLat is the length of one degree of latitude.
const kmPerDegreeLat = 111.32

var incidentTitles = map[string][]string{
	"crime":          {"Car break-in reported", "Bike stolen from rack"},
	"traffic":        {"Signal out at intersection", "Stalled truck blocking lane"},
	"fire":           {"Smoke from dumpster", "Small brush fire"},
	"medical":        {"Ambulance on scene", "Person needing assistance"},
	"infrastructure": {"Broken streetlight", "Large pothole", "Water main leak"},
	"environmental":  {"Illegal dumping", "Fallen tree branch"},
	"noise":          {"Late-night construction", "Loud party"},
	"other":          {"Lost dog spotted", "Unattended package"},
}

var communityNames = []struct{ name, category string }{
	{"Riverside Neighbors", "neighborhood"},
	{"Corner Garden Club", "gardening"},
	{"Parents of the Heights", "family"},
	{"Weekend Cyclists", "sports"},
	{"Block Watch", "safety"},
	{"Local Makers Market", "business"},
	{"Dog Park Regulars", "pets"},
	{"Library Friends", "culture"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	lat := flag.Float64("lat", 40.7128, "center latitude")
	lon := flag.Float64("lon", -74.0060, "center longitude")
	radius := flag.Float64("radius", 5, "scatter radius in km")
	nIncidents := flag.Int("incidents", 40, "number of incidents")
	nCommunities := flag.Int("communities", 8, "number of communities")
	nUsers := flag.Int("users", 10, "number of users")
	seed := flag.Uint64("seed", 42, "random seed")
	at := flag.String("at", "", "fixed RFC3339 timestamp for created records (default: now)")
	flag.Parse()

	center := domain.Coordinates{Lat: *lat, Lon: *lon}
	if !center.Valid() {
		return fmt.Errorf("center out of range: %v", center)
	}
	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	s := seeder{
		rng:         rand.New(rand.NewPCG(*seed, *seed)), //nolint:gosec // fixture data
		center:      center,
		radiusKm:    *radius,
		users:       service.NewUsers(store, cfg.PageSize, logger),
		communities: service.NewCommunities(store, cfg.DefaultRadiusKm, cfg.PageSize, nil, logger),
		incidents:   service.NewIncidents(store, nil, nil, cfg.DefaultRadiusKm, nil, logger),
	}

	userIDs, err := s.seedUsers(ctx, *nUsers)
	if err != nil {
		return err
	}
	log.Printf("users: %d", len(userIDs))

	nPosts, err := s.seedCommunities(ctx, *nCommunities, userIDs)
	if err != nil {
		return err
	}
	log.Printf("communities: %d, posts: %d", min(*nCommunities, len(communityNames)), nPosts)

	if err := s.seedIncidents(ctx, *nIncidents, userIDs); err != nil {
		return err
	}
	log.Printf("incidents: %d", *nIncidents)
	return nil
}

type seeder struct {
	rng         *rand.Rand
	center      domain.Coordinates
	radiusKm    float64
	users       *service.Users
	communities *service.Communities
	incidents   *service.Incidents
}

func (s *seeder) seedUsers(ctx context.Context, n int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, n)
	for i := range n {
		role := domain.RoleUser
		if i == 0 {
			role = domain.RoleAdmin
		}
		u, err := s.users.Create(ctx, service.CreateUserInput{
			Email: fmt.Sprintf("resident%02d@urbanpulse.test", i+1),
			Name:  fmt.Sprintf("Resident %02d", i+1),
			Role:  role,
		})
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i+1, err)
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *seeder) seedCommunities(ctx context.Context, n int, userIDs []uuid.UUID) (int, error) {
	posts := 0
	for i := range min(n, len(communityNames)) {
		def := communityNames[i]
		at := s.scatter()
		c, err := s.communities.Create(ctx, service.CreateCommunityInput{
			Name:        def.name,
			Description: fmt.Sprintf("A %s group near (%.3f, %.3f).", def.category, at.Lat, at.Lon),
			Category:    def.category,
			Lat:         at.Lat,
			Lon:         at.Lon,
		})
		if err != nil {
			return posts, fmt.Errorf("create community %q: %w", def.name, err)
		}
		if len(userIDs) == 0 {
			continue
		}

		for _, u := range s.sample(userIDs, 3) {
			if _, err := s.communities.Join(ctx, c.ID, u); err != nil {
				return posts, fmt.Errorf("join %q: %w", def.name, err)
			}
		}
		author := userIDs[s.rng.IntN(len(userIDs))]
		p, err := s.communities.CreatePost(ctx, c.ID, author, service.CreatePostInput{
			Title: "Welcome to " + def.name,
			Body:  "Introduce yourself and share what is happening nearby.",
		})
		if err != nil {
			return posts, fmt.Errorf("create post in %q: %w", def.name, err)
		}
		posts++
		if _, err := s.communities.CreateComment(ctx, p.ID, userIDs[s.rng.IntN(len(userIDs))], service.CreateCommentInput{
			Body: "Glad to be here!",
		}); err != nil {
			return posts, fmt.Errorf("comment in %q: %w", def.name, err)
		}
	}
	return posts, nil
}

func (s *seeder) seedIncidents(ctx context.Context, n int, userIDs []uuid.UUID) error {
	severities := []string{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical}
	for i := range n {
		category := domain.IncidentCategories[s.rng.IntN(len(domain.IncidentCategories))]
		titles := incidentTitles[category]
		at := s.scatter()

		var reporter *uuid.UUID
		if len(userIDs) > 0 && s.rng.IntN(4) > 0 {
			id := userIDs[s.rng.IntN(len(userIDs))]
			reporter = &id
		}
		inc, err := s.incidents.Create(ctx, service.CreateIncidentInput{
			Title:       titles[s.rng.IntN(len(titles))],
			Description: "Seeded report for local development.",
			Category:    category,
			Severity:    severities[s.rng.IntN(len(severities))],
			Lat:         at.Lat,
			Lon:         at.Lon,
		}, reporter)
		if err != nil {
			return fmt.Errorf("create incident %d: %w", i+1, err)
		}

		// Roughly a third move past reported.
		if next := s.rng.IntN(6); next < 2 {
			status := []domain.IncidentStatus{domain.StatusInvestigating, domain.StatusResolved}[next]
			if _, err := s.incidents.SetStatus(ctx, inc.ID, status); err != nil {
				return fmt.Errorf("set status of incident %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// scatter picks a point uniformly inside the seeding circle.
func (s *seeder) scatter() domain.Coordinates {
	dist := s.radiusKm * math.Sqrt(s.rng.Float64())
	bearing := 2 * math.Pi * s.rng.Float64()
	dLat := dist * math.Cos(bearing) / kmPerDegreeLat
	dLon := dist * math.Sin(bearing) / (kmPerDegreeLat * math.Cos(s.center.Lat*math.Pi/180))
	return domain.Coordinates{
		Lat: math.Max(-90, math.Min(90, s.center.Lat+dLat)),
		Lon: wrapLon(s.center.Lon + dLon),
	}
}

func (s *seeder) sample(ids []uuid.UUID, n int) []uuid.UUID {
	perm := s.rng.Perm(len(ids))
	out := make([]uuid.UUID, 0, min(n, len(ids)))
	for _, i := range perm[:min(n, len(ids))] {
		out = append(out, ids[i])
	}
	return out
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
