package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateIncidentInput is a resident's report.
type CreateIncidentInput struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Category    string  `json:"category" validate:"required,oneof=crime traffic fire medical infrastructure environmental noise other"`
	Severity    string  `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Lat         float64 `json:"latitude" validate:"latitude"`
	Lon         float64 `json:"longitude" validate:"longitude"`
	Address     string  `json:"address" validate:"max=300"`
}

// UpdateIncidentInput changes the descriptive fields of an incident. Nil
// fields are left unchanged.
type UpdateIncidentInput struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Category    *string `json:"category" validate:"omitempty,oneof=crime traffic fire medical infrastructure environmental noise other"`
	Severity    *string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Address     *string `json:"address" validate:"omitempty,max=300"`
}

// ListIncidentsInput filters an incident listing.
type ListIncidentsInput struct {
	Status     domain.IncidentStatus
	Category   string
	ReporterID *uuid.UUID
	ListOptions
}

// IncidentView is an incident as returned by the API.
type IncidentView struct {
	domain.Incident
	Distance *float64 `json:"distance,omitempty"`
	PhotoURL string   `json:"photoUrl,omitempty"`
}

// Incidents manages reported incidents. Every change is announced through
// the publisher; publish failures are logged and never fail the operation.
type Incidents struct {
	repo          domain.IncidentRepository
	publisher     domain.IncidentPublisher
	photos        domain.PhotoStore
	validate      *validator.Validate
	defaultRadius float64
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewIncidents creates the incident service. publisher and photos may be nil
// when Kafka or object storage is not configured.
func NewIncidents(
	repo domain.IncidentRepository,
	publisher domain.IncidentPublisher,
	photos domain.PhotoStore,
	defaultRadiusKm float64,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Incidents {
	return &Incidents{
		repo:          repo,
		publisher:     publisher,
		photos:        photos,
		validate:      newValidator(),
		defaultRadius: defaultRadiusKm,
		metrics:       metrics,
		logger:        logger,
	}
}

// Create stores a new incident in status reported.
func (s *Incidents) Create(ctx context.Context, in CreateIncidentInput, reporterID *uuid.UUID) (IncidentView, error) {
	if err := check(s.validate, in); err != nil {
		return IncidentView{}, err
	}
	now := domain.Now().UTC()
	inc := domain.Incident{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Status:      domain.StatusReported,
		Severity:    in.Severity,
		Lat:         in.Lat,
		Lon:         in.Lon,
		Address:     strings.TrimSpace(in.Address),
		ReporterID:  reporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if inc.Severity == "" {
		inc.Severity = domain.SeverityMedium
	}

	if err := s.repo.CreateIncident(ctx, &inc); err != nil {
		return IncidentView{}, fmt.Errorf("create incident: %w", err)
	}
	s.logger.Info("incident reported", "incident_id", inc.ID, "category", inc.Category)
	s.publish(ctx, domain.NewIncidentEvent(domain.EventIncidentCreated, inc))
	return IncidentView{Incident: inc}, nil
}

// Get returns one incident with a download URL for its photo.
func (s *Incidents) Get(ctx context.Context, id uuid.UUID) (IncidentView, error) {
	inc, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return IncidentView{}, fmt.Errorf("get incident %s: %w", id, err)
	}
	return s.view(ctx, inc), nil
}

// List filters incidents and pushes them through the discovery pipeline.
func (s *Incidents) List(ctx context.Context, in ListIncidentsInput) (domain.Page[IncidentView], error) {
	if in.Status != "" && !in.Status.Valid() {
		return domain.Page[IncidentView]{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
	}
	stages := in.stages(s.defaultRadius)
	incidents, err := s.repo.ListIncidents(ctx, domain.IncidentFilter{
		Status:     in.Status,
		Category:   normalizeCategory(in.Category),
		ReporterID: in.ReporterID,
		Center:     in.Center,
		RadiusKm:   stages.RadiusKm,
	})
	if err != nil {
		return domain.Page[IncidentView]{}, fmt.Errorf("list incidents: %w", err)
	}

	return listThrough(incidents, domain.Incident.GeoEntity,
		func(inc domain.Incident, d *float64) IncidentView {
			return IncidentView{Incident: inc, Distance: d}
		}, stages, s.metrics), nil
}

// Nearby lists incidents around center, closest first.
func (s *Incidents) Nearby(ctx context.Context, center domain.Coordinates, radiusKm float64, page domain.PageRequest) (domain.Page[IncidentView], error) {
	if !center.Valid() {
		return domain.Page[IncidentView]{}, fmt.Errorf("%w: coordinates out of range (%f, %f)", domain.ErrInvalidInput, center.Lat, center.Lon)
	}
	return s.List(ctx, ListIncidentsInput{ListOptions: ListOptions{
		Center:   &center,
		RadiusKm: radiusKm,
		Query:    domain.Query{Sort: domain.SortDistance},
		Page:     page,
	}})
}

// Update changes the descriptive fields of an incident.
func (s *Incidents) Update(ctx context.Context, id uuid.UUID, in UpdateIncidentInput) (IncidentView, error) {
	if err := check(s.validate, in); err != nil {
		return IncidentView{}, err
	}
	inc, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return IncidentView{}, fmt.Errorf("get incident %s: %w", id, err)
	}

	if in.Title != nil {
		inc.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		inc.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		inc.Category = *in.Category
	}
	if in.Severity != nil {
		inc.Severity = *in.Severity
	}
	if in.Address != nil {
		inc.Address = strings.TrimSpace(*in.Address)
	}
	inc.UpdatedAt = domain.Now().UTC()

	if err := s.repo.UpdateIncident(ctx, &inc); err != nil {
		return IncidentView{}, fmt.Errorf("update incident %s: %w", id, err)
	}
	s.publish(ctx, domain.NewIncidentEvent(domain.EventIncidentUpdated, inc))
	return s.view(ctx, inc), nil
}

// SetStatus moves an incident through its lifecycle. Setting the current
// status again is a no-op and publishes nothing.
func (s *Incidents) SetStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) (IncidentView, error) {
	if !status.Valid() {
		return IncidentView{}, &ValidationError{Fields: map[string]string{
			"status": "must be one of: reported investigating resolved dismissed",
		}}
	}
	inc, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return IncidentView{}, fmt.Errorf("get incident %s: %w", id, err)
	}
	if inc.Status == status {
		return s.view(ctx, inc), nil
	}

	previous := inc.Status
	inc.Status = status
	inc.UpdatedAt = domain.Now().UTC()
	if err := s.repo.UpdateIncident(ctx, &inc); err != nil {
		return IncidentView{}, fmt.Errorf("update incident %s: %w", id, err)
	}

	s.logger.Info("incident status changed", "incident_id", id, "from", previous, "to", status)
	event := domain.NewIncidentEvent(domain.EventIncidentStatusChanged, inc)
	event.PreviousStatus = previous
	s.publish(ctx, event)
	return s.view(ctx, inc), nil
}

// Delete removes an incident.
func (s *Incidents) Delete(ctx context.Context, id uuid.UUID) error {
	inc, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return fmt.Errorf("get incident %s: %w", id, err)
	}
	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		return fmt.Errorf("delete incident %s: %w", id, err)
	}
	s.logger.Info("incident deleted", "incident_id", id)
	s.publish(ctx, domain.NewIncidentEvent(domain.EventIncidentDeleted, inc))
	return nil
}

// UploadPhoto stores a photo for the incident and records its key.
func (s *Incidents) UploadPhoto(ctx context.Context, id uuid.UUID, contentType string, r io.Reader, size int64) (IncidentView, error) {
	if s.photos == nil {
		return IncidentView{}, fmt.Errorf("upload photo: %w", domain.ErrProviderDisabled)
	}
	inc, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return IncidentView{}, fmt.Errorf("get incident %s: %w", id, err)
	}

	key, err := s.photos.PutPhoto(ctx, id, contentType, r, size)
	if err != nil {
		return IncidentView{}, fmt.Errorf("upload photo: %w", err)
	}
	inc.PhotoKey = key
	inc.UpdatedAt = domain.Now().UTC()
	if err := s.repo.UpdateIncident(ctx, &inc); err != nil {
		return IncidentView{}, fmt.Errorf("update incident %s: %w", id, err)
	}
	s.publish(ctx, domain.NewIncidentEvent(domain.EventIncidentUpdated, inc))
	return s.view(ctx, inc), nil
}

func (s *Incidents) view(ctx context.Context, inc domain.Incident) IncidentView {
	v := IncidentView{Incident: inc}
	if inc.PhotoKey == "" || s.photos == nil {
		return v
	}
	u, err := s.photos.PhotoURL(ctx, inc.PhotoKey)
	if err != nil {
		s.logger.Warn("photo url unavailable", "incident_id", inc.ID, "error", err)
		return v
	}
	v.PhotoURL = u
	return v
}

func (s *Incidents) publish(ctx context.Context, event domain.IncidentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishIncidentEvent(ctx, event); err != nil {
		s.logger.Error("publish incident event failed",
			"type", event.Type,
			"incident_id", event.IncidentID,
			"error", err,
		)
	}
}

func normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if strings.EqualFold(c, domain.CategoryAll) {
		return ""
	}
	return c
}
