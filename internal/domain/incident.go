package domain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// IncidentStatus is the lifecycle state of a reported incident.
type IncidentStatus string

const (
	StatusReported      IncidentStatus = "reported"
	StatusInvestigating IncidentStatus = "investigating"
	StatusResolved      IncidentStatus = "resolved"
	StatusDismissed     IncidentStatus = "dismissed"
)

// Valid reports whether s is a known status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusReported, StatusInvestigating, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Severity levels for incidents.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// IncidentCategories lists the report categories offered to residents.
var IncidentCategories = []string{
	"crime",
	"traffic",
	"fire",
	"medical",
	"infrastructure",
	"environmental",
	"noise",
	"other",
}

// Incident is a resident-reported event at a location.
type Incident struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Status      IncidentStatus `json:"status"`
	Severity    string         `json:"severity"`
	Lat         float64        `json:"latitude"`
	Lon         float64        `json:"longitude"`
	Address     string         `json:"address,omitempty"`
	ReporterID  *uuid.UUID     `json:"reporterId,omitempty"`
	PhotoKey    string         `json:"photoKey,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// GeoEntity reduces the incident for distance annotation and filtering.
func (i Incident) GeoEntity() GeoEntity {
	return GeoEntity{
		ID:          i.ID.String(),
		Name:        i.Title,
		Description: i.Description,
		Address:     i.Address,
		Category:    i.Category,
		Lat:         i.Lat,
		Lon:         i.Lon,
	}
}

// IncidentFilter narrows an incident listing. Center and RadiusKm restrict to
// a circle; zero values disable that filter.
type IncidentFilter struct {
	Status     IncidentStatus
	Category   string
	ReporterID *uuid.UUID
	Center     *Coordinates
	RadiusKm   float64
}

// Incident event types published on every state change.
const (
	EventIncidentCreated       = "incident.created"
	EventIncidentUpdated       = "incident.updated"
	EventIncidentStatusChanged = "incident.status_changed"
	EventIncidentDeleted       = "incident.deleted"
)

// IncidentEvent describes one change to an incident.
type IncidentEvent struct {
	Type           string         `json:"type"`
	IncidentID     uuid.UUID      `json:"incident_id"`
	Status         IncidentStatus `json:"status"`
	PreviousStatus IncidentStatus `json:"previous_status,omitempty"`
	Incident       *Incident      `json:"incident,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// NewIncidentEvent stamps an event for inc with the package clock.
func NewIncidentEvent(eventType string, inc Incident) IncidentEvent {
	return IncidentEvent{
		Type:       eventType,
		IncidentID: inc.ID,
		Status:     inc.Status,
		Incident:   &inc,
		OccurredAt: clock.Now().UTC(),
	}
}

// IncidentPublisher announces incident changes to downstream consumers.
type IncidentPublisher interface {
	PublishIncidentEvent(ctx context.Context, event IncidentEvent) error
}

// PhotoStore keeps incident photos in object storage.
type PhotoStore interface {
	PutPhoto(ctx context.Context, incidentID uuid.UUID, contentType string, r io.Reader, size int64) (string, error)
	PhotoURL(ctx context.Context, key string) (string, error)
}

// IncidentRepository persists incidents.
type IncidentRepository interface {
	CreateIncident(ctx context.Context, inc *Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (Incident, error)
	ListIncidents(ctx context.Context, f IncidentFilter) ([]Incident, error)
	UpdateIncident(ctx context.Context, inc *Incident) error
	DeleteIncident(ctx context.Context, id uuid.UUID) error
}
