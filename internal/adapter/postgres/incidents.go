package postgres

import (
	"context"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const incidentColumns = `id, title, description, category, status, severity, lat, lon,
	address, reporter_id, photo_key, created_at, updated_at`

func scanIncident(row pgx.Row) (domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(&inc.ID, &inc.Title, &inc.Description, &inc.Category, &inc.Status, &inc.Severity,
		&inc.Lat, &inc.Lon, &inc.Address, &inc.ReporterID, &inc.PhotoKey, &inc.CreatedAt, &inc.UpdatedAt)
	return inc, err
}

func (s *Store) CreateIncident(ctx context.Context, inc *domain.Incident) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO incidents (`+incidentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		inc.ID, inc.Title, inc.Description, inc.Category, inc.Status, inc.Severity, inc.Lat, inc.Lon,
		inc.Address, inc.ReporterID, inc.PhotoKey, inc.CreatedAt, inc.UpdatedAt)
	return mapError("insert incident", err)
}

func (s *Store) GetIncident(ctx context.Context, id uuid.UUID) (domain.Incident, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	inc, err := scanIncident(row)
	return inc, mapError("get incident", err)
}

// ListIncidents returns every incident matching f, newest first. Radius
// filters are applied as a bounding box; callers refine with the exact distance.
func (s *Store) ListIncidents(ctx context.Context, f domain.IncidentFilter) ([]domain.Incident, error) {
	query, args := incidentListQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list incidents", err)
	}
	incidents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Incident, error) {
		return scanIncident(row)
	})
	return incidents, mapError("scan incidents", err)
}

func incidentListQuery(f domain.IncidentFilter) (string, []any) {
	var w whereBuilder
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Category != "" && f.Category != domain.CategoryAll {
		w.add("category = ?", f.Category)
	}
	if f.ReporterID != nil {
		w.add("reporter_id = ?", *f.ReporterID)
	}
	w.addBound(f.Center, f.RadiusKm)

	query := `SELECT ` + incidentColumns + ` FROM incidents` + w.String() +
		` ORDER BY created_at DESC`
	return query, w.args
}

func (s *Store) UpdateIncident(ctx context.Context, inc *domain.Incident) error {
	tag, err := s.pool.Exec(ctx, `UPDATE incidents SET
			title = $2, description = $3, category = $4, status = $5, severity = $6,
			lat = $7, lon = $8, address = $9, photo_key = $10, updated_at = $11
		WHERE id = $1`,
		inc.ID, inc.Title, inc.Description, inc.Category, inc.Status, inc.Severity,
		inc.Lat, inc.Lon, inc.Address, inc.PhotoKey, inc.UpdatedAt)
	if err != nil {
		return mapError("update incident", err)
	}
	return expectOne("update incident", tag)
}

func (s *Store) DeleteIncident(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return mapError("delete incident", err)
	}
	return expectOne("delete incident", tag)
}
