package postgres

import (
	"context"
	"strconv"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, name, role, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.Role, u.CreatedAt)
	return mapError("insert user", err)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapError("get user", err)
}

// ListUsers pages through users ordered by name. search matches name or
// email case-insensitively.
func (s *Store) ListUsers(ctx context.Context, search string, page domain.PageRequest) ([]domain.User, int, error) {
	var w whereBuilder
	if search != "" {
		pattern := "%" + escapeLike(search) + "%"
		w.add("(name ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}

	total, err := s.count(ctx, `SELECT count(*) FROM users`+w.String(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	args := append(w.args, page.Limit, page.Offset())
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+w.String()+
		` ORDER BY name, email LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, mapError("list users", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		return scanUser(row)
	})
	return users, total, mapError("scan users", err)
}

func (s *Store) UpdateUserRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns, id, role))
	return u, mapError("update user role", err)
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError("delete user", err)
	}
	return expectOne("delete user", tag)
}
