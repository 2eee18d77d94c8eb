package postgres

import (
	"context"
	"fmt"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const communityColumns = `id, name, description, category, lat, lon, member_count, created_at`

func scanCommunity(row pgx.Row) (domain.Community, error) {
	var c domain.Community
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.Lat, &c.Lon, &c.MemberCount, &c.CreatedAt)
	return c, err
}

func (s *Store) CreateCommunity(ctx context.Context, c *domain.Community) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO communities (`+communityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Description, c.Category, c.Lat, c.Lon, c.MemberCount, c.CreatedAt)
	return mapError("insert community", err)
}

func (s *Store) GetCommunity(ctx context.Context, id uuid.UUID) (domain.Community, error) {
	c, err := scanCommunity(s.pool.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities WHERE id = $1`, id))
	return c, mapError("get community", err)
}

// ListCommunities returns every community matching f. Text search, sorting
// and pagination happen in memory on the full set.
func (s *Store) ListCommunities(ctx context.Context, f domain.CommunityFilter) ([]domain.Community, error) {
	query, args := communityListQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list communities", err)
	}
	communities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Community, error) {
		return scanCommunity(row)
	})
	return communities, mapError("scan communities", err)
}

func communityListQuery(f domain.CommunityFilter) (string, []any) {
	var w whereBuilder
	if f.Category != "" && f.Category != domain.CategoryAll {
		w.add("category = ?", f.Category)
	}
	w.addBound(f.Center, f.RadiusKm)

	query := `SELECT ` + communityColumns + ` FROM communities` + w.String() +
		` ORDER BY member_count DESC, created_at DESC`
	return query, w.args
}

// JoinCommunity records membership and bumps the member count in one
// transaction. Joining twice is a conflict.
func (s *Store) JoinCommunity(ctx context.Context, communityID, userID uuid.UUID) (domain.Community, error) {
	var c domain.Community
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)`,
			communityID, userID); err != nil {
			return err
		}
		var err error
		c, err = scanCommunity(tx.QueryRow(ctx, `UPDATE communities SET member_count = member_count + 1
			WHERE id = $1 RETURNING `+communityColumns, communityID))
		return err
	})
	return c, mapError("join community", err)
}

func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO posts (id, community_id, author_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CommunityID, p.AuthorID, p.Title, p.Body, p.CreatedAt)
	return mapError("insert post", err)
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	var p domain.Post
	err := s.pool.QueryRow(ctx, `SELECT id, community_id, author_id, title, body, created_at
		FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.CommunityID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt)
	return p, mapError("get post", err)
}

// ListPosts returns one page of a community feed, newest first, and the
// total number of posts.
func (s *Store) ListPosts(ctx context.Context, communityID uuid.UUID, page domain.PageRequest) ([]domain.Post, int, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, community_id, author_id, title, body, created_at, count(*) OVER ()
		FROM posts WHERE community_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, communityID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, mapError("list posts", err)
	}

	var total int
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Post, error) {
		var p domain.Post
		err := row.Scan(&p.ID, &p.CommunityID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt, &total)
		return p, err
	})
	if err != nil {
		return nil, 0, mapError("scan posts", err)
	}
	if len(posts) == 0 && page.Offset() > 0 {
		total, err = s.count(ctx, `SELECT count(*) FROM posts WHERE community_id = $1`, communityID)
	}
	return posts, total, err
}

func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO comments (id, post_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.AuthorID, c.Body, c.CreatedAt)
	return mapError("insert comment", err)
}

// ListComments returns one page of a post's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, postID uuid.UUID, page domain.PageRequest) ([]domain.Comment, int, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, post_id, author_id, body, created_at, count(*) OVER ()
		FROM comments WHERE post_id = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3`, postID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, mapError("list comments", err)
	}

	var total int
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Comment, error) {
		var c domain.Comment
		err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &total)
		return c, err
	})
	if err != nil {
		return nil, 0, mapError("scan comments", err)
	}
	if len(comments) == 0 && page.Offset() > 0 {
		total, err = s.count(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, postID)
	}
	return comments, total, err
}

// count runs a single-value COUNT query. The windowed count in list queries
// yields nothing when the page is past the end, so those fall back here.
func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(fmt.Sprintf("count %q", query), err)
	}
	return n, nil
}
