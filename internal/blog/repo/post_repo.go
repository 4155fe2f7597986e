package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/digitalindian/service-site-api/internal/blog/entity"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrDuplicateSlug = errors.New("slug already in use")
)

const uniqueViolation = "23505"

type PostRepo struct {
	db *sqlx.DB
}

func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

// EnsureTable creates the posts table if it does not already exist.
// Snowflake IDs rise with insertion time, so ORDER BY id is the
// collection's insertion order.
func (r *PostRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS posts (
		id varchar(32) PRIMARY KEY,
		title text NOT NULL,
		slug text NOT NULL,
		summary text NOT NULL DEFAULT '',
		content text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	);
	`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}
	const idx = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_posts_slug ON posts (slug);
	`
	_, err := r.db.ExecContext(ctx, idx)
	return err
}

// List returns all posts in insertion order, oldest first.
func (r *PostRepo) List(ctx context.Context) ([]entity.Post, error) {
	const q = `SELECT id, title, slug, summary, content, created_at, updated_at
		FROM posts ORDER BY id`
	var posts []entity.Post
	if err := r.db.SelectContext(ctx, &posts, q); err != nil {
		return nil, err
	}
	return posts, nil
}

// Latest returns the most recently inserted post: the last element of the
// collection, not the newest timestamp. Returns ErrPostNotFound when the
// collection is empty.
func (r *PostRepo) Latest(ctx context.Context) (*entity.Post, error) {
	const q = `SELECT id, title, slug, summary, content, created_at, updated_at
		FROM posts ORDER BY id DESC LIMIT 1`
	var p entity.Post
	if err := r.db.GetContext(ctx, &p, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetBySlug fetches one post or ErrPostNotFound.
func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (*entity.Post, error) {
	const q = `SELECT id, title, slug, summary, content, created_at, updated_at
		FROM posts WHERE slug=$1`
	var p entity.Post
	if err := r.db.GetContext(ctx, &p, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new post row. ErrDuplicateSlug on slug collision.
func (r *PostRepo) Create(ctx context.Context, p *entity.Post) error {
	const q = `INSERT INTO posts (id, title, slug, summary, content, created_at, updated_at)
		VALUES (:id, :title, :slug, :summary, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// Update rewrites the mutable fields of the post with the given slug.
func (r *PostRepo) Update(ctx context.Context, slug string, p *entity.Post) error {
	const q = `UPDATE posts SET title=$2, summary=$3, content=$4, updated_at=$5 WHERE slug=$1`
	res, err := r.db.ExecContext(ctx, q, slug, p.Title, p.Summary, p.Content, p.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Delete removes the post with the given slug.
func (r *PostRepo) Delete(ctx context.Context, slug string) error {
	const q = `DELETE FROM posts WHERE slug=$1`
	res, err := r.db.ExecContext(ctx, q, slug)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// LastModified returns the newest write timestamp across the whole
// collection, or the zero time when there are no posts.
func (r *PostRepo) LastModified(ctx context.Context) (time.Time, error) {
	const q = `SELECT MAX(GREATEST(created_at, updated_at)) FROM posts`
	var ts sql.NullTime
	if err := r.db.GetContext(ctx, &ts, q); err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}
