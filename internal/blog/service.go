package blog

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/digitalindian/service-site-api/internal/blog/entity"
	blogrepo "github.com/digitalindian/service-site-api/internal/blog/repo"
	"github.com/digitalindian/service-site-api/pkg/utilities"
)

var ErrEmptyTitle = errors.New("title is required")

// Service wraps post CRUD for the admin editor and read access for the
// public site and the notification dispatcher.
type Service struct {
	repo *blogrepo.PostRepo
}

func NewService(repo *blogrepo.PostRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]entity.Post, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, slug string) (*entity.Post, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Latest(ctx context.Context) (*entity.Post, error) {
	return s.repo.Latest(ctx)
}

func (s *Service) LastModified(ctx context.Context) (time.Time, error) {
	return s.repo.LastModified(ctx)
}

// Create stores a new post. The slug falls back to a slugified title.
func (s *Service) Create(ctx context.Context, p *entity.Post) (*entity.Post, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, ErrEmptyTitle
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Slug == "" {
		return nil, errors.New("slug could not be derived from title")
	}
	now := time.Now().UTC()
	p.ID = utilities.NewSnowflakeID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update rewrites an existing post's content fields and bumps updated_at,
// which is what the update poller watches.
func (s *Service) Update(ctx context.Context, slug string, p *entity.Post) (*entity.Post, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, ErrEmptyTitle
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, slug, p); err != nil {
		return nil, err
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Delete(ctx context.Context, slug string) error {
	return s.repo.Delete(ctx, slug)
}

// Slugify lowercases the title and collapses separators into single
// dashes, keeping only letters and digits.
func Slugify(input string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
