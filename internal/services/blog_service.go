package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/store"
)

// PostStore is the slice of the blog store the service needs; satisfied by
// *store.Store[*models.BlogPost].
type PostStore interface {
	Create(ctx context.Context, post *models.BlogPost) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*models.BlogPost, bool, error)
	List(ctx context.Context, filters map[string]any, opts ...store.ListOption) ([]*models.BlogPost, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

// BlogService owns the slug-uniqueness rule the store itself does not
// enforce: slugs are derived from the title and disambiguated with a
// timestamp suffix on collision, never overwriting an existing post.
type BlogService struct {
	posts PostStore
	now   func() time.Time
}

func NewBlogService(posts PostStore) *BlogService {
	return &BlogService{posts: posts, now: time.Now}
}

// Create derives a unique slug from the title (unless the caller supplied
// one) and persists the post.
func (s *BlogService) Create(ctx context.Context, post *models.BlogPost) (uuid.UUID, error) {
	base := post.Slug
	if base == "" {
		base = Slugify(post.Title)
	}
	slug, err := s.uniqueSlug(ctx, base, uuid.Nil)
	if err != nil {
		return uuid.Nil, err
	}
	post.Slug = slug

	if post.Published && post.PublishedAt == nil {
		now := s.now().UTC()
		post.PublishedAt = &now
	}
	return s.posts.Create(ctx, post)
}

// Update merges fields into a post. A changed title or slug re-runs the
// uniqueness check, ignoring the post itself.
func (s *BlogService) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if title, ok := fields["title"].(string); ok && fields["slug"] == nil {
		fields["slug"] = Slugify(title)
	}
	if raw, ok := fields["slug"].(string); ok {
		slug, err := s.uniqueSlug(ctx, raw, id)
		if err != nil {
			return err
		}
		fields["slug"] = slug
	}
	if published, ok := fields["published"].(bool); ok && published && fields["published_at"] == nil {
		fields["published_at"] = s.now().UTC()
	}
	return s.posts.Update(ctx, id, fields)
}

// BySlug returns the published post with the given slug.
func (s *BlogService) BySlug(ctx context.Context, slug string) (*models.BlogPost, bool, error) {
	matches, err := s.posts.List(ctx, map[string]any{"slug": slug, "published": true})
	if err != nil {
		return nil, false, err
	}
	if len(matches) == 0 {
		return nil, false, nil
	}
	return matches[0], true, nil
}

// uniqueSlug appends a timestamp suffix when the candidate slug is already
// taken by a different post.
func (s *BlogService) uniqueSlug(ctx context.Context, candidate string, self uuid.UUID) (string, error) {
	matches, err := s.posts.List(ctx, map[string]any{"slug": candidate})
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if m.ID != self {
			return fmt.Sprintf("%s-%d", candidate, s.now().Unix()), nil
		}
	}
	return candidate, nil
}

// Slugify lowercases a title and collapses everything that is not a letter
// or digit into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // no leading hyphen
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
