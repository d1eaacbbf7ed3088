// Package postsvc manages posts. A post cannot be removed while a publication uses it.
package postsvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
	"github.com/mkrupp/publishing/internal/repo/content"
)

// PostService implements the post rules on top of the storage gateway.
type PostService struct {
	PostRepo     content.PostRepository
	Publications content.PublicationReferences
	Log          logging.Logger
}

// NewPostService creates a PostService backed by repo.
func NewPostService(repo content.Repository) *PostService {
	return &PostService{
		PostRepo:     repo,
		Publications: repo,
		Log:          logging.GetLogger("svc.postsvc.post_service"),
	}
}

func notFound() error {
	return domain.NewReasonError(domain.ErrNotFound, domain.ReasonPostNotFound)
}

// Create stores a new post. image may be nil.
func (svc *PostService) Create(ctx context.Context, title, text string, image *string) (*domain.Post, error) {
	post := &domain.Post{Title: title, Text: text, Image: image}

	if err := svc.PostRepo.CreatePost(ctx, post); err != nil {
		svc.Log.ErrorContext(ctx, "post create failed", "error", err)

		return nil, fmt.Errorf("create post: %w", err)
	}

	svc.Log.DebugContext(ctx, "post created", logging.Group("post", "id", post.ID))

	return post, nil
}

// FindAll returns every post ordered by id.
func (svc *PostService) FindAll(ctx context.Context) ([]domain.Post, error) {
	posts, err := svc.PostRepo.ListPosts(ctx)
	if err != nil {
		svc.Log.ErrorContext(ctx, "post list failed", "error", err)

		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// FindOne returns the post with id or a domain.ErrNotFound reason error.
func (svc *PostService) FindOne(ctx context.Context, id int64) (*domain.Post, error) {
	post, ok, err := svc.PostRepo.GetPost(ctx, id)
	if err != nil {
		svc.Log.ErrorContext(ctx, "post fetch failed", "id", id, "error", err)

		return nil, fmt.Errorf("get post: %w", err)
	}

	if !ok {
		return nil, notFound()
	}

	return post, nil
}

// Update replaces all fields of the post with id. A nil image clears it.
func (svc *PostService) Update(ctx context.Context, id int64, title, text string, image *string) (err error) {
	log := svc.Log.With(logging.Group("post", "id", id))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "post updated")
		case domain.IsRejection(err):
			log.DebugContext(ctx, "post update rejected", "error", err)
		default:
			log.ErrorContext(ctx, "post update failed", "error", err)
		}
	}()

	if _, ok, err := svc.PostRepo.GetPost(ctx, id); err != nil {
		return fmt.Errorf("get post: %w", err)
	} else if !ok {
		return notFound()
	}

	post := domain.Post{ID: id, Title: title, Text: text, Image: image}
	if err := svc.PostRepo.UpdatePost(ctx, post); err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

// Remove deletes the post with id unless a publication references it.
func (svc *PostService) Remove(ctx context.Context, id int64) (err error) {
	log := svc.Log.With(logging.Group("post", "id", id))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "post removed")
		case domain.IsRejection(err):
			log.DebugContext(ctx, "post remove rejected", "error", err)
		default:
			log.ErrorContext(ctx, "post remove failed", "error", err)
		}
	}()

	if _, ok, err := svc.PostRepo.GetPost(ctx, id); err != nil {
		return fmt.Errorf("get post: %w", err)
	} else if !ok {
		return notFound()
	}

	n, err := svc.Publications.CountPublicationsByPost(ctx, id)
	if err != nil {
		return fmt.Errorf("count publications: %w", err)
	}

	if n > 0 {
		return domain.NewReasonError(domain.ErrForbidden, domain.ReasonPostLinked)
	}

	if err := svc.PostRepo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

// PostExists reports whether a post with id exists.
func (svc *PostService) PostExists(ctx context.Context, id int64) (bool, error) {
	_, ok, err := svc.PostRepo.GetPost(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get post: %w", err)
	}

	return ok, nil
}
