// Package mediasvc manages media outlets. A media is unique by its
// (title, username) pair and cannot be removed while a publication uses it.
package mediasvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
	"github.com/mkrupp/publishing/internal/repo/content"
)

// MediaService implements the media rules on top of the storage gateway.
type MediaService struct {
	MediaRepo    content.MediaRepository
	Publications content.PublicationReferences
	Log          logging.Logger
}

// NewMediaService creates a MediaService backed by repo.
func NewMediaService(repo content.Repository) *MediaService {
	return &MediaService{
		MediaRepo:    repo,
		Publications: repo,
		Log:          logging.GetLogger("svc.mediasvc.media_service"),
	}
}

func notFound() error {
	return domain.NewReasonError(domain.ErrNotFound, domain.ReasonMediaNotFound)
}

// Create stores a new media. Fails with domain.ErrConflict if the pair is taken.
func (svc *MediaService) Create(ctx context.Context, title, username string) (media *domain.Media, err error) {
	log := svc.Log.With(logging.Group("media", "title", title, "username", username))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "media created", "id", media.ID)
		case domain.IsRejection(err):
			log.DebugContext(ctx, "media create rejected", "error", err)
		default:
			log.ErrorContext(ctx, "media create failed", "error", err)
		}
	}()

	if _, exists, err := svc.MediaRepo.FindMediaByTitleAndUsername(ctx, title, username); err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	} else if exists {
		return nil, domain.NewReasonError(domain.ErrConflict, domain.ReasonMediaExists)
	}

	media = &domain.Media{Title: title, Username: username}
	if err := svc.MediaRepo.CreateMedia(ctx, media); err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}

	return media, nil
}

// FindAll returns every media ordered by id.
func (svc *MediaService) FindAll(ctx context.Context) ([]domain.Media, error) {
	medias, err := svc.MediaRepo.ListMedia(ctx)
	if err != nil {
		svc.Log.ErrorContext(ctx, "media list failed", "error", err)

		return nil, fmt.Errorf("list media: %w", err)
	}

	return medias, nil
}

// FindOne returns the media with id or a domain.ErrNotFound reason error.
func (svc *MediaService) FindOne(ctx context.Context, id int64) (*domain.Media, error) {
	media, ok, err := svc.MediaRepo.GetMedia(ctx, id)
	if err != nil {
		svc.Log.ErrorContext(ctx, "media fetch failed", "id", id, "error", err)

		return nil, fmt.Errorf("get media: %w", err)
	}

	if !ok {
		return nil, notFound()
	}

	return media, nil
}

// Update overwrites title and username of the media with id.
// The pair must not be held by a different media.
func (svc *MediaService) Update(ctx context.Context, id int64, title, username string) (err error) {
	log := svc.Log.With(logging.Group("media", "id", id, "title", title, "username", username))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "media updated")
		case domain.IsRejection(err):
			log.DebugContext(ctx, "media update rejected", "error", err)
		default:
			log.ErrorContext(ctx, "media update failed", "error", err)
		}
	}()

	if _, ok, err := svc.MediaRepo.GetMedia(ctx, id); err != nil {
		return fmt.Errorf("get media: %w", err)
	} else if !ok {
		return notFound()
	}

	other, exists, err := svc.MediaRepo.FindMediaByTitleAndUsername(ctx, title, username)
	if err != nil {
		return fmt.Errorf("find media: %w", err)
	}

	if exists && other.ID != id {
		return domain.NewReasonError(domain.ErrConflict, domain.ReasonMediaExists)
	}

	if err := svc.MediaRepo.UpdateMedia(ctx, domain.Media{ID: id, Title: title, Username: username}); err != nil {
		return fmt.Errorf("update media: %w", err)
	}

	return nil
}

// Remove deletes the media with id unless a publication references it.
func (svc *MediaService) Remove(ctx context.Context, id int64) (err error) {
	log := svc.Log.With(logging.Group("media", "id", id))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "media removed")
		case domain.IsRejection(err):
			log.DebugContext(ctx, "media remove rejected", "error", err)
		default:
			log.ErrorContext(ctx, "media remove failed", "error", err)
		}
	}()

	if _, ok, err := svc.MediaRepo.GetMedia(ctx, id); err != nil {
		return fmt.Errorf("get media: %w", err)
	} else if !ok {
		return notFound()
	}

	n, err := svc.Publications.CountPublicationsByMedia(ctx, id)
	if err != nil {
		return fmt.Errorf("count publications: %w", err)
	}

	if n > 0 {
		return domain.NewReasonError(domain.ErrForbidden, domain.ReasonMediaLinked)
	}

	if err := svc.MediaRepo.DeleteMedia(ctx, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	return nil
}

// MediaExists reports whether a media with id exists.
func (svc *MediaService) MediaExists(ctx context.Context, id int64) (bool, error) {
	_, ok, err := svc.MediaRepo.GetMedia(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get media: %w", err)
	}

	return ok, nil
}
