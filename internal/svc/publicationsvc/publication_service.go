// Package publicationsvc schedules posts on media outlets.
//
// A publication may only reference an existing media and post, and once its
// date has passed it can still be removed but no longer updated.
package publicationsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
	"github.com/mkrupp/publishing/internal/repo/content"
)

// MediaLookup reports whether a media exists.
type MediaLookup interface {
	MediaExists(ctx context.Context, id int64) (bool, error)
}

// PostLookup reports whether a post exists.
type PostLookup interface {
	PostExists(ctx context.Context, id int64) (bool, error)
}

// Query holds the optional listing filters of FindAll.
type Query struct {
	// Published keeps only publications whose date is not after now.
	Published bool
	// After keeps only publications dated at or after it.
	After *time.Time
}

// PublicationService implements the publication rules.
type PublicationService struct {
	PublicationRepo content.PublicationRepository
	Medias          MediaLookup
	Posts           PostLookup
	Now             func() time.Time
	Log             logging.Logger
}

// NewPublicationService creates a PublicationService using the wall clock.
func NewPublicationService(
	repo content.PublicationRepository,
	medias MediaLookup,
	posts PostLookup,
) *PublicationService {
	return &PublicationService{
		PublicationRepo: repo,
		Medias:          medias,
		Posts:           posts,
		Now:             time.Now,
		Log:             logging.GetLogger("svc.publicationsvc.publication_service"),
	}
}

// checkReferences resolves the media and the post concurrently and fails
// with the missing-reference reason when either is absent.
func (svc *PublicationService) checkReferences(ctx context.Context, mediaID, postID int64) error {
	var mediaFound, postFound bool

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		mediaFound, err = svc.Medias.MediaExists(gctx, mediaID)

		return err
	})

	g.Go(func() (err error) {
		postFound, err = svc.Posts.PostExists(gctx, postID)

		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("lookup references: %w", err)
	}

	if missing, ok := domain.MissingReferenceOf(!postFound, !mediaFound); ok {
		return missing.Err()
	}

	return nil
}

// Create schedules post postID on media mediaID at date.
func (svc *PublicationService) Create(
	ctx context.Context,
	mediaID, postID int64,
	date time.Time,
) (publication *domain.Publication, err error) {
	log := svc.Log.With(logging.Group("publication", "media_id", mediaID, "post_id", postID, "date", date))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "publication created", "id", publication.ID)
		case domain.IsRejection(err):
			log.DebugContext(ctx, "publication create rejected", "error", err)
		default:
			log.ErrorContext(ctx, "publication create failed", "error", err)
		}
	}()

	if err := svc.checkReferences(ctx, mediaID, postID); err != nil {
		return nil, err
	}

	publication = &domain.Publication{MediaID: mediaID, PostID: postID, Date: date.UTC()}
	if err := svc.PublicationRepo.CreatePublication(ctx, publication); err != nil {
		return nil, fmt.Errorf("create publication: %w", err)
	}

	return publication, nil
}

// Filter turns q into a repository filter evaluated at now.
func (q Query) Filter(now time.Time) domain.PublicationFilter {
	var filter domain.PublicationFilter

	if q.Published {
		filter.PublishedBy = &now
	}

	if q.After != nil {
		after := q.After.UTC()
		filter.After = &after
	}

	return filter
}

// FindAll lists the publications matching q ordered by id.
func (svc *PublicationService) FindAll(ctx context.Context, q Query) ([]domain.Publication, error) {
	publications, err := svc.PublicationRepo.ListPublications(ctx, q.Filter(svc.Now().UTC()))
	if err != nil {
		svc.Log.ErrorContext(ctx, "publication list failed", "error", err)

		return nil, fmt.Errorf("list publications: %w", err)
	}

	return publications, nil
}

// FindOne returns the publication with id.
func (svc *PublicationService) FindOne(ctx context.Context, id int64) (*domain.Publication, error) {
	publication, ok, err := svc.PublicationRepo.GetPublication(ctx, id)
	if err != nil {
		svc.Log.ErrorContext(ctx, "publication fetch failed", "id", id, "error", err)

		return nil, fmt.Errorf("get publication: %w", err)
	}

	if !ok {
		return nil, domain.NewReasonError(domain.ErrNotFound, domain.ReasonPublicationNotFound)
	}

	return publication, nil
}

// Update replaces media, post and date of the publication with id.
// References are validated first, then the stored date must not have passed.
func (svc *PublicationService) Update(
	ctx context.Context,
	id, mediaID, postID int64,
	date time.Time,
) (err error) {
	log := svc.Log.With(logging.Group("publication",
		"id", id,
		"media_id", mediaID,
		"post_id", postID,
		"date", date,
	))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "publication updated")
		case domain.IsRejection(err):
			log.DebugContext(ctx, "publication update rejected", "error", err)
		default:
			log.ErrorContext(ctx, "publication update failed", "error", err)
		}
	}()

	notUpdated := domain.NewReasonError(domain.ErrNotFound, domain.ReasonPublicationNotUpdated)

	stored, ok, err := svc.PublicationRepo.GetPublication(ctx, id)
	if err != nil {
		return fmt.Errorf("get publication: %w", err)
	}

	if !ok {
		return notUpdated
	}

	if err := svc.checkReferences(ctx, mediaID, postID); err != nil {
		return err
	}

	if stored.Locked(svc.Now()) {
		return domain.NewReasonError(domain.ErrForbidden, domain.ReasonPublicationDateHasPassed)
	}

	err = svc.PublicationRepo.UpdatePublication(ctx, domain.Publication{
		ID:      id,
		MediaID: mediaID,
		PostID:  postID,
		Date:    date.UTC(),
	})
	if err != nil {
		if isPublicationNotFound(err) {
			return notUpdated
		}

		return fmt.Errorf("update publication: %w", err)
	}

	return nil
}

// Remove deletes the publication with id regardless of its date.
func (svc *PublicationService) Remove(ctx context.Context, id int64) (err error) {
	log := svc.Log.With(logging.Group("publication", "id", id))

	defer func() {
		switch {
		case err == nil:
			log.DebugContext(ctx, "publication removed")
		case domain.IsRejection(err):
			log.DebugContext(ctx, "publication remove rejected", "error", err)
		default:
			log.ErrorContext(ctx, "publication remove failed", "error", err)
		}
	}()

	notDeleted := domain.NewReasonError(domain.ErrNotFound, domain.ReasonPublicationNotDeleted)

	if _, ok, err := svc.PublicationRepo.GetPublication(ctx, id); err != nil {
		return fmt.Errorf("get publication: %w", err)
	} else if !ok {
		return notDeleted
	}

	if err := svc.PublicationRepo.DeletePublication(ctx, id); err != nil {
		if isPublicationNotFound(err) {
			return notDeleted
		}

		return fmt.Errorf("delete publication: %w", err)
	}

	return nil
}

// isPublicationNotFound reports whether the repository lost the publication
// between the lookup and the write.
func isPublicationNotFound(err error) bool {
	reason, _ := domain.Reason(err)

	return errors.Is(err, domain.ErrNotFound) && reason == domain.ReasonPublicationNotFound
}
