// Package content persists media, posts and publications.
//
// Three backends implement Repository: SQLite (default), PostgreSQL through
// gorm and an embedded bolt store through bolthold.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/publishing/internal/domain"
)

// ErrUnknownDriver is returned by RepositoryFactoryFor for an unsupported StoreConfig.Driver.
var ErrUnknownDriver = errors.New("unknown store driver")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// MediaRepository defines persistence for media outlets.
type MediaRepository interface {
	// CreateMedia inserts media and sets its ID.
	// Returns domain.ErrConflict if the (title, username) pair is taken.
	CreateMedia(ctx context.Context, media *domain.Media) error

	// GetMedia retrieves a media by id.
	// Returns the media and true if found, or nil and false if not found.
	GetMedia(ctx context.Context, id int64) (*domain.Media, bool, error)

	// FindMediaByTitleAndUsername retrieves the media holding the (title, username) pair.
	FindMediaByTitleAndUsername(ctx context.Context, title, username string) (*domain.Media, bool, error)

	// ListMedia returns all media ordered by id.
	ListMedia(ctx context.Context) ([]domain.Media, error)

	// UpdateMedia overwrites the media with media.ID.
	// Returns domain.ErrNotFound if it does not exist and domain.ErrConflict
	// if another media holds the pair.
	UpdateMedia(ctx context.Context, media domain.Media) error

	// DeleteMedia removes a media. Returns domain.ErrNotFound if it does not
	// exist and domain.ErrForbidden if a publication still references it.
	DeleteMedia(ctx context.Context, id int64) error
}

// PostRepository defines persistence for posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPost(ctx context.Context, id int64) (*domain.Post, bool, error)
	ListPosts(ctx context.Context) ([]domain.Post, error)
	UpdatePost(ctx context.Context, post domain.Post) error
	DeletePost(ctx context.Context, id int64) error
}

// PublicationReferences counts the publications pointing at a media or a post.
type PublicationReferences interface {
	CountPublicationsByMedia(ctx context.Context, mediaID int64) (int64, error)
	CountPublicationsByPost(ctx context.Context, postID int64) (int64, error)
}

// PublicationRepository defines persistence for publications.
type PublicationRepository interface {
	PublicationReferences

	// CreatePublication inserts publication and sets its ID.
	// Returns domain.ErrNotFound if the media or the post does not exist.
	CreatePublication(ctx context.Context, publication *domain.Publication) error

	GetPublication(ctx context.Context, id int64) (*domain.Publication, bool, error)

	// ListPublications returns the publications matching filter ordered by id.
	ListPublications(ctx context.Context, filter domain.PublicationFilter) ([]domain.Publication, error)

	UpdatePublication(ctx context.Context, publication domain.Publication) error
	DeletePublication(ctx context.Context, id int64) error
}

// Repository is the complete storage gateway.
type Repository interface {
	MediaRepository
	PostRepository
	PublicationRepository

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	// Driver is one of "sqlite", "postgres" or "bolt"
	Driver string `env:"DRIVER" default:"sqlite"`

	SQLite   SQLiteRepositoryConfig `envPrefix:"SQLITE_"`
	Postgres GormRepositoryConfig   `envPrefix:"POSTGRES_"`
	Bolt     BoltRepositoryConfig   `envPrefix:"BOLT_"`
}

// RepositoryFactoryFor returns the factory of the backend named by cfg.Driver.
func RepositoryFactoryFor(cfg StoreConfig) (RepositoryFactory, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return SQLiteRepositoryFactory(cfg.SQLite), nil
	case DriverPostgres:
		return GormRepositoryFactory(cfg.Postgres), nil
	case DriverBolt:
		return BoltRepositoryFactory(cfg.Bolt), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func mediaNotFound() error {
	return domain.NewReasonError(domain.ErrNotFound, domain.ReasonMediaNotFound)
}

func mediaExists() error {
	return domain.NewReasonError(domain.ErrConflict, domain.ReasonMediaExists)
}

func mediaLinked() error {
	return domain.NewReasonError(domain.ErrForbidden, domain.ReasonMediaLinked)
}

func postNotFound() error {
	return domain.NewReasonError(domain.ErrNotFound, domain.ReasonPostNotFound)
}

func postLinked() error {
	return domain.NewReasonError(domain.ErrForbidden, domain.ReasonPostLinked)
}

func publicationNotFound() error {
	return domain.NewReasonError(domain.ErrNotFound, domain.ReasonPublicationNotFound)
}

// referenceNotFound is the error of a publication write naming a media or
// post that does not exist. The backends cannot tell which one is missing.
func referenceNotFound() error {
	return domain.NewReasonError(domain.ErrNotFound, domain.MissingPostAndMedia.Message())
}
