package content

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
)

// BoltRepositoryConfig holds configuration for the embedded bolt repository.
type BoltRepositoryConfig struct {
	// Path is the filesystem path to the bolt database file
	Path string `env:"PATH" default:"var/storage/publishing.bolt"`

	// OpenTimeout bounds the wait for the file lock held by another process
	OpenTimeout time.Duration `env:"OPEN_TIMEOUT" default:"1s"`
}

type boltMedia struct {
	ID       uint64 `boltholdKey:"ID"`
	Title    string `boltholdIndex:"Title"`
	Username string
}

type boltPost struct {
	ID    uint64 `boltholdKey:"ID"`
	Title string
	Text  string
	Image *string
}

type boltPublication struct {
	ID      uint64 `boltholdKey:"ID"`
	MediaID int64  `boltholdIndex:"MediaID"`
	PostID  int64  `boltholdIndex:"PostID"`
	Date    time.Time
}

//nolint:gochecknoglobals
var (
	mediaSequence       = []byte("seq.medias")
	postSequence        = []byte("seq.posts")
	publicationSequence = []byte("seq.publications")
)

func (m boltMedia) toDomain() domain.Media {
	return domain.Media{ID: int64(m.ID), Title: m.Title, Username: m.Username}
}

func (p boltPost) toDomain() domain.Post {
	return domain.Post{ID: int64(p.ID), Title: p.Title, Text: p.Text, Image: p.Image}
}

func (p boltPublication) toDomain() domain.Publication {
	return domain.Publication{
		ID:      int64(p.ID),
		MediaID: p.MediaID,
		PostID:  p.PostID,
		Date:    p.Date.UTC(),
	}
}

// BoltRepository implements Repository on an embedded bolt file through bolthold.
// Uniqueness and reference rules are checked inside the write transaction.
type BoltRepository struct {
	store *bolthold.Store
	log   logging.Logger
}

var _ Repository = (*BoltRepository)(nil)

// BoltRepositoryFactory creates a factory function that returns a new BoltRepository.
func BoltRepositoryFactory(cfg BoltRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewBoltRepository(ctx, cfg)
	}
}

// NewBoltRepository opens or creates the bolt file at cfg.Path.
func NewBoltRepository(ctx context.Context, cfg BoltRepositoryConfig) (*BoltRepository, error) {
	log := logging.GetLogger("repo.content.bolt_repository").With(
		logging.Group("db", "path", cfg.Path),
	)

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	//nolint:exhaustruct
	store, err := bolthold.Open(cfg.Path, 0o600, &bolthold.Options{
		Options: &bolt.Options{Timeout: cfg.OpenTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	log.DebugContext(ctx, "store opened")

	return &BoltRepository{store: store, log: log}, nil
}

// insert assigns the next id of sequence to the record via setID and stores it under that id.
func (r *BoltRepository) insert(
	tx *bolt.Tx,
	sequence []byte,
	record any,
	setID func(uint64),
) error {
	bkt, err := tx.CreateBucketIfNotExists(sequence)
	if err != nil {
		return fmt.Errorf("sequence bucket: %w", err)
	}

	id, err := bkt.NextSequence()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	setID(id)

	if err := r.store.TxInsert(tx, id, record); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return nil
}

// get loads the record stored under id. A missing record is reported as false.
func get[T any](tx *bolt.Tx, store *bolthold.Store, id int64) (*T, bool, error) {
	if id <= 0 {
		return nil, false, nil
	}

	var record T

	var err error
	if tx != nil {
		err = store.TxGet(tx, uint64(id), &record)
	} else {
		err = store.Get(uint64(id), &record)
	}

	if err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, false, nil
		}

		return nil, false, err //nolint:wrapcheck
	}

	return &record, true, nil
}

func (r *BoltRepository) findMedia(tx *bolt.Tx, title, username string) (*boltMedia, bool, error) {
	var medias []boltMedia

	query := bolthold.Where("Title").Eq(title).And("Username").Eq(username).Index("Title")
	if err := r.store.TxFind(tx, &medias, query); err != nil {
		return nil, false, fmt.Errorf("find media: %w", err)
	}

	if len(medias) == 0 {
		return nil, false, nil
	}

	return &medias[0], true, nil
}

func (r *BoltRepository) countPublications(tx *bolt.Tx, field string, id int64) (int64, error) {
	var publications []boltPublication

	query := bolthold.Where(field).Eq(id).Index(field)
	if err := r.store.TxFind(tx, &publications, query); err != nil {
		return 0, fmt.Errorf("find publications: %w", err)
	}

	return int64(len(publications)), nil
}

// CreateMedia implements Repository.CreateMedia using bolthold.
func (r *BoltRepository) CreateMedia(ctx context.Context, media *domain.Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := boltMedia{Title: media.Title, Username: media.Username}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, exists, err := r.findMedia(tx, media.Title, media.Username); err != nil {
			return err
		} else if exists {
			return mediaExists()
		}

		return r.insert(tx, mediaSequence, &record, func(id uint64) { record.ID = id })
	})
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}

	media.ID = int64(record.ID)

	return nil
}

// GetMedia implements Repository.GetMedia using bolthold.
func (r *BoltRepository) GetMedia(ctx context.Context, id int64) (*domain.Media, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	record, ok, err := get[boltMedia](nil, r.store, id)
	if err != nil || !ok {
		return nil, false, wrapQuery("media", err)
	}

	media := record.toDomain()

	return &media, true, nil
}

// FindMediaByTitleAndUsername implements Repository.FindMediaByTitleAndUsername using bolthold.
func (r *BoltRepository) FindMediaByTitleAndUsername(
	ctx context.Context,
	title, username string,
) (media *domain.Media, ok bool, err error) {
	if err = ctx.Err(); err != nil {
		return nil, false, err
	}

	err = r.store.Bolt().View(func(tx *bolt.Tx) error {
		record, found, err := r.findMedia(tx, title, username)
		if err != nil || !found {
			return err
		}

		m := record.toDomain()
		media, ok = &m, true

		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("query media: %w", err)
	}

	return media, ok, nil
}

// ListMedia implements Repository.ListMedia using bolthold.
func (r *BoltRepository) ListMedia(ctx context.Context) ([]domain.Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []boltMedia
	if err := r.store.Find(&records, &bolthold.Query{}); err != nil {
		return nil, fmt.Errorf("query medias: %w", err)
	}

	slices.SortFunc(records, func(a, b boltMedia) int { return cmp.Compare(a.ID, b.ID) })

	medias := make([]domain.Media, 0, len(records))
	for _, record := range records {
		medias = append(medias, record.toDomain())
	}

	return medias, nil
}

// UpdateMedia implements Repository.UpdateMedia using bolthold.
func (r *BoltRepository) UpdateMedia(ctx context.Context, media domain.Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, found, err := get[boltMedia](tx, r.store, media.ID); err != nil {
			return err
		} else if !found {
			return mediaNotFound()
		}

		other, exists, err := r.findMedia(tx, media.Title, media.Username)
		if err != nil {
			return err
		}

		if exists && int64(other.ID) != media.ID {
			return mediaExists()
		}

		record := boltMedia{ID: uint64(media.ID), Title: media.Title, Username: media.Username}

		return r.store.TxUpdate(tx, record.ID, &record) //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}

	return nil
}

// DeleteMedia implements Repository.DeleteMedia using bolthold.
func (r *BoltRepository) DeleteMedia(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, found, err := get[boltMedia](tx, r.store, id); err != nil {
			return err
		} else if !found {
			return mediaNotFound()
		}

		if n, err := r.countPublications(tx, "MediaID", id); err != nil {
			return err
		} else if n > 0 {
			return mediaLinked()
		}

		return r.store.TxDelete(tx, uint64(id), &boltMedia{}) //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	return nil
}

// CreatePost implements Repository.CreatePost using bolthold.
func (r *BoltRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := boltPost{Title: post.Title, Text: post.Text, Image: post.Image}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		return r.insert(tx, postSequence, &record, func(id uint64) { record.ID = id })
	})
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = int64(record.ID)

	return nil
}

// GetPost implements Repository.GetPost using bolthold.
func (r *BoltRepository) GetPost(ctx context.Context, id int64) (*domain.Post, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	record, ok, err := get[boltPost](nil, r.store, id)
	if err != nil || !ok {
		return nil, false, wrapQuery("post", err)
	}

	post := record.toDomain()

	return &post, true, nil
}

// ListPosts implements Repository.ListPosts using bolthold.
func (r *BoltRepository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []boltPost
	if err := r.store.Find(&records, &bolthold.Query{}); err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}

	slices.SortFunc(records, func(a, b boltPost) int { return cmp.Compare(a.ID, b.ID) })

	posts := make([]domain.Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, record.toDomain())
	}

	return posts, nil
}

// UpdatePost implements Repository.UpdatePost using bolthold.
func (r *BoltRepository) UpdatePost(ctx context.Context, post domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, found, err := get[boltPost](tx, r.store, post.ID); err != nil {
			return err
		} else if !found {
			return postNotFound()
		}

		record := boltPost{ID: uint64(post.ID), Title: post.Title, Text: post.Text, Image: post.Image}

		return r.store.TxUpdate(tx, record.ID, &record) //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

// DeletePost implements Repository.DeletePost using bolthold.
func (r *BoltRepository) DeletePost(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, found, err := get[boltPost](tx, r.store, id); err != nil {
			return err
		} else if !found {
			return postNotFound()
		}

		if n, err := r.countPublications(tx, "PostID", id); err != nil {
			return err
		} else if n > 0 {
			return postLinked()
		}

		return r.store.TxDelete(tx, uint64(id), &boltPost{}) //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

// checkReferences fails with the missing-reference reason when the media or the post is absent.
func (r *BoltRepository) checkReferences(tx *bolt.Tx, mediaID, postID int64) error {
	_, mediaFound, err := get[boltMedia](tx, r.store, mediaID)
	if err != nil {
		return err
	}

	_, postFound, err := get[boltPost](tx, r.store, postID)
	if err != nil {
		return err
	}

	if missing, ok := domain.MissingReferenceOf(!postFound, !mediaFound); ok {
		return missing.Err()
	}

	return nil
}

// CreatePublication implements Repository.CreatePublication using bolthold.
func (r *BoltRepository) CreatePublication(ctx context.Context, publication *domain.Publication) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := boltPublication{
		MediaID: publication.MediaID,
		PostID:  publication.PostID,
		Date:    publication.Date.UTC(),
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if err := r.checkReferences(tx, record.MediaID, record.PostID); err != nil {
			return err
		}

		return r.insert(tx, publicationSequence, &record, func(id uint64) { record.ID = id })
	})
	if err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}

	publication.ID = int64(record.ID)

	return nil
}

// GetPublication implements Repository.GetPublication using bolthold.
func (r *BoltRepository) GetPublication(ctx context.Context, id int64) (*domain.Publication, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	record, ok, err := get[boltPublication](nil, r.store, id)
	if err != nil || !ok {
		return nil, false, wrapQuery("publication", err)
	}

	publication := record.toDomain()

	return &publication, true, nil
}

// ListPublications implements Repository.ListPublications using bolthold.
func (r *BoltRepository) ListPublications(
	ctx context.Context,
	filter domain.PublicationFilter,
) ([]domain.Publication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var query *bolthold.Query

	where := func(field string) *bolthold.Criterion {
		if query == nil {
			return bolthold.Where(field)
		}

		return query.And(field)
	}

	if filter.PublishedBy != nil {
		query = where("Date").Le(*filter.PublishedBy)
	}

	if filter.After != nil {
		query = where("Date").Ge(*filter.After)
	}

	if query == nil {
		query = &bolthold.Query{}
	}

	var records []boltPublication
	if err := r.store.Find(&records, query); err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}

	slices.SortFunc(records, func(a, b boltPublication) int { return cmp.Compare(a.ID, b.ID) })

	publications := make([]domain.Publication, 0, len(records))
	for _, record := range records {
		publications = append(publications, record.toDomain())
	}

	return publications, nil
}

// UpdatePublication implements Repository.UpdatePublication using bolthold.
func (r *BoltRepository) UpdatePublication(ctx context.Context, publication domain.Publication) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, found, err := get[boltPublication](tx, r.store, publication.ID); err != nil {
			return err
		} else if !found {
			return publicationNotFound()
		}

		if err := r.checkReferences(tx, publication.MediaID, publication.PostID); err != nil {
			return err
		}

		record := boltPublication{
			ID:      uint64(publication.ID),
			MediaID: publication.MediaID,
			PostID:  publication.PostID,
			Date:    publication.Date.UTC(),
		}

		return r.store.TxUpdate(tx, record.ID, &record) //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("update publication: %w", err)
	}

	return nil
}

// DeletePublication implements Repository.DeletePublication using bolthold.
func (r *BoltRepository) DeletePublication(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if _, found, err := get[boltPublication](tx, r.store, id); err != nil {
			return err
		} else if !found {
			return publicationNotFound()
		}

		return r.store.TxDelete(tx, uint64(id), &boltPublication{}) //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("delete publication: %w", err)
	}

	return nil
}

// CountPublicationsByMedia implements Repository.CountPublicationsByMedia using bolthold.
func (r *BoltRepository) CountPublicationsByMedia(ctx context.Context, mediaID int64) (n int64, err error) {
	if err = ctx.Err(); err != nil {
		return 0, err
	}

	err = r.store.Bolt().View(func(tx *bolt.Tx) error {
		n, err = r.countPublications(tx, "MediaID", mediaID)

		return err
	})

	return n, err //nolint:wrapcheck
}

// CountPublicationsByPost implements Repository.CountPublicationsByPost using bolthold.
func (r *BoltRepository) CountPublicationsByPost(ctx context.Context, postID int64) (n int64, err error) {
	if err = ctx.Err(); err != nil {
		return 0, err
	}

	err = r.store.Bolt().View(func(tx *bolt.Tx) error {
		n, err = r.countPublications(tx, "PostID", postID)

		return err
	})

	return n, err //nolint:wrapcheck
}

// Ping implements Repository.Ping by opening a read transaction.
func (r *BoltRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.store.Bolt().View(func(*bolt.Tx) error { return nil }); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the bolt file.
func (r *BoltRepository) Close() error {
	if err := r.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	return nil
}
