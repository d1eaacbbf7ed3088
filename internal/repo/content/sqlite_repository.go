package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
)

// SQLiteRepositoryConfig holds configuration for the SQLite repository.
type SQLiteRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/publishing.db"`
}

// SQLiteRepository implements Repository using SQLite as the storage backend.
// Dates are stored as unix nanoseconds.
type SQLiteRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepositoryFactory creates a factory function that returns a new SQLiteRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteRepositoryFactory(cfg SQLiteRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewSQLiteRepository(ctx, cfg)
	}
}

// NewSQLiteRepository creates a new SQLiteRepository with the given configuration.
// It creates the database directory and schema if needed and enables foreign keys.
func NewSQLiteRepository(ctx context.Context, cfg SQLiteRepositoryConfig) (*SQLiteRepository, error) {
	log := logging.GetLogger("repo.content.sqlite_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := "file:" + cfg.DatabasePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.DebugContext(ctx, "db opened")

	return &SQLiteRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

//nolint:gochecknoglobals
var schema = []string{
	`CREATE TABLE IF NOT EXISTS medias (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		title    TEXT    NOT NULL,
		username TEXT    NOT NULL,
		UNIQUE (title, username)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT    NOT NULL,
		text  TEXT    NOT NULL,
		image TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS publications (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		media_id INTEGER NOT NULL REFERENCES medias (id) ON DELETE RESTRICT,
		post_id  INTEGER NOT NULL REFERENCES posts (id) ON DELETE RESTRICT,
		date     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publications_media_id ON publications (media_id)`,
	`CREATE INDEX IF NOT EXISTS idx_publications_post_id ON publications (post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_publications_date ON publications (date)`,
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

// translateError maps constraint violations onto the domain taxonomy.
// fkErr is used for foreign key violations, which mean different things
// for inserts (missing reference) and deletes (still referenced).
func translateError(err, uniqueErr, fkErr error) error {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return err
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		if uniqueErr != nil {
			return errors.Join(uniqueErr, err)
		}
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_TRIGGER:
		if fkErr != nil {
			return errors.Join(fkErr, err)
		}
	}

	return err
}

// dateLayout renders UTC timestamps with a fixed width so that the text
// column orders the same way as the instants it holds.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse publication date %q: %w", s, err)
	}

	return t, nil
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	//nolint:wrapcheck
	return r.db.ExecContext(ctx, query, args...)
}

func (r *SQLiteRepository) execAffecting(
	ctx context.Context,
	notFound, uniqueErr, fkErr error,
	query string,
	args ...any,
) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return translateError(err, uniqueErr, fkErr)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return notFound
	}

	return nil
}

// CreateMedia implements Repository.CreateMedia using SQLite.
func (r *SQLiteRepository) CreateMedia(ctx context.Context, media *domain.Media) error {
	res, err := r.exec(ctx,
		"INSERT INTO medias (title, username) VALUES (?, ?)",
		media.Title,
		media.Username,
	)
	if err != nil {
		return fmt.Errorf("insert media: %w", translateError(err, mediaExists(), nil))
	}

	if media.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	return nil
}

// GetMedia implements Repository.GetMedia using SQLite.
func (r *SQLiteRepository) GetMedia(ctx context.Context, id int64) (*domain.Media, bool, error) {
	return r.queryMedia(ctx, "SELECT id, title, username FROM medias WHERE id = ?", id)
}

// FindMediaByTitleAndUsername implements Repository.FindMediaByTitleAndUsername using SQLite.
func (r *SQLiteRepository) FindMediaByTitleAndUsername(
	ctx context.Context,
	title, username string,
) (*domain.Media, bool, error) {
	return r.queryMedia(ctx,
		"SELECT id, title, username FROM medias WHERE title = ? AND username = ?",
		title,
		username,
	)
}

func (r *SQLiteRepository) queryMedia(ctx context.Context, query string, args ...any) (*domain.Media, bool, error) {
	var media domain.Media

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&media.ID, &media.Title, &media.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query media: %w", err)
	}

	return &media, true, nil
}

// ListMedia implements Repository.ListMedia using SQLite.
func (r *SQLiteRepository) ListMedia(ctx context.Context) ([]domain.Media, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, username FROM medias ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query medias: %w", err)
	}
	defer rows.Close()

	medias := []domain.Media{}

	for rows.Next() {
		var media domain.Media
		if err := rows.Scan(&media.ID, &media.Title, &media.Username); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}

		medias = append(medias, media)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medias: %w", err)
	}

	return medias, nil
}

// UpdateMedia implements Repository.UpdateMedia using SQLite.
func (r *SQLiteRepository) UpdateMedia(ctx context.Context, media domain.Media) error {
	err := r.execAffecting(ctx, mediaNotFound(), mediaExists(), nil,
		"UPDATE medias SET title = ?, username = ? WHERE id = ?",
		media.Title,
		media.Username,
		media.ID,
	)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}

	return nil
}

// DeleteMedia implements Repository.DeleteMedia using SQLite.
func (r *SQLiteRepository) DeleteMedia(ctx context.Context, id int64) error {
	err := r.execAffecting(ctx, mediaNotFound(), nil, mediaLinked(),
		"DELETE FROM medias WHERE id = ?",
		id,
	)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}

	return nil
}

// CreatePost implements Repository.CreatePost using SQLite.
func (r *SQLiteRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	res, err := r.exec(ctx,
		"INSERT INTO posts (title, text, image) VALUES (?, ?, ?)",
		post.Title,
		post.Text,
		nullString(post.Image),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	if post.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	return nil
}

// GetPost implements Repository.GetPost using SQLite.
func (r *SQLiteRepository) GetPost(ctx context.Context, id int64) (*domain.Post, bool, error) {
	var (
		post  domain.Post
		image sql.NullString
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, text, image FROM posts WHERE id = ?",
		id,
	).Scan(&post.ID, &post.Title, &post.Text, &image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query post: %w", err)
	}

	post.Image = stringPtr(image)

	return &post, true, nil
}

// ListPosts implements Repository.ListPosts using SQLite.
func (r *SQLiteRepository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, text, image FROM posts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}

	for rows.Next() {
		var (
			post  domain.Post
			image sql.NullString
		)

		if err := rows.Scan(&post.ID, &post.Title, &post.Text, &image); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		post.Image = stringPtr(image)
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// UpdatePost implements Repository.UpdatePost using SQLite.
func (r *SQLiteRepository) UpdatePost(ctx context.Context, post domain.Post) error {
	err := r.execAffecting(ctx, postNotFound(), nil, nil,
		"UPDATE posts SET title = ?, text = ?, image = ? WHERE id = ?",
		post.Title,
		post.Text,
		nullString(post.Image),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

// DeletePost implements Repository.DeletePost using SQLite.
func (r *SQLiteRepository) DeletePost(ctx context.Context, id int64) error {
	err := r.execAffecting(ctx, postNotFound(), nil, postLinked(),
		"DELETE FROM posts WHERE id = ?",
		id,
	)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

// CreatePublication implements Repository.CreatePublication using SQLite.
func (r *SQLiteRepository) CreatePublication(ctx context.Context, publication *domain.Publication) error {
	res, err := r.exec(ctx,
		"INSERT INTO publications (media_id, post_id, date) VALUES (?, ?, ?)",
		publication.MediaID,
		publication.PostID,
		formatDate(publication.Date),
	)
	if err != nil {
		return fmt.Errorf("insert publication: %w", translateError(err, nil, referenceNotFound()))
	}

	if publication.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	return nil
}

// GetPublication implements Repository.GetPublication using SQLite.
func (r *SQLiteRepository) GetPublication(ctx context.Context, id int64) (*domain.Publication, bool, error) {
	var (
		publication domain.Publication
		date        string
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, media_id, post_id, date FROM publications WHERE id = ?",
		id,
	).Scan(&publication.ID, &publication.MediaID, &publication.PostID, &date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query publication: %w", err)
	}

	if publication.Date, err = parseDate(date); err != nil {
		return nil, false, err
	}

	return &publication, true, nil
}

// ListPublications implements Repository.ListPublications using SQLite.
func (r *SQLiteRepository) ListPublications(
	ctx context.Context,
	filter domain.PublicationFilter,
) ([]domain.Publication, error) {
	var (
		where []string
		args  []any
	)

	if filter.PublishedBy != nil {
		where = append(where, "date <= ?")
		args = append(args, formatDate(*filter.PublishedBy))
	}

	if filter.After != nil {
		where = append(where, "date >= ?")
		args = append(args, formatDate(*filter.After))
	}

	query := "SELECT id, media_id, post_id, date FROM publications"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	publications := []domain.Publication{}

	for rows.Next() {
		var (
			publication domain.Publication
			date        string
		)

		if err := rows.Scan(&publication.ID, &publication.MediaID, &publication.PostID, &date); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}

		if publication.Date, err = parseDate(date); err != nil {
			return nil, err
		}

		publications = append(publications, publication)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publications: %w", err)
	}

	return publications, nil
}

// UpdatePublication implements Repository.UpdatePublication using SQLite.
func (r *SQLiteRepository) UpdatePublication(ctx context.Context, publication domain.Publication) error {
	err := r.execAffecting(ctx, publicationNotFound(), nil, referenceNotFound(),
		"UPDATE publications SET media_id = ?, post_id = ?, date = ? WHERE id = ?",
		publication.MediaID,
		publication.PostID,
		formatDate(publication.Date),
		publication.ID,
	)
	if err != nil {
		return fmt.Errorf("update publication: %w", err)
	}

	return nil
}

// DeletePublication implements Repository.DeletePublication using SQLite.
func (r *SQLiteRepository) DeletePublication(ctx context.Context, id int64) error {
	err := r.execAffecting(ctx, publicationNotFound(), nil, nil,
		"DELETE FROM publications WHERE id = ?",
		id,
	)
	if err != nil {
		return fmt.Errorf("delete publication: %w", err)
	}

	return nil
}

// CountPublicationsByMedia implements Repository.CountPublicationsByMedia using SQLite.
func (r *SQLiteRepository) CountPublicationsByMedia(ctx context.Context, mediaID int64) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM publications WHERE media_id = ?", mediaID)
}

// CountPublicationsByPost implements Repository.CountPublicationsByPost using SQLite.
func (r *SQLiteRepository) CountPublicationsByPost(ctx context.Context, postID int64) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM publications WHERE post_id = ?", postID)
}

func (r *SQLiteRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count publications: %w", err)
	}

	return n, nil
}

// Ping implements Repository.Ping.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}
