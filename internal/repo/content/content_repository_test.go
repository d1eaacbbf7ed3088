package content_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/repo/content"
)

func TestSQLiteRepository(t *testing.T) {
	t.Parallel()

	testRepository(t, func(t *testing.T) content.Repository {
		t.Helper()

		repo, err := content.NewSQLiteRepository(context.Background(), content.SQLiteRepositoryConfig{
			DatabasePath: filepath.Join(t.TempDir(), "storage", "publishing.db"),
		})
		require.NoError(t, err)

		return repo
	})
}

func TestBoltRepository(t *testing.T) {
	t.Parallel()

	testRepository(t, func(t *testing.T) content.Repository {
		t.Helper()

		repo, err := content.NewBoltRepository(context.Background(), content.BoltRepositoryConfig{
			Path:        filepath.Join(t.TempDir(), "publishing.bolt"),
			OpenTimeout: time.Second,
		})
		require.NoError(t, err)

		return repo
	})
}

// TestGormRepository runs against a disposable PostgreSQL database named by
// PUBLISHING_TEST_POSTGRES_DSN. Each subtest truncates the tables.
func TestGormRepository(t *testing.T) {
	dsn := os.Getenv("PUBLISHING_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PUBLISHING_TEST_POSTGRES_DSN not set")
	}

	testRepository(t, func(t *testing.T) content.Repository {
		t.Helper()

		repo, err := content.NewGormRepository(context.Background(), content.GormRepositoryConfig{
			DSN:          dsn,
			MaxOpenConns: 2,
			LogLevel:     "silent",
		})
		require.NoError(t, err)

		truncate(t, repo)

		return repo
	})
}

func truncate(t *testing.T, repo content.Repository) {
	t.Helper()

	ctx := context.Background()

	publications, err := repo.ListPublications(ctx, domain.PublicationFilter{})
	require.NoError(t, err)

	for _, p := range publications {
		require.NoError(t, repo.DeletePublication(ctx, p.ID))
	}

	medias, err := repo.ListMedia(ctx)
	require.NoError(t, err)

	for _, m := range medias {
		require.NoError(t, repo.DeleteMedia(ctx, m.ID))
	}

	posts, err := repo.ListPosts(ctx)
	require.NoError(t, err)

	for _, p := range posts {
		require.NoError(t, repo.DeletePost(ctx, p.ID))
	}
}

//nolint:maintidx
func testRepository(t *testing.T, newRepo func(t *testing.T) content.Repository) {
	t.Helper()

	setup := func(t *testing.T) (content.Repository, context.Context) {
		t.Helper()

		repo := newRepo(t)
		t.Cleanup(func() { _ = repo.Close() })

		return repo, context.Background()
	}

	t.Run("media lifecycle", func(t *testing.T) {
		repo, ctx := setup(t)

		media := domain.Media{Title: "Instagram", Username: "alice"}
		require.NoError(t, repo.CreateMedia(ctx, &media))
		assert.Positive(t, media.ID)

		got, ok, err := repo.GetMedia(ctx, media.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, media, *got)

		found, ok, err := repo.FindMediaByTitleAndUsername(ctx, "Instagram", "alice")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, media.ID, found.ID)

		_, ok, err = repo.FindMediaByTitleAndUsername(ctx, "Instagram", "bob")
		require.NoError(t, err)
		assert.False(t, ok)

		media.Username = "bob"
		require.NoError(t, repo.UpdateMedia(ctx, media))

		got, _, err = repo.GetMedia(ctx, media.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)

		require.NoError(t, repo.DeleteMedia(ctx, media.ID))

		_, ok, err = repo.GetMedia(ctx, media.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("media unique pair", func(t *testing.T) {
		repo, ctx := setup(t)

		first := domain.Media{Title: "Instagram", Username: "alice"}
		require.NoError(t, repo.CreateMedia(ctx, &first))

		dup := domain.Media{Title: "Instagram", Username: "alice"}
		err := repo.CreateMedia(ctx, &dup)
		require.ErrorIs(t, err, domain.ErrConflict)

		second := domain.Media{Title: "Facebook", Username: "alice"}
		require.NoError(t, repo.CreateMedia(ctx, &second))

		second.Title = "Instagram"
		err = repo.UpdateMedia(ctx, second)
		require.ErrorIs(t, err, domain.ErrConflict)

		// Rewriting a media with its own pair is allowed.
		require.NoError(t, repo.UpdateMedia(ctx, first))
	})

	t.Run("missing records", func(t *testing.T) {
		repo, ctx := setup(t)

		require.ErrorIs(t, repo.UpdateMedia(ctx, domain.Media{ID: 42, Title: "t", Username: "u"}), domain.ErrNotFound)
		require.ErrorIs(t, repo.DeleteMedia(ctx, 42), domain.ErrNotFound)
		require.ErrorIs(t, repo.UpdatePost(ctx, domain.Post{ID: 42, Title: "t", Text: "x"}), domain.ErrNotFound)
		require.ErrorIs(t, repo.DeletePost(ctx, 42), domain.ErrNotFound)
		require.ErrorIs(t, repo.DeletePublication(ctx, 42), domain.ErrNotFound)

		_, ok, err := repo.GetPost(ctx, 42)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = repo.GetPublication(ctx, 42)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("post image round trip", func(t *testing.T) {
		repo, ctx := setup(t)

		image := "https://example.com/cat.png"
		post := domain.Post{Title: "Hello", Text: "World", Image: &image}
		require.NoError(t, repo.CreatePost(ctx, &post))

		got, ok, err := repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotNil(t, got.Image)
		assert.Equal(t, image, *got.Image)

		post.Image = nil
		require.NoError(t, repo.UpdatePost(ctx, post))

		got, _, err = repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Image)

		posts, err := repo.ListPosts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Post{post}, posts)
	})

	t.Run("publications", func(t *testing.T) {
		repo, ctx := setup(t)

		media := domain.Media{Title: "Instagram", Username: "alice"}
		require.NoError(t, repo.CreateMedia(ctx, &media))

		post := domain.Post{Title: "Hello", Text: "World"}
		require.NoError(t, repo.CreatePost(ctx, &post))

		base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		dates := []time.Time{base.AddDate(0, 0, -2), base, base.AddDate(0, 0, 2)}

		created := make([]domain.Publication, 0, len(dates))

		for _, date := range dates {
			p := domain.Publication{MediaID: media.ID, PostID: post.ID, Date: date}
			require.NoError(t, repo.CreatePublication(ctx, &p))
			created = append(created, p)
		}

		got, ok, err := repo.GetPublication(ctx, created[1].ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, created[1].MediaID, got.MediaID)
		assert.Equal(t, created[1].PostID, got.PostID)
		assert.True(t, created[1].Date.Equal(got.Date))

		all, err := repo.ListPublications(ctx, domain.PublicationFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		publishedBy, after := base, base
		byDate, err := repo.ListPublications(ctx, domain.PublicationFilter{PublishedBy: &publishedBy})
		require.NoError(t, err)
		assert.Equal(t, []int64{created[0].ID, created[1].ID}, ids(byDate))

		since, err := repo.ListPublications(ctx, domain.PublicationFilter{After: &after})
		require.NoError(t, err)
		assert.Equal(t, []int64{created[1].ID, created[2].ID}, ids(since))

		both, err := repo.ListPublications(ctx, domain.PublicationFilter{PublishedBy: &publishedBy, After: &after})
		require.NoError(t, err)
		assert.Equal(t, []int64{created[1].ID}, ids(both))

		n, err := repo.CountPublicationsByMedia(ctx, media.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = repo.CountPublicationsByPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		moved := created[2]
		moved.Date = base.AddDate(1, 0, 0)
		require.NoError(t, repo.UpdatePublication(ctx, moved))

		got, _, err = repo.GetPublication(ctx, moved.ID)
		require.NoError(t, err)
		assert.True(t, moved.Date.Equal(got.Date))

		require.NoError(t, repo.DeletePublication(ctx, created[0].ID))

		n, err = repo.CountPublicationsByMedia(ctx, media.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("publication dates far from now", func(t *testing.T) {
		repo, ctx := setup(t)

		media := domain.Media{Title: "Instagram", Username: "alice"}
		require.NoError(t, repo.CreateMedia(ctx, &media))

		post := domain.Post{Title: "Hello", Text: "World"}
		require.NoError(t, repo.CreatePost(ctx, &post))

		now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		dates := []time.Time{
			time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
			now,
			time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
		}

		created := make([]domain.Publication, 0, len(dates))

		for _, date := range dates {
			p := domain.Publication{MediaID: media.ID, PostID: post.ID, Date: date}
			require.NoError(t, repo.CreatePublication(ctx, &p))
			created = append(created, p)

			got, ok, err := repo.GetPublication(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, date.Equal(got.Date), "stored %s, read back %s", date, got.Date)
		}

		future, _, err := repo.GetPublication(ctx, created[2].ID)
		require.NoError(t, err)
		assert.False(t, future.Locked(now))

		published, err := repo.ListPublications(ctx, domain.PublicationFilter{PublishedBy: &now})
		require.NoError(t, err)
		assert.Equal(t, []int64{created[0].ID, created[1].ID}, ids(published))

		after := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
		upcoming, err := repo.ListPublications(ctx, domain.PublicationFilter{After: &after})
		require.NoError(t, err)
		assert.Equal(t, []int64{created[2].ID, created[3].ID}, ids(upcoming))
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo, _ := setup(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.ListMedia(ctx)
		require.ErrorIs(t, err, context.Canceled)

		media := domain.Media{Title: "Instagram", Username: "alice"}
		require.ErrorIs(t, repo.CreateMedia(ctx, &media), context.Canceled)
	})

	t.Run("referenced records cannot be deleted", func(t *testing.T) {
		repo, ctx := setup(t)

		media := domain.Media{Title: "Instagram", Username: "alice"}
		require.NoError(t, repo.CreateMedia(ctx, &media))

		post := domain.Post{Title: "Hello", Text: "World"}
		require.NoError(t, repo.CreatePost(ctx, &post))

		p := domain.Publication{MediaID: media.ID, PostID: post.ID, Date: time.Now().UTC()}
		require.NoError(t, repo.CreatePublication(ctx, &p))

		require.ErrorIs(t, repo.DeleteMedia(ctx, media.ID), domain.ErrForbidden)
		require.ErrorIs(t, repo.DeletePost(ctx, post.ID), domain.ErrForbidden)

		require.NoError(t, repo.DeletePublication(ctx, p.ID))
		require.NoError(t, repo.DeleteMedia(ctx, media.ID))
		require.NoError(t, repo.DeletePost(ctx, post.ID))
	})

	t.Run("publication references must exist", func(t *testing.T) {
		repo, ctx := setup(t)

		p := domain.Publication{MediaID: 404, PostID: 404, Date: time.Now().UTC()}
		require.ErrorIs(t, repo.CreatePublication(ctx, &p), domain.ErrNotFound)
	})

	t.Run("empty lists", func(t *testing.T) {
		repo, ctx := setup(t)

		medias, err := repo.ListMedia(ctx)
		require.NoError(t, err)
		assert.NotNil(t, medias)
		assert.Empty(t, medias)

		posts, err := repo.ListPosts(ctx)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)

		publications, err := repo.ListPublications(ctx, domain.PublicationFilter{})
		require.NoError(t, err)
		assert.NotNil(t, publications)
		assert.Empty(t, publications)

		require.NoError(t, repo.Ping(ctx))
	})
}

func ids(publications []domain.Publication) []int64 {
	out := make([]int64, 0, len(publications))
	for _, p := range publications {
		out = append(out, p.ID)
	}

	return out
}

func TestRepositoryFactoryFor(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{content.DriverSQLite, content.DriverPostgres, content.DriverBolt} {
		factory, err := content.RepositoryFactoryFor(content.StoreConfig{Driver: driver})
		require.NoError(t, err, driver)
		assert.NotNil(t, factory, driver)
	}

	_, err := content.RepositoryFactoryFor(content.StoreConfig{Driver: "mysql"})
	require.ErrorIs(t, err, content.ErrUnknownDriver)
}
