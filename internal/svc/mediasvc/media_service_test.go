package mediasvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
	"github.com/mkrupp/publishing/internal/svc/mediasvc"
)

// mockMediaRepository implements content.MediaRepository and
// content.PublicationReferences for testing.
type mockMediaRepository struct {
	medias map[int64]domain.Media
	refs   map[int64]int64
	nextID int64
	err    error
	m      sync.Mutex
}

func newMockRepo() *mockMediaRepository {
	return &mockMediaRepository{
		medias: make(map[int64]domain.Media),
		refs:   make(map[int64]int64),
	}
}

func (m *mockMediaRepository) CreateMedia(_ context.Context, media *domain.Media) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}
	m.nextID++
	media.ID = m.nextID
	m.medias[media.ID] = *media
	return nil
}

func (m *mockMediaRepository) GetMedia(_ context.Context, id int64) (*domain.Media, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}
	media, ok := m.medias[id]
	if !ok {
		return nil, false, nil
	}
	return &media, true, nil
}

func (m *mockMediaRepository) FindMediaByTitleAndUsername(
	_ context.Context,
	title, username string,
) (*domain.Media, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}
	for _, media := range m.medias {
		if media.Title == title && media.Username == username {
			return &media, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockMediaRepository) ListMedia(_ context.Context) ([]domain.Media, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	medias := []domain.Media{}
	for id := int64(1); id <= m.nextID; id++ {
		if media, ok := m.medias[id]; ok {
			medias = append(medias, media)
		}
	}
	return medias, nil
}

func (m *mockMediaRepository) UpdateMedia(_ context.Context, media domain.Media) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}
	m.medias[media.ID] = media
	return nil
}

func (m *mockMediaRepository) DeleteMedia(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}
	delete(m.medias, id)
	return nil
}

func (m *mockMediaRepository) CountPublicationsByMedia(_ context.Context, mediaID int64) (int64, error) {
	return m.refs[mediaID], m.err
}

func (m *mockMediaRepository) CountPublicationsByPost(_ context.Context, _ int64) (int64, error) {
	return 0, m.err
}

var errRepo = errors.New("repository error")

func setupTestService(t *testing.T) (*mediasvc.MediaService, *mockMediaRepository) {
	t.Helper()

	repo := newMockRepo()

	return &mediasvc.MediaService{
		MediaRepo:    repo,
		Publications: repo,
		Log:          logging.NewNopLogger(),
	}, repo
}

func assertReason(t *testing.T, err error, kind error, reason string) {
	t.Helper()

	require.ErrorIs(t, err, kind)

	got, ok := domain.Reason(err)
	require.True(t, ok, "error carries no reason: %v", err)
	assert.Equal(t, reason, got)
}

func TestMediaService_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := setupTestService(t)

	media, err := svc.Create(ctx, "Instagram", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Media{ID: 1, Title: "Instagram", Username: "alice"}, *media)

	_, err = svc.Create(ctx, "Instagram", "alice")
	assertReason(t, err, domain.ErrConflict, domain.ReasonMediaExists)

	// Same title for another user is fine.
	_, err = svc.Create(ctx, "Instagram", "bob")
	require.NoError(t, err)

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMediaService_FindOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := setupTestService(t)

	created, err := svc.Create(ctx, "Instagram", "alice")
	require.NoError(t, err)

	got, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.FindOne(ctx, 999)
	assertReason(t, err, domain.ErrNotFound, domain.ReasonMediaNotFound)
}

func TestMediaService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name     string
		id       int64
		title    string
		username string
		kind     error
		reason   string
	}{
		{name: "success", id: 1, title: "Threads", username: "alice"},
		{name: "same pair as itself", id: 1, title: "Instagram", username: "alice"},
		{name: "unknown id", id: 999, title: "Threads", username: "alice", kind: domain.ErrNotFound, reason: domain.ReasonMediaNotFound},
		{name: "pair of another media", id: 1, title: "Facebook", username: "alice", kind: domain.ErrConflict, reason: domain.ReasonMediaExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := setupTestService(t)
			_, err := svc.Create(ctx, "Instagram", "alice")
			require.NoError(t, err)
			_, err = svc.Create(ctx, "Facebook", "alice")
			require.NoError(t, err)

			err = svc.Update(ctx, tt.id, tt.title, tt.username)
			if tt.kind != nil {
				assertReason(t, err, tt.kind, tt.reason)
				assert.Equal(t, "Instagram", repo.medias[1].Title)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.Media{ID: tt.id, Title: tt.title, Username: tt.username}, repo.medias[tt.id])
		})
	}
}

func TestMediaService_Remove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	linked, err := svc.Create(ctx, "Instagram", "alice")
	require.NoError(t, err)
	free, err := svc.Create(ctx, "Facebook", "alice")
	require.NoError(t, err)

	repo.refs[linked.ID] = 2

	err = svc.Remove(ctx, linked.ID)
	assertReason(t, err, domain.ErrForbidden, domain.ReasonMediaLinked)
	assert.Contains(t, repo.medias, linked.ID)

	require.NoError(t, svc.Remove(ctx, free.ID))
	assert.NotContains(t, repo.medias, free.ID)

	err = svc.Remove(ctx, free.ID)
	assertReason(t, err, domain.ErrNotFound, domain.ReasonMediaNotFound)
}

func TestMediaService_MediaExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	media, err := svc.Create(ctx, "Instagram", "alice")
	require.NoError(t, err)

	ok, err := svc.MediaExists(ctx, media.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.MediaExists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)

	repo.err = errRepo
	_, err = svc.MediaExists(ctx, media.ID)
	require.ErrorIs(t, err, errRepo)
	assert.False(t, domain.IsRejection(err))
}

func TestMediaService_RepositoryError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)
	repo.err = errRepo

	_, err := svc.Create(ctx, "Instagram", "alice")
	require.ErrorIs(t, err, errRepo)

	_, err = svc.FindAll(ctx)
	require.ErrorIs(t, err, errRepo)

	_, err = svc.FindOne(ctx, 1)
	require.ErrorIs(t, err, errRepo)

	require.ErrorIs(t, svc.Update(ctx, 1, "t", "u"), errRepo)
	require.ErrorIs(t, svc.Remove(ctx, 1), errRepo)
}
