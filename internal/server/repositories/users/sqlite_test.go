package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/dmitrijs2005/gophbooks/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.SQLiteDir))

	return NewSQLiteRepository(db)
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	u := sampleUser()
	u.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	u.UpdatedAt = u.CreatedAt

	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	got, err := repo.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)

	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.FullName, got.FullName)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, got.IsActive)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, u.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSQLiteRepository_InactiveRoundTrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	u := sampleUser()
	u.IsActive = false
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	got, err := repo.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestSQLiteRepository_DuplicateEmail(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, sampleUser())
	require.NoError(t, err)

	dup := sampleUser()
	dup.ID = "another-id"
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, common.ErrDuplicateKey)
}

func TestSQLiteRepository_EmailIsCaseSensitive(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, sampleUser())
	require.NoError(t, err)

	_, err = repo.GetUserByEmail(ctx, "Alice@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLiteRepository_NotFound(t *testing.T) {
	repo := newSQLiteRepo(t)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
