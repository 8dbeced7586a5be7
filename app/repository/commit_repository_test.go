package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/recuerdame/webapp/app/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Commit{}, &models.ProcessedEmail{},
	))
	return db
}

func seedCommits(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.Commit{
		{SHA: "aaa111", Message: "fix webhook retries", Author: "ana", Repository: "webapp", Branch: "main", Timestamp: base},
		{SHA: "bbb222", Message: "add digest preferences", Author: "bruno", Repository: "webapp", Branch: "main", Timestamp: base.Add(time.Hour)},
		{SHA: "ccc333", Message: "bump wa client", Author: "ana", Repository: "bot", Branch: "develop", Timestamp: base.Add(2 * time.Hour)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
}

func TestCommitRepositoryList(t *testing.T) {
	db := setupTestDB(t)
	seedCommits(t, db)
	repo := NewCommitRepository(db)

	commits, total, err := repo.List(CommitFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, commits, 3)
	// Newest first.
	assert.Equal(t, "ccc333", commits[0].SHA)
	assert.Equal(t, "aaa111", commits[2].SHA)
}

func TestCommitRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	seedCommits(t, db)
	repo := NewCommitRepository(db)

	commits, total, err := repo.List(CommitFilter{Repository: "bot"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, commits, 1)
	assert.Equal(t, "develop", commits[0].Branch)

	commits, total, err = repo.List(CommitFilter{Query: "webhook"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "aaa111", commits[0].SHA)

	_, total, err = repo.List(CommitFilter{Query: "ana"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "author matches count")

	commits, total, err = repo.List(CommitFilter{Repository: "webapp", Branch: "main"}, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, commits, 1, "pagination caps the page size")
}

func TestCommitRepositoryFilterOptions(t *testing.T) {
	db := setupTestDB(t)
	seedCommits(t, db)
	repo := NewCommitRepository(db)

	repositories, branches, err := repo.FilterOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"bot", "webapp"}, repositories)
	assert.Equal(t, []string{"develop", "main"}, branches)
}
