package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockRepo(t *testing.T) (CallItemRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewCallItemRepository(db), mock
}

// Claim must be one conditional UPDATE whose WHERE clause carries the QUEUED
// state, not a find-then-update pair.
func TestClaim_SingleConditionalUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE `call_list_items` SET").
		WithArgs(uint64(7), sqlmock.AnyArg(), models.ItemCalling, sqlmock.AnyArg(), uint64(42), models.ItemQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Claim(42, 7, now)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaim_RaceLostReportsConflictWithoutRereading(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE `call_list_items` SET").
		WithArgs(uint64(7), sqlmock.AnyArg(), models.ItemCalling, sqlmock.AnyArg(), uint64(42), models.ItemQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Claim(42, 7, time.Now())

	require.NoError(t, err)
	assert.False(t, ok)
	// No SELECT follows the failed update: the CAS itself is the decision.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_ConditionsOnAssignee(t *testing.T) {
	repo, mock := newMockRepo(t)
	assignee := uint64(7)

	mock.ExpectExec("UPDATE `call_list_items` SET").
		WithArgs(nil, nil, models.ItemQueued, sqlmock.AnyArg(), uint64(42), models.ItemCalling, assignee).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Release(42, &assignee, time.Now())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_AdminOverrideSkipsAssigneeCondition(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE `call_list_items` SET").
		WithArgs(nil, nil, models.ItemQueued, sqlmock.AnyArg(), uint64(42), models.ItemCalling).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Release(42, nil, time.Now())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
