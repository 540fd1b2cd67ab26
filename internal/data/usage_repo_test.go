package data

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*Data, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return &Data{db: db}, mock
}

func TestIncrementIsSingleUpsert(t *testing.T) {
	data, mock := newMockDB(t)
	repo := NewUsageRepo(data, testLogger())

	// one statement, no SELECT first: concurrent increments cannot race
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `usage_counter` .*ON DUPLICATE KEY UPDATE `count`=count \\+ 1").
		WithArgs("u1", "analyze", "2026-08", int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Increment(context.Background(), "u1", "analyze", "2026-08")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCountMissingRowIsZero(t *testing.T) {
	data, mock := newMockDB(t)
	repo := NewUsageRepo(data, testLogger())

	mock.ExpectQuery("SELECT \\* FROM `usage_counter` WHERE uid = \\? AND feature = \\? AND month = \\?.*").
		WithArgs("u1", "analyze", "2026-08", 1).
		WillReturnRows(sqlmock.NewRows([]string{"usage_counter_id", "uid", "feature", "month", "count"}))

	n, err := repo.GetCount(context.Background(), "u1", "analyze", "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCountReturnsStoredCount(t *testing.T) {
	data, mock := newMockDB(t)
	repo := NewUsageRepo(data, testLogger())

	rows := sqlmock.NewRows([]string{"usage_counter_id", "uid", "feature", "month", "count"}).
		AddRow(7, "u1", "analyze", "2026-08", 12)
	mock.ExpectQuery("SELECT \\* FROM `usage_counter` WHERE uid = \\? AND feature = \\? AND month = \\?.*").
		WithArgs("u1", "analyze", "2026-08", 1).
		WillReturnRows(rows)

	n, err := repo.GetCount(context.Background(), "u1", "analyze", "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
