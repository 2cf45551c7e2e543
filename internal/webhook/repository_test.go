// AngelaMos | 2026
// repository_test.go

package webhook

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewRepository(sqlx.NewDb(mockDB, "pgx")), mock
}

func TestRepository_RecordNewAndDuplicate(t *testing.T) {
	repo, mock := newTestRepo(t)
	insert := regexp.QuoteMeta("ON CONFLICT (event_key) DO NOTHING")
	payload := []byte(`{"event":"charge.success"}`)

	mock.ExpectQuery(insert).
		WithArgs(providerPaystack, "302961", "charge.success", "ref-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-row-1"))
	mock.ExpectQuery(insert).
		WithArgs(providerPaystack, "302961", "charge.success", "ref-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e := Event{Key: "302961", Type: "charge.success", Reference: "ref-1", Payload: payload}

	fresh, err := repo.Record(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.Record(context.Background(), e)
	require.NoError(t, err)
	assert.False(t, fresh)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FinishStoresProcessingError(t *testing.T) {
	repo, mock := newTestRepo(t)
	update := regexp.QuoteMeta("SET processed_at = NOW(), processing_error = $2")

	mock.ExpectExec(update).
		WithArgs("302961", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).
		WithArgs("302962", "verify payment: boom").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Finish(context.Background(), "302961", nil))
	require.NoError(t, repo.Finish(context.Background(), "302962", errors.New("verify payment: boom")))
	require.NoError(t, mock.ExpectationsWereMet())
}
