// AngelaMos | 2026
// repository_test.go

package payment

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "pgx"), mock
}

func TestPaymentRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	created := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs("ref-1", "tenant-1", int64(2500), "NGN", StatusInitialized,
			"buyer@shop.test", nil, sqlmock.AnyArg(), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("pay-1", created, created))

	p := &Payment{
		Reference:     "ref-1",
		TenantID:      "tenant-1",
		AmountMinor:   2500,
		Currency:      "NGN",
		Status:        StatusInitialized,
		CustomerEmail: "buyer@shop.test",
		Items:         []byte(`[]`),
	}
	require.NoError(t, repo.Insert(context.Background(), p))
	assert.Equal(t, "pay-1", p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_InsertDuplicateReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Insert(context.Background(), &Payment{Reference: "ref-1", Items: []byte(`[]`)})
	assert.ErrorIs(t, err, core.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_GetByReferenceScopesTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE reference = $1 AND ($2 = '' OR tenant_id = $2)")).
		WithArgs("ref-1", "tenant-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByReference(context.Background(), "tenant-2", "ref-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_SettleOnlyFromInitialized(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paidAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("WHERE reference = $1 AND status = 'initialized'")).
		WithArgs("ref-1", StatusPaid, &paidAt, "Approved").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE reference = $1 AND status = 'initialized'")).
		WithArgs("ref-1", StatusFailed, nil, "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	settled, err := repo.SettleInitialized(context.Background(), "ref-1", StatusPaid, &paidAt, "Approved")
	require.NoError(t, err)
	assert.True(t, settled)

	settled, err = repo.SettleInitialized(context.Background(), "ref-1", StatusFailed, nil, "")
	require.NoError(t, err)
	assert.False(t, settled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriptionRepository(db)

	ref := "sub-tenant-1-x"
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (tenant_id, lower(customer_email)) DO UPDATE")).
		WithArgs("tenant-1", "owner@shop.test", "PLN_gold", SubscriptionIncomplete, &ref).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("sub-1", now, now))

	s := &Subscription{
		TenantID:      "tenant-1",
		CustomerEmail: "owner@shop.test",
		PlanCode:      "PLN_gold",
		Status:        SubscriptionIncomplete,
		Reference:     &ref,
	}
	require.NoError(t, repo.Upsert(context.Background(), s))
	assert.Equal(t, "sub-1", s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_ActivateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subscriptions")).
		WithArgs("tenant-1", "ghost@shop.test", "AUTH_1", "SUB_1", "tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Activate(context.Background(), "tenant-1", "ghost@shop.test", "AUTH_1", "SUB_1", "tok")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
