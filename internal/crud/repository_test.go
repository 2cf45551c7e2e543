// AngelaMos | 2026
// repository_test.go

package crud_test

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/crud"
)

const (
	companyA = "6f1c2d3e-0000-4000-8000-00000000000a"
	companyB = "6f1c2d3e-0000-4000-8000-00000000000b"
	widgetID = "0b6a3c9e-1111-4111-8111-000000000001"
	actorID  = "9d8e7f6a-2222-4222-8222-000000000002"
)

type widget struct {
	crud.Document
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

func (widget) TableName() string         { return "widgets" }
func (widget) ModelName() string         { return "Widget" }
func (widget) Columns() []string         { return []string{"name", "code"} }
func (widget) UniqueFields() []string    { return []string{"name", "code"} }
func (widget) TenantScoped() bool        { return true }
func (widget) ProtectedFields() []string { return nil }

func (w *widget) Values() map[string]any {
	return map[string]any{"name": w.Name, "code": w.Code}
}

type plan struct {
	crud.Document
	Name string `db:"name" json:"name"`
}

func (plan) TableName() string         { return "plans" }
func (plan) ModelName() string         { return "Plan" }
func (plan) Columns() []string         { return []string{"name"} }
func (plan) UniqueFields() []string    { return []string{"name"} }
func (plan) TenantScoped() bool        { return false }
func (plan) ProtectedFields() []string { return nil }

func (p *plan) Values() map[string]any {
	return map[string]any{"name": p.Name}
}

var pgErr23505 = pgconn.PgError{Code: "23505", ConstraintName: "widgets_company_name_key"}

var widgetColumns = []string{
	"id", "company_id", "is_active", "is_deleted", "created_at", "updated_at",
	"deleted_at", "created_by", "updated_by", "deleted_by", "name", "code",
}

func widgetRows(name, code string, active, deleted bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(widgetColumns).AddRow(
		widgetID, companyA, active, deleted, now, now,
		nil, actorID, actorID, nil, name, code,
	)
}

func newWidgetRepo(t *testing.T) (*crud.Repository[widget, *widget], sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return crud.NewRepository[widget](sqlx.NewDb(mockDB, "pgx")), mock
}

func TestCreate_RejectsBlankUniqueField(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	_, err := repo.Create(
		context.Background(),
		&widget{Name: "   ", Code: "C1"},
		crud.TenantScope(companyA),
		actorID,
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "'name' must not be empty")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RequiresCompanyForTenantEntities(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	_, err := repo.Create(context.Background(), &widget{Name: "X", Code: "C1"}, crud.Scope{}, actorID)

	assert.ErrorIs(t, err, core.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateNamesFirstField(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COALESCE(bool_or((lower(name) = lower($1) AND company_id = $2)), FALSE), " +
			"COALESCE(bool_or((lower(code) = lower($3) AND company_id = $4)), FALSE) FROM widgets " +
			"WHERE ((lower(name) = lower($1) AND company_id = $2) OR (lower(code) = lower($3) AND company_id = $4))",
	)).
		WithArgs("X", companyA, "C1", companyA).
		WillReturnRows(sqlmock.NewRows([]string{"name", "code"}).AddRow(true, true))

	_, err := repo.Create(
		context.Background(),
		&widget{Name: " X ", Code: "C1"},
		crud.TenantScope(companyA),
		actorID,
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAlreadyExists)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, `Widget 'name' = " X " already exists`, appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InsertsOnce(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("X", companyA, "C1", companyA).
		WillReturnRows(sqlmock.NewRows([]string{"name", "code"}).AddRow(false, false))
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO widgets (company_id, created_by, updated_by, name, code)",
	)).
		WithArgs(companyA, actorID, actorID, "X", "C1").
		WillReturnRows(widgetRows("X", "C1", true, false))

	created, err := repo.Create(
		context.Background(),
		&widget{Name: "X", Code: "C1"},
		crud.TenantScope(companyA),
		actorID,
	)

	require.NoError(t, err)
	assert.Equal(t, widgetID, created.ID)
	assert.Equal(t, companyA, created.Company())
	assert.True(t, created.IsUsable())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationIsAlreadyExists(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"name", "code"}).AddRow(false, false))
	mock.ExpectQuery("INSERT INTO widgets").
		WillReturnError(&pgErr23505)

	_, err := repo.Create(
		context.Background(),
		&widget{Name: "X", Code: "C1"},
		crud.TenantScope(companyA),
		actorID,
	)

	assert.ErrorIs(t, err, core.ErrAlreadyExists)
}

func TestGetByID_MalformedID(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	_, err := repo.GetByID(context.Background(), "not-a-uuid", crud.TenantScope(companyA), crud.GetOptions{})

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid document identifier", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_OtherTenantIsNotFound(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM widgets WHERE id = $1 AND company_id = $2 AND is_deleted = FALSE AND is_active = TRUE",
	)).
		WithArgs(widgetID, companyB).
		WillReturnRows(sqlmock.NewRows(widgetColumns))

	_, err := repo.GetByID(context.Background(), widgetID, crud.TenantScope(companyB), crud.GetOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	appErr, _ := core.AsAppError(err)
	assert.Equal(t, "Document not found or inaccessible", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_IncludeOptionsDropVisibilityFilter(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM widgets WHERE id = $1 AND company_id = $2",
	) + "$").
		WithArgs(widgetID, companyA).
		WillReturnRows(widgetRows("X", "C1", false, true))

	doc, err := repo.GetByID(context.Background(), widgetID, crud.TenantScope(companyA), crud.GetOptions{
		IncludeDeleted:     true,
		IncludeDeactivated: true,
	})

	require.NoError(t, err)
	assert.True(t, doc.IsDeleted)
	assert.False(t, doc.IsVisible())
}

func TestList_DefaultsSortAndPaging(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM widgets WHERE company_id = $1 AND is_deleted = FALSE AND is_active = TRUE",
	)).
		WithArgs(companyA).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC LIMIT $2 OFFSET $3")).
		WithArgs(companyA, crud.DefaultLimit, 0).
		WillReturnRows(widgetRows("X", "C1", true, false))

	items, total, err := repo.List(context.Background(), crud.TenantScope(companyA), crud.ListParams{})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FiltersSearchAndSort(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	where := "WHERE company_id = $1 AND is_deleted = FALSE AND lower(code::text) = lower($2) AND name::text ILIKE $3"

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM widgets " + where)).
		WithArgs(companyA, "c1", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(where + " ORDER BY name DESC, created_at ASC LIMIT $4 OFFSET $5")).
		WithArgs(companyA, "c1", `%50\%%`, 10, 20).
		WillReturnRows(sqlmock.NewRows(widgetColumns))

	items, total, err := repo.List(context.Background(), crud.TenantScope(companyA), crud.ListParams{
		Skip:               20,
		Limit:              10,
		IncludeDeactivated: true,
		Filters:            map[string]any{"code": "c1", "name": nil},
		Search:             map[string]string{"name": "50%"},
		Sort:               crud.ParseSort("-name,created_at"),
	})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_RejectsUnknownFields(t *testing.T) {
	repo, _ := newWidgetRepo(t)
	ctx := context.Background()
	scope := crud.TenantScope(companyA)

	_, _, err := repo.List(ctx, scope, crud.ListParams{Filters: map[string]any{"password": "x"}})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, _, err = repo.List(ctx, scope, crud.ListParams{Search: map[string]string{"1=1; --": "x"}})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, _, err = repo.List(ctx, scope, crud.ListParams{Sort: crud.ParseSort("-secret")})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUpdate_EmptyDeltaSkipsWrite(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COALESCE(bool_or((lower(name) = lower($1) AND company_id = $2)), FALSE) FROM widgets " +
			"WHERE ((lower(name) = lower($1) AND company_id = $2)) AND id <> $3",
	)).
		WithArgs("X", companyA, widgetID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow(false))

	doc, err := repo.Update(
		context.Background(),
		widgetID,
		map[string]any{"name": "X", "company_id": companyB, "created_by": "someone"},
		crud.TenantScope(companyA),
		actorID,
	)

	require.NoError(t, err)
	assert.Equal(t, "X", doc.Name)
	assert.Equal(t, companyA, doc.Company())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ConflictWithinTenant(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(true))

	_, err := repo.Update(
		context.Background(),
		widgetID,
		map[string]any{"code": "C2"},
		crud.TenantScope(companyA),
		actorID,
	)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, `Widget 'code' = "C2" already exists`, appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_WritesOnlyDelta(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"name", "code"}).AddRow(false, false))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE widgets SET code = $1, updated_by = NULLIF($2, '')::uuid, updated_at = NOW() " +
			"WHERE id = $3 AND company_id = $4",
	)).
		WithArgs("C2", actorID, widgetID, companyA).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C2", true, false))

	doc, err := repo.Update(
		context.Background(),
		widgetID,
		map[string]any{"name": "X", "code": "C2"},
		crud.TenantScope(companyA),
		actorID,
	)

	require.NoError(t, err)
	assert.Equal(t, "C2", doc.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_UnknownFieldRejected(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))

	_, err := repo.Update(
		context.Background(),
		widgetID,
		map[string]any{"colour": "red"},
		crud.TenantScope(companyA),
		actorID,
	)

	assert.ErrorIs(t, err, core.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_SoftDeleteSetsBothFlags(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))
	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE widgets SET is_deleted = TRUE, is_active = FALSE, deleted_at = NOW(), " +
			"deleted_by = NULLIF($1, '')::uuid, updated_by = NULLIF($1, '')::uuid, updated_at = NOW() " +
			"WHERE id = $2 AND company_id = $3 RETURNING",
	)).
		WithArgs(actorID, widgetID, companyA).
		WillReturnRows(widgetRows("X", "C1", false, true))

	doc, err := repo.Apply(context.Background(), widgetID, crud.SoftDelete, crud.TenantScope(companyA), actorID)

	require.NoError(t, err)
	assert.True(t, doc.IsDeleted)
	assert.False(t, doc.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_RestoreFindsDeletedDocument(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM widgets WHERE id = $1 AND company_id = $2") + "$").
		WillReturnRows(widgetRows("X", "C1", false, true))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SET is_deleted = FALSE, is_active = TRUE, deleted_at = NULL, deleted_by = NULL",
	)).
		WillReturnRows(widgetRows("X", "C1", true, false))

	doc, err := repo.Apply(context.Background(), widgetID, crud.Restore, crud.TenantScope(companyA), actorID)

	require.NoError(t, err)
	assert.True(t, doc.IsUsable())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_UnknownTransition(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))

	_, err := repo.Apply(context.Background(), widgetID, crud.Transition(42), crud.TenantScope(companyA), actorID)

	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDelete_HardRecordsSnapshotInSameTransaction(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(actorID, companyA, "/v1/widgets/"+widgetID+"/permanently", "DELETE",
			"WARNING", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM widgets WHERE id = $1 AND company_id = $2")).
		WithArgs(widgetID, companyA).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(
		context.Background(),
		widgetID,
		crud.TenantScope(companyA),
		actorID,
		true,
		audit.Request{Endpoint: "/v1/widgets/" + widgetID + "/permanently", Method: "DELETE"},
	)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

type vault struct {
	crud.Document
	Label  string `db:"label"  json:"label"`
	Secret string `db:"secret" json:"-"`
}

func (vault) TableName() string         { return "vaults" }
func (vault) ModelName() string         { return "Vault" }
func (vault) Columns() []string         { return []string{"label", "secret"} }
func (vault) UniqueFields() []string    { return nil }
func (vault) TenantScoped() bool        { return true }
func (vault) ProtectedFields() []string { return nil }

func (v *vault) Values() map[string]any {
	return map[string]any{"label": v.Label, "secret": v.Secret}
}

// snapshotDetails matches the audit details JSON and keeps it for inspection.
type snapshotDetails struct{ raw *string }

func (s snapshotDetails) Match(v driver.Value) bool {
	str, ok := v.(string)
	if ok {
		*s.raw = str
	}
	return ok
}

func TestDelete_HardSnapshotKeepsUnserializedColumns(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := crud.NewRepository[vault](sqlx.NewDb(mockDB, "pgx"))

	now := time.Now().UTC()
	mock.ExpectQuery("FROM vaults WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "is_active", "is_deleted", "created_at", "updated_at",
			"deleted_at", "created_by", "updated_by", "deleted_by", "label", "secret",
		}).AddRow(widgetID, companyA, true, false, now, now, nil, actorID, actorID, nil, "till", "s3cret"))

	var details string
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(actorID, companyA, sqlmock.AnyArg(), "DELETE", "WARNING",
			snapshotDetails{raw: &details}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM vaults").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Delete(context.Background(), widgetID, crud.TenantScope(companyA), actorID, true,
		audit.Request{Endpoint: "/v1/vaults/" + widgetID + "/permanently", Method: "DELETE"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	var decoded struct {
		Document map[string]any `json:"document"`
	}
	require.NoError(t, json.Unmarshal([]byte(details), &decoded))
	assert.Equal(t, "s3cret", decoded.Document["secret"])
	assert.Equal(t, "till", decoded.Document["label"])
	assert.Equal(t, companyA, decoded.Document["company_id"])
	assert.Equal(t, widgetID, decoded.Document["id"])
}

func TestDelete_HardRollsBackWhenAuditFails(t *testing.T) {
	repo, mock := newWidgetRepo(t)

	mock.ExpectQuery("FROM widgets WHERE id").
		WillReturnRows(widgetRows("X", "C1", true, false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Delete(
		context.Background(),
		widgetID,
		crud.TenantScope(companyA),
		actorID,
		true,
		audit.Request{},
	)

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

type member struct {
	crud.Document
	Email  string `db:"email" json:"email"`
	Handle string `db:"handle" json:"handle"`
}

func (member) TableName() string            { return "members" }
func (member) ModelName() string            { return "Member" }
func (member) Columns() []string            { return []string{"email", "handle"} }
func (member) UniqueFields() []string       { return []string{"email", "handle"} }
func (member) GlobalUniqueFields() []string { return []string{"email"} }
func (member) TenantScoped() bool           { return true }
func (member) ProtectedFields() []string    { return nil }

func (m *member) Values() map[string]any {
	return map[string]any{"email": m.Email, "handle": m.Handle}
}

func newMemberRepo(t *testing.T) (*crud.Repository[member, *member], sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return crud.NewRepository[member](sqlx.NewDb(mockDB, "pgx")), mock
}

func TestCreate_GlobalUniqueFieldChecksEveryTenant(t *testing.T) {
	repo, mock := newMemberRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COALESCE(bool_or(lower(email) = lower($1)), FALSE), " +
			"COALESCE(bool_or((lower(handle) = lower($2) AND company_id = $3)), FALSE) FROM members " +
			"WHERE (lower(email) = lower($1) OR (lower(handle) = lower($2) AND company_id = $3))",
	)).
		WithArgs("ada@shop.test", "ada", companyB).
		WillReturnRows(sqlmock.NewRows([]string{"email", "handle"}).AddRow(true, false))

	_, err := repo.Create(
		context.Background(),
		&member{Email: "ada@shop.test", Handle: "ada"},
		crud.TenantScope(companyB),
		actorID,
	)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.ErrorIs(t, err, core.ErrAlreadyExists)
	assert.Equal(t, `Member 'email' = "ada@shop.test" already exists`, appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_GlobalUniqueFieldChecksEveryTenant(t *testing.T) {
	repo, mock := newMemberRepo(t)

	mock.ExpectQuery("FROM members WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "is_active", "is_deleted", "created_at", "updated_at",
			"deleted_at", "created_by", "updated_by", "deleted_by", "email", "handle",
		}).AddRow(widgetID, companyA, true, false, time.Now(), time.Now(),
			nil, actorID, actorID, nil, "old@shop.test", "ada"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COALESCE(bool_or(lower(email) = lower($1)), FALSE) FROM members " +
			"WHERE (lower(email) = lower($1)) AND id <> $2",
	)).
		WithArgs("taken@shop.test", widgetID).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow(true))

	_, err := repo.Update(
		context.Background(),
		widgetID,
		map[string]any{"email": "taken@shop.test"},
		crud.TenantScope(companyA),
		actorID,
	)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, `Member 'email' = "taken@shop.test" already exists`, appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationNamesIndexedField(t *testing.T) {
	repo, mock := newMemberRepo(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"email", "handle"}).AddRow(false, false))
	mock.ExpectQuery("INSERT INTO members").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_members_email"})

	_, err := repo.Create(
		context.Background(),
		&member{Email: "ada@shop.test", Handle: "ada"},
		crud.TenantScope(companyA),
		actorID,
	)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Member 'email' already exists", appErr.Message)
}

func TestGlobalEntityIgnoresScope(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := crud.NewRepository[plan](sqlx.NewDb(mockDB, "pgx"))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM plans WHERE is_deleted = FALSE AND is_active = TRUE",
	)).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(crud.DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err = repo.List(context.Background(), crud.Scope{}, crud.ListParams{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
