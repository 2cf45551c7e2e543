// AngelaMos | 2026
// repository.go

package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/core"
)

// Repository implements create, read, list, update, lifecycle transitions
// and deletion for any Entity. Tenant scoped entities always carry a
// company_id condition in every statement.
type Repository[T any, PT interface {
	*T
	Entity
}] struct {
	db    *sqlx.DB
	audit *audit.Repository
	meta  PT
}

func NewRepository[T any, PT interface {
	*T
	Entity
}](db *sqlx.DB) *Repository[T, PT] {
	return &Repository[T, PT]{
		db:    db,
		audit: audit.NewRepository(db),
		meta:  PT(new(T)),
	}
}

func (r *Repository[T, PT]) ModelName() string {
	return r.meta.ModelName()
}

func (r *Repository[T, PT]) Create(
	ctx context.Context,
	entity PT,
	scope Scope,
	actor string,
) (PT, error) {
	company, err := r.company(scope)
	if err != nil {
		return nil, err
	}

	values := entity.Values()
	if err := r.checkCreateConflicts(ctx, values, company); err != nil {
		return nil, err
	}

	w := &where{}
	columns := []string{"company_id", "created_by", "updated_by"}
	placeholders := []string{
		"NULLIF(" + w.bind(company) + ", '')::uuid",
		"NULLIF(" + w.bind(actor) + ", '')::uuid",
		"NULLIF(" + w.bind(actor) + ", '')::uuid",
	}
	for _, col := range r.meta.Columns() {
		columns = append(columns, col)
		placeholders = append(placeholders, w.bind(values[col]))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		r.meta.TableName(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		r.selectList(),
	)

	created := PT(new(T))
	if err := r.db.GetContext(ctx, created, query, w.args...); err != nil {
		if core.IsDuplicateKeyError(err) {
			return nil, r.duplicateError(err)
		}
		return nil, fmt.Errorf("create %s: %w", r.meta.TableName(), err)
	}

	return created, nil
}

func (r *Repository[T, PT]) checkCreateConflicts(
	ctx context.Context,
	values map[string]any,
	company string,
) error {
	unique := r.meta.UniqueFields()
	if len(unique) == 0 {
		return nil
	}

	w := &where{}
	matches := make([]string, 0, len(unique))
	for _, field := range unique {
		s, ok := values[field].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return core.ValidationError(fmt.Sprintf("'%s' must not be empty", field))
		}
		matches = append(matches, r.uniqueMatch(w, field, strings.TrimSpace(s), company))
	}

	w.and("(" + strings.Join(matches, " OR ") + ")")

	flags := make([]string, 0, len(matches))
	for _, m := range matches {
		flags = append(flags, "COALESCE(bool_or("+m+"), FALSE)")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s",
		strings.Join(flags, ", "),
		r.meta.TableName(),
		w,
	)

	hits := make([]bool, len(unique))
	dest := make([]any, len(unique))
	for i := range hits {
		dest[i] = &hits[i]
	}

	if err := r.db.QueryRowxContext(ctx, query, w.args...).Scan(dest...); err != nil {
		return fmt.Errorf("check %s uniqueness: %w", r.meta.TableName(), err)
	}

	for i, field := range unique {
		if hits[i] {
			return core.AlreadyExistsError(fmt.Sprintf(
				"%s '%s' = %q already exists",
				r.meta.ModelName(),
				field,
				values[field],
			))
		}
	}

	return nil
}

func (r *Repository[T, PT]) GetByID(
	ctx context.Context,
	id string,
	scope Scope,
	opts GetOptions,
) (PT, error) {
	return r.get(ctx, r.db, id, scope, opts)
}

func (r *Repository[T, PT]) get(
	ctx context.Context,
	db core.DBTX,
	id string,
	scope Scope,
	opts GetOptions,
) (PT, error) {
	docID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	company, err := r.company(scope)
	if err != nil {
		return nil, err
	}

	w := &where{}
	w.and("id = " + w.bind(docID))
	if company != "" {
		w.and("company_id = " + w.bind(company))
	}
	w.visibility(opts)

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s",
		r.selectList(),
		r.meta.TableName(),
		w,
	)

	doc := PT(new(T))
	err = db.GetContext(ctx, doc, query, w.args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("")
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.meta.TableName(), err)
	}

	return doc, nil
}

func (r *Repository[T, PT]) List(
	ctx context.Context,
	scope Scope,
	params ListParams,
) ([]T, int, error) {
	params.Normalize()

	company, err := r.company(scope)
	if err != nil {
		return nil, 0, err
	}

	allowed := set(r.meta.Columns())
	sortable := set(r.meta.Columns(), baseSortable)

	w := &where{}
	if company != "" {
		w.and("company_id = " + w.bind(company))
	}
	w.visibility(GetOptions{
		IncludeDeleted:     params.IncludeDeleted,
		IncludeDeactivated: params.IncludeDeactivated,
	})
	if err := w.filters(params.Filters, allowed); err != nil {
		return nil, 0, err
	}
	if err := w.search(params.Search, params.ExactMatch, allowed); err != nil {
		return nil, 0, err
	}

	order, err := orderBy(params.Sort, sortable)
	if err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s",
		r.meta.TableName(),
		w,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.meta.TableName(), err)
	}

	filterArgs := len(w.args)
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		r.selectList(),
		r.meta.TableName(),
		w,
		order,
		filterArgs+1,
		filterArgs+2,
	)
	args := append(slices.Clone(w.args), params.Limit, params.Skip)

	items := make([]T, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.meta.TableName(), err)
	}

	return items, total, nil
}

// Update writes only the fields in changes that differ from the stored
// document. An empty delta returns the document without touching it.
func (r *Repository[T, PT]) Update(
	ctx context.Context,
	id string,
	changes map[string]any,
	scope Scope,
	actor string,
) (PT, error) {
	current, err := r.get(ctx, r.db, id, scope, includeAll)
	if err != nil {
		return nil, err
	}
	company, err := r.company(scope)
	if err != nil {
		return nil, err
	}

	protected := set(baseProtected, r.meta.ProtectedFields())
	allowed := set(r.meta.Columns())

	data := make(map[string]any, len(changes))
	for field, value := range changes {
		if _, skip := protected[field]; skip {
			continue
		}
		if _, ok := allowed[field]; !ok {
			return nil, core.ValidationError(fmt.Sprintf("Unknown field '%s'", field))
		}
		data[field] = value
	}

	docID := current.Base().ID
	if err := r.checkUpdateConflicts(ctx, data, docID, company); err != nil {
		return nil, err
	}

	delta := Delta(current.Values(), data)
	if len(delta) == 0 {
		return current, nil
	}

	w := &where{}
	assignments := make([]string, 0, len(delta)+2)
	for _, field := range slices.Sorted(maps.Keys(delta)) {
		assignments = append(assignments, field+" = "+w.bind(delta[field]))
	}
	assignments = append(assignments,
		"updated_by = NULLIF("+w.bind(actor)+", '')::uuid",
		"updated_at = NOW()",
	)

	w.and("id = " + w.bind(docID))
	if company != "" {
		w.and("company_id = " + w.bind(company))
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s",
		r.meta.TableName(),
		strings.Join(assignments, ", "),
		w,
	)

	result, err := r.db.ExecContext(ctx, query, w.args...)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return nil, r.duplicateError(err)
		}
		return nil, fmt.Errorf("update %s: %w", r.meta.TableName(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.meta.TableName(), err)
	}
	if rows == 0 {
		return nil, core.NotFoundError("")
	}

	return r.get(ctx, r.db, docID, scope, includeAll)
}

func (r *Repository[T, PT]) checkUpdateConflicts(
	ctx context.Context,
	data map[string]any,
	docID string,
	company string,
) error {
	w := &where{}
	var matches, fields []string

	for _, field := range r.meta.UniqueFields() {
		value, present := data[field]
		if !present {
			continue
		}
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return core.ValidationError(fmt.Sprintf("'%s' must not be empty", field))
		}
		fields = append(fields, field)
		matches = append(matches, r.uniqueMatch(w, field, strings.TrimSpace(s), company))
	}

	if len(matches) == 0 {
		return nil
	}

	w.and("(" + strings.Join(matches, " OR ") + ")")
	w.and("id <> " + w.bind(docID))

	flags := make([]string, 0, len(matches))
	for _, m := range matches {
		flags = append(flags, "COALESCE(bool_or("+m+"), FALSE)")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s",
		strings.Join(flags, ", "),
		r.meta.TableName(),
		w,
	)

	hits := make([]bool, len(fields))
	dest := make([]any, len(fields))
	for i := range hits {
		dest[i] = &hits[i]
	}
	if err := r.db.QueryRowxContext(ctx, query, w.args...).Scan(dest...); err != nil {
		return fmt.Errorf("check %s uniqueness: %w", r.meta.TableName(), err)
	}

	for i, field := range fields {
		if hits[i] {
			return core.AlreadyExistsError(fmt.Sprintf(
				"%s '%s' = %q already exists",
				r.meta.ModelName(),
				field,
				data[field],
			))
		}
	}

	return nil
}

// Apply performs a lifecycle transition. Deleted and deactivated documents
// are found, since transitions are how those states are left.
func (r *Repository[T, PT]) Apply(
	ctx context.Context,
	id string,
	transition Transition,
	scope Scope,
	actor string,
) (PT, error) {
	current, err := r.get(ctx, r.db, id, scope, includeAll)
	if err != nil {
		return nil, err
	}
	company, err := r.company(scope)
	if err != nil {
		return nil, err
	}

	w := &where{}
	actorParam := "NULLIF(" + w.bind(actor) + ", '')::uuid"

	assignments := transition.assignments(actorParam)
	if assignments == nil {
		return nil, core.ValidationError(fmt.Sprintf("Unsupported transition '%s'", transition))
	}
	assignments = append(assignments,
		"updated_by = "+actorParam,
		"updated_at = NOW()",
	)

	w.and("id = " + w.bind(current.Base().ID))
	if company != "" {
		w.and("company_id = " + w.bind(company))
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s RETURNING %s",
		r.meta.TableName(),
		strings.Join(assignments, ", "),
		w,
		r.selectList(),
	)

	updated := PT(new(T))
	err = r.db.GetContext(ctx, updated, query, w.args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("")
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", transition, r.meta.TableName(), err)
	}

	return updated, nil
}

// Delete soft deletes by default. A hard delete removes the row and records
// a snapshot of it in the audit log within the same transaction.
func (r *Repository[T, PT]) Delete(
	ctx context.Context,
	id string,
	scope Scope,
	actor string,
	hard bool,
	req audit.Request,
) error {
	if !hard {
		_, err := r.Apply(ctx, id, SoftDelete, scope, actor)
		return err
	}

	doc, err := r.get(ctx, r.db, id, scope, includeAll)
	if err != nil {
		return err
	}
	company, err := r.company(scope)
	if err != nil {
		return err
	}

	snapshot := snapshotOf(doc)

	entry := req.Entry(actor, audit.LevelWarning, map[string]any{
		"event":       "permanent_delete",
		"model":       r.meta.ModelName(),
		"document_id": doc.Base().ID,
		"document":    snapshot,
	})
	entry.CompanyID = doc.Base().Company()

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.audit.WithTx(tx).Insert(ctx, entry); err != nil {
			return fmt.Errorf("record permanent delete: %w", err)
		}

		w := &where{}
		w.and("id = " + w.bind(doc.Base().ID))
		if company != "" {
			w.and("company_id = " + w.bind(company))
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s", r.meta.TableName(), w)
		result, err := tx.ExecContext(ctx, query, w.args...)
		if err != nil {
			return fmt.Errorf("delete %s: %w", r.meta.TableName(), err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete %s: %w", r.meta.TableName(), err)
		}
		if rows == 0 {
			return core.NotFoundError("")
		}
		return nil
	})
}

// uniqueMatch binds one case-insensitive equality for field. The tenant
// condition is attached per field so globally unique fields ignore it.
func (r *Repository[T, PT]) uniqueMatch(w *where, field, value, company string) string {
	match := fmt.Sprintf("lower(%s) = lower(%s)", field, w.bind(value))
	if company == "" || r.globallyUnique(field) {
		return match
	}
	return "(" + match + " AND company_id = " + w.bind(company) + ")"
}

func (r *Repository[T, PT]) globallyUnique(field string) bool {
	g, ok := any(r.meta).(GlobalUniquer)
	return ok && slices.Contains(g.GlobalUniqueFields(), field)
}

// duplicateError names the unique field behind a storage-level violation
// when the index name reveals it. Indexes are named idx_<table>_<field>.
func (r *Repository[T, PT]) duplicateError(err error) error {
	constraint := core.DuplicateConstraint(err)
	for _, field := range r.meta.UniqueFields() {
		if constraint != "" && strings.HasSuffix(constraint, "_"+field) {
			return core.AlreadyExistsError(fmt.Sprintf(
				"%s '%s' already exists",
				r.meta.ModelName(),
				field,
			))
		}
	}
	return core.AlreadyExistsError(fmt.Sprintf(
		"%s with these values already exists",
		r.meta.ModelName(),
	))
}

// company resolves the tenant condition for this entity. Global entities
// ignore the scope entirely.
func (r *Repository[T, PT]) company(scope Scope) (string, error) {
	if !r.meta.TenantScoped() {
		return "", nil
	}
	if scope.CompanyID == "" {
		return "", core.ValidationError("Company identifier is required")
	}

	parsed, err := uuid.Parse(scope.CompanyID)
	if err != nil {
		return "", core.ValidationError("Invalid company identifier")
	}
	return parsed.String(), nil
}

func (r *Repository[T, PT]) selectList() string {
	return strings.Join(append(slices.Clone(baseColumns), r.meta.Columns()...), ", ")
}

// snapshotOf captures the row by column name, including columns the API
// never serializes, so the audit trail holds everything that was removed.
func snapshotOf(doc Entity) map[string]any {
	base := doc.Base()
	out := map[string]any{
		"id":         base.ID,
		"company_id": base.CompanyID,
		"is_active":  base.IsActive,
		"is_deleted": base.IsDeleted,
		"created_at": base.CreatedAt,
		"updated_at": base.UpdatedAt,
		"deleted_at": base.DeletedAt,
		"created_by": base.CreatedBy,
		"updated_by": base.UpdatedBy,
		"deleted_by": base.DeletedBy,
	}
	maps.Copy(out, doc.Values())
	return out
}
