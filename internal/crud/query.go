// AngelaMos | 2026
// query.go

package crud

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

type SortField struct {
	Field     string
	Direction SortDirection
}

type ListParams struct {
	Skip               int
	Limit              int
	IncludeDeleted     bool
	IncludeDeactivated bool
	// Filters match case-insensitively when the value is a string and by
	// plain equality otherwise. Nil values are ignored.
	Filters    map[string]any
	Search     map[string]string
	ExactMatch bool
	Sort       []SortField
}

func (p *ListParams) Normalize() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
}

// ParseSort reads a comma separated list such as "-name,+code,created_at".
// A leading '-' sorts descending; '+' or no prefix sorts ascending.
func ParseSort(raw string) []SortField {
	var fields []SortField

	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		direction := Asc

		switch {
		case strings.HasPrefix(part, "-"):
			direction = Desc
			part = part[1:]
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		}

		if part == "" {
			continue
		}
		fields = append(fields, SortField{Field: part, Direction: direction})
	}

	return fields
}

// where accumulates AND-ed conditions and their positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) bind(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) and(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conds, " AND ")
}

func (w *where) visibility(opts GetOptions) {
	if !opts.IncludeDeleted {
		w.and("is_deleted = FALSE")
	}
	if !opts.IncludeDeactivated {
		w.and("is_active = TRUE")
	}
}

func (w *where) filters(filters map[string]any, allowed map[string]struct{}) error {
	for _, field := range slices.Sorted(maps.Keys(filters)) {
		value := filters[field]
		if value == nil {
			continue
		}
		if _, ok := allowed[field]; !ok {
			return core.ValidationError(fmt.Sprintf("Unknown filter field '%s'", field))
		}

		if s, ok := value.(string); ok {
			w.and(fmt.Sprintf("lower(%s::text) = lower(%s)", field, w.bind(s)))
			continue
		}
		w.and(fmt.Sprintf("%s = %s", field, w.bind(value)))
	}
	return nil
}

func (w *where) search(
	search map[string]string,
	exact bool,
	allowed map[string]struct{},
) error {
	for _, field := range slices.Sorted(maps.Keys(search)) {
		term := search[field]
		if term == "" {
			continue
		}
		if _, ok := allowed[field]; !ok {
			return core.ValidationError(fmt.Sprintf("Unknown search field '%s'", field))
		}

		if exact {
			w.and(fmt.Sprintf("lower(%s::text) = lower(%s)", field, w.bind(term)))
			continue
		}
		w.and(fmt.Sprintf(
			"%s::text ILIKE %s",
			field,
			w.bind("%"+core.EscapeLike(term)+"%"),
		))
	}
	return nil
}

func orderBy(sort []SortField, allowed map[string]struct{}) (string, error) {
	if len(sort) == 0 {
		return "id ASC", nil
	}

	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		if _, ok := allowed[s.Field]; !ok {
			return "", core.ValidationError(fmt.Sprintf("Unknown sort field '%s'", s.Field))
		}
		direction := s.Direction
		if direction == "" {
			direction = Asc
		}
		if direction != Asc && direction != Desc {
			return "", core.ValidationError(fmt.Sprintf("Invalid sort direction '%s'", direction))
		}
		parts = append(parts, s.Field+" "+string(direction))
	}
	return strings.Join(parts, ", "), nil
}

func set(lists ...[]string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			out[item] = struct{}{}
		}
	}
	return out
}

// Delta returns the entries of changes whose value differs from current.
func Delta(current, changes map[string]any) map[string]any {
	delta := make(map[string]any)
	for field, value := range changes {
		if !equalValues(current[field], value) {
			delta[field] = value
		}
	}
	return delta
}

func equalValues(a, b any) bool {
	a, b = normalize(a), normalize(b)

	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}

	return reflect.DeepEqual(a, b)
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case pq.StringArray:
		return normalize([]string(x))
	case []string:
		if len(x) == 0 {
			return []string(nil)
		}
		return x
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}
