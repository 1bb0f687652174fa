// Package sqlfilter translates validated filter values into SQL listing
// queries. It consumes the value map a schema produced, so every value is
// already coerced and bounds-checked; the builder only decides how each
// key lands in the WHERE clause. Keys without a mapping are ignored, which
// lets one schema carry both SQL-backed and UI-only filters.
package sqlfilter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog"
)

// ErrBuildingQueryFailed wraps goqu ToSQL failures so callers can branch on
// build errors without string matching.
var ErrBuildingQueryFailed = errors.New("sqlfilter: building query failed")

// Op selects the comparison a mapped filter key compiles to.
type Op int

const (
	OpEq       Op = iota // = for scalars, IN for list values
	OpNeq                // <>
	OpGt                 // >
	OpGte                // >=
	OpLt                 // <
	OpLte                // <=
	OpContains           // ILIKE %value%
	OpPrefix             // ILIKE value%
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNeq:
		return "neq"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpContains:
		return "contains"
	case OpPrefix:
		return "prefix"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

type mapping struct {
	column string
	op     Op
}

// Builder compiles filter value maps into SELECT statements for one table.
type Builder struct {
	table      string
	dialect    string
	mappings   map[string]mapping
	sortKey    string
	sortCols   map[string]string
	pageKey    string
	perPageKey string
	log        zerolog.Logger
}

// Option configures a Builder during New.
type Option func(*Builder) error

// New creates a Builder for the given table. Without WithDialect it renders
// goqu's default dialect; register and name a dialect ("postgres", "mysql")
// to target a specific database.
func New(table string, opts ...Option) (*Builder, error) {
	if table == "" {
		return nil, errors.New("sqlfilter: table name is required")
	}
	b := &Builder{
		table:    table,
		dialect:  "default",
		mappings: make(map[string]mapping),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// WithDialect selects the goqu dialect by name. The caller is responsible
// for importing the matching goqu dialect package.
func WithDialect(name string) Option {
	return func(b *Builder) error {
		if name == "" {
			return errors.New("sqlfilter: dialect name is empty")
		}
		b.dialect = name
		return nil
	}
}

// WithLogger attaches a logger; built SQL is logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) error {
		b.log = l
		return nil
	}
}

// WithMapping binds a filter key to a column and comparison. An empty
// column defaults to the key itself.
func WithMapping(key, column string, op Op) Option {
	return func(b *Builder) error {
		if key == "" {
			return errors.New("sqlfilter: mapping key is empty")
		}
		if column == "" {
			column = key
		}
		b.mappings[key] = mapping{column: column, op: op}
		return nil
	}
}

// WithSortKey reads the named filter value as a sort selector. columns maps
// each allowed value to its column; a "-" prefix on the value flips the
// direction to descending.
func WithSortKey(key string, columns map[string]string) Option {
	return func(b *Builder) error {
		if key == "" {
			return errors.New("sqlfilter: sort key is empty")
		}
		b.sortKey = key
		b.sortCols = make(map[string]string, len(columns))
		for k, v := range columns {
			b.sortCols[k] = v
		}
		return nil
	}
}

// WithPageKeys reads the named filter values as 1-based page number and
// page size, compiled to LIMIT/OFFSET.
func WithPageKeys(pageKey, perPageKey string) Option {
	return func(b *Builder) error {
		if perPageKey == "" {
			return errors.New("sqlfilter: perPage key is empty")
		}
		b.pageKey = pageKey
		b.perPageKey = perPageKey
		return nil
	}
}

// Where builds one expression per mapped key present in values, in sorted
// key order so the rendered SQL is deterministic.
func (b *Builder) Where(values map[string]any) ([]goqu.Expression, error) {
	keys := make([]string, 0, len(b.mappings))
	for k := range b.mappings {
		if _, ok := values[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	exprs := make([]goqu.Expression, 0, len(keys))
	for _, k := range keys {
		m := b.mappings[k]
		e, err := exprFor(k, m.column, m.op, values[k])
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// Apply attaches WHERE, ORDER BY and LIMIT/OFFSET derived from values to
// the dataset.
func (b *Builder) Apply(ds *goqu.SelectDataset, values map[string]any) (*goqu.SelectDataset, error) {
	exprs, err := b.Where(values)
	if err != nil {
		return nil, err
	}
	if len(exprs) > 0 {
		ds = ds.Where(goqu.And(exprs...))
	}

	if b.sortKey != "" {
		if raw, ok := values[b.sortKey]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("sqlfilter: sort key %q: want string, got %T", b.sortKey, raw)
			}
			desc := strings.HasPrefix(s, "-")
			col, ok := b.sortCols[strings.TrimPrefix(s, "-")]
			if !ok {
				return nil, fmt.Errorf("sqlfilter: sort value %q has no column mapping", s)
			}
			if desc {
				ds = ds.Order(goqu.I(col).Desc())
			} else {
				ds = ds.Order(goqu.I(col).Asc())
			}
		}
	}

	if b.perPageKey != "" {
		if raw, ok := values[b.perPageKey]; ok {
			per, ok := raw.(int64)
			if !ok || per <= 0 {
				return nil, fmt.Errorf("sqlfilter: perPage key %q: want positive int64, got %#v", b.perPageKey, raw)
			}
			ds = ds.Limit(uint(per))
			if b.pageKey != "" {
				if praw, ok := values[b.pageKey]; ok {
					page, ok := praw.(int64)
					if !ok || page < 1 {
						return nil, fmt.Errorf("sqlfilter: page key %q: want int64 >= 1, got %#v", b.pageKey, praw)
					}
					if page > 1 {
						ds = ds.Offset(uint((page - 1) * per))
					}
				}
			}
		}
	}

	return ds, nil
}

// SelectSQL renders a full SELECT for the builder's table with the filter
// applied.
func (b *Builder) SelectSQL(values map[string]any) (string, error) {
	ds := goqu.Dialect(b.dialect).From(b.table)
	ds, err := b.Apply(ds, values)
	if err != nil {
		return "", err
	}
	sql, _, err := ds.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}
	b.log.Debug().Str("table", b.table).Str("sql", sql).Msg("built filter query")
	return sql, nil
}

func exprFor(key, column string, op Op, v any) (goqu.Expression, error) {
	switch op {
	case OpEq:
		switch t := v.(type) {
		case []string:
			return goqu.C(column).In(t), nil
		case []int64:
			return goqu.C(column).In(t), nil
		default:
			return goqu.Ex{column: v}, nil
		}
	case OpNeq:
		return goqu.C(column).Neq(v), nil
	case OpGt:
		return goqu.C(column).Gt(v), nil
	case OpGte:
		return goqu.C(column).Gte(v), nil
	case OpLt:
		return goqu.C(column).Lt(v), nil
	case OpLte:
		return goqu.C(column).Lte(v), nil
	case OpContains:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("sqlfilter: key %q: %s needs a string value, got %T", key, op, v)
		}
		return goqu.C(column).ILike("%" + escapeLike(s) + "%"), nil
	case OpPrefix:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("sqlfilter: key %q: %s needs a string value, got %T", key, op, v)
		}
		return goqu.C(column).ILike(escapeLike(s) + "%"), nil
	default:
		return nil, fmt.Errorf("sqlfilter: key %q: unsupported op %s", key, op)
	}
}

// escapeLike neutralizes LIKE metacharacters in user-supplied filter text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
