package sqlfilter_test

import (
	"strings"
	"testing"

	"github.com/doug-martin/goqu/v9"

	"github.com/reoring/queryfilter/sqlfilter"
)

func wantContains(t *testing.T, sql string, frags ...string) {
	t.Helper()
	for _, f := range frags {
		if !strings.Contains(sql, f) {
			t.Errorf("sql missing %q:\n%s", f, sql)
		}
	}
}

func productBuilder(t *testing.T, extra ...sqlfilter.Option) *sqlfilter.Builder {
	t.Helper()
	opts := append([]sqlfilter.Option{
		sqlfilter.WithMapping("status", "", sqlfilter.OpEq),
		sqlfilter.WithMapping("price_min", "price", sqlfilter.OpGte),
		sqlfilter.WithMapping("price_max", "price", sqlfilter.OpLte),
		sqlfilter.WithMapping("q", "name", sqlfilter.OpContains),
	}, extra...)
	b, err := sqlfilter.New("products", opts...)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	return b
}

func TestSelectSQL_MappedComparisons(t *testing.T) {
	b := productBuilder(t)
	sql, err := b.SelectSQL(map[string]any{
		"status":    "open",
		"price_min": int64(10),
		"price_max": int64(100),
		"q":         "sho",
		"view":      "grid", // no mapping, stays out of SQL
	})
	if err != nil {
		t.Fatalf("select sql: %v", err)
	}
	wantContains(t, sql,
		`FROM "products"`,
		`"status" = 'open'`,
		`"price" >= 10`,
		`"price" <= 100`,
		`"name" ILIKE '%sho%'`,
	)
	if strings.Contains(sql, "view") || strings.Contains(sql, "grid") {
		t.Fatalf("unmapped key leaked into sql:\n%s", sql)
	}
}

func TestSelectSQL_ListValuesCompileToIn(t *testing.T) {
	b, err := sqlfilter.New("products",
		sqlfilter.WithMapping("tags", "", sqlfilter.OpEq),
		sqlfilter.WithMapping("ids", "id", sqlfilter.OpEq),
	)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	sql, err := b.SelectSQL(map[string]any{
		"tags": []string{"new", "sale"},
		"ids":  []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("select sql: %v", err)
	}
	wantContains(t, sql,
		`"tags" IN ('new', 'sale')`,
		`"id" IN (1, 2)`,
	)
}

func TestSelectSQL_SortAndPagination(t *testing.T) {
	b := productBuilder(t,
		sqlfilter.WithSortKey("sort", map[string]string{"price": "price", "name": "name"}),
		sqlfilter.WithPageKeys("page", "perPage"),
	)
	sql, err := b.SelectSQL(map[string]any{
		"sort":    "-price",
		"page":    int64(3),
		"perPage": int64(20),
	})
	if err != nil {
		t.Fatalf("select sql: %v", err)
	}
	wantContains(t, sql,
		`ORDER BY "price" DESC`,
		`LIMIT 20`,
		`OFFSET 40`,
	)

	sql, err = b.SelectSQL(map[string]any{"sort": "name", "perPage": int64(20)})
	if err != nil {
		t.Fatalf("select sql: %v", err)
	}
	wantContains(t, sql, `ORDER BY "name" ASC`, `LIMIT 20`)
	if strings.Contains(sql, "OFFSET") {
		t.Fatalf("first page should not offset:\n%s", sql)
	}
}

func TestSelectSQL_EmptyValuesSelectsAll(t *testing.T) {
	b := productBuilder(t)
	sql, err := b.SelectSQL(map[string]any{})
	if err != nil {
		t.Fatalf("select sql: %v", err)
	}
	if strings.Contains(sql, "WHERE") {
		t.Fatalf("empty filter should not emit WHERE:\n%s", sql)
	}
	wantContains(t, sql, `FROM "products"`)
}

func TestApply_ComposesWithExistingDataset(t *testing.T) {
	b := productBuilder(t)
	ds := goqu.From("products").Select("id", "name")
	ds, err := b.Apply(ds, map[string]any{"status": "open"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	sql, _, err := ds.ToSQL()
	if err != nil {
		t.Fatalf("to sql: %v", err)
	}
	wantContains(t, sql, `SELECT "id", "name"`, `"status" = 'open'`)
}

func TestSelectSQL_EscapesLikeMetacharacters(t *testing.T) {
	b := productBuilder(t)
	sql, err := b.SelectSQL(map[string]any{"q": "50%_off"})
	if err != nil {
		t.Fatalf("select sql: %v", err)
	}
	wantContains(t, sql, `50\%\_off`)
}

func TestApply_ValueShapeErrors(t *testing.T) {
	b := productBuilder(t,
		sqlfilter.WithSortKey("sort", map[string]string{"price": "price"}),
		sqlfilter.WithPageKeys("page", "perPage"),
	)
	cases := map[string]map[string]any{
		"contains wants string":  {"q": int64(7)},
		"sort wants string":      {"sort": int64(1)},
		"sort value unmapped":    {"sort": "rating"},
		"perPage must be int64":  {"perPage": "20"},
		"perPage must be > 0":    {"perPage": int64(0)},
		"page below one rejects": {"page": int64(0), "perPage": int64(20)},
	}
	for name, values := range cases {
		if _, err := b.SelectSQL(values); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNew_OptionValidation(t *testing.T) {
	if _, err := sqlfilter.New(""); err == nil {
		t.Fatalf("empty table should error")
	}
	if _, err := sqlfilter.New("t", sqlfilter.WithMapping("", "c", sqlfilter.OpEq)); err == nil {
		t.Fatalf("empty mapping key should error")
	}
	if _, err := sqlfilter.New("t", sqlfilter.WithPageKeys("page", "")); err == nil {
		t.Fatalf("empty perPage key should error")
	}
	if _, err := sqlfilter.New("t", sqlfilter.WithDialect("")); err == nil {
		t.Fatalf("empty dialect should error")
	}
}
