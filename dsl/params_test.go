package dsl_test

import (
	"testing"

	g "github.com/reoring/queryfilter/dsl"
)

func TestParameters_ExportsQueryParams(t *testing.T) {
	s := g.Filters().
		Field("q", g.String().Min(1).Max(64)).Required().
		Field("page", g.Int().Min(1).Default(1)).
		Field("tags", g.Strings().OneOf("new", "sale")).
		Field("ids", g.Ints().CSV()).
		MustBuild()

	ps, err := s.Parameters()
	if err != nil {
		t.Fatalf("parameters: %v", err)
	}
	if len(ps) != 4 {
		t.Fatalf("expected 4 parameters, got %d", len(ps))
	}
	byName := map[string]int{}
	for i, p := range ps {
		byName[p.Name] = i
		if p.In != "query" {
			t.Fatalf("%s: in=%q", p.Name, p.In)
		}
		if p.Style != "form" {
			t.Fatalf("%s: style=%q", p.Name, p.Style)
		}
	}

	q := ps[byName["q"]]
	if !q.Required || q.Schema == nil || q.Schema.Type != "string" {
		t.Fatalf("q parameter: %+v", q)
	}
	if q.Schema.MinLength == nil || *q.Schema.MinLength != 1 || q.Schema.MaxLength == nil || *q.Schema.MaxLength != 64 {
		t.Fatalf("q bounds: %+v", q.Schema)
	}

	page := ps[byName["page"]]
	if page.Required || page.Schema.Type != "integer" {
		t.Fatalf("page parameter: %+v", page)
	}
	if page.Schema.Default != int64(1) {
		t.Fatalf("page default: %v", page.Schema.Default)
	}
	if page.Schema.Minimum == nil || *page.Schema.Minimum != 1 {
		t.Fatalf("page minimum: %+v", page.Schema)
	}

	tags := ps[byName["tags"]]
	if tags.Schema.Type != "array" || tags.Schema.Items == nil || tags.Schema.Items.Type != "string" {
		t.Fatalf("tags parameter: %+v", tags.Schema)
	}
	if len(tags.Schema.Items.Enum) != 2 {
		t.Fatalf("tags enum: %v", tags.Schema.Items.Enum)
	}
	if tags.Explode == nil || !*tags.Explode {
		t.Fatalf("repeated-key list should explode: %+v", tags)
	}

	ids := ps[byName["ids"]]
	if ids.Explode == nil || *ids.Explode {
		t.Fatalf("CSV list should not explode: %+v", ids)
	}
	if ids.Schema.Items == nil || ids.Schema.Items.Type != "integer" {
		t.Fatalf("ids items: %+v", ids.Schema)
	}
}

func TestKeys_SortedDeclaredNames(t *testing.T) {
	s := g.Filters().
		Field("zeta", g.String()).
		Field("alpha", g.String()).
		Field("mid", g.Int()).
		MustBuild()

	keys := s.Keys()
	want := []string{"alpha", "mid", "zeta"}
	if len(keys) != len(want) {
		t.Fatalf("keys: %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d]=%s want %s", i, keys[i], want[i])
		}
	}
}
