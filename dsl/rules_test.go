package dsl_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	queryfilter "github.com/reoring/queryfilter"
	g "github.com/reoring/queryfilter/dsl"
)

func TestRefine_CrossFieldCheck(t *testing.T) {
	s := g.Filters().
		Field("from", g.Int()).
		Field("to", g.Int()).
		Refine("range", func(ctx context.Context, v map[string]any) error {
			f, fok := v["from"].(int64)
			to, tok := v["to"].(int64)
			if fok && tok && f > to {
				return errors.New("from exceeds to")
			}
			return nil
		}).
		MustBuild()
	ctx := context.Background()

	if _, err := s.Decode(ctx, url.Values{"from": {"1"}, "to": {"5"}}); err != nil {
		t.Fatalf("decode ok expected: %v", err)
	}

	_, err := s.Decode(ctx, url.Values{"from": {"9"}, "to": {"5"}})
	iss := issuesFrom(t, err)
	if len(iss) != 1 || iss[0].Code != queryfilter.CodeRuleFailed {
		t.Fatalf("expected rule_failed, got %v", iss)
	}
	if iss[0].Rule != "range" {
		t.Fatalf("expected rule name recorded, got %+v", iss[0])
	}
}

func TestRefine_CanTargetAField(t *testing.T) {
	s := g.Filters().
		Field("page", g.Int()).
		Field("per_page", g.Int()).
		Refine("window", func(ctx context.Context, v map[string]any) error {
			p, _ := v["page"].(int64)
			pp, _ := v["per_page"].(int64)
			if p*pp > 10000 {
				return queryfilter.Issues{{Path: "/page", Code: queryfilter.CodeTooBig, Message: "result window too deep"}}
			}
			return nil
		}).
		MustBuild()

	_, err := s.Decode(context.Background(), url.Values{"page": {"1000"}, "per_page": {"100"}})
	iss := issuesFrom(t, err)
	if !hasIssue(iss, "/page", queryfilter.CodeTooBig) {
		t.Fatalf("expected too_big at /page, got %v", iss)
	}
	if iss[0].Rule != "window" {
		t.Fatalf("rule name should be stamped, got %+v", iss[0])
	}
}

func TestRefine_SkippedWhenFieldsFailed(t *testing.T) {
	called := false
	s := g.Filters().
		Field("from", g.Int()).
		Refine("never", func(ctx context.Context, v map[string]any) error {
			called = true
			return errors.New("boom")
		}).
		MustBuild()

	_, err := s.Decode(context.Background(), url.Values{"from": {"x"}})
	iss := issuesFrom(t, err)
	if called {
		t.Fatalf("rule must not run on a dirty value set")
	}
	if !hasIssue(iss, "/from", queryfilter.CodeInvalidType) {
		t.Fatalf("expected invalid_type at /from, got %v", iss)
	}
}

func TestRefineExpr_BooleanExpression(t *testing.T) {
	s := g.Filters().
		Field("from", g.Int()).
		Field("to", g.Int()).
		RefineExpr("range", "from == nil || to == nil || from <= to").
		MustBuild()
	ctx := context.Background()

	if _, err := s.Decode(ctx, url.Values{"from": {"1"}, "to": {"2"}}); err != nil {
		t.Fatalf("decode ok expected: %v", err)
	}
	// absent fields evaluate as nil, so the guard passes
	if _, err := s.Decode(ctx, url.Values{"to": {"2"}}); err != nil {
		t.Fatalf("decode with absent from: %v", err)
	}

	_, err := s.Decode(ctx, url.Values{"from": {"3"}, "to": {"2"}})
	iss := issuesFrom(t, err)
	if len(iss) != 1 || iss[0].Code != queryfilter.CodeRuleFailed || iss[0].Rule != "range" {
		t.Fatalf("expected rule_failed from range, got %v", iss)
	}
}

func TestRefineExpr_StaticEnv(t *testing.T) {
	s := g.Filters().
		Field("per_page", g.Int()).
		ExprEnv(map[string]any{"maxPerPage": int64(50)}).
		RefineExpr("cap", "per_page == nil || per_page <= maxPerPage").
		MustBuild()
	ctx := context.Background()

	if _, err := s.Decode(ctx, url.Values{"per_page": {"50"}}); err != nil {
		t.Fatalf("decode ok expected: %v", err)
	}
	_, err := s.Decode(ctx, url.Values{"per_page": {"51"}})
	iss := issuesFrom(t, err)
	if len(iss) != 1 || iss[0].Rule != "cap" {
		t.Fatalf("expected cap failure, got %v", iss)
	}
}

func TestRefineExpr_RuntimeErrorReportsRuleFailed(t *testing.T) {
	// comparing an int to a string blows up at run time, not compile time
	s := g.Filters().
		Field("q", g.String()).
		RefineExpr("odd", "q > 10").
		MustBuild()

	_, err := s.Decode(context.Background(), url.Values{"q": {"hello"}})
	iss := issuesFrom(t, err)
	if len(iss) != 1 || iss[0].Code != queryfilter.CodeRuleFailed {
		t.Fatalf("expected rule_failed, got %v", iss)
	}
	if iss[0].Cause == nil {
		t.Fatalf("expected the evaluation error as cause, got %+v", iss[0])
	}
}

func TestRules_RunInDeclarationOrder(t *testing.T) {
	var seen []string
	mk := func(id string) func(context.Context, map[string]any) error {
		return func(ctx context.Context, v map[string]any) error {
			seen = append(seen, id)
			return nil
		}
	}
	s := g.Filters().
		Field("q", g.String()).
		Refine("first", mk("first")).
		Refine("second", mk("second")).
		MustBuild()

	if _, err := s.Decode(context.Background(), url.Values{"q": {"x"}}); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("rule order: %v", seen)
	}
}
