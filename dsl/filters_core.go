package dsl

import (
	"context"
	"net/url"
	"sort"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/i18n"
	oa "github.com/reoring/queryfilter/openapi"
)

// filtersSchema is the built, immutable form of a filter declaration. It is
// safe for concurrent use; a Store shares one instance across goroutines.
type filtersSchema struct {
	fields     map[string]AnyAdapter
	required   map[string]struct{}
	unknown    queryfilter.UnknownPolicy
	dup        queryfilter.DuplicatePolicy
	rules      []rule
	sortedKeys []string
}

var _ queryfilter.Schema = (*filtersSchema)(nil)

func (s *filtersSchema) Decode(ctx context.Context, raw url.Values, opts ...queryfilter.Opt) (map[string]any, error) {
	d, err := s.decode(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	return d.Values, nil
}

func (s *filtersSchema) DecodeWithOrigin(ctx context.Context, raw url.Values, opts ...queryfilter.Opt) (queryfilter.Decoded, error) {
	return s.decode(ctx, raw, opts)
}

func (s *filtersSchema) decode(ctx context.Context, raw url.Values, opts []queryfilter.Opt) (queryfilter.Decoded, error) {
	opt := queryfilter.MergeOpts(opts...)
	failFast := opt.FailFast || queryfilter.IsFailFast(ctx)
	unknown := opt.Unknown
	if unknown == queryfilter.UnknownDefault {
		unknown = s.unknown
	}
	if unknown == queryfilter.UnknownDefault {
		unknown = queryfilter.UnknownStrip
	}

	var iss queryfilter.Issues
	out := queryfilter.Decoded{
		Values: make(map[string]any, len(s.sortedKeys)),
		Origin: queryfilter.OriginMap{},
	}

	for _, name := range s.sortedKeys {
		ad := s.fields[name]
		vals := presentValues(raw[name], ad.keepEmpty)
		if len(vals) == 0 {
			if ad.applyDefault != nil {
				if v, ok := ad.applyDefault(); ok {
					out.Values[name] = v
					out.Origin[name] = queryfilter.OriginDefault
					continue
				}
			}
			if _, req := s.required[name]; req {
				iss = append(iss, queryfilter.Issue{Path: "/" + name, Code: queryfilter.CodeRequired, Message: i18n.T(queryfilter.CodeRequired, nil)})
				if failFast {
					return queryfilter.Decoded{}, iss
				}
			}
			continue
		}
		if !ad.multi && len(vals) > 1 {
			switch s.dup {
			case queryfilter.DuplicateReject:
				iss = append(iss, queryfilter.Issue{Path: "/" + name, Code: queryfilter.CodeDuplicateKey, Message: i18n.T(queryfilter.CodeDuplicateKey, nil), Params: map[string]any{"count": len(vals)}})
				if failFast {
					return queryfilter.Decoded{}, iss
				}
				continue
			case queryfilter.DuplicateLast:
				vals = vals[len(vals)-1:]
			default:
				vals = vals[:1]
			}
		}
		v, err := ad.decode(ctx, vals)
		if err != nil {
			iss = append(iss, rebaseIssues("/"+name, err)...)
			if failFast {
				return queryfilter.Decoded{}, iss
			}
			continue
		}
		out.Values[name] = v
		out.Origin[name] = queryfilter.OriginQuery
	}

	if unknown != queryfilter.UnknownStrip {
		for _, key := range sortedRawKeys(raw) {
			if _, declared := s.fields[key]; declared {
				continue
			}
			switch unknown {
			case queryfilter.UnknownStrict:
				iss = append(iss, queryfilter.Issue{Path: "/" + key, Code: queryfilter.CodeUnknownKey, Message: i18n.T(queryfilter.CodeUnknownKey, nil)})
				if failFast {
					return queryfilter.Decoded{}, iss
				}
			case queryfilter.UnknownPassthrough:
				vs := presentValues(raw[key], false)
				if len(vs) == 0 {
					continue
				}
				if len(vs) == 1 {
					out.Values[key] = vs[0]
				} else {
					out.Values[key] = vs
				}
				out.Origin[key] = queryfilter.OriginQuery
			}
		}
	}

	if len(iss) > 0 {
		return queryfilter.Decoded{}, iss
	}

	// Cross-field rules see only a fully decoded, clean value set.
	for _, r := range s.rules {
		if err := r.eval(ctx, out.Values); err != nil {
			iss = append(iss, rebaseIssues("", err)...)
			if failFast {
				break
			}
		}
	}
	if len(iss) > 0 {
		return queryfilter.Decoded{}, iss
	}
	return out, nil
}

// Keys lists the declared field names in sorted order.
func (s *filtersSchema) Keys() []string {
	out := make([]string, len(s.sortedKeys))
	copy(out, s.sortedKeys)
	return out
}

// Parameters exports the declaration as OpenAPI query parameters, one per
// field in sorted order.
func (s *filtersSchema) Parameters() ([]oa.Parameter, error) {
	out := make([]oa.Parameter, 0, len(s.sortedKeys))
	for _, name := range s.sortedKeys {
		ad := s.fields[name]
		var sc *oa.Schema
		if ad.parameter != nil {
			sc = ad.parameter()
		}
		_, req := s.required[name]
		p := oa.Parameter{Name: name, In: "query", Required: req, Schema: sc, Style: "form"}
		if ad.multi {
			e := ad.explode
			p.Explode = &e
		}
		out = append(out, p)
	}
	return out, nil
}

// presentValues copies vs with empty strings dropped; an empty query value
// (?q=) reads as an absent key unless the field opted in via AllowEmpty.
func presentValues(vs []string, keepEmpty bool) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v == "" && !keepEmpty {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sortedRawKeys(raw url.Values) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
