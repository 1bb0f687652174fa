package queryfilter

import (
	"context"
	"net/url"
)

// Location is a navigable position: a path plus its query component. The
// query mapping is the process-wide shared resource this package synchronizes
// filter state with; it can change underneath a Store at any time.
type Location struct {
	Path  string
	Query url.Values
}

// String renders the location as path?query with the query in canonical
// (sorted-key) form.
func (l Location) String() string {
	q := l.Query.Encode()
	if q == "" {
		return l.Path
	}
	return l.Path + "?" + q
}

// Clone returns a deep copy; the query mapping is never shared.
func (l Location) Clone() Location {
	q := make(url.Values, len(l.Query))
	for k, vs := range l.Query {
		cp := make([]string, len(vs))
		copy(cp, vs)
		q[k] = cp
	}
	return Location{Path: l.Path, Query: q}
}

// ParseLocation splits a path?query reference into a Location. Malformed
// query encodings are reported as Issues with code parse_error.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	q, err := DecodeQuery(u.RawQuery)
	if err != nil {
		return Location{}, err
	}
	return Location{Path: u.Path, Query: q}, nil
}

// NavOpt bundles push options.
type NavOpt struct {
	// Replace overwrites the current history entry instead of appending one.
	Replace bool
}

// MergeNavOpts folds a variadic option list into one effective NavOpt, last
// one wins. Router implementations use it to interpret the opts they receive.
func MergeNavOpts(opts ...NavOpt) NavOpt {
	var opt NavOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return opt
}

// Router exposes the current location and a way to push a new one in place
// (same process, no teardown of the owning store). Push returns promptly with
// a pending Completion; the navigation outcome is reported through it, never
// retried. Implementations must apply the location change in issue order even
// when completions resolve later.
type Router interface {
	Location() Location
	Push(ctx context.Context, loc Location, opt ...NavOpt) *Completion
}
