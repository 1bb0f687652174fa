package queryfilter

// UnknownPolicy controls how query keys not declared by the schema are handled.
type UnknownPolicy int

const (
	UnknownDefault     UnknownPolicy = iota // Defer to the schema's own policy.
	UnknownStrict                           // Reject unknown keys with an error.
	UnknownStrip                            // Drop unknown keys.
	UnknownPassthrough                      // Preserve unknown keys as raw strings.
)

// DuplicatePolicy controls how repeated query keys are resolved for scalar
// fields. List fields always consume every value.
type DuplicatePolicy int

const (
	DuplicateFirst  DuplicatePolicy = iota // First value wins (net/url Get semantics).
	DuplicateLast                          // Last value wins.
	DuplicateReject                        // Repeated scalar keys are an error.
)

// Opt bundles per-call validation options. The zero value keeps the schema's
// defaults: every field is evaluated (first violation per field is reported)
// and the schema's unknown policy applies.
type Opt struct {
	// FailFast stops at the first offending field; remaining fields are left
	// unevaluated.
	FailFast bool
	// Unknown overrides the schema's unknown-key policy for this call when not
	// UnknownDefault.
	Unknown UnknownPolicy
}

// MergeOpts folds a variadic option list into one effective Opt, last one
// wins. Schema implementations use it to interpret the opts they receive.
func MergeOpts(opts ...Opt) Opt {
	var opt Opt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return opt
}
