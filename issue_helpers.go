package queryfilter

// IssueAt creates an Issue at the given path with provided code, message and
// params map. This is a convenience helper to improve readability at call
// sites with many parameters.
func IssueAt(path, code, msg string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: msg, Params: params}
}

// FieldKey extracts the top-level field name from an issue path: "/page" and
// "/tags/2" both yield the key the error should be reported under. An empty
// path yields "".
func FieldKey(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	p := path
	if p[0] == '/' {
		p = p[1:]
	}
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return p
}
