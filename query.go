package queryfilter

import (
	"net/url"
	"strconv"
	"time"
)

// Encode serializes typed filter values into query values. Only
// primitive-coercible values are representable: strings, bools, ints, floats,
// times, and slices of these. Anything else returns a *SerializationError;
// nothing is silently dropped. Nil values are treated as absent.
func Encode(values map[string]any) (url.Values, error) {
	q := url.Values{}
	for key, v := range values {
		if v == nil {
			continue
		}
		if err := appendValue(q, key, v); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// EncodeQuery serializes typed filter values into the canonical query-string
// form (keys sorted, standard key=value&key2=value2 encoding with repeated
// keys denoting arrays).
func EncodeQuery(values map[string]any) (string, error) {
	q, err := Encode(values)
	if err != nil {
		return "", err
	}
	return q.Encode(), nil
}

// DecodeQuery parses a raw query string into the untyped query mapping.
// Malformed encodings are reported as Issues with code parse_error.
func DecodeQuery(query string) (url.Values, error) {
	q, err := url.ParseQuery(query)
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	return q, nil
}

func appendValue(q url.Values, key string, v any) error {
	switch t := v.(type) {
	case string:
		q.Add(key, t)
	case bool:
		q.Add(key, strconv.FormatBool(t))
	case int:
		q.Add(key, strconv.Itoa(t))
	case int64:
		q.Add(key, strconv.FormatInt(t, 10))
	case float64:
		q.Add(key, strconv.FormatFloat(t, 'g', -1, 64))
	case time.Time:
		q.Add(key, t.UTC().Format(time.RFC3339Nano))
	case []string:
		for _, e := range t {
			q.Add(key, e)
		}
	case []int:
		for _, e := range t {
			q.Add(key, strconv.Itoa(e))
		}
	case []int64:
		for _, e := range t {
			q.Add(key, strconv.FormatInt(e, 10))
		}
	case []float64:
		for _, e := range t {
			q.Add(key, strconv.FormatFloat(e, 'g', -1, 64))
		}
	case []time.Time:
		for _, e := range t {
			q.Add(key, e.UTC().Format(time.RFC3339Nano))
		}
	case []any:
		for _, e := range t {
			if err := appendValue(q, key, e); err != nil {
				return err
			}
		}
	default:
		return &SerializationError{Key: key, Value: v}
	}
	return nil
}
