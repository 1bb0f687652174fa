package codec

import (
	"context"
	"time"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/internal/coerce"
)

// TimeRFC3339 returns a Codec that converts between RFC3339 query values and
// time.Time. Decode accepts optional fractional seconds; Encode emits the
// canonical UTC form (RFC3339Nano trims trailing zeros).
func TimeRFC3339() queryfilter.Codec[string, time.Time] {
	return rfc3339Codec{}
}

type rfc3339Codec struct{}

func (rfc3339Codec) Decode(ctx context.Context, a string) (time.Time, error) {
	t, err := coerce.Time(a, "")
	if err != nil {
		return time.Time{}, queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: "invalid RFC3339 time", Hint: "RFC3339", Cause: err}}
	}
	return t, nil
}

func (rfc3339Codec) Encode(ctx context.Context, b time.Time) (string, error) {
	return b.UTC().Format(time.RFC3339Nano), nil
}

// TimeLayout returns a Codec for a fixed reference layout, e.g. "2006-01-02"
// for date-only filters. Encode uses the same layout, in UTC.
func TimeLayout(layout string) queryfilter.Codec[string, time.Time] {
	return layoutCodec{layout: layout}
}

type layoutCodec struct{ layout string }

func (c layoutCodec) Decode(ctx context.Context, a string) (time.Time, error) {
	t, err := coerce.Time(a, c.layout)
	if err != nil {
		return time.Time{}, queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: "invalid time", Hint: c.layout, Cause: err}}
	}
	return t, nil
}

func (c layoutCodec) Encode(ctx context.Context, b time.Time) (string, error) {
	return b.UTC().Format(c.layout), nil
}
