package codec

import (
	"context"
	"strconv"
	"time"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/internal/coerce"
)

// TimeUnix returns a Codec that converts between epoch seconds and time.Time.
// Decode accepts integer and fractional seconds; Encode emits whole seconds,
// which is the canonical form for query strings.
func TimeUnix() queryfilter.Codec[string, time.Time] {
	return unixCodec{}
}

type unixCodec struct{}

func (unixCodec) Decode(ctx context.Context, a string) (time.Time, error) {
	t, err := coerce.UnixTime(a)
	if err != nil {
		return time.Time{}, queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: "invalid unix timestamp", Hint: "epoch seconds", Cause: err}}
	}
	return t, nil
}

func (unixCodec) Encode(ctx context.Context, b time.Time) (string, error) {
	return strconv.FormatInt(b.Unix(), 10), nil
}
