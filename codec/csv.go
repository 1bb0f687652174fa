package codec

import (
	"context"
	"strings"

	queryfilter "github.com/reoring/queryfilter"
	"github.com/reoring/queryfilter/internal/coerce"
)

// CSV returns a Codec between the comma-joined single-key list form
// ("a,b,c") and []string. Decode trims whitespace around elements and drops
// empties; Encode rejects elements containing commas since they cannot
// round-trip.
func CSV() queryfilter.Codec[string, []string] {
	return csvCodec{}
}

type csvCodec struct{}

func (csvCodec) Decode(ctx context.Context, a string) ([]string, error) {
	return coerce.SplitList(a), nil
}

func (csvCodec) Encode(ctx context.Context, b []string) (string, error) {
	for _, e := range b {
		if strings.Contains(e, ",") {
			return "", queryfilter.Issues{{Code: queryfilter.CodeInvalidFormat, Message: "element contains comma", Hint: "use the repeated-key form for such values"}}
		}
	}
	return strings.Join(b, ","), nil
}
