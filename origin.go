package queryfilter

// Origin is the bit flag collected by DecodeWithOrigin.
type Origin uint8

const (
	OriginQuery   Origin = 1 << iota // Value was supplied by the query mapping.
	OriginDefault                    // Schema default was applied.
)

// OriginMap maps field keys to Origin flags.
type OriginMap map[string]Origin

// FromQuery reports whether the key's value came from the query mapping.
func (om OriginMap) FromQuery(key string) bool { return om[key]&OriginQuery != 0 }

// Defaulted reports whether the key's value is a schema default.
func (om OriginMap) Defaulted(key string) bool { return om[key]&OriginDefault != 0 }

// Decoded carries decoded values along with origin metadata.
type Decoded struct {
	Values map[string]any
	Origin OriginMap
}
