// Package codec centralizes result encoding.
//
// Aggregation results leave the engine in a transport format chosen by the
// layer above. The engine only needs to know whether a result is
// representable; CheckWriteable answers that for a given Codec.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "cbor":
		return CBOR{}, true
	default:
		return nil, false
	}
}

// Default is the transport codec used when none is configured.
var Default Codec = CBOR{}
