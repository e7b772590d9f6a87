// Package codec encodes cache values for byte-oriented backing stores.
//
// Object-store backends persist values as encoded bytes. Changing the codec
// of an existing store is a breaking change: bytes written by one codec may
// not decode with another.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Compressed codecs are named "<base>+<algorithm>", e.g. "go-json+zstd".
func ByName(name string) (Codec, bool) {
	if base, algo, ok := strings.Cut(name, "+"); ok {
		inner, ok := ByName(base)
		if !ok {
			return nil, false
		}
		a, ok := algorithmByName(algo)
		if !ok {
			return nil, false
		}
		return NewCompressed(inner, a), true
	}

	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "hujson":
		return HuJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
