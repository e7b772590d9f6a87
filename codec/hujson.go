package codec

import (
	"fmt"

	"github.com/tailscale/hujson"
)

// HuJSON decodes JSON with comments and trailing commas (JWCC) and encodes
// standard JSON. Use it for values that are edited by hand, e.g. seed files
// in a backend.Local directory.
type HuJSON struct{}

// Marshal encodes the value to standard JSON.
func (HuJSON) Marshal(v any) ([]byte, error) { return GoJSON{}.Marshal(v) }

// Unmarshal standardizes data to JSON and decodes it into v.
func (HuJSON) Unmarshal(data []byte, v any) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	return GoJSON{}.Unmarshal(standardized, v)
}

// Name returns the unique name of the codec ("hujson").
func (HuJSON) Name() string { return "hujson" }
