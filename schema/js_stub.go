//go:build !js_eval

package schema

import (
	"fmt"

	pstore "github.com/lucasthevenet/parse-storage"
)

type jsValidator struct{}

// JS is unavailable without the js_eval build tag. The returned
// validator still matches the Create call shape but rejects every
// value, so a binding configured with it degrades to its initial value
// instead of silently skipping validation.
func JS(source string, opts ...Option) pstore.Creator {
	_ = applyOptions(opts)
	return jsValidator{}
}

// Create always fails.
func (jsValidator) Create(any) (any, error) {
	return nil, fmt.Errorf("schema: js validator unavailable without js_eval build tag")
}

func jsValidatorAvailable() bool {
	return false
}
