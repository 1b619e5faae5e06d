// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// payloadSchema constrains what may be delivered to the claims system:
// field names without whitespace, values that are non-blank strings.
const payloadSchema = `
#Payload: {
	[=~"^\\S+$"]: string & =~"\\S"
}
`

// ValidatePayload checks p against the delivery schema.
func ValidatePayload(p Payload) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(payloadSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile payload schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Payload"))
	v := ctx.Encode(map[string]string(p))
	if err := v.Err(); err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("payload failed validation: %w", err)
	}
	return nil
}
