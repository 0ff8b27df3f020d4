package entry

import (
	"encoding/json"
	"fmt"
)

// UnhandledVariantError is the panic value raised by AssertNever. It signals a
// dispatch site that does not cover every entry variant.
type UnhandledVariantError struct {
	Value any
}

func (e *UnhandledVariantError) Error() string {
	b, err := json.Marshal(e.Value)
	if err != nil {
		return fmt.Sprintf("Unhandled discriminated union member: %#v", e.Value)
	}
	return fmt.Sprintf("Unhandled discriminated union member: %s", b)
}

// AssertNever panics with an *UnhandledVariantError. It belongs in the
// default branch of every switch over Type or Entry and must be unreachable.
// The type parameter lets it stand in for the switch's return value.
func AssertNever[T any](v any) T {
	panic(&UnhandledVariantError{Value: v})
}
