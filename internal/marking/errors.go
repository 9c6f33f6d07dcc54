// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package marking

import (
	"errors"
	"fmt"
)

// ErrNoMarkings is returned when aggregation is invoked with no input.
var ErrNoMarkings = errors.New("no markings to aggregate")

// ErrNoLevel is returned when no input banner carries a recognizable
// classification level (and the inputs are not all exercise banners).
var ErrNoLevel = errors.New("no classification level found in any marking")

// ValidationError reports a user-recoverable problem with a Selection: a
// required field is missing or an entry is malformed. Callers re-prompt;
// they never crash on it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvariantError reports a state or transition the constraint engine
// forbids: toggling an unavailable field, or rendering a Selection that was
// not built through the engine. It indicates a programming error, not bad
// user input.
type InvariantError struct {
	Field   Field
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("marking invariant violated on %s: %s", e.Field, e.Message)
}

// IsInvariantError reports whether err is (or wraps) an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
