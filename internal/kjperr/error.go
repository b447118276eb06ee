/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package kjperr defines the processing error kinds a transform step can
// fail with and how severely the executor should treat each one.
package kjperr

import "fmt"

// EmptyKeyError is returned by objtree.Get/Insert when given a zero-length
// path. Always a programmer error.
type EmptyKeyError struct{}

func (EmptyKeyError) Error() string {
	return "illegal object tree key: path is empty"
}

// InvalidObjectTreeError is returned when a path traversal or insertion
// hits a type mismatch: a Key segment against an Array, an Index segment
// against an Object, or an attempt to merge an Object into an Array (or
// vice versa).
type InvalidObjectTreeError struct {
	Path   []fmt.Stringer
	Reason string
}

func (e InvalidObjectTreeError) Error() string {
	return fmt.Sprintf("object tree is incompatible with path %v, reason: %s", e.Path, e.Reason)
}

// FieldNotFoundError is returned by objtree.Get when the path does not
// resolve to any node. Low severity: the step that triggered it is
// skipped, the pipeline continues.
type FieldNotFoundError struct {
	Path []fmt.Stringer
}

func (e FieldNotFoundError) Error() string {
	return fmt.Sprintf("no field at path %v", e.Path)
}

// ProcessorSkippedError is returned by a step that voluntarily declines to
// act because some precondition was not met. Low severity, like
// FieldNotFoundError.
type ProcessorSkippedError struct {
	Reason string
}

func (e ProcessorSkippedError) Error() string {
	return fmt.Sprintf("processor skipped: %s", e.Reason)
}

// IsLowSeverity reports whether err is a FieldNotFoundError or a
// ProcessorSkippedError: conditions that are logged at debug level and
// never abort the remaining steps for a message.
func IsLowSeverity(err error) bool {
	switch err.(type) {
	case FieldNotFoundError, *FieldNotFoundError:
		return true
	case ProcessorSkippedError, *ProcessorSkippedError:
		return true
	}
	return false
}
