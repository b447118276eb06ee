/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package stream defines the per-stream transform pipeline: a Step
// interface any transform implements, and the small set of built-in steps
// a generated processor list would have been made of.
package stream

import "github.com/mjolnir42/kjp/internal/objtree"

// Step mutates out, optionally reading from source. A Step that cannot act
// (a missing field, a precondition that does not hold) returns an error
// from internal/kjperr describing why; the executor decides from the
// error's type whether that is worth logging above debug level.
type Step interface {
	Apply(source *objtree.Value, out *objtree.OutputMessage) error
}

// StepFunc adapts a plain function to the Step interface, the same way
// http.HandlerFunc adapts a function to http.Handler.
type StepFunc func(source *objtree.Value, out *objtree.OutputMessage) error

// Apply calls f(source, out).
func (f StepFunc) Apply(source *objtree.Value, out *objtree.OutputMessage) error {
	return f(source, out)
}

// Stream ties a source topic to a target topic and the ordered list of
// Steps that turn one message into the other.
type Stream struct {
	Name        string
	SourceTopic string
	TargetTopic string
	Steps       []Step
}
