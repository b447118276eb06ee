/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package stream

import (
	"fmt"

	"github.com/mjolnir42/kjp/internal/kjperr"
	"github.com/mjolnir42/kjp/internal/objtree"
	"github.com/mjolnir42/kjp/internal/prettyjson"
	"github.com/mjolnir42/kjp/internal/prettyxml"
)

// StaticField returns a Step that always writes value at path in the
// output message, ignoring the source message entirely. value is cloned
// on every call so an Object or Array static is never shared, and so
// never mutable, across messages.
func StaticField(path objtree.Path, value *objtree.Value) Step {
	return StepFunc(func(_ *objtree.Value, out *objtree.OutputMessage) error {
		return out.Insert(path, value.Clone())
	})
}

// CopyField returns a Step that copies the string found at from in the
// source message to to in the output message. If from is absent, it
// returns a low-severity FieldNotFoundError; if from is present but is
// not a string, it returns a low-severity ProcessorSkippedError. Either
// way the step is silently skipped and produces no output field.
func CopyField(from, to objtree.Path) Step {
	return StepFunc(func(source *objtree.Value, out *objtree.OutputMessage) error {
		v, err := objtree.Get(source, from)
		if err != nil {
			return err
		}
		s, ok := v.AsString()
		if !ok {
			return kjperr.ProcessorSkippedError{
				Reason: fmt.Sprintf("source field %v is not a string", from),
			}
		}
		return out.Insert(to, objtree.String(s))
	})
}

// PrettyJSONField extracts the string found at from in the source
// message, reformats it as indented JSON, and writes the result at to in
// the output message. Skipped, the same way CopyField is, if from is
// absent (FieldNotFoundError) or not a string (ProcessorSkippedError).
func PrettyJSONField(from, to objtree.Path) Step {
	return StepFunc(func(source *objtree.Value, out *objtree.OutputMessage) error {
		v, err := objtree.Get(source, from)
		if err != nil {
			return err
		}
		s, ok := v.AsString()
		if !ok {
			return kjperr.ProcessorSkippedError{
				Reason: fmt.Sprintf("source field %v is not a string", from),
			}
		}
		return out.Insert(to, objtree.String(prettyjson.Format(s)))
	})
}

// PrettyXMLField is PrettyJSONField's XML counterpart.
func PrettyXMLField(from, to objtree.Path) Step {
	return StepFunc(func(source *objtree.Value, out *objtree.OutputMessage) error {
		v, err := objtree.Get(source, from)
		if err != nil {
			return err
		}
		s, ok := v.AsString()
		if !ok {
			return kjperr.ProcessorSkippedError{
				Reason: fmt.Sprintf("source field %v is not a string", from),
			}
		}
		return out.Insert(to, objtree.String(prettyxml.Format(s)))
	})
}
