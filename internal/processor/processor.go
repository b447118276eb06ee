/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package processor turns one raw message payload into one serialized
// output message by running it through a stream's ordered step list.
package processor

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mjolnir42/kjp/internal/kjperr"
	"github.com/mjolnir42/kjp/internal/objtree"
	"github.com/mjolnir42/kjp/internal/pipeline"
	"github.com/mjolnir42/kjp/internal/stream"
)

// Execute parses payload as JSON, runs st's steps against it in order, and
// serializes the resulting output message. A step that returns a
// FieldNotFound or ProcessorSkipped error is logged at debug level and
// skipped; any other step error is logged at error level and also
// skipped — a single misbehaving step never aborts the rest of the
// pipeline. Execute itself only fails if payload is not valid JSON or the
// finished document cannot be serialized.
func Execute(id string, payload []byte, st stream.Stream) (pipeline.SerializedOutputMessage, error) {
	log := logrus.WithField("id", id)
	log.Trace("start of processing")

	source, err := objtree.Parse(payload)
	if err != nil {
		return pipeline.SerializedOutputMessage{}, fmt.Errorf("parsing payload: %w", err)
	}

	out := objtree.NewOutputMessage()

	for i, step := range st.Steps {
		if err := step.Apply(source, out); err != nil {
			logStepError(log, i, err)
		}
	}

	log.Trace("end of processing - serializing message")

	body, err := out.Root.MarshalJSON()
	if err != nil {
		return pipeline.SerializedOutputMessage{}, fmt.Errorf("serializing output message: %w", err)
	}

	key := id
	if overridden, ok := out.Key(); ok {
		key = overridden
	}

	return pipeline.SerializedOutputMessage{Key: key, Message: string(body)}, nil
}

func logStepError(log *logrus.Entry, step int, err error) {
	if kjperr.IsLowSeverity(err) {
		log.Debugf("#%d %s. Skipping step.", step, err)
		return
	}
	log.Errorf("#%d cannot process message. Reason: %s", step, err)
}
