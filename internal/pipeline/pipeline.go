/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package pipeline defines the token that flows between a stream's consumer
// and producer goroutines: a Received marker for backpressure, or a
// Processed message ready to publish.
package pipeline

// SerializedOutputMessage is a fully processed, serialized message, ready
// to hand to the broker client.
type SerializedOutputMessage struct {
	Key     string
	Message string
}

// Event is sent on a stream's bounded channel. Kind distinguishes the two
// cases; only Processed carries a payload.
type Event struct {
	Kind EventKind
	ID   string
	// SourceTopic/Partition/Offset identify the consumed message this
	// event originated from, for journaling. TargetTopic is where a
	// Processed event's Message should be published.
	SourceTopic string
	TargetTopic string
	Partition   int32
	Offset      int64
	Message     SerializedOutputMessage
}

// EventKind discriminates an Event.
type EventKind int

const (
	// Received is emitted by the consumer loop the instant it reads a
	// message off the broker, before any transform runs. Its only job is
	// to occupy a slot in the bounded channel: since the channel has
	// limited capacity, a producer that falls behind fills the channel
	// with Received tokens, which blocks the consumer loop's next send and
	// so throttles how fast it pulls more messages off the broker.
	Received EventKind = iota
	// Processed carries a fully transformed message ready to publish to
	// TargetTopic, along with the source offset so the producer can journal it
	// once the publish is confirmed.
	Processed
)
