/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package objtree

// OutputMessage is the document a stream's steps build up: a root Value
// that starts Null and is shaped by the first Insert, plus an optional
// override for the Kafka message key the processor will publish under. If
// no step ever calls SetKey, the processor falls back to the consumer-
// assigned message id.
type OutputMessage struct {
	Root   *Value
	key    string
	hasKey bool
}

// NewOutputMessage returns an OutputMessage with an empty (Null) root.
func NewOutputMessage() *OutputMessage {
	return &OutputMessage{Root: Null()}
}

// Get resolves path against the message's current root.
func (m *OutputMessage) Get(path Path) (*Value, error) {
	return Get(m.Root, path)
}

// Insert writes value at path in the message's root, auto-vivifying as
// needed.
func (m *OutputMessage) Insert(path Path, value *Value) error {
	return Insert(m.Root, path, value)
}

// SetKey overrides the Kafka message key the processor will publish this
// message under.
func (m *OutputMessage) SetKey(key string) {
	m.key = key
	m.hasKey = true
}

// Key returns the overridden key and true, or ("", false) if no step ever
// called SetKey.
func (m *OutputMessage) Key() (string, bool) {
	return m.key, m.hasKey
}
