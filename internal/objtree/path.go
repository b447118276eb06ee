/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package objtree

import "fmt"

// Segment is a single step in a Path: either a map key or an array index.
// The zero value is not a valid Segment; use Key or Index to build one.
type Segment struct {
	key   string
	index int
	isKey bool
}

// Key builds a Segment that addresses an Object field.
func Key(name string) Segment {
	return Segment{key: name, isKey: true}
}

// Index builds a Segment that addresses an Array slot. Negative indices
// are rejected at use time by Get/Insert.
func Index(i int) Segment {
	return Segment{index: i, isKey: false}
}

// IsKey reports whether the segment addresses an Object field rather than
// an Array slot.
func (s Segment) IsKey() bool { return s.isKey }

// KeyName returns the field name for a Key segment. Meaningless for an
// Index segment.
func (s Segment) KeyName() string { return s.key }

// IndexValue returns the slot index for an Index segment. Meaningless for
// a Key segment.
func (s Segment) IndexValue() int { return s.index }

// String renders the segment for error messages, e.g. Key("foo") or
// Index(3).
func (s Segment) String() string {
	if s.isKey {
		return fmt.Sprintf("Key(%q)", s.key)
	}
	return fmt.Sprintf("Index(%d)", s.index)
}

// Path is an ordered, non-empty sequence of Segments addressing a node in
// a Value tree. A Path with zero Segments is invalid; every operation
// consuming one returns kjperr.EmptyKeyError for an empty Path.
type Path []Segment

// P is a small constructor to build a Path inline, e.g.
// objtree.P(objtree.Key("a"), objtree.Index(0)).
func P(segments ...Segment) Path {
	return Path(segments)
}

func stringers(p Path) []fmt.Stringer {
	out := make([]fmt.Stringer, len(p))
	for i := range p {
		out[i] = p[i]
	}
	return out
}
