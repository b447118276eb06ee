/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package objtree

import (
	"fmt"

	"github.com/mjolnir42/kjp/internal/kjperr"
)

// Get traverses path from root, expecting an Object at each Key segment
// and an Array at each Index segment. It never mutates root. A type
// mismatch or a missing key/slot is reported the same way: FieldNotFound.
func Get(root *Value, path Path) (*Value, error) {
	if len(path) == 0 {
		return nil, kjperr.EmptyKeyError{}
	}
	node := root
	for _, seg := range path {
		next, ok := lookup(node, seg)
		if !ok {
			return nil, kjperr.FieldNotFoundError{Path: stringers(path)}
		}
		node = next
	}
	return node, nil
}

func lookup(node *Value, seg Segment) (*Value, bool) {
	if seg.IsKey() {
		if node.kind != KindObject {
			return nil, false
		}
		return node.objVal.get(seg.KeyName())
	}
	if node.kind != KindArray {
		return nil, false
	}
	i := seg.IndexValue()
	if i < 0 || i >= len(node.arrVal) {
		return nil, false
	}
	return node.arrVal[i], true
}

// Insert writes value at path, auto-vivifying any intermediate Object or
// Array nodes that are absent or Null. root must point at the tree's root
// node; if root is Null, its kind is decided by path's first segment
// (Object for a Key, Array for an Index) before the walk begins.
//
// Overwriting Null, a scalar, or a container of the same kind is allowed.
// Overwriting an Object with an Array, or an Array with an Object, fails
// with InvalidObjectTree.
func Insert(root *Value, path Path, value *Value) error {
	if len(path) == 0 {
		return kjperr.EmptyKeyError{}
	}
	if root.kind == KindNull {
		if path[0].IsKey() {
			*root = *NewObject()
		} else {
			*root = *NewArray()
		}
	}
	cur := root
	for i := 0; i < len(path)-1; i++ {
		next, err := step(cur, path[i], path[i+1])
		if err != nil {
			return attachPath(err, path)
		}
		cur = next
	}
	if err := assign(cur, path[len(path)-1], value); err != nil {
		return attachPath(err, path)
	}
	return nil
}

// step walks through a non-terminal segment, creating a blank container
// only when the addressed slot is absent or Null; otherwise it descends
// into whatever is already there.
func step(node *Value, seg, nextSeg Segment) (*Value, error) {
	if seg.IsKey() {
		if node.kind != KindObject {
			return nil, kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("expected Object at %s, found %s", seg, node.kind)}
		}
		existing, ok := node.objVal.get(seg.KeyName())
		if ok && existing.kind != KindNull {
			return existing, nil
		}
		child := blankFor(nextSeg)
		node.objVal.set(seg.KeyName(), child)
		return child, nil
	}

	if node.kind != KindArray {
		return nil, kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("expected Array at %s, found %s", seg, node.kind)}
	}
	i := seg.IndexValue()
	if i < 0 {
		return nil, kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("negative array index at %s", seg)}
	}
	growArray(node, i)
	if node.arrVal[i].kind != KindNull {
		return node.arrVal[i], nil
	}
	child := blankFor(nextSeg)
	node.arrVal[i] = child
	return child, nil
}

func blankFor(seg Segment) *Value {
	if seg.IsKey() {
		return NewObject()
	}
	return NewArray()
}

func growArray(node *Value, idx int) {
	for len(node.arrVal) <= idx {
		node.arrVal = append(node.arrVal, Null())
	}
}

// assign writes value into node at the terminal segment seg, checking
// type compatibility against whatever already occupies that slot.
func assign(node *Value, seg Segment, value *Value) error {
	if seg.IsKey() {
		if node.kind != KindObject {
			return kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("expected Object at %s, found %s", seg, node.kind)}
		}
		if existing, ok := node.objVal.get(seg.KeyName()); ok {
			if err := verifyCompatible(existing, value); err != nil {
				return err
			}
		}
		node.objVal.set(seg.KeyName(), value)
		return nil
	}

	if node.kind != KindArray {
		return kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("expected Array at %s, found %s", seg, node.kind)}
	}
	i := seg.IndexValue()
	if i < 0 {
		return kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("negative array index at %s", seg)}
	}
	growArray(node, i)
	if err := verifyCompatible(node.arrVal[i], value); err != nil {
		return err
	}
	node.arrVal[i] = value
	return nil
}

func verifyCompatible(existing, next *Value) error {
	if existing.kind == KindNull {
		return nil
	}
	if existing.kind == KindObject || existing.kind == KindArray {
		if existing.kind != next.kind {
			return kjperr.InvalidObjectTreeError{Reason: fmt.Sprintf("cannot overwrite %s with %s", existing.kind, next.kind)}
		}
	}
	return nil
}

func attachPath(err error, path Path) error {
	if ioe, ok := err.(kjperr.InvalidObjectTreeError); ok {
		ioe.Path = stringers(path)
		return ioe
	}
	return err
}
