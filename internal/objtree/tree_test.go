/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package objtree

import (
	"testing"

	"github.com/mjolnir42/kjp/internal/kjperr"
)

func TestInsertEmptyPathRejected(t *testing.T) {
	root := Null()
	err := Insert(root, nil, String("x"))
	if _, ok := err.(kjperr.EmptyKeyError); !ok {
		t.Fatalf("Insert with empty path: got %T(%v), want EmptyKeyError", err, err)
	}
}

func TestGetEmptyPathRejected(t *testing.T) {
	root := Null()
	_, err := Get(root, nil)
	if _, ok := err.(kjperr.EmptyKeyError); !ok {
		t.Fatalf("Get with empty path: got %T(%v), want EmptyKeyError", err, err)
	}
}

func TestInsertMinimalStaticField(t *testing.T) {
	root := Null()
	if err := Insert(root, P(Key("abc")), String("xyz")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b, err := root.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `{"abc":"xyz"}`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestInsertAutoVivification(t *testing.T) {
	root := Null()
	if err := Insert(root, P(Key("a"), Index(3), Key("b")), Number(42)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b, err := root.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `{"a":[null,null,null,{"b":42}]}`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestInsertPreservesSiblingsOnSharedPrefix(t *testing.T) {
	root := Null()
	if err := Insert(root, P(Key("meta"), Key("a")), Number(1)); err != nil {
		t.Fatalf("Insert a: %v", err)
	}
	if err := Insert(root, P(Key("meta"), Key("b")), Number(2)); err != nil {
		t.Fatalf("Insert b: %v", err)
	}
	got, err := Get(root, P(Key("meta"), Key("a")))
	if err != nil {
		t.Fatalf("Get a: %v", err)
	}
	if n, _ := got.AsNumber(); n != 1 {
		t.Fatalf("meta.a = %v, want 1 (sibling insert must not clobber it)", n)
	}
	b, err := root.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `{"meta":{"a":1,"b":2}}`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestInsertThenGetReturnsLastValueWritten(t *testing.T) {
	root := Null()
	if err := Insert(root, P(Key("x")), String("first")); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if err := Insert(root, P(Key("x")), String("second")); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}
	v, err := Get(root, P(Key("x")))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s, _ := v.AsString(); s != "second" {
		t.Fatalf("x = %q, want %q", s, "second")
	}
}

func TestGetFieldNotFound(t *testing.T) {
	root := NewObject()
	if err := Insert(root, P(Key("present")), Bool(true)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	_, err := Get(root, P(Key("missing")))
	if _, ok := err.(kjperr.FieldNotFoundError); !ok {
		t.Fatalf("Get missing field: got %T(%v), want FieldNotFoundError", err, err)
	}
}

func TestGetFieldNotFoundOnTypeMismatch(t *testing.T) {
	root := NewObject()
	if err := Insert(root, P(Key("a")), String("scalar")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	_, err := Get(root, P(Key("a"), Key("b")))
	if _, ok := err.(kjperr.FieldNotFoundError); !ok {
		t.Fatalf("Get through scalar: got %T(%v), want FieldNotFoundError", err, err)
	}
}

func TestInsertObjectArrayMismatchRejected(t *testing.T) {
	root := NewObject()
	if err := Insert(root, P(Key("a")), NewObject()); err != nil {
		t.Fatalf("Insert object: %v", err)
	}
	err := Insert(root, P(Key("a")), NewArray())
	if _, ok := err.(kjperr.InvalidObjectTreeError); !ok {
		t.Fatalf("Insert array over object: got %T(%v), want InvalidObjectTreeError", err, err)
	}
}

func TestInsertOverwritesNullAndScalarsFreely(t *testing.T) {
	root := NewObject()
	if err := Insert(root, P(Key("a")), Null()); err != nil {
		t.Fatalf("Insert null: %v", err)
	}
	if err := Insert(root, P(Key("a")), NewObject()); err != nil {
		t.Fatalf("Insert object over null: %v", err)
	}
	if err := Insert(root, P(Key("b")), String("scalar")); err != nil {
		t.Fatalf("Insert scalar: %v", err)
	}
	if err := Insert(root, P(Key("b")), NewArray()); err != nil {
		t.Fatalf("Insert array over scalar: %v", err)
	}
}

func TestInsertArrayGrowthPadsWithNull(t *testing.T) {
	root := NewArray()
	if err := Insert(root, P(Index(2)), String("v")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b, err := root.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `[null,null,"v"]`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestParsePreservesScalarsAndNesting(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":["x",null,true]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, err := Get(v, P(Key("a")))
	if err != nil {
		t.Fatalf("Get a: %v", err)
	}
	if n, _ := a.AsNumber(); n != 1 {
		t.Fatalf("a = %v, want 1", n)
	}
	b1, err := Get(v, P(Key("b"), Index(0)))
	if err != nil {
		t.Fatalf("Get b[0]: %v", err)
	}
	if s, _ := b1.AsString(); s != "x" {
		t.Fatalf("b[0] = %q, want %q", s, "x")
	}
	b2, err := Get(v, P(Key("b"), Index(1)))
	if err != nil {
		t.Fatalf("Get b[1]: %v", err)
	}
	if !b2.IsNull() {
		t.Fatalf("b[1] should be null")
	}
}
