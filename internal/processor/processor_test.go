/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package processor

import (
	"encoding/json"
	"testing"

	"github.com/mjolnir42/kjp/internal/objtree"
	"github.com/mjolnir42/kjp/internal/stream"
)

func TestExecuteRunsStepsInOrder(t *testing.T) {
	st := stream.Stream{
		Name:        "test",
		SourceTopic: "in",
		TargetTopic: "out",
		Steps: []stream.Step{
			stream.StaticField(objtree.P(objtree.Key("const")), objtree.String("v1")),
			stream.CopyField(objtree.P(objtree.Key("name")), objtree.P(objtree.Key("who"))),
		},
	}

	out, err := Execute("id-1", []byte(`{"name":"ada"}`), st)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Key != "id-1" {
		t.Fatalf("Key = %q, want %q", out.Key, "id-1")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out.Message), &decoded); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if decoded["const"] != "v1" {
		t.Fatalf("const = %v, want v1", decoded["const"])
	}
	if decoded["who"] != "ada" {
		t.Fatalf("who = %v, want ada", decoded["who"])
	}
}

func TestExecuteIsolatesStepFailures(t *testing.T) {
	st := stream.Stream{
		Name:        "test",
		SourceTopic: "in",
		TargetTopic: "out",
		Steps: []stream.Step{
			stream.StaticField(objtree.P(objtree.Key("before")), objtree.String("ok")),
			stream.CopyField(objtree.P(objtree.Key("missing")), objtree.P(objtree.Key("who"))),
			stream.StaticField(objtree.P(objtree.Key("after")), objtree.String("also-ok")),
		},
	}

	out, err := Execute("id-2", []byte(`{}`), st)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out.Message), &decoded); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if decoded["before"] != "ok" {
		t.Fatalf("before = %v, want ok", decoded["before"])
	}
	if decoded["after"] != "also-ok" {
		t.Fatalf("after = %v, want also-ok (a failed step must not abort later steps)", decoded["after"])
	}
	if _, present := decoded["who"]; present {
		t.Fatalf("who should not be present, copy source was missing")
	}
}

func TestExecuteRejectsInvalidJSON(t *testing.T) {
	_, err := Execute("id-3", []byte(`not json`), stream.Stream{})
	if err == nil {
		t.Fatalf("Execute should fail on invalid JSON payload")
	}
}
