/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

package journal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUpdateFlushLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.Update("sampletopic", 1, 42)
	j.Update("sampletopic", 2, 7)
	j.Flush()

	reloaded, err := Open(dir, true)
	if err != nil {
		t.Fatalf("Open reloaded: %v", err)
	}
	offsets := reloaded.Offsets()
	if offsets[Key{Topic: "sampletopic", Partition: 1}] != 42 {
		t.Fatalf("partition 1 offset = %d, want 42", offsets[Key{Topic: "sampletopic", Partition: 1}])
	}
	if offsets[Key{Topic: "sampletopic", Partition: 2}] != 7 {
		t.Fatalf("partition 2 offset = %d, want 7", offsets[Key{Topic: "sampletopic", Partition: 2}])
	}
}

func TestDisabledJournalIsNoOp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")
	j, err := Open(dir, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.Update("t", 0, 99)
	j.Flush()
	if len(j.Offsets()) != 0 {
		t.Fatalf("disabled journal should report no offsets, got %v", j.Offsets())
	}
}

func TestDirectoryIsAFileGuard(t *testing.T) {
	parent := t.TempDir()
	filePath := filepath.Join(parent, "journal-as-file")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := Open(filePath, true); err == nil {
		t.Fatalf("Open should fail when journal path is a file")
	}
}

func TestFileNameToKeyParsesTrailingPartition(t *testing.T) {
	key, ok := fileNameToKey("sampletopic.1")
	if !ok {
		t.Fatalf("fileNameToKey: expected success")
	}
	if key.Topic != "sampletopic" || key.Partition != 1 {
		t.Fatalf("fileNameToKey = %+v, want {sampletopic 1}", key)
	}
}

func TestFileNameToKeyRejectsNoSeparator(t *testing.T) {
	if _, ok := fileNameToKey("nopartition"); ok {
		t.Fatalf("fileNameToKey should reject a name with no partition suffix")
	}
}
