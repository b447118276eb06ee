/*-
 * Copyright © 2024, the kjp authors
 * All rights reserved.
 *
 * Use of this source code is governed by a 2-clause BSD license
 * that can be found in the LICENSE file.
 */

// Package journal persists the last processed offset per topic/partition
// to disk, one file per key, so a restarted worker can resume roughly
// where it left off instead of replaying a stream from the beginning.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Key identifies a partition of a topic.
type Key struct {
	Topic     string
	Partition int32
}

func (k Key) fileName() string {
	return fmt.Sprintf("%s.%d", k.Topic, k.Partition)
}

// Journal tracks the last confirmed offset for every topic/partition this
// worker has produced for, flushing it to one file per key under dir. When
// disabled, Update and Flush are no-ops and Offsets always reports empty,
// matching a worker that always starts from the broker's default offset.
type Journal struct {
	mu      sync.Mutex
	offsets map[Key]int64
	dir     string
	enabled bool
}

// Open loads any previously persisted offsets from dir (creating it if
// necessary) and returns a Journal ready for Update/Flush. If enabled is
// false, dir is never touched and the returned Journal starts empty.
func Open(dir string, enabled bool) (*Journal, error) {
	j := &Journal{
		offsets: make(map[Key]int64),
		dir:     dir,
		enabled: enabled,
	}
	if !enabled {
		return j, nil
	}
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	loaded, err := readOffsets(dir)
	if err != nil {
		return nil, err
	}
	j.offsets = loaded
	return j, nil
}

// Offsets returns a snapshot of the currently tracked offsets. Empty if the
// journal is disabled.
func (j *Journal) Offsets() map[Key]int64 {
	if !j.enabled {
		return map[Key]int64{}
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[Key]int64, len(j.offsets))
	for k, v := range j.offsets {
		out[k] = v
	}
	return out
}

// Update records offset as the last confirmed position for topic/partition.
// A no-op if the journal is disabled.
func (j *Journal) Update(topic string, partition int32, offset int64) {
	if !j.enabled {
		return
	}
	j.mu.Lock()
	j.offsets[Key{Topic: topic, Partition: partition}] = offset
	j.mu.Unlock()
}

// Flush writes every tracked offset to its file under dir. A no-op if the
// journal is disabled.
func (j *Journal) Flush() {
	if !j.enabled {
		return
	}
	if err := ensureDir(j.dir); err != nil {
		logrus.WithError(err).Error("journal: cannot flush, directory is unusable")
		return
	}
	for k, offset := range j.Offsets() {
		writeOffset(j.dir, k, offset)
	}
}

// Close flushes the journal one final time. Intended to run once, at
// worker shutdown.
func (j *Journal) Close() {
	j.Flush()
}

func writeOffset(dir string, key Key, offset int64) {
	path := filepath.Join(dir, key.fileName())
	logrus.WithFields(logrus.Fields{
		"topic":     key.Topic,
		"partition": key.Partition,
		"offset":    offset,
	}).Debug("journal: saving offset")
	if err := os.WriteFile(path, []byte(strconv.FormatInt(offset, 10)), 0o644); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"topic":     key.Topic,
			"partition": key.Partition,
		}).Error("journal: failed to write offset file")
	}
}

func readOffsets(dir string) (map[Key]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading journal directory %s: %w", dir, err)
	}
	offsets := make(map[Key]int64, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := fileNameToKey(entry.Name())
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Error("journal: error reading offset file")
			continue
		}
		offset, err := strconv.ParseInt(strings.TrimSpace(string(content)), 10, 64)
		if err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Error("journal: offset file does not contain an integer")
			continue
		}
		offsets[key] = offset
	}
	return offsets, nil
}

// fileNameToKey parses a file name of the form "$topic.$partition" (e.g.
// "sampletopic.1"). The split is on the last '.', so a topic name that
// itself contains a dot is read as part of the topic, not the partition;
// this is ambiguous for such topics but matches the only filename
// convention this journal ever writes.
func fileNameToKey(name string) (Key, bool) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return Key{}, false
	}
	partition, err := strconv.ParseInt(name[i+1:], 10, 32)
	if err != nil {
		return Key{}, false
	}
	return Key{Topic: name[:i], Partition: int32(partition)}, true
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create journal directory %s: %w", dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot stat journal directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("journal path %s is a file, not a directory", dir)
	}
	return nil
}
