// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logviewer

import (
	"regexp"
	"strings"
	"time"
)

// flushAge bounds how long a buffered entry can sit without a following
// line before it's flushed on its own.
const flushAge = 2 * time.Second

var (
	bracketLevelRe = regexp.MustCompile(`^\s*\[(DEBUG|INFO|WARNING|ERROR)\]`)
	kvLevelRe      = regexp.MustCompile(`(?i)\blevel=(DEBUG|INFO|WARNING|ERROR)\b`)
	leadingLevelRe = regexp.MustCompile(`^\s*(DEBUG|INFO|WARNING|ERROR):`)
	isoTimestampRe = regexp.MustCompile(`^\s*\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
)

// isStartOfEntry reports whether line begins a new log entry rather than
// continuing the previous one.
func isStartOfEntry(line string) bool {
	return bracketLevelRe.MatchString(line) ||
		kvLevelRe.MatchString(line) ||
		leadingLevelRe.MatchString(line) ||
		isoTimestampRe.MatchString(line)
}

// extractLevel returns the level named on the first line of an entry,
// falling back to the stream-based default when nothing matched.
func extractLevel(firstLine, stream string) string {
	if m := bracketLevelRe.FindStringSubmatch(firstLine); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := kvLevelRe.FindStringSubmatch(firstLine); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := leadingLevelRe.FindStringSubmatch(firstLine); m != nil {
		return strings.ToUpper(m[1])
	}
	if stream == StreamStderr {
		return LevelError
	}
	return LevelInfo
}

// pendingEntry is the per-container reassembly buffer.
type pendingEntry struct {
	lines     []string
	stream    string
	timestamp string
	since     time.Time
}

// Reassembler groups consecutive continuation lines into single log
// entries, keyed per container.
type Reassembler struct {
	buffers map[string]*pendingEntry
}

func NewReassembler() *Reassembler {
	return &Reassembler{buffers: make(map[string]*pendingEntry)}
}

// Feed processes one decoded Docker log line for container and returns a
// finalized Entry if this line closed out a previously buffered one.
func (r *Reassembler) Feed(container string, line DockerLogLine, now time.Time) (Entry, bool) {
	text := strings.TrimSuffix(line.Log, "\n")

	pending, ok := r.buffers[container]
	if !ok {
		r.buffers[container] = &pendingEntry{
			lines:     []string{text},
			stream:    line.Stream,
			timestamp: line.Time,
			since:     now,
		}
		return Entry{}, false
	}

	if isStartOfEntry(text) {
		finalized := r.finalize(container, pending)
		r.buffers[container] = &pendingEntry{
			lines:     []string{text},
			stream:    line.Stream,
			timestamp: line.Time,
			since:     now,
		}
		return finalized, true
	}

	pending.lines = append(pending.lines, text)
	return Entry{}, false
}

// FlushStale finalizes any buffered entry older than flushAge, to avoid
// holding a partial multiline message indefinitely when no further line
// arrives.
func (r *Reassembler) FlushStale(now time.Time) []Entry {
	var out []Entry
	for container, pending := range r.buffers {
		if now.Sub(pending.since) < flushAge {
			continue
		}
		out = append(out, r.finalize(container, pending))
		delete(r.buffers, container)
	}
	return out
}

func (r *Reassembler) finalize(container string, pending *pendingEntry) Entry {
	message := strings.Join(pending.lines, "\n")
	level := extractLevel(pending.lines[0], pending.stream)
	return Entry{
		Timestamp: pending.timestamp,
		Container: container,
		Stream:    pending.stream,
		Level:     level,
		Message:   message,
		Raw:       message,
	}
}
