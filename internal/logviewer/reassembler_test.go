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
	"strings"
	"testing"
	"time"
)

func TestReassemblerJoinsContinuationLines(t *testing.T) {
	r := NewReassembler()
	now := time.Now()

	lines := []string{
		"[ERROR] panic: something broke",
		"goroutine 1 [running]:",
		"main.handler()",
		"\t/app/main.go:55",
	}

	var finalized []Entry
	for _, l := range lines {
		if e, ok := r.Feed("app", DockerLogLine{Log: l, Stream: StreamStderr, Time: "2026-01-01T00:00:00Z"}, now); ok {
			finalized = append(finalized, e)
		}
	}
	if len(finalized) != 0 {
		t.Fatalf("expected no entry finalized before a following start-of-entry or flush, got %d", len(finalized))
	}

	flushed := r.FlushStale(now.Add(3 * time.Second))
	if len(flushed) != 1 {
		t.Fatalf("expected exactly 1 flushed entry, got %d", len(flushed))
	}
	entry := flushed[0]
	if strings.Count(entry.Message, "\n") != 3 {
		t.Fatalf("expected 4 joined lines, got message: %q", entry.Message)
	}
	if entry.Level != "ERROR" {
		t.Fatalf("expected level ERROR, got %s", entry.Level)
	}
}

func TestReassemblerFinalizesOnNextStartOfEntry(t *testing.T) {
	r := NewReassembler()
	now := time.Now()

	r.Feed("app", DockerLogLine{Log: "[INFO] first entry", Stream: StreamStdout, Time: "t1"}, now)
	r.Feed("app", DockerLogLine{Log: "continuation line", Stream: StreamStdout, Time: "t1"}, now)

	entry, ok := r.Feed("app", DockerLogLine{Log: "[WARNING] second entry", Stream: StreamStdout, Time: "t2"}, now)
	if !ok {
		t.Fatalf("expected the first entry to finalize on the next start-of-entry line")
	}
	if entry.Level != "INFO" {
		t.Fatalf("expected finalized entry to carry level INFO, got %s", entry.Level)
	}
	if !strings.Contains(entry.Message, "continuation line") {
		t.Fatalf("expected continuation line folded into message, got %q", entry.Message)
	}
}

func TestStderrWithoutLevelDefaultsToError(t *testing.T) {
	level := extractLevel("plain text with no level marker", StreamStderr)
	if level != LevelError {
		t.Fatalf("expected ERROR default for stderr, got %s", level)
	}
}

func TestStdoutWithoutLevelDefaultsToInfo(t *testing.T) {
	level := extractLevel("plain text with no level marker", StreamStdout)
	if level != LevelInfo {
		t.Fatalf("expected INFO default for stdout, got %s", level)
	}
}
