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

// Package errortracker implements the error deduplication engine: a pure
// fingerprinting step, an ingest transaction, a resolve/reopen state
// machine, alert dispatch, and retention sweeping.
package errortracker

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
)

// frameRe matches `File "<path>", line <n>` (Python-style tracebacks) and
// the looser `<path>:<n>` shape used by other runtimes' single-line
// frames. The deepest (last) match in the traceback wins.
var frameRe = regexp.MustCompile(`File "([^"]+)", line (\d+)|([^\s":]+\.[a-zA-Z0-9]+):(\d+)(?::\d+)?\b`)

// Fingerprint computes the 32-hex MD5 grouping key for an error: find the
// deepest application-code frame in traceback and hash
// "project:exception_type:file:line"; if no frame is recoverable, fall
// back to "project:exception_type:<hash-of-message>".
func Fingerprint(project, exceptionType, traceback, message string) string {
	file, line, ok := deepestFrame(traceback)
	var key string
	if ok {
		key = project + ":" + exceptionType + ":" + file + ":" + line
	} else {
		msgHash := md5.Sum([]byte(message))
		key = project + ":" + exceptionType + ":" + hex.EncodeToString(msgHash[:])
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// deepestFrame scans traceback line by line and returns the file and line
// number of the last (deepest) matching frame.
func deepestFrame(traceback string) (file, line string, ok bool) {
	matches := frameRe.FindAllStringSubmatch(traceback, -1)
	if len(matches) == 0 {
		return "", "", false
	}
	last := matches[len(matches)-1]
	if last[1] != "" {
		return last[1], last[2], true
	}
	return last[3], last[4], true
}
