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

// Entry is a row of the logs table.
type Entry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Container string `json:"container"`
	Stream    string `json:"stream"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Raw       string `json:"raw"`
}

// DockerLogLine is one line of a Docker JSON log file.
type DockerLogLine struct {
	Log    string `json:"log"`
	Stream string `json:"stream"`
	Time   string `json:"time"`
}

// Cursor tracks read progress through one container's log file.
type Cursor struct {
	ContainerID string
	FilePath    string
	Position    int64
	Inode       uint64
}

const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"

	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// retentionMargin is the extra slack deleted on top of the overshoot past
// MaxEntries, so the ring sweep doesn't re-trigger on every single insert.
const retentionMargin = 100
