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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WatchedFile is one discovered container log file to poll.
type WatchedFile struct {
	ContainerID   string
	ContainerName string
	Path          string
}

type containerConfig struct {
	Name   string `json:"Name"`
	Config struct {
		Hostname string `json:"Hostname"`
	} `json:"Config"`
}

// Discover scans root/<container-id>/ subdirectories, resolves each
// container's name from config.v2.json, and keeps only the ones whose name
// appears in allowed. If allowed is empty, every discovered container is
// watched.
func Discover(root string, allowed []string) ([]WatchedFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read log sources root: %w", err)
	}

	allowSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowSet[a] = struct{}{}
	}

	var out []WatchedFile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		containerID := e.Name()
		dir := filepath.Join(root, containerID)
		name := resolveContainerName(dir, containerID)

		if len(allowSet) > 0 {
			if _, ok := allowSet[name]; !ok {
				continue
			}
		}

		logPath := filepath.Join(dir, containerID+"-json.log")
		if _, err := os.Stat(logPath); err != nil {
			continue
		}
		out = append(out, WatchedFile{ContainerID: containerID, ContainerName: name, Path: logPath})
	}
	return out, nil
}

// resolveContainerName reads config.v2.json's Name field, falling back to
// the raw container id if the file is missing or unparseable.
func resolveContainerName(dir, containerID string) string {
	data, err := os.ReadFile(filepath.Join(dir, "config.v2.json"))
	if err != nil {
		return containerID
	}
	var cfg containerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return containerID
	}
	name := strings.TrimPrefix(cfg.Name, "/")
	if name == "" {
		return containerID
	}
	return name
}
