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

// Package healthcheck implements the `--healthcheck` CLI mode: dial the
// local port and succeed iff the response contains "200". Deliberately
// primitive rather than a real HTTP client round trip with status parsing.
package healthcheck

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Check dials 127.0.0.1:port, issues a raw GET /health, and returns nil iff
// the response contains "200".
func Check(port string) error {
	conn, err := net.DialTimeout("tcp", "127.0.0.1:"+port, 3*time.Second)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(3 * time.Second))
	if _, err := fmt.Fprintf(conn, "GET /health HTTP/1.0\r\nHost: 127.0.0.1\r\n\r\n"); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return fmt.Errorf("read response: %w", err)
	}
	if !strings.Contains(string(buf[:n]), "200") {
		return fmt.Errorf("unhealthy response")
	}
	return nil
}
