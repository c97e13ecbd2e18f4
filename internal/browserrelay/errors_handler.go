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

package browserrelay

import "github.com/mattmezza/monlight/internal/browserrelay/mapcache"

// buildErrorPayload validates a BrowserErrorPayload, rewrites its stack
// against any source map registered for (project, release), and returns
// the payload shaped for the Error Tracker's ingest endpoint. DB access
// happens entirely inside this call; the caller performs the upstream
// HTTP send only after this returns, so no transaction is held across the
// network hop (§5).
func buildErrorPayload(store *Store, cache mapcache.Cache, project string, p BrowserErrorPayload) (errorTrackerPayload, error) {
	if err := validateBrowserError(p); err != nil {
		return errorTrackerPayload{}, err
	}

	environment := p.Environment
	if environment == "" {
		environment = "prod"
	}

	traceback := p.Stack
	if p.Release != "" {
		resolver := newMapResolver(store, cache, project, p.Release)
		traceback = RewriteStack(p.Stack, project, p.Release, resolver.lookup)
	}

	extra := map[string]interface{}{}
	if p.UserAgent != "" {
		extra["user_agent"] = p.UserAgent
	}
	if p.SessionID != "" {
		extra["session_id"] = p.SessionID
	}
	if p.Release != "" {
		extra["release"] = p.Release
	}
	if p.Timestamp != "" {
		extra["timestamp"] = p.Timestamp
	}
	for k, v := range p.Context {
		extra[k] = v
	}

	return errorTrackerPayload{
		Project:       project,
		Environment:   environment,
		ExceptionType: p.Type,
		Message:       p.Message,
		Traceback:     traceback,
		RequestURL:    p.URL,
		RequestMethod: "BROWSER",
		Extra:         extra,
	}, nil
}

func validateBrowserError(p BrowserErrorPayload) error {
	if p.Type == "" {
		return ValidationError{"type is required"}
	}
	if p.Message == "" {
		return ValidationError{"message is required"}
	}
	if p.Stack == "" {
		return ValidationError{"stack is required"}
	}
	return nil
}
