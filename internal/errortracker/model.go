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

package errortracker

// MaxOccurrencesPerGroup bounds the occurrence ring per error group: at
// most 5 rows exist per error_id at any time.
const MaxOccurrencesPerGroup = 5

// ErrorGroup is a row of the errors table.
type ErrorGroup struct {
	ID              int64   `json:"id"`
	Fingerprint     string  `json:"fingerprint"`
	Project         string  `json:"project"`
	Environment     string  `json:"environment"`
	ExceptionType   string  `json:"exception_type"`
	Message         string  `json:"message"`
	Traceback       string  `json:"traceback"`
	Count           int64   `json:"count"`
	FirstSeen       string  `json:"first_seen"`
	LastSeen        string  `json:"last_seen"`
	Resolved        bool    `json:"resolved"`
	ResolvedAt      *string `json:"resolved_at"`
	OccurrenceCount int     `json:"occurrence_count"`
}

// Occurrence is a row of the error_occurrences table.
type Occurrence struct {
	ID             int64   `json:"id"`
	ErrorID        int64   `json:"error_id"`
	Timestamp      string  `json:"timestamp"`
	RequestURL     *string `json:"request_url,omitempty"`
	RequestMethod  *string `json:"request_method,omitempty"`
	RequestHeaders *string `json:"request_headers,omitempty"`
	UserID         *string `json:"user_id,omitempty"`
	Extra          *string `json:"extra,omitempty"`
	Traceback      string  `json:"traceback"`
}

// IngestPayload is the body of POST /api/errors.
type IngestPayload struct {
	Project         string                 `json:"project"`
	Environment     string                 `json:"environment"`
	ExceptionType   string                 `json:"exception_type"`
	Message         string                 `json:"message"`
	Traceback       string                 `json:"traceback"`
	RequestURL      string                 `json:"request_url"`
	RequestMethod   string                 `json:"request_method"`
	RequestHeaders  map[string]interface{} `json:"request_headers"`
	UserID          string                 `json:"user_id"`
	Extra           map[string]interface{} `json:"extra"`
}
