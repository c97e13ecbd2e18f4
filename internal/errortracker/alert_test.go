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

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sampleAlertEvent() AlertEvent {
	return AlertEvent{
		ID:            7,
		Fingerprint:   "deadbeefdeadbeefdeadbeefdeadbeef",
		Project:       "webapp",
		Environment:   "production",
		ExceptionType: "ValueError",
		Message:       "boom",
		Traceback:     `File "app.py", line 10, in handler`,
		RequestURL:    "https://example.com/checkout",
		RequestMethod: "POST",
		FirstSeen:     "2026-01-01T00:00:00Z",
		Status:        "created",
	}
}

func TestAlertSubjectTruncatesLongMessages(t *testing.T) {
	ev := sampleAlertEvent()
	ev.Message = strings.Repeat("x", 80)

	subject := AlertSubject(ev)
	want := "[webapp] ValueError: " + strings.Repeat("x", 50)
	if subject != want {
		t.Fatalf("subject = %q, want %q", subject, want)
	}

	ev.Message = "short"
	if got := AlertSubject(ev); got != "[webapp] ValueError: short" {
		t.Fatalf("subject = %q", got)
	}
}

func TestAlertBodyCarriesOccurrenceContext(t *testing.T) {
	body := AlertBody(sampleAlertEvent(), "https://monlight.example.com/")

	for _, want := range []string{
		"Project: webapp",
		"Environment: production",
		"Exception: ValueError",
		"Message: boom",
		"Request: POST https://example.com/checkout",
		"First seen: 2026-01-01T00:00:00Z",
		"Dashboard: https://monlight.example.com/errors/7",
		`File "app.py", line 10, in handler`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestPostmarkDispatcherSendsOneEmailPerRecipient(t *testing.T) {
	var got []postmarkMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Postmark-Server-Token") != "token" {
			t.Errorf("missing server token header")
		}
		var msg postmarkMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode message: %v", err)
		}
		got = append(got, msg)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	d := NewPostmarkDispatcher("token", "alerts@example.com", []string{"a@example.com", "b@example.com"}, "")
	d.Endpoint = ts.URL

	if err := d.Dispatch(context.Background(), sampleAlertEvent()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(got))
	}
	if got[0].To != "a@example.com" || got[1].To != "b@example.com" {
		t.Fatalf("unexpected recipients: %+v", got)
	}
	if got[0].Subject != "[webapp] ValueError: boom" {
		t.Fatalf("subject = %q", got[0].Subject)
	}
}
