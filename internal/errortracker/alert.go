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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// AlertEvent is fired once per new-or-reopened error group.
type AlertEvent struct {
	ID            int64  `json:"error_id"`
	Fingerprint   string `json:"fingerprint"`
	Project       string `json:"project"`
	Environment   string `json:"environment"`
	ExceptionType string `json:"exception_type"`
	Message       string `json:"message"`
	Traceback     string `json:"traceback"`
	RequestURL    string `json:"request_url,omitempty"`
	RequestMethod string `json:"request_method,omitempty"`
	FirstSeen     string `json:"first_seen"`
	Status        string `json:"status"` // "created" or "reopened"
}

// Dispatcher delivers an AlertEvent to whatever downstream sink is
// configured. Webhook and Queue implementations are provided; callers are
// free to supply their own.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev AlertEvent) error
}

// WebhookDispatcher POSTs the event JSON to a configured URL with a short
// timeout. Failures are logged, never retried, and never block the caller:
// intended to be invoked from a goroutine.
type WebhookDispatcher struct {
	URL    string
	Client *http.Client
}

func NewWebhookDispatcher(url string) *WebhookDispatcher {
	return &WebhookDispatcher{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *WebhookDispatcher) Dispatch(ctx context.Context, ev AlertEvent) error {
	if w.URL == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// PostmarkDispatcher sends each alert as an email through Postmark's
// /email endpoint: one message per recipient, subject
// "[{project}] {exception_type}: {message truncated to 50 chars}", plain
// text body carrying the occurrence context and a dashboard link.
type PostmarkDispatcher struct {
	ServerToken string
	FromEmail   string
	ToEmails    []string
	BaseURL     string // dashboard base, e.g. "https://monlight.example.com"
	Endpoint    string // overridable for tests; defaults to the Postmark API
	Client      *http.Client
}

const postmarkEndpoint = "https://api.postmarkapp.com/email"

func NewPostmarkDispatcher(serverToken, fromEmail string, toEmails []string, baseURL string) *PostmarkDispatcher {
	return &PostmarkDispatcher{
		ServerToken: serverToken,
		FromEmail:   fromEmail,
		ToEmails:    toEmails,
		BaseURL:     baseURL,
		Endpoint:    postmarkEndpoint,
		Client:      &http.Client{Timeout: 5 * time.Second},
	}
}

// AlertSubject formats the email subject line for ev.
func AlertSubject(ev AlertEvent) string {
	msg := ev.Message
	if len(msg) > 50 {
		msg = msg[:50]
	}
	return fmt.Sprintf("[%s] %s: %s", ev.Project, ev.ExceptionType, msg)
}

// AlertBody formats the plain-text email body for ev.
func AlertBody(ev AlertEvent, baseURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", ev.Project)
	fmt.Fprintf(&b, "Environment: %s\n", ev.Environment)
	fmt.Fprintf(&b, "Exception: %s\n", ev.ExceptionType)
	fmt.Fprintf(&b, "Message: %s\n", ev.Message)
	if ev.RequestURL != "" {
		fmt.Fprintf(&b, "Request: %s %s\n", ev.RequestMethod, ev.RequestURL)
	}
	fmt.Fprintf(&b, "First seen: %s\n", ev.FirstSeen)
	if baseURL != "" {
		fmt.Fprintf(&b, "Dashboard: %s/errors/%d\n", strings.TrimRight(baseURL, "/"), ev.ID)
	}
	fmt.Fprintf(&b, "\nTraceback:\n%s\n", ev.Traceback)
	return b.String()
}

type postmarkMessage struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

func (p *PostmarkDispatcher) Dispatch(ctx context.Context, ev AlertEvent) error {
	if p.ServerToken == "" || len(p.ToEmails) == 0 {
		return nil
	}
	subject := AlertSubject(ev)
	body := AlertBody(ev, p.BaseURL)
	for _, to := range p.ToEmails {
		msg := postmarkMessage{From: p.FromEmail, To: to, Subject: subject, TextBody: body}
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal postmark message: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build postmark request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Postmark-Server-Token", p.ServerToken)
		resp, err := p.Client.Do(req)
		if err != nil {
			return fmt.Errorf("send postmark email: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("postmark returned status %d", resp.StatusCode)
		}
	}
	return nil
}

// Producer abstracts a message-queue publish call, in the shape of a Kafka
// producer, without depending on a concrete client library. Wiring a real
// broker means supplying an implementation of this interface.
type Producer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte) error
}

// QueueDispatcher publishes alert events to a topic through a Producer.
// The event fingerprint is used as the message key so a downstream
// consumer can deduplicate or order by error group.
type QueueDispatcher struct {
	Producer Producer
	Topic    string
}

func NewQueueDispatcher(p Producer, topic string) *QueueDispatcher {
	return &QueueDispatcher{Producer: p, Topic: topic}
}

func (q *QueueDispatcher) Dispatch(ctx context.Context, ev AlertEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	if err := q.Producer.Produce(ctx, q.Topic, []byte(ev.Fingerprint), value); err != nil {
		return fmt.Errorf("produce alert: %w", err)
	}
	return nil
}

// FireAndForget dispatches ev in its own goroutine with a bounded timeout,
// logging but never surfacing errors to the ingest caller.
func FireAndForget(d Dispatcher, ev AlertEvent) {
	if d == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Dispatch(ctx, ev); err != nil {
			log.Printf("error-tracker: alert dispatch failed for fingerprint %s: %v", ev.Fingerprint, err)
			alertDispatchTotal.WithLabelValues("error").Inc()
			return
		}
		alertDispatchTotal.WithLabelValues("ok").Inc()
	}()
}
