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

package httpgate

import (
	"testing"
	"time"
)

func TestWindowAdmitsUpToLimit(t *testing.T) {
	wnd := newWindow(3, time.Second)
	now := time.Now()
	for i := 0; i < 3; i++ {
		ok, _ := wnd.allow(now)
		if !ok {
			t.Fatalf("expected request %d to be admitted", i)
		}
	}
	ok, retryAfter := wnd.allow(now)
	if ok {
		t.Fatalf("expected 4th request to be rejected")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}
}

func TestWindowAdmitsAgainAfterPeriodElapses(t *testing.T) {
	wnd := newWindow(1, time.Second)
	now := time.Now()
	ok, _ := wnd.allow(now)
	if !ok {
		t.Fatalf("expected first request admitted")
	}
	ok, _ = wnd.allow(now.Add(500 * time.Millisecond))
	if ok {
		t.Fatalf("expected request within window to be rejected")
	}
	ok, _ = wnd.allow(now.Add(1500 * time.Millisecond))
	if !ok {
		t.Fatalf("expected request after window elapsed to be admitted")
	}
}

func TestSlidingWindowKeysIndependently(t *testing.T) {
	sw := NewSlidingWindow(1, time.Second)
	now := time.Now()
	okA, _ := sw.Allow("alice", now)
	okB, _ := sw.Allow("bob", now)
	if !okA || !okB {
		t.Fatalf("expected independent keys to each admit their first request")
	}
	okA2, _ := sw.Allow("alice", now)
	if okA2 {
		t.Fatalf("expected alice's second request within the window to be rejected")
	}
}

func TestRetryAfterIsCeilingOfSecondsRemaining(t *testing.T) {
	wnd := newWindow(1, 10*time.Second)
	now := time.Now()
	wnd.allow(now)
	_, retryAfter := wnd.allow(now.Add(3100 * time.Millisecond))
	if retryAfter != 7 {
		t.Fatalf("expected retry_after of 7 (ceil of 6.9s), got %d", retryAfter)
	}
}
