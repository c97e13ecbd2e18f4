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

import "testing"

func TestFingerprintStableAcrossIdenticalFrames(t *testing.T) {
	tb := `Traceback (most recent call last):
  File "app.py", line 10, in handler
    raise ValueError("boom")
File "app.py", line 42, in deep
`
	a := Fingerprint("proj", "ValueError", tb, "boom")
	b := Fingerprint("proj", "ValueError", tb, "boom")
	if a != b {
		t.Fatalf("expected stable fingerprint, got %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-hex fingerprint, got %d chars", len(a))
	}
}

func TestFingerprintUsesDeepestFrame(t *testing.T) {
	tb1 := `File "a.py", line 1, in outer
File "b.py", line 99, in inner`
	tb2 := `File "a.py", line 1, in outer
File "b.py", line 100, in inner`
	fp1 := Fingerprint("proj", "ValueError", tb1, "boom")
	fp2 := Fingerprint("proj", "ValueError", tb2, "boom")
	if fp1 == fp2 {
		t.Fatalf("expected different fingerprints for different deepest lines")
	}
}

func TestFingerprintFallsBackToMessageHash(t *testing.T) {
	a := Fingerprint("proj", "RuntimeError", "no frames here", "disk full")
	b := Fingerprint("proj", "RuntimeError", "also no frames", "disk full")
	if a != b {
		t.Fatalf("expected same fallback fingerprint for identical message, got %s vs %s", a, b)
	}
	c := Fingerprint("proj", "RuntimeError", "no frames", "disk empty")
	if a == c {
		t.Fatalf("expected different fallback fingerprints for different messages")
	}
}

func TestFingerprintGoStyleFrame(t *testing.T) {
	tb := `goroutine 1 [running]:
main.handler()
	/app/main.go:55 +0x1a2
`
	file, line, ok := deepestFrame(tb)
	if !ok {
		t.Fatalf("expected a frame match")
	}
	if file != "/app/main.go" || line != "55" {
		t.Fatalf("unexpected frame: %s:%s", file, line)
	}
}
