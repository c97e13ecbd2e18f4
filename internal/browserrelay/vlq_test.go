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

import "testing"

func TestDecodeVLQValueZero(t *testing.T) {
	v, n, err := decodeVLQValue("A")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 0 || n != 1 {
		t.Fatalf("got v=%d n=%d, want v=0 n=1", v, n)
	}
}

func TestDecodeVLQValueSignedPair(t *testing.T) {
	// 'C' = value 2 -> sign bit 0, magnitude 1 -> +1
	// 'D' = value 3 -> sign bit 1, magnitude 1 -> -1
	cases := []struct {
		in   string
		want int
	}{
		{"A", 0},
		{"C", 1},
		{"D", -1},
		{"E", 2},
		{"F", -2},
	}
	for _, c := range cases {
		v, _, err := decodeVLQValue(c.in)
		if err != nil {
			t.Fatalf("decode(%q): %v", c.in, err)
		}
		if v != c.want {
			t.Errorf("decode(%q) = %d, want %d", c.in, v, c.want)
		}
	}
}

func TestDecodeVLQValueMultiDigit(t *testing.T) {
	// A value requiring continuation: encode 16 -> binary 10000, shifted
	// left by 1 for sign (positive) = 100000 = 0x20, split into two
	// 5-bit groups little-endian with continuation bit on the first.
	v, n, err := decodeVLQValue("gB")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 16 || n != 2 {
		t.Fatalf("got v=%d n=%d, want v=16 n=2", v, n)
	}
}

func TestDecodeVLQValueInvalidChar(t *testing.T) {
	if _, _, err := decodeVLQValue("!"); err == nil {
		t.Fatal("expected error for invalid vlq character")
	}
}

func TestDecodeMappingsSingleSegmentRoundTrip(t *testing.T) {
	// "AAAAA" is five zero-valued fields: a full 5-field segment at
	// (genLine=0, genCol=0) -> (sourceIndex=0, origLine=0, origCol=0, nameIndex=0).
	entries, err := DecodeMappings("AAAAA")
	if err != nil {
		t.Fatalf("decode mappings: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.GeneratedLine != 0 || e.GeneratedCol != 0 {
		t.Errorf("generated position = (%d,%d), want (0,0)", e.GeneratedLine, e.GeneratedCol)
	}
	if !e.HasSource || e.SourceIndex != 0 || e.OriginalLine != 0 || e.OriginalCol != 0 {
		t.Errorf("unexpected source fields: %+v", e)
	}
	if !e.HasName || e.NameIndex != 0 {
		t.Errorf("unexpected name field: %+v", e)
	}
}

func TestDecodeMappingsMultipleLines(t *testing.T) {
	// Two generated lines, each with one segment advancing column by 1.
	entries, err := DecodeMappings("AAAA;CAAA")
	if err != nil {
		t.Fatalf("decode mappings: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].GeneratedLine != 0 {
		t.Errorf("first entry line = %d, want 0", entries[0].GeneratedLine)
	}
	if entries[1].GeneratedLine != 1 {
		t.Errorf("second entry line = %d, want 1", entries[1].GeneratedLine)
	}
	if entries[1].GeneratedCol != 1 {
		t.Errorf("second entry col = %d, want 1", entries[1].GeneratedCol)
	}
}

func TestDecodeMappingsRejectsBadFieldCount(t *testing.T) {
	// Two fields is not a legal segment shape (must be 1, 4, or 5).
	if _, err := DecodeMappings("AA,AA"); err == nil {
		t.Fatal("expected error for 2-field segment")
	}
}

func TestSourceMapLookupGeneratedOneOne(t *testing.T) {
	// Testable property #5: lookup of generated (1,1) in a single-segment
	// map returns source a.ts, line 1, col 1, name fn (all 1-indexed).
	sm, err := parseSourceMap(`{"version":3,"sources":["a.ts"],"names":["fn"],"mappings":"AAAAA"}`)
	if err != nil {
		t.Fatalf("parse source map: %v", err)
	}
	entry, ok := sm.lookup(0, 0) // generated (1,1) 1-indexed -> (0,0) 0-indexed
	if !ok {
		t.Fatal("expected a lookup hit")
	}
	if sm.source(entry.SourceIndex) != "a.ts" {
		t.Errorf("source = %q, want a.ts", sm.source(entry.SourceIndex))
	}
	if entry.OriginalLine+1 != 1 || entry.OriginalCol+1 != 1 {
		t.Errorf("original position = (%d,%d), want (1,1)", entry.OriginalLine+1, entry.OriginalCol+1)
	}
	if sm.name(entry.NameIndex) != "fn" {
		t.Errorf("name = %q, want fn", sm.name(entry.NameIndex))
	}
}
