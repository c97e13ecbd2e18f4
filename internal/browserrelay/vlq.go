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

import (
	"errors"
	"strings"
)

// vlqBase64 is the Source Map v3 alphabet: standard base64 plus '+' and '/',
// one character per 6 bits, matching the VLQ segment encoding.
const vlqBase64 = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var vlqDecodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i, c := range vlqBase64 {
		t[byte(c)] = int8(i)
	}
	return t
}()

const (
	vlqContinuationBit = 0x20
	vlqValueMask       = 0x1f
)

// decodeVLQValue reads one base64-VLQ value from the start of s and
// returns the decoded signed integer plus the number of characters
// consumed; decodeSegmentFields calls it repeatedly to split a segment.
//
// A single field within a mapping segment is one VLQ value: groups of 6
// bits, least-significant first, continuation bit set on all but the
// last group; the lowest bit of the first group is the sign.
func decodeVLQValue(s string) (value int, consumed int, err error) {
	shift := 0
	result := 0
	for i := 0; i < len(s); i++ {
		digit := vlqDecodeTable[s[i]]
		if digit < 0 {
			return 0, 0, errors.New("invalid vlq character")
		}
		consumed++
		hasContinuation := int(digit)&vlqContinuationBit != 0
		digitValue := int(digit) & vlqValueMask
		result += digitValue << shift
		shift += 5
		if !hasContinuation {
			negative := result&1 == 1
			result >>= 1
			if negative {
				result = -result
			}
			return result, consumed, nil
		}
	}
	return 0, 0, errors.New("truncated vlq value")
}

// MappingEntry is one decoded segment of a Source Map v3 "mappings"
// string, with all fields made absolute (the wire format stores source,
// original line/col, and name index as deltas from the previous segment
// on the line; source/name indexes are cumulative across the whole map).
type MappingEntry struct {
	GeneratedLine int // 0-indexed
	GeneratedCol  int // 0-indexed
	HasSource     bool
	SourceIndex   int
	OriginalLine  int // 0-indexed
	OriginalCol   int // 0-indexed
	HasName       bool
	NameIndex     int
}

// DecodeMappings parses a Source Map v3 "mappings" string into an ordered
// slice of MappingEntry, one per generated line then per segment within
// that line (sorted order is preserved from the input, which is already
// sorted by the spec). ';' separates generated lines; ',' separates
// segments on a line. Segments carry 1, 4, or 5 fields.
func DecodeMappings(mappings string) ([]MappingEntry, error) {
	var entries []MappingEntry

	genLine := 0
	genCol := 0
	sourceIndex := 0
	origLine := 0
	origCol := 0
	nameIndex := 0

	for _, lineStr := range strings.Split(mappings, ";") {
		genCol = 0
		if lineStr != "" {
			for _, seg := range strings.Split(lineStr, ",") {
				if seg == "" {
					continue
				}
				fields, err := decodeSegmentFields(seg)
				if err != nil {
					return nil, err
				}
				switch len(fields) {
				case 1:
					genCol += fields[0]
					entries = append(entries, MappingEntry{
						GeneratedLine: genLine,
						GeneratedCol:  genCol,
					})
				case 4, 5:
					genCol += fields[0]
					sourceIndex += fields[1]
					origLine += fields[2]
					origCol += fields[3]
					e := MappingEntry{
						GeneratedLine: genLine,
						GeneratedCol:  genCol,
						HasSource:     true,
						SourceIndex:   sourceIndex,
						OriginalLine:  origLine,
						OriginalCol:   origCol,
					}
					if len(fields) == 5 {
						nameIndex += fields[4]
						e.HasName = true
						e.NameIndex = nameIndex
					}
					entries = append(entries, e)
				default:
					return nil, errors.New("mapping segment must carry 1, 4, or 5 fields")
				}
			}
		}
		genLine++
	}
	return entries, nil
}

func decodeSegmentFields(seg string) ([]int, error) {
	var fields []int
	for len(seg) > 0 {
		v, n, err := decodeVLQValue(seg)
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
		seg = seg[n:]
	}
	return fields, nil
}
