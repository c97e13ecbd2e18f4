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
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// grammar identifies which stack-trace dialect a frame line matched, so
// the rewritten frame can be emitted in the same format it was parsed in.
type grammar int

const (
	grammarUnknown grammar = iota
	grammarV8
	grammarSpiderMonkey
)

// stackFrame is one parsed line of a stack trace.
type stackFrame struct {
	raw    string // original line, including leading indentation
	indent string
	g      grammar
	name   string // function name, if present
	fileURL string
	line   int // 1-indexed
	col    int // 1-indexed
	hasCol bool
	ok     bool // false if the line didn't parse as a frame at all
}

// V8 (Chrome/Node): "    at name (file:line:col)" or "    at file:line:col".
var v8FrameRe = regexp.MustCompile(`^(\s*)at\s+(?:(.+?)\s+\()?([^()]+?)\)?\s*$`)

// SpiderMonkey (Firefox/Safari): "name@file:line:col" or "@file:line:col".
var spiderMonkeyFrameRe = regexp.MustCompile(`^(\s*)([^@]*)@(.+)$`)

// parseStackFrame classifies and parses one line of a stack trace.
func parseStackFrame(line string) stackFrame {
	if m := v8FrameRe.FindStringSubmatch(line); m != nil {
		indent, name, loc := m[1], m[2], m[3]
		fileURL, ln, col, hasCol, ok := splitLocation(loc)
		return stackFrame{raw: line, indent: indent, g: grammarV8, name: name,
			fileURL: fileURL, line: ln, col: col, hasCol: hasCol, ok: ok}
	}
	if m := spiderMonkeyFrameRe.FindStringSubmatch(line); m != nil {
		indent, name, loc := m[1], m[2], m[3]
		fileURL, ln, col, hasCol, ok := splitLocation(loc)
		return stackFrame{raw: line, indent: indent, g: grammarSpiderMonkey, name: name,
			fileURL: fileURL, line: ln, col: col, hasCol: hasCol, ok: ok}
	}
	return stackFrame{raw: line, ok: false}
}

// splitLocation splits a "file:line:col" (or "file:line") location by
// locating the last one or two ':' separators, since the file URL itself
// may contain colons (e.g. "https://host:port/path.js").
func splitLocation(loc string) (file string, line, col int, hasCol bool, ok bool) {
	lastColon := strings.LastIndex(loc, ":")
	if lastColon < 0 {
		return "", 0, 0, false, false
	}
	tail := loc[lastColon+1:]
	head := loc[:lastColon]

	if n, err := strconv.Atoi(tail); err == nil {
		// tail is a bare number: could be the line (no column) or the column
		// (with a line before it). Try to peel one more segment for column.
		secondColon := strings.LastIndex(head, ":")
		if secondColon >= 0 {
			if ln, err2 := strconv.Atoi(head[secondColon+1:]); err2 == nil {
				return head[:secondColon], ln, n, true, true
			}
		}
		return head, n, 0, false, true
	}
	return "", 0, 0, false, false
}

// normalizeFileURL strips scheme and host, leaving a bare path, the form
// source_maps.file_url is stored under.
func normalizeFileURL(raw string) string {
	if idx := strings.Index(raw, "://"); idx >= 0 {
		rest := raw[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			return rest[slash:]
		}
		return "/"
	}
	return raw
}

// parsedSourceMap is a decoded Source Map v3 document ready for position
// lookups.
type parsedSourceMap struct {
	sources []string
	names   []string
	entries []MappingEntry // sorted by (GeneratedLine, GeneratedCol)
}

type sourceMapDoc struct {
	Version  int      `json:"version"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

func parseSourceMap(content string) (*parsedSourceMap, error) {
	var doc sourceMapDoc
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	entries, err := DecodeMappings(doc.Mappings)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].GeneratedLine != entries[j].GeneratedLine {
			return entries[i].GeneratedLine < entries[j].GeneratedLine
		}
		return entries[i].GeneratedCol < entries[j].GeneratedCol
	})
	return &parsedSourceMap{sources: doc.Sources, names: doc.Names, entries: entries}, nil
}

// lookup finds the greatest mapping entry with (GeneratedLine, GeneratedCol)
// <= (genLine, genCol), binary-searching on line then scanning within the
// line for the closest column at or before genCol.
func (m *parsedSourceMap) lookup(genLine, genCol int) (MappingEntry, bool) {
	// Find the first entry with GeneratedLine > genLine; everything at or
	// before that index is a candidate.
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].GeneratedLine > genLine
	})
	if idx == 0 {
		return MappingEntry{}, false
	}
	// Walk backwards from idx-1 while still on genLine and GeneratedCol >
	// genCol, then take the first entry that qualifies on an earlier line.
	best := -1
	for i := idx - 1; i >= 0 && m.entries[i].GeneratedLine == genLine; i-- {
		if m.entries[i].GeneratedCol <= genCol {
			best = i
			break
		}
	}
	if best >= 0 {
		return m.entries[best], true
	}
	// No entry on genLine at or before genCol: fall back to the last entry
	// of the most recent earlier line.
	for i := idx - 1; i >= 0; i-- {
		if m.entries[i].GeneratedLine < genLine {
			return m.entries[i], true
		}
	}
	return MappingEntry{}, false
}

func (m *parsedSourceMap) source(idx int) string {
	if idx < 0 || idx >= len(m.sources) {
		return ""
	}
	return m.sources[idx]
}

func (m *parsedSourceMap) name(idx int) string {
	if idx < 0 || idx >= len(m.names) {
		return ""
	}
	return m.names[idx]
}

// rewriteFrame formats f using its original grammar, substituting the
// original-source location (and name, if the mapping carries one).
func rewriteFrame(f stackFrame, origFile string, origLine, origCol int, origName string) string {
	name := f.name
	if origName != "" {
		name = origName
	}
	loc := origFile + ":" + strconv.Itoa(origLine) + ":" + strconv.Itoa(origCol)
	switch f.g {
	case grammarV8:
		if name != "" {
			return f.indent + "at " + name + " (" + loc + ")"
		}
		return f.indent + "at " + loc
	case grammarSpiderMonkey:
		return f.indent + name + "@" + loc
	default:
		return f.raw
	}
}

// RewriteStack rewrites every frame of stack whose file has a matching
// source map for (project, release), using lookupMap to fetch and cache a
// parsed map per file URL for the duration of one call. Frames with no
// matching map, or that fail to parse, are passed through unchanged.
func RewriteStack(stack, project, release string, lookupMap func(fileURL string) (*parsedSourceMap, error)) string {
	if release == "" {
		return stack
	}
	lines := strings.Split(stack, "\n")
	cache := make(map[string]*parsedSourceMap)

	for i, line := range lines {
		frame := parseStackFrame(line)
		if !frame.ok {
			continue
		}
		path := normalizeFileURL(frame.fileURL)

		sm, cached := cache[path]
		if !cached {
			var err error
			sm, err = lookupMap(path)
			if err != nil {
				sm = nil
			}
			cache[path] = sm
		}
		if sm == nil {
			continue
		}

		genLine := frame.line - 1
		genCol := 0
		if frame.hasCol {
			genCol = frame.col - 1
		}
		entry, found := sm.lookup(genLine, genCol)
		if !found || !entry.HasSource {
			continue
		}

		name := ""
		if entry.HasName {
			name = sm.name(entry.NameIndex)
		}
		lines[i] = rewriteFrame(frame, sm.source(entry.SourceIndex), entry.OriginalLine+1, entry.OriginalCol+1, name)
	}
	return strings.Join(lines, "\n")
}
