// Copyright 2022-2025 The Parca Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collapse

import (
	"regexp"
	"strconv"
	"strings"
)

// lineKind enumerates the shapes a raw input line can take.
type lineKind int

const (
	lineUnrecognized lineKind = iota
	lineComment
	lineBlank
	lineHeader
	lineFrame
)

var (
	// Header shapes, tried in order: slash-joined pid/tid followed by a
	// weight, whitespace-separated pid tid weight triple, then the
	// weightless fallback. The weighted shapes require the weight to be a
	// whole token so a trailing timestamp ("4794564.109216:") is never
	// misread as a weight.
	headerSlashWeightRe = regexp.MustCompile(`^(\S.+?)\s+(\d+)/(\d+)\s+(\d+)(?:\s|$)`)
	headerTripleRe      = regexp.MustCompile(`^(\S.+?)\s+(\d+)\s+(\d+)\s+(\d+)(?:\s|$)`)
	headerBareRe        = regexp.MustCompile(`^(\S.+?)\s+(\d+)(?:/(\d+))?\s+`)

	frameRe  = regexp.MustCompile(`^\s*(\w+)\s*(.+) \((\S*)\)`)
	offsetRe = regexp.MustCompile(`\+0x[\da-f]+$`)
)

// headerLine carries the fields extracted from a process/thread header.
// Pid and Tid stay strings: the upstream convention renders a missing PID
// as "?".
type headerLine struct {
	Comm   string
	Pid    string
	Tid    string
	Weight uint64
}

// frameLine carries the fields extracted from one stack-frame line.
type frameLine struct {
	Address string
	Func    string
	Module  string
}

// lineEvent is the classified form of one raw input line. The payload
// fields are meaningful only for the kind that sets them.
type lineEvent struct {
	kind   lineKind
	header headerLine
	frame  frameLine
	target string // command name from a "# cmdline" comment
}

// classifyLine inspects one chomped input line and dispatches it to the
// shape-specific extractors.
func classifyLine(line string) lineEvent {
	if line == "" {
		return lineEvent{kind: lineBlank}
	}
	if strings.HasPrefix(line, "#") {
		return lineEvent{kind: lineComment, target: parseTargetName(line)}
	}
	if h, ok := parseHeader(line); ok {
		return lineEvent{kind: lineHeader, header: h}
	}
	if f, ok := parseFrame(line); ok {
		return lineEvent{kind: lineFrame, frame: f}
	}
	return lineEvent{kind: lineUnrecognized}
}

// parseTargetName extracts the profiled command's name from a "# cmdline"
// metadata comment: the last whitespace token that is not an option, with
// any leading path stripped. Every other comment yields "".
func parseTargetName(line string) string {
	if !strings.HasPrefix(line, "# cmdline") {
		return ""
	}
	target := ""
	for _, tok := range strings.Fields(line) {
		if strings.HasPrefix(tok, "-") {
			continue
		}
		target = tok
	}
	if i := strings.LastIndexByte(target, '/'); i >= 0 {
		target = target[i+1:]
	}
	return target
}

// parseHeader tries the three header shapes in order. In the fallback
// shape the weight is 0, and a lone numeric token is the TID with the PID
// rendered as "?".
func parseHeader(line string) (headerLine, bool) {
	if m := headerSlashWeightRe.FindStringSubmatch(line); m != nil {
		if w, err := strconv.ParseUint(m[4], 10, 64); err == nil {
			return headerLine{Comm: m[1], Pid: m[2], Tid: m[3], Weight: w}, true
		}
	}
	if m := headerTripleRe.FindStringSubmatch(line); m != nil {
		if w, err := strconv.ParseUint(m[4], 10, 64); err == nil {
			return headerLine{Comm: m[1], Pid: m[2], Tid: m[3], Weight: w}, true
		}
	}
	if m := headerBareRe.FindStringSubmatch(line); m != nil {
		h := headerLine{Comm: m[1], Pid: m[2], Tid: m[3]}
		if h.Tid == "" {
			h.Tid = h.Pid
			h.Pid = "?"
		}
		return h, true
	}
	return headerLine{}, false
}

// parseFrame splits a stack-frame line into address, raw descriptor, and
// module. A trailing +0x<hex> instruction offset is dropped from the
// descriptor so offset-bearing dumps fold like offset-free ones.
func parseFrame(line string) (frameLine, bool) {
	m := frameRe.FindStringSubmatch(line)
	if m == nil {
		return frameLine{}, false
	}
	return frameLine{
		Address: m[1],
		Func:    offsetRe.ReplaceAllString(m[2], ""),
		Module:  m[3],
	}, true
}
