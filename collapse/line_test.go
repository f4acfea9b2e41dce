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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyHeaderShapes(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want headerLine
	}{
		{
			name: "slash joined pid tid with weight",
			line: "java 24636/25607 3707821 [002] 4794564.109216: cycles:",
			want: headerLine{Comm: "java", Pid: "24636", Tid: "25607", Weight: 3707821},
		},
		{
			name: "whitespace pid tid weight triple",
			line: "java 24636 25607 3707821",
			want: headerLine{Comm: "java", Pid: "24636", Tid: "25607", Weight: 3707821},
		},
		{
			name: "slash joined pid tid with timestamp carries no weight",
			line: "java 24636/25607 4794564.109216: cycles:",
			want: headerLine{Comm: "java", Pid: "24636", Tid: "25607"},
		},
		{
			name: "lone numeric token is the tid",
			line: "swapper     0 [000] 158665.570607: cpu-clock:",
			want: headerLine{Comm: "swapper", Pid: "?", Tid: "0"},
		},
		{
			name: "comm with spaces",
			line: "V8 WorkerThread 25607 4794564.109216: cycles:",
			want: headerLine{Comm: "V8 WorkerThread", Pid: "?", Tid: "25607"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := classifyLine(tc.line)
			require.Equal(t, lineHeader, ev.kind)
			require.Equal(t, tc.want, ev.header)
		})
	}
}

func TestClassifyFrame(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want frameLine
	}{
		{
			name: "kernel frame",
			line: "       ffffffff8103ce3b native_safe_halt ([kernel.kallsyms])",
			want: frameLine{Address: "ffffffff8103ce3b", Func: "native_safe_halt", Module: "[kernel.kallsyms]"},
		},
		{
			name: "instruction offset stripped",
			line: "            7f53389994fd __libc_start_main+0xfd (/lib/x86_64-linux-gnu/libc-2.31.so)",
			want: frameLine{Address: "7f53389994fd", Func: "__libc_start_main", Module: "/lib/x86_64-linux-gnu/libc-2.31.so"},
		},
		{
			name: "descriptor with spaces and parentheses",
			line: "            559bd07c2fca mozilla::detail::RunnableFunction<ClosingService::ThreadFunc(void*)>::Run() (/usr/lib/firefox/libxul.so)",
			want: frameLine{Address: "559bd07c2fca", Func: "mozilla::detail::RunnableFunction<ClosingService::ThreadFunc(void*)>::Run()", Module: "/usr/lib/firefox/libxul.so"},
		},
		{
			name: "unknown symbol and module",
			line: "            7fd971a6ba67 [unknown] ([unknown])",
			want: frameLine{Address: "7fd971a6ba67", Func: "[unknown]", Module: "[unknown]"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := classifyLine(tc.line)
			require.Equal(t, lineFrame, ev.kind)
			require.Equal(t, tc.want, ev.frame)
		})
	}
}

func TestClassifyTargetName(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want string
	}{
		{
			name: "command path stripped",
			line: "# cmdline : /usr/bin/perf record -g /opt/app/bin/worker",
			want: "worker",
		},
		{
			name: "option tokens skipped",
			line: "# cmdline : /usr/bin/perf record -e cycles -g ./bench",
			want: "bench",
		},
		{
			name: "other comments carry no target",
			line: "# captured on: Thu Aug 21 02:10:13 2025",
			want: "",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := classifyLine(tc.line)
			require.Equal(t, lineComment, ev.kind)
			require.Equal(t, tc.want, ev.target)
		})
	}
}

func TestClassifyBlankAndUnrecognized(t *testing.T) {
	require.Equal(t, lineBlank, classifyLine("").kind)

	unrecognized := []string{
		"   ",
		"garbage with no numbers",
		"            deadbeef frame_without_module",
		"java 24636/25607",
	}
	for _, line := range unrecognized {
		require.Equal(t, lineUnrecognized, classifyLine(line).kind, "line %q", line)
	}
}

func TestClassifyFrameBeforeUnrecognized(t *testing.T) {
	// A frame line must not be swallowed by the header shapes even though
	// its descriptor contains digits.
	ev := classifyLine("            41fe8e main.work 42 (/usr/bin/app)")
	require.Equal(t, lineFrame, ev.kind)
	require.Equal(t, "main.work 42", ev.frame.Func)
}
