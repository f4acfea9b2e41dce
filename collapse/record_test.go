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

func TestRecordFoldsRootFirst(t *testing.T) {
	opts := DefaultOptions()
	var r record
	r.setIdentity(headerLine{Comm: "swapper", Pid: "?", Tid: "0"}, opts)
	r.pushFrames([]string{"native_safe_halt"})
	r.pushFrames([]string{"default_idle"})

	key, weight, ok := r.fold(opts)
	require.True(t, ok)
	require.Equal(t, "swapper;default_idle;native_safe_halt", key)
	require.Equal(t, uint64(0), weight)
}

func TestRecordPushesBlocksAsUnits(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludePName = false
	var r record
	r.pushFrames([]string{"leaf_a", "leaf_b"})
	r.pushFrames([]string{"root"})

	key, _, ok := r.fold(opts)
	require.True(t, ok)
	require.Equal(t, "root;leaf_a;leaf_b", key)
}

func TestRecordWithoutHeaderFoldsEmptyIdentity(t *testing.T) {
	opts := DefaultOptions()
	var r record
	r.pushFrames([]string{"lonely"})

	key, _, ok := r.fold(opts)
	require.True(t, ok)
	require.Equal(t, ";lonely", key)
}

func TestRecordHeaderOnlyStillFolds(t *testing.T) {
	opts := DefaultOptions()
	var r record
	r.setIdentity(headerLine{Comm: "idle", Pid: "1", Tid: "2", Weight: 42}, opts)

	key, weight, ok := r.fold(opts)
	require.True(t, ok)
	require.Equal(t, "idle", key)
	require.Equal(t, uint64(42), weight)
}

func TestEmptyRecordDoesNotFold(t *testing.T) {
	var r record
	_, _, ok := r.fold(DefaultOptions())
	require.False(t, ok)
}

func TestRecordIdentityRendering(t *testing.T) {
	h := headerLine{Comm: "V8 WorkerThread", Pid: "123", Tid: "456"}
	testCases := []struct {
		name string
		opts Options
		want string
	}{
		{"name only", Options{}, "V8_WorkerThread"},
		{"with pid", Options{IncludePid: true}, "V8_WorkerThread-123"},
		{"with pid and tid", Options{IncludeTid: true}, "V8_WorkerThread-123/456"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var r record
			r.setIdentity(h, tc.opts)
			require.Equal(t, tc.want, r.identity)
		})
	}
}

func TestRecordFoldWithoutProcessName(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludePName = false
	var r record
	r.setIdentity(headerLine{Comm: "app", Pid: "1", Tid: "1", Weight: 7}, opts)
	r.pushFrames([]string{"work"})

	key, weight, ok := r.fold(opts)
	require.True(t, ok)
	require.Equal(t, "work", key)
	require.Equal(t, uint64(7), weight)
}
