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
	"fmt"
	"io"
	"sort"
	"strconv"
)

// weightDivisor converts the profiler's native weight unit into the
// reporting unit on emission.
const weightDivisor = 1e6

// Aggregate sums weights across identical folded stacks.
type Aggregate struct {
	weights map[string]uint64
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{weights: make(map[string]uint64)}
}

// Merge adds weight to the accumulated value for key, creating the entry
// if absent.
func (a *Aggregate) Merge(key string, weight uint64) {
	a.weights[key] += weight
}

// Len returns the number of distinct folded stacks.
func (a *Aggregate) Len() int {
	return len(a.weights)
}

// Keys returns the folded-stack keys in ascending order.
func (a *Aggregate) Keys() []string {
	keys := make([]string, 0, len(a.weights))
	for k := range a.weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Weight returns the accumulated weight for key, 0 when absent.
func (a *Aggregate) Weight(key string) uint64 {
	return a.weights[key]
}

// WriteFolded emits one line per distinct stack, keys ascending, each
// weight scaled into the reporting unit and printed in its natural
// decimal form (no trailing zeros, no exponent).
func (a *Aggregate) WriteFolded(w io.Writer) error {
	for _, key := range a.Keys() {
		scaled := float64(a.weights[key]) / weightDivisor
		if _, err := fmt.Fprintf(w, "%s %s\n", key, strconv.FormatFloat(scaled, 'f', -1, 64)); err != nil {
			return fmt.Errorf("writing folded output: %w", err)
		}
	}
	return nil
}
