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
	"strings"

	"github.com/google/pprof/profile"
)

// Profile converts the aggregate into a pprof profile: one sample per
// distinct folded stack, locations leaf-first per the pprof convention,
// synthetic locations and functions deduplicated by frame name. Sample
// values stay in the profiler's native unit.
func (a *Aggregate) Profile() *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "wall", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		Period:     1,
	}

	// Track unique locations by frame name. Folded stacks carry no
	// addresses, so one location per name is the best available identity.
	locationMap := make(map[string]*profile.Location)
	nextID := uint64(1)

	for _, key := range a.Keys() {
		frames := strings.Split(key, ";")

		locations := make([]*profile.Location, 0, len(frames))
		for i := len(frames) - 1; i >= 0; i-- {
			name := frames[i]
			loc, ok := locationMap[name]
			if !ok {
				fn := &profile.Function{
					ID:         nextID,
					Name:       name,
					SystemName: name,
				}
				loc = &profile.Location{
					ID:   nextID,
					Line: []profile.Line{{Function: fn}},
				}
				nextID++
				locationMap[name] = loc
				prof.Function = append(prof.Function, fn)
				prof.Location = append(prof.Location, loc)
			}
			locations = append(locations, loc)
		}

		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: locations,
			Value:    []int64{int64(a.weights[key])},
		})
	}

	return prof
}
