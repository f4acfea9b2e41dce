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
	"os/exec"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Frame is one source-level frame resolved for an instruction address.
type Frame struct {
	// Func is the demangled function name.
	Func string
	// Location is the file:line the address maps to ("??:0" when the
	// resolver does not know, "" when the implementation has none).
	Location string
}

// Symbolizer resolves an instruction address inside a module to the
// source-level frames live at that address, innermost first. Inlined call
// chains yield several frames for one address. This is the seam for
// substituting a scripted implementation in tests.
type Symbolizer interface {
	Resolve(address, module string) ([]Frame, error)
}

// Addr2Line is the default Symbolizer. It shells out to addr2line once
// per address, requesting demangled names (-C), inline chains (-i), and
// base file names (-s).
type Addr2Line struct {
	// Path overrides the binary to invoke. Empty means "addr2line" from
	// $PATH.
	Path string
}

var discriminatorRe = regexp.MustCompile(` \(discriminator \S+\)`)

func (a *Addr2Line) binary() string {
	if a.Path != "" {
		return a.Path
	}
	return "addr2line"
}

// Resolve invokes the resolver binary and parses its two-lines-per-frame
// output. The call is synchronous and unbounded; a hung resolver stalls
// the whole pipeline.
func (a *Addr2Line) Resolve(address, module string) ([]Frame, error) {
	cmd := exec.Command(a.binary(), "-a", address, "-e", module, "-i", "-f", "-s", "-C")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.binary(), err)
	}
	frames := parseResolverOutput(string(output))
	log.WithFields(log.Fields{
		"address": address,
		"module":  module,
		"frames":  len(frames),
	}).Debug("resolved address")
	return frames, nil
}

// parseResolverOutput walks the resolver's stdout. The first line echoes
// the queried address and is dropped; every following (function, location)
// line pair becomes one Frame. Compiler-generated discriminator notes are
// stripped from both lines. A dangling final line without its pair is
// ignored.
func parseResolverOutput(output string) []Frame {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	var frames []Frame
	for i := 1; i+1 < len(lines); i += 2 {
		frames = append(frames, Frame{
			Func:     discriminatorRe.ReplaceAllString(strings.TrimSpace(lines[i]), ""),
			Location: discriminatorRe.ReplaceAllString(strings.TrimSpace(lines[i+1]), ""),
		})
	}
	return frames
}
