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

// Package collapse folds perf script stack-trace dumps into the single
// line per stack "folded" format consumed by flame-graph tooling.
package collapse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Options configures the folding pipeline. The zero value disables
// everything; DefaultOptions matches the stock collapser behavior.
type Options struct {
	// IncludePName prefixes each folded stack with the process identity.
	IncludePName bool
	// IncludePid decorates the identity with the process ID.
	IncludePid bool
	// IncludeTid decorates the identity with process and thread IDs.
	IncludeTid bool
	// AnnotateKernel suffixes kernel frames with _[k].
	AnnotateKernel bool
	// ShowInline expands addresses in on-disk binaries into their inlined
	// call chains via the Symbolizer.
	ShowInline bool
	// ShowContext appends file:line context to expanded frames.
	ShowContext bool
	// TidyGeneric enables the language-agnostic symbol cleanup.
	TidyGeneric bool
	// TidyJava enables the Java type-descriptor cleanup.
	TidyJava bool
	// Symbolizer resolves addresses when ShowInline is set. Nil means the
	// stock addr2line adapter.
	Symbolizer Symbolizer
}

// DefaultOptions returns the stock configuration: process names included,
// symbol tidying on, every opt-in feature off.
func DefaultOptions() Options {
	return Options{
		IncludePName: true,
		TidyGeneric:  true,
		TidyJava:     true,
	}
}

// Collapser folds a perf script dump into weighted single-line stacks. It
// owns the aggregate map and the in-progress record; create one per input
// stream with New.
type Collapser struct {
	opts   Options
	sym    Symbolizer
	agg    *Aggregate
	rec    record
	target string
}

// New returns a Collapser with an empty aggregate.
func New(opts Options) *Collapser {
	sym := opts.Symbolizer
	if sym == nil {
		sym = &Addr2Line{}
	}
	return &Collapser{opts: opts, sym: sym, agg: NewAggregate()}
}

// Aggregate exposes the folded stacks accumulated so far.
func (c *Collapser) Aggregate() *Aggregate {
	return c.agg
}

// TargetProcess returns the command name recorded in the dump's metadata,
// "" when the dump carried none.
func (c *Collapser) TargetProcess() string {
	return c.target
}

// Run consumes the stream line by line, folding each blank-line-delimited
// block into the aggregate. A block still open at end of input is
// discarded, matching the upstream collapser.
func (c *Collapser) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<30)
	for scanner.Scan() {
		c.processLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func (c *Collapser) processLine(line string) {
	ev := classifyLine(line)
	switch ev.kind {
	case lineComment:
		if ev.target != "" {
			c.target = ev.target
			log.WithField("target", c.target).Debug("recorded command")
		}
	case lineBlank:
		if key, weight, ok := c.rec.fold(c.opts); ok {
			c.agg.Merge(key, weight)
		}
		c.rec = record{}
	case lineHeader:
		c.rec.setIdentity(ev.header, c.opts)
	case lineFrame:
		c.handleFrame(ev.frame)
	default:
		log.WithField("line", line).Warn("unrecognized line")
	}
}

// handleFrame feeds one stack-frame line into the current record: inline
// expansion replaces the frame where it applies, bare module descriptors
// are dropped, everything else is normalized and prepended.
func (c *Collapser) handleFrame(f frameLine) {
	if c.opts.ShowInline && expandable(f.Module) {
		resolved, err := c.sym.Resolve(f.Address, f.Module)
		if err == nil {
			c.rec.pushFrames(renderResolved(resolved, c.opts.ShowContext))
			return
		}
		log.WithError(err).WithFields(log.Fields{
			"address": f.Address,
			"module":  f.Module,
		}).Warn("inline expansion failed, keeping raw frame")
	}
	if strings.HasPrefix(f.Func, "(") {
		return
	}
	c.rec.pushFrames(normalizeFrames(f.Func, f.Module, c.rec.identity, c.opts))
}

// noExpandRe matches modules the resolver cannot open: perf JIT map
// files, kernel images, and bracketed pseudo-modules like [vdso].
var noExpandRe = regexp.MustCompile(`perf-\d+\.map|kernel\.|\[[^\]]+\]`)

// expandable reports whether a module is a real on-disk binary worth
// handing to the resolver.
func expandable(module string) bool {
	return !noExpandRe.MatchString(module)
}

// renderResolved turns resolver frames (innermost first) into record
// frames (outermost first), optionally tagging each with its source
// location. The separator is scrubbed so a resolver-produced name can
// never split a folded key.
func renderResolved(frames []Frame, withContext bool) []string {
	out := make([]string, len(frames))
	for i, fr := range frames {
		name := fr.Func
		if withContext && fr.Location != "" {
			name = fr.Func + ":" + fr.Location
		}
		out[len(frames)-1-i] = strings.ReplaceAll(name, ";", ":")
	}
	return out
}
