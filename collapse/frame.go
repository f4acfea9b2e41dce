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
	"path/filepath"
	"strings"
)

const kernelSuffix = "_[k]"

var (
	angleScrub = strings.NewReplacer("<", "", ">", "")
	quoteScrub = strings.NewReplacer(`"`, "", "'", "")
)

// tidyGeneric canonicalizes one raw symbol: the stack separator becomes a
// colon, angle-bracket decoration is dropped, the argument list is
// truncated unless the name is a qualified method call (".(" keeps its
// parentheses, as in Go method symbols), and stray quotes are removed.
func tidyGeneric(name string) string {
	name = strings.ReplaceAll(name, ";", ":")
	name = angleScrub.Replace(name)
	if !strings.Contains(name, ".(") {
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
	}
	return quoteScrub.Replace(name)
}

// tidyJava renders Java type-descriptor internals as pseudo-paths,
// dropping the leading L qualifier:
//
//	Lorg/mozilla/javascript/ContextFactory;.call(...)V
//
// becomes, together with tidyGeneric:
//
//	org/mozilla/javascript/ContextFactory:.call
func tidyJava(name string) string {
	if strings.Contains(name, "/") {
		name = strings.TrimPrefix(name, "L")
	}
	return name
}

// kernelModule reports whether a frame's module/DSO context attributes it
// to the kernel. Read off the raw line, never the tidied name.
func kernelModule(mod string) bool {
	if strings.Contains(mod, "unknown") {
		return false
	}
	return strings.HasPrefix(mod, "[") || strings.HasSuffix(mod, "vmlinux")
}

// normalizeFrames turns one raw frame descriptor into the frame names to
// insert, outermost first. Descriptors carrying profiler-emitted inline
// chains (a->b->c) yield one frame per piece; unresolved symbols group by
// their originating module.
func normalizeFrames(rawFunc, module, identity string, opts Options) []string {
	pieces := strings.Split(rawFunc, "->")
	frames := make([]string, 0, len(pieces))
	for _, name := range pieces {
		if name == "[unknown]" && module != "[unknown]" {
			name = "[" + filepath.Base(module) + "]"
		}
		if opts.TidyGeneric {
			name = tidyGeneric(name)
		}
		if opts.TidyJava && identity == "java" {
			name = tidyJava(name)
		}
		if opts.AnnotateKernel && kernelModule(module) {
			name += kernelSuffix
		}
		frames = append(frames, name)
	}
	return frames
}
