package collapse

import "strings"

// record accumulates one blank-line-delimited sample block: the frames
// seen so far (kept root-first), the process identity, and the weight.
// The zero value is an empty record that must not flush.
type record struct {
	frames   []string
	identity string
	weight   uint64
	started  bool
}

// setIdentity fills identity and weight from a header line, rendering the
// identity per the configured pid/tid decoration. Spaces become
// underscores so the identity cannot read as a field separator downstream.
func (r *record) setIdentity(h headerLine, opts Options) {
	switch {
	case opts.IncludeTid:
		r.identity = h.Comm + "-" + h.Pid + "/" + h.Tid
	case opts.IncludePid:
		r.identity = h.Comm + "-" + h.Pid
	default:
		r.identity = h.Comm
	}
	r.identity = strings.ReplaceAll(r.identity, " ", "_")
	r.weight = h.Weight
	r.started = true
}

// pushFrames inserts a block of frames at the front of the sequence.
// Frame lines arrive leaf-first, so earlier arrivals end up at the back
// and the sequence stays root-first.
func (r *record) pushFrames(frames []string) {
	if len(frames) == 0 {
		return
	}
	stack := make([]string, 0, len(frames)+len(r.frames))
	stack = append(stack, frames...)
	r.frames = append(stack, r.frames...)
	r.started = true
}

// fold renders the completed record as a folded-stack key. ok is false
// for a record that never saw a header or frame line.
func (r *record) fold(opts Options) (key string, weight uint64, ok bool) {
	if !r.started {
		return "", 0, false
	}
	frames := r.frames
	if opts.IncludePName {
		frames = append([]string{r.identity}, frames...)
	}
	return strings.Join(frames, ";"), r.weight, true
}
