package sometag

import "sort"

// Registry assigns stable, dense integer ids to label strings. Ids are
// handed out in ascending corpus-frequency order (rarest label first),
// which matters for the beam decoder's tie-break rule (see beam.go):
// ties are broken toward the smaller id, i.e. toward the rarer label.
//
// A Registry grows monotonically across successive calls to Register
// or RegisterByFrequency: labels seen in an earlier call keep their id,
// and newly introduced labels receive ids >= the registry's previous
// size.
//
// The optional ignore label is not a regular class. It is never
// appended to the registry and never receives a weight-vector column;
// its id is always exactly Size(), i.e. "one past the in-use range",
// so it tracks Size() as the registry grows across fit calls.
type Registry struct {
	toID   map[string]int
	toName []string

	ignoreLabel string
	hasIgnore   bool
}

// NewRegistry creates an empty label registry.
func NewRegistry() *Registry {
	return &Registry{toID: make(map[string]int)}
}

// SetIgnoreLabel designates label as the sentinel "do not score, do not
// learn from" class. It has no effect on labels already registered.
func (r *Registry) SetIgnoreLabel(label string) {
	r.hasIgnore = true
	r.ignoreLabel = label
}

// Register assigns ids to previously-unseen labels, in the order given.
// Labels equal to the configured ignore label are skipped.
func (r *Registry) Register(labels []string) {
	for _, label := range labels {
		r.register(label)
	}
}

func (r *Registry) register(label string) {
	if r.hasIgnore && label == r.ignoreLabel {
		return
	}
	if _, ok := r.toID[label]; ok {
		return
	}
	id := len(r.toName)
	r.toID[label] = id
	r.toName = append(r.toName, label)
}

// RegisterByFrequency counts occurrences of each label in corpus and
// registers previously-unseen labels in ascending frequency order
// (rarest first), per spec §3.
func (r *Registry) RegisterByFrequency(corpus []string) {
	counts := make(map[string]int, len(corpus))
	order := make([]string, 0, len(corpus))
	for _, label := range corpus {
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] < counts[order[j]]
	})
	r.Register(order)
}

// IDOf returns the id for label and whether it is known. The ignore
// label, if configured, resolves to IgnoreID.
func (r *Registry) IDOf(label string) (int, bool) {
	if r.hasIgnore && label == r.ignoreLabel {
		return len(r.toName), true
	}
	id, ok := r.toID[label]
	return id, ok
}

// LabelOf returns the label string for id. Panics if id is out of
// range and is not the current ignore id; this signals a programmer
// error (ids come from IDOf or the decoder), never malformed input.
func (r *Registry) LabelOf(id int) string {
	if r.hasIgnore && id == len(r.toName) {
		return r.ignoreLabel
	}
	return r.toName[id]
}

// IgnoreID returns the reserved sentinel id (one past the in-use
// range) and true if an ignore label is configured.
func (r *Registry) IgnoreID() (int, bool) {
	if !r.hasIgnore {
		return 0, false
	}
	return len(r.toName), true
}

// Size returns the number of in-use label ids, excluding the ignore
// sentinel.
func (r *Registry) Size() int {
	return len(r.toName)
}

// Labels returns the registered labels in id order (excludes the
// ignore label).
func (r *Registry) Labels() []string {
	out := make([]string, len(r.toName))
	copy(out, r.toName)
	return out
}
