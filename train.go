package sometag

import "sort"

// IterationStat records one pass over the training corpus, surfaced so
// a caller can log progress or plot a learning curve.
type IterationStat struct {
	Iteration      int
	Sentences      int
	EarlyUpdates   int
	TokensUpdated  int
}

// Trainer drives the averaged structured perceptron: repeated passes
// over a corpus, each sentence decoded with beam search and early
// update, each divergence triggering a perceptron-style weight bump.
type Trainer struct {
	Registry  *Registry
	Store     *Store
	Extractor *Extractor

	BeamWidth   int
	BeamHistory int

	counter float64 // monotonically increasing update clock, never reset
}

// Counter returns the current value of the monotonically increasing
// update clock, i.e. the total number of token positions decoded across
// every completed Fit call. Callers average a Store with this value.
func (t *Trainer) Counter() float64 { return t.counter }

// NewTrainer creates a Trainer over the given components, defaulting
// beam width and recombination history to the package defaults.
func NewTrainer(reg *Registry, store *Store, ext *Extractor) *Trainer {
	return &Trainer{
		Registry:    reg,
		Store:       store,
		Extractor:   ext,
		BeamWidth:   DefaultBeamWidth,
		BeamHistory: DefaultBeamHistory,
	}
}

// Fit runs iterations passes over corpus, shuffling sentence order
// before each pass with a seed derived from the iteration index (so a
// run is reproducible without a caller-supplied RNG), and returns one
// IterationStat per pass.
func (t *Trainer) Fit(corpus *Corpus, iterations int) []IterationStat {
	t.Registry.RegisterByFrequency(corpus.Labels)
	t.Store.Grow(t.Registry.Size())
	t.Extractor.SetTokens(corpus.Tokens)

	order := make([]int, len(corpus.Offsets))
	for i := range order {
		order[i] = i
	}

	stats := make([]IterationStat, 0, iterations)
	for iter := 0; iter < iterations; iter++ {
		shuffleDeterministic(order, int64(iter))
		stat := IterationStat{Iteration: iter, Sentences: len(order)}
		for _, idx := range order {
			start := corpus.Offsets[idx]
			length := corpus.Lengths[idx]
			sentence := corpus.Tokens[start : start+length]
			gold := corpus.Labels[start : start+length]

			earlyUpdated, tokensTouched, decoded := t.fitOne(sentence, gold, start)
			if earlyUpdated {
				stat.EarlyUpdates++
			}
			stat.TokensUpdated += tokensTouched
			t.counter += float64(decoded)
		}
		stats = append(stats, stat)
	}
	return stats
}

// fitOne decodes one sentence with early update and applies a
// perceptron update at the divergence point (or does nothing if the
// prediction was entirely correct). It reports whether an early update
// fired, how many token positions received an update, and the decoded
// prefix length (the predicted-prefix length the update counter
// advances by per spec §4.5 step 5).
func (t *Trainer) fitOne(sentence, gold []string, start int) (earlyUpdated bool, tokensTouched, decoded int) {
	ignoreLabel, hasIgnore := "", false
	if id, ok := t.Registry.IgnoreID(); ok {
		ignoreLabel, hasIgnore = t.Registry.LabelOf(id), true
	}

	beam, numDecoded, matched := DecodeTrain(t.Store, t.Registry, t.Extractor, sentence, gold, start, t.BeamWidth, t.BeamHistory)
	decoded = numDecoded
	if matched && len(beam) > 0 && matchesIgnoring(beam[0].labels, gold, ignoreLabel, hasIgnore) {
		return false, 0, decoded
	}

	predPrefix := t.violatingPrefix(beam, gold[:decoded])
	goldPrefix := gold[:decoded]

	for pos := 0; pos < decoded; pos++ {
		trueLabel := goldPrefix[pos]
		predLabel := predPrefix[pos]
		if trueLabel == predLabel {
			continue
		}
		trueID, _ := t.Registry.IDOf(trueLabel)
		if ignoreID, ok := t.Registry.IgnoreID(); ok && trueID == ignoreID {
			continue
		}
		predID, _ := t.Registry.IDOf(predLabel)

		goldFeats := t.features(sentence, start, pos, goldPrefix[:pos])
		predFeats := t.features(sentence, start, pos, predPrefix[:pos])

		t.Store.ApplyDualUpdate(goldFeats, trueID, predFeats, predID, t.counter)
		tokensTouched++
	}
	return !matched, tokensTouched, decoded
}

// features returns the union of static and latent feature signatures
// for sentence position pos given the label prefix hypothesised for
// positions [0,pos).
func (t *Trainer) features(sentence []string, start, pos int, prefix []string) []string {
	static := t.Extractor.Static(sentence, pos)
	latent := t.Extractor.Latent(start, prefix, pos)
	out := make([]string, 0, len(static)+len(latent))
	out = append(out, static...)
	out = append(out, latent...)
	return out
}

// violatingPrefix picks the hypothesis whose update will push the
// model hardest away from the error: the beam's top-scoring survivor,
// padded/truncated to goldPrefix's length. If the gold prefix fell off
// the beam entirely as a single-hypothesis bootstrap (decoded == 1),
// beam still holds the wrongly-scored candidates from that step.
func (t *Trainer) violatingPrefix(beam []candidate, goldPrefix []string) []string {
	if len(beam) == 0 {
		return make([]string, len(goldPrefix))
	}
	best := beam[0]
	out := make([]string, len(goldPrefix))
	n := len(best.labels)
	if n > len(out) {
		n = len(out)
	}
	copy(out, best.labels[:n])
	return out
}

// shuffleDeterministic permutes order in place using a Fisher-Yates
// shuffle driven by a small deterministic PRNG seeded from seed, so
// that fitting the same corpus for the same number of iterations
// always visits sentences in the same sequence of orders.
func shuffleDeterministic(order []int, seed int64) {
	state := uint64(seed)*2654435761 + 1
	next := func() uint64 {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		return state
	}
	for i := len(order) - 1; i > 0; i-- {
		j := int(next() % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
}

// sortIterationStats orders stats by ascending iteration index, for
// stats accumulated out of order.
func sortIterationStats(stats []IterationStat) {
	sort.Slice(stats, func(i, j int) bool { return stats[i].Iteration < stats[j].Iteration })
}
