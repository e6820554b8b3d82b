package sometag

import (
	"fmt"
	"io"
	"math"
)

// Tagger is the package's top-level facade: it wires a Registry,
// Store, and Extractor together behind Train/Tag/Evaluate/Save/Load,
// the operations a CLI or library caller actually drives.
type Tagger struct {
	Registry  *Registry
	Store     *Store
	Extractor *Extractor
	Resources Resources

	BeamWidth   int
	BeamHistory int

	vocab map[string]bool // lowercased training-set word forms, for Evaluate's IV/OOV split
}

// NewTagger creates an untrained Tagger with fresh components. Pass an
// ignoreLabel to enable partial annotation (spec §3); pass "" to
// disable it.
func NewTagger(resources Resources, ignoreLabel string) *Tagger {
	reg := NewRegistry()
	if ignoreLabel != "" {
		reg.SetIgnoreLabel(ignoreLabel)
	}
	return &Tagger{
		Registry:    reg,
		Store:       NewStore(0),
		Extractor:   NewExtractor(resources),
		Resources:   resources,
		BeamWidth:   DefaultBeamWidth,
		BeamHistory: DefaultBeamHistory,
	}
}

// LoadPriorModel attaches a previously trained model as a read-only
// prior whose weights are folded into every score and into the final
// average (spec §6.1's asymmetric prior-model folding). Matching
// someweta/tagger.py's load_prior_model, only the prior's vocabulary,
// label->id assignment, and weights are adopted - its lexicon, Brown
// clusters, and word2vec vectors are left untouched, since this
// tagger's own Resources (supplied via NewTagger) still apply.
func (t *Tagger) LoadPriorModel(r io.Reader) error {
	priorReg, priorStore, _, priorVocab, err := LoadModel(r)
	if err != nil {
		return fmt.Errorf("loading prior model: %w", err)
	}
	t.Store.SetPrior(priorStore)
	t.Registry.Register(priorReg.Labels())
	t.Store.Grow(t.Registry.Size())
	if t.vocab == nil {
		t.vocab = make(map[string]bool, len(priorVocab))
	}
	for word := range priorVocab {
		t.vocab[word] = true
	}
	return nil
}

// Train runs the averaged structured perceptron over corpus for the
// given number of iterations and averages the result. Each call to
// Train is its own complete averaging episode: the registry and store
// grow to admit any newly-seen labels first, then weights accumulate
// and are averaged down at the end of this call's iterations. Training
// further after a prior Train call continues to adjust the already-
// averaged weights, rather than resuming the discarded per-feature
// counters of the earlier episode.
func (t *Tagger) Train(corpus *Corpus, iterations int) []IterationStat {
	trainer := &Trainer{
		Registry:    t.Registry,
		Store:       t.Store,
		Extractor:   t.Extractor,
		BeamWidth:   t.BeamWidth,
		BeamHistory: t.BeamHistory,
	}
	stats := trainer.Fit(corpus, iterations)
	t.Store.Average(trainer.Counter())
	if t.vocab == nil {
		t.vocab = make(map[string]bool, len(corpus.Tokens))
	}
	for word := range Vocabulary(corpus.Tokens) {
		t.vocab[word] = true
	}
	return stats
}

// Tag decodes every sentence in corpus independently and returns the
// flat, parallel slice of predicted labels (same shape as
// corpus.Labels would be).
func (t *Tagger) Tag(corpus *Corpus) []string {
	t.Extractor.SetTokens(corpus.Tokens)
	out := make([]string, len(corpus.Tokens))
	for s := 0; s < corpus.NumSentences(); s++ {
		tokens, _ := t.Sentence(corpus, s)
		start := corpus.Offsets[s]
		labels := Decode(t.Store, t.Registry, t.Extractor, tokens, start, t.BeamWidth, t.BeamHistory)
		copy(out[start:start+len(tokens)], labels)
	}
	return out
}

// Sentence returns the tokens and labels of sentence i of c, exactly
// as Corpus.Sentence does.
func (t *Tagger) Sentence(c *Corpus, i int) (tokens, labels []string) {
	return c.Sentence(i)
}

// TagRaw tokenises raw text with a Tokenizer and tags the result,
// returning parallel token/label slices. This is the raw-text tagging
// mode: input that hasn't already been split one-token-per-line.
func (t *Tagger) TagRaw(text string, tok *Tokenizer) (tokens, labels []string) {
	tokens = tok.Tokenize(text)
	t.Extractor.SetTokens(tokens)
	labels = Decode(t.Store, t.Registry, t.Extractor, tokens, 0, t.BeamWidth, t.BeamHistory)
	return tokens, labels
}

// Evaluate tags corpus and compares the result against its gold
// labels, reporting overall and IV/OOV accuracy. The IV/OOV split uses
// the tagger's own vocabulary: the training corpora of its Train calls,
// the vocabulary of a model loaded by LoadTagger, and that of any prior
// model. EvaluateWithVocab takes an explicit vocabulary instead.
func (t *Tagger) Evaluate(corpus *Corpus) EvaluationResult {
	return t.EvaluateWithVocab(corpus, t.vocab)
}

// EvaluateWithVocab is Evaluate with an explicit IV/OOV vocabulary,
// for a Tagger whose training corpus isn't available in-process.
// Ignore-labeled gold positions (spec §7's "empty evaluation
// partition") are excluded from every count.
func (t *Tagger) EvaluateWithVocab(corpus *Corpus, vocab map[string]bool) EvaluationResult {
	predicted := t.Tag(corpus)
	ignoreLabel := ""
	if id, ok := t.Registry.IgnoreID(); ok {
		ignoreLabel = t.Registry.LabelOf(id)
	}
	return Evaluate(corpus.Tokens, corpus.Labels, predicted, vocab, ignoreLabel)
}

// Save serializes the tagger's registry, store, resources, and
// training vocabulary to w, in the spec's compatibility-critical model
// layout (spec §6; see model.go's modelFile).
func (t *Tagger) Save(w io.Writer) error {
	return SaveModel(w, t.Registry, t.Store, t.Resources, t.vocab)
}

// LoadTagger reads a tagger previously written by Tagger.Save. Beam
// width/history and the ignore label are not part of the model file
// (the reference implementation supplies them fresh on every
// invocation too); mapping is likewise external, since the coarse
// tagset mapping is only ever used at tag/evaluate/crossvalidate time
// and never persisted (someweta's --mapping gating).
func LoadTagger(r io.Reader, mapping map[string]string, beamWidth, beamHistory int, ignoreLabel string) (*Tagger, error) {
	reg, store, resources, vocab, err := LoadModel(r)
	if err != nil {
		return nil, err
	}
	if ignoreLabel != "" {
		reg.SetIgnoreLabel(ignoreLabel)
	}
	resources.Mapping = mapping
	return &Tagger{
		Registry:    reg,
		Store:       store,
		Extractor:   NewExtractor(resources),
		Resources:   resources,
		BeamWidth:   beamWidth,
		BeamHistory: beamHistory,
		vocab:       vocab,
	}, nil
}

// FoldResult is one fold's evaluation from CrossValidate.
type FoldResult struct {
	Fold     int
	Accuracy float64
}

// CrossValidate runs k-fold cross-validation over corpus: for each
// fold, a fresh Tagger is trained on the other k-1 folds and evaluated
// on the held-out fold. It returns the per-fold accuracies plus the
// mean and a t-distribution confidence interval half-width (t=2.26,
// the 95% two-tailed critical value for 9 degrees of freedom, matching
// the reference implementation's fixed 10-fold assumption).
func CrossValidate(corpus *Corpus, k, iterations int, resources Resources, ignoreLabel string) (folds []FoldResult, mean, ciHalfWidth float64) {
	n := corpus.NumSentences()
	folds = make([]FoldResult, 0, k)
	for fold := 0; fold < k; fold++ {
		train, test := splitFold(corpus, fold, k, n)
		tagger := NewTagger(resources, ignoreLabel)
		tagger.Train(train, iterations)
		result := tagger.EvaluateWithVocab(test, Vocabulary(train.Tokens))
		folds = append(folds, FoldResult{Fold: fold, Accuracy: result.Accuracy()})
	}

	var sum float64
	for _, f := range folds {
		sum += f.Accuracy
	}
	mean = sum / float64(len(folds))

	var variance float64
	for _, f := range folds {
		d := f.Accuracy - mean
		variance += d * d
	}
	if len(folds) > 1 {
		variance /= float64(len(folds) - 1)
	}
	stderr := math.Sqrt(variance / float64(len(folds)))
	const tCritical95At9DF = 2.26
	ciHalfWidth = tCritical95At9DF * stderr
	return folds, mean, ciHalfWidth
}

// splitFold carves corpus into a training Corpus (every sentence not
// in fold) and a test Corpus (every sentence in fold), out of k
// contiguous, near-equal partitions of its n sentences.
func splitFold(corpus *Corpus, fold, k, n int) (train, test *Corpus) {
	lo := fold * n / k
	hi := (fold + 1) * n / k
	train, test = &Corpus{}, &Corpus{}
	for s := 0; s < n; s++ {
		tokens, labels := corpus.Sentence(s)
		dst := train
		if s >= lo && s < hi {
			dst = test
		}
		dst.Offsets = append(dst.Offsets, len(dst.Tokens))
		dst.Lengths = append(dst.Lengths, len(tokens))
		dst.Tokens = append(dst.Tokens, tokens...)
		dst.Labels = append(dst.Labels, labels...)
	}
	return train, test
}
