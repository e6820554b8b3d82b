package sometag

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// Corpus is a flat, sentence-offset representation of a tagged corpus:
// all tokens and labels are concatenated into single parallel slices,
// and Offsets/Lengths locate each sentence within them. This trades a
// nested [][]string for a single pair of flat slices, which is both
// cheaper to allocate and what the extractor's absolute-offset latent
// lookups expect (see features.go's SetTokens/Latent).
type Corpus struct {
	Tokens  []string
	Labels  []string
	Offsets []int
	Lengths []int
}

// NumSentences reports how many sentences the corpus holds.
func (c *Corpus) NumSentences() int { return len(c.Offsets) }

// Sentence returns the tokens and labels of sentence i.
func (c *Corpus) Sentence(i int) (tokens, labels []string) {
	start, length := c.Offsets[i], c.Lengths[i]
	return c.Tokens[start : start+length], c.Labels[start : start+length]
}

// ReadCorpus parses a tagged corpus in the conventional one-token-per-
// line, tab-separated, blank-line-delimited-sentence format.
func ReadCorpus(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	sentStart := 0
	lineNo := 0
	flush := func() {
		if len(c.Tokens) > sentStart {
			c.Offsets = append(c.Offsets, sentStart)
			c.Lengths = append(c.Lengths, len(c.Tokens)-sentStart)
			sentStart = len(c.Tokens)
		}
	}
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrMalformedCorpus)
		}
		c.Tokens = append(c.Tokens, fields[0])
		c.Labels = append(c.Labels, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	flush()
	return c, nil
}

// ReadUntagged parses the same blank-line-delimited sentence format
// but with one bare token per line, for tagging (as opposed to
// training) input.
func ReadUntagged(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	sentStart := 0
	flush := func() {
		if len(c.Tokens) > sentStart {
			c.Offsets = append(c.Offsets, sentStart)
			c.Lengths = append(c.Lengths, len(c.Tokens)-sentStart)
			sentStart = len(c.Tokens)
		}
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		c.Tokens = append(c.Tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	flush()
	return c, nil
}

var xmlTagLine = regexp.MustCompile(`^\s*<[^>]+>\s*$`)

// ReadXMLPassthrough parses a corpus that interleaves plain XML markup
// lines with token<TAB>label data lines (spec's XML passthrough mode).
// Markup lines are preserved verbatim in Markup (indexed by the token
// position they precede) and are not tokenised; non-markup lines have
// their HTML/XML entities unescaped before being treated as token data.
func ReadXMLPassthrough(r io.Reader) (corpus *Corpus, markup map[int][]string, err error) {
	corpus = &Corpus{}
	markup = make(map[int][]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	sentStart := 0
	flush := func() {
		if len(corpus.Tokens) > sentStart {
			corpus.Offsets = append(corpus.Offsets, sentStart)
			corpus.Lengths = append(corpus.Lengths, len(corpus.Tokens)-sentStart)
			sentStart = len(corpus.Tokens)
		}
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if xmlTagLine.MatchString(line) {
			pos := len(corpus.Tokens)
			markup[pos] = append(markup[pos], strings.TrimSpace(line))
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("%w", ErrMalformedCorpus)
		}
		corpus.Tokens = append(corpus.Tokens, html.UnescapeString(fields[0]))
		corpus.Labels = append(corpus.Labels, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading xml corpus: %w", err)
	}
	flush()
	return corpus, markup, nil
}

// ReadLexicon parses a full-form lexicon: word<TAB>class[,class...]
// per line, lowercased on read since lookups are always against the
// lowercased token.
func ReadLexicon(r io.Reader) (map[string][]string, error) {
	out := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		classes := strings.Split(fields[1], ",")
		for i := range classes {
			classes[i] = strings.TrimSpace(classes[i])
		}
		out[word] = classes
	}
	return out, scanner.Err()
}

// ReadBrownClusters parses a Brown-cluster file in the conventional
// cluster<TAB>word<TAB>frequency layout (one path-and-word per line).
func ReadBrownClusters(r io.Reader) (map[string]BrownEntry, error) {
	out := make(map[string]BrownEntry)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		cluster := fields[0]
		word := strings.ToLower(fields[1])
		freq := 0
		if len(fields) >= 3 {
			fmt.Sscanf(fields[2], "%d", &freq)
		}
		out[word] = BrownEntry{Cluster: cluster, LogFreq: roundLog(freq)}
	}
	return out, scanner.Err()
}

// ReadMapping parses a fine-to-coarse tagset mapping: fineLabel<TAB>
// coarseLabel per line.
func ReadMapping(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		out[fields[0]] = fields[1]
	}
	return out, scanner.Err()
}

// ReadWord2VecVectors parses the text form of word2vec vectors (header
// line "<vocab> <dim>" followed by "word v1 v2 ... vN" lines). Vectors
// are stored as their original space-separated text, since the
// extractor only ever emits them verbatim as a feature value.
func ReadWord2VecVectors(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if len(strings.Fields(line)) == 2 {
				continue // header: vocab size, dimension
			}
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			continue
		}
		word := strings.ToLower(line[:sp])
		out[word] = line[sp+1:]
	}
	return out, scanner.Err()
}

// EvaluationResult holds overall and in-vocabulary/out-of-vocabulary
// accuracy, the breakdown the reference implementation reports after
// an evaluation run.
type EvaluationResult struct {
	Total      int
	Correct    int
	IVTotal    int
	IVCorrect  int
	OOVTotal   int
	OOVCorrect int
}

// Accuracy returns the overall accuracy, or 0 if Total is 0.
func (e EvaluationResult) Accuracy() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Total)
}

// IVAccuracy returns in-vocabulary accuracy, or 0 if IVTotal is 0.
func (e EvaluationResult) IVAccuracy() float64 {
	if e.IVTotal == 0 {
		return 0
	}
	return float64(e.IVCorrect) / float64(e.IVTotal)
}

// OOVAccuracy returns out-of-vocabulary accuracy, or 0 if OOVTotal is 0.
func (e EvaluationResult) OOVAccuracy() float64 {
	if e.OOVTotal == 0 {
		return 0
	}
	return float64(e.OOVCorrect) / float64(e.OOVTotal)
}

// Evaluate compares predicted against gold labels token-by-token,
// splitting the tally into in-vocabulary and out-of-vocabulary buckets
// using vocab (lowercased training-set word forms). Positions where
// gold holds ignoreLabel are excluded entirely (not counted toward
// Total, Correct, or the IV/OOV buckets), matching the reference
// implementation's evaluation loop (someweta/tagger.py:125-126). Pass
// "" to disable ignore-label filtering.
func Evaluate(tokens, gold, predicted []string, vocab map[string]bool, ignoreLabel string) EvaluationResult {
	var res EvaluationResult
	for i := range gold {
		if ignoreLabel != "" && gold[i] == ignoreLabel {
			continue
		}
		res.Total++
		correct := gold[i] == predicted[i]
		if correct {
			res.Correct++
		}
		if vocab[strings.ToLower(tokens[i])] {
			res.IVTotal++
			if correct {
				res.IVCorrect++
			}
		} else {
			res.OOVTotal++
			if correct {
				res.OOVCorrect++
			}
		}
	}
	return res
}

// Vocabulary collects the lowercased set of word forms appearing in
// tokens, for use as Evaluate's IV/OOV split.
func Vocabulary(tokens []string) map[string]bool {
	vocab := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		vocab[strings.ToLower(t)] = true
	}
	return vocab
}

// Progress reports coarse-grained completion of a long-running corpus
// pass (training iteration, tagging run, or cross-validation fold) to
// an io.Writer, throttled to whole-percent steps.
type Progress struct {
	w        io.Writer
	total    int
	lastStep int
}

// NewProgress creates a Progress reporter for a job of the given total
// size. If total is 0 (e.g. the input stream isn't seekable so the
// sentence count isn't known up front), reporting degenerates to a
// plain "done N" counter with no percentage.
func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{w: w, total: total}
}

// Update reports progress at done items completed, printing at most
// once per whole percentage point (or every 1000 items, when total is
// unknown).
func (p *Progress) Update(done int) {
	if p.total > 0 {
		step := done * 100 / p.total
		if step == p.lastStep {
			return
		}
		p.lastStep = step
		fmt.Fprintf(p.w, "\r%3d%% (%d/%d)", step, done, p.total)
		return
	}
	if done-p.lastStep >= 1000 {
		p.lastStep = done
		fmt.Fprintf(p.w, "\r%d done", done)
	}
}

// Done finalises the progress line with a trailing newline.
func (p *Progress) Done() {
	fmt.Fprintln(p.w)
}
