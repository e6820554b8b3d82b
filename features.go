package sometag

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BrownEntry is a Brown-cluster lookup result: the cluster path string
// and the rounded log-frequency of the word that produced it.
type BrownEntry struct {
	Cluster string
	LogFreq int
}

// MarshalJSON renders a BrownEntry as the reference format's
// (cluster, logfreq) pair rather than a JSON object, since the model
// file's brown_clusters element is a dict of 2-element arrays.
func (b BrownEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{b.Cluster, b.LogFreq})
}

// UnmarshalJSON parses a (cluster, logfreq) pair back into a BrownEntry.
func (b *BrownEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &b.Cluster); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &b.LogFreq)
}

// Resources bundles the optional external resources that enrich the
// static feature set (spec §4.3.1). All are nil-able; a nil resource
// simply suppresses the features it would have contributed.
type Resources struct {
	// Brown maps a lowercased word to its cluster entry.
	Brown map[string]BrownEntry
	// Vectors maps a lowercased word to an opaque embedding or
	// pre-clustered token, stored verbatim as a feature value.
	Vectors map[string]string
	// Lexicon maps a lowercased word to the set of classes attached to
	// it in a full-form lexicon.
	Lexicon map[string][]string
	// Mapping maps a fine label to a coarser tagset class, used by
	// latent-feature extraction when non-nil.
	Mapping map[string]string
}

// Extractor turns a token window, plus already-hypothesised labels, into
// the sparse feature signatures consumed by Store and the beam decoder
// (spec §4.3).
type Extractor struct {
	resources Resources
	lowerAll  []string // global lowercased token stream, set per batch
	caches    *caches
	staticSet *lru.Cache[string, []string]
}

// NewExtractor creates an Extractor using the given optional resources.
func NewExtractor(resources Resources) *Extractor {
	cache, _ := lru.New[string, []string](defaultCacheSize)
	return &Extractor{
		resources: resources,
		caches:    newCaches(),
		staticSet: cache,
	}
}

// SetTokens installs the global (corpus- or batch-wide) raw token
// stream that latent-feature extraction indexes into via absolute
// sentence-start offsets. Static feature extraction does not need this:
// it operates on one sentence's tokens at a time.
func (e *Extractor) SetTokens(tokens []string) {
	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
	}
	e.lowerAll = lower
}

// Static computes the static (position-local) feature set for the
// token at sentence-local position i within sentence (spec §4.3.1).
func (e *Extractor) Static(sentence []string, i int) []string {
	length := len(sentence)
	key := e.staticKey(sentence, i)
	if cached, ok := e.staticSet.Get(key); ok {
		return cached
	}

	lower := paddedLower(sentence)
	j := i + 2
	w, p1, p2, n1, n2 := lower[j], lower[j-1], lower[j-2], lower[j+1], lower[j+2]
	raw := sentence[i]

	feats := make([]string, 0, 24)
	feats = append(feats, "bias")
	feats = append(feats, fmt.Sprintf("W_loglength: %d", roundLog(len([]rune(raw)))))
	feats = append(feats, "W_word: "+w)
	feats = append(feats, "N1_word: "+n1)
	feats = append(feats, "N2_word: "+n2)
	feats = append(feats, "W_prefix: "+firstRunes(w, 3))
	feats = append(feats, "W_suffix: "+lastRunes(w, 3))
	if i >= 1 {
		feats = append(feats, "P1_suffix: "+lastRunes(p1, 3))
	}
	if i < length-1 {
		feats = append(feats, "N1_suffix: "+lastRunes(n1, 3))
	}
	feats = append(feats, "W_shape: "+e.caches.shapeOf(raw))
	if i >= 2 {
		feats = appendFlags(feats, e.caches.flagsOf(sentence[i-2]), "P2")
	}
	if i >= 1 {
		feats = appendFlags(feats, e.caches.flagsOf(sentence[i-1]), "P1")
	}
	feats = appendFlags(feats, e.caches.flagsOf(raw), "W")
	if i < length-1 {
		feats = appendFlags(feats, e.caches.flagsOf(sentence[i+1]), "N1")
	}
	if i < length-2 {
		feats = appendFlags(feats, e.caches.flagsOf(sentence[i+2]), "N2")
	}
	if e.resources.Brown != nil {
		if i >= 2 {
			feats = append(feats, "P2_brown: "+e.brownCluster(p2))
		}
		if i >= 1 {
			feats = append(feats, "P1_brown: "+e.brownCluster(p1))
		}
		feats = append(feats, "W_brown: "+e.brownCluster(w))
		feats = append(feats, fmt.Sprintf("W_logfreq: %d", e.brownFreq(w)))
		if i < length-1 {
			feats = append(feats, "N1_brown: "+e.brownCluster(n1))
		}
		if i < length-2 {
			feats = append(feats, "N2_brown: "+e.brownCluster(n2))
		}
	}
	if e.resources.Vectors != nil {
		if v, ok := e.resources.Vectors[w]; ok {
			feats = append(feats, "W_w2v: "+v)
		}
	}
	if e.resources.Lexicon != nil {
		if classes, ok := e.resources.Lexicon[w]; ok {
			for _, c := range classes {
				feats = append(feats, "W_lex: "+c)
			}
		} else {
			feats = append(feats, "W_lex: N/A")
		}
	}

	e.staticSet.Add(key, feats)
	return feats
}

func appendFlags(feats []string, names []string, prefix string) []string {
	for _, name := range names {
		feats = append(feats, prefix+"_"+name)
	}
	return feats
}

func (e *Extractor) staticKey(sentence []string, i int) string {
	length := len(sentence)
	raw := make([]string, length+4)
	raw[0], raw[1] = "<START-2>", "<START-1>"
	copy(raw[2:], sentence)
	raw[length+2], raw[length+3] = "<END+1>", "<END+2>"
	j := i + 2
	var b strings.Builder
	b.WriteString(raw[j-2])
	b.WriteByte('\x1f')
	b.WriteString(raw[j-1])
	b.WriteByte('\x1f')
	b.WriteString(raw[j])
	b.WriteByte('\x1f')
	b.WriteString(raw[j+1])
	b.WriteByte('\x1f')
	b.WriteString(raw[j+2])
	b.WriteByte('\x1f')
	b.WriteString(sentence[i])
	b.WriteByte('\x1f')
	b.WriteString(strconv.Itoa(boundaryCode(i, length)))
	return b.String()
}

// boundaryCode encodes the four boundary guards that gate which
// features Static emits, so the feature-set cache key captures them
// without hashing the whole sentence.
func boundaryCode(i, length int) int {
	code := 0
	if i >= 1 {
		code |= 1
	}
	if i >= 2 {
		code |= 2
	}
	if i < length-1 {
		code |= 4
	}
	if i < length-2 {
		code |= 8
	}
	return code
}

// Latent computes the history-dependent feature set for the token at
// global position start+i, given the label prefix hypothesised so far
// for this sentence (spec §4.3.2). prefix holds exactly i label
// strings; history sentinels are prepended so tag[j-1]/tag[j-2] are
// always defined.
func (e *Extractor) Latent(start int, prefix []string, i int) []string {
	tags := make([]string, len(prefix)+2)
	tags[0], tags[1] = "<START-2>", "<START-1>"
	copy(tags[2:], prefix)
	j := i + 2
	p1, p2 := tags[j-1], tags[j-2]

	globalI := start + i
	feats := make([]string, 0, 9)
	if i >= 1 {
		feats = append(feats, fmt.Sprintf("P1_word, P1_pos: %s, %s", e.lowerAll[globalI-1], p1))
	}
	if i >= 2 {
		feats = append(feats, fmt.Sprintf("P2_word, P2_pos: %s, %s", e.lowerAll[globalI-2], p2))
	}
	feats = append(feats, "P1_pos: "+p1)
	feats = append(feats, "P2_pos: "+p2)
	feats = append(feats, fmt.Sprintf("P2_pos, P1_pos: %s, %s", p2, p1))
	feats = append(feats, fmt.Sprintf("P1_pos, W_word: %s, %s", p1, e.lowerAll[globalI]))

	if e.resources.Mapping != nil {
		wc1, wc2 := e.coarse(p1), e.coarse(p2)
		if i >= 1 {
			feats = append(feats, fmt.Sprintf("P1_word, P1_wc: %s, %s", e.lowerAll[globalI-1], wc1))
		}
		if i >= 2 {
			feats = append(feats, fmt.Sprintf("P2_word, P2_wc: %s, %s", e.lowerAll[globalI-2], wc2))
		}
		feats = append(feats, "P1_wc: "+wc1)
		feats = append(feats, "P2_wc: "+wc2)
		feats = append(feats, fmt.Sprintf("P2_wc, P1_wc: %s, %s", wc2, wc1))
		feats = append(feats, fmt.Sprintf("P1_wc, W_word: %s, %s", wc1, e.lowerAll[globalI]))
	}
	return feats
}

func (e *Extractor) coarse(label string) string {
	if label == "<START-2>" || label == "<START-1>" {
		return label
	}
	if coarse, ok := e.resources.Mapping[label]; ok {
		return coarse
	}
	return label
}

func (e *Extractor) brownCluster(word string) string {
	if entry, ok := e.resources.Brown[word]; ok {
		return entry.Cluster
	}
	return "N/A"
}

func (e *Extractor) brownFreq(word string) int {
	if entry, ok := e.resources.Brown[word]; ok {
		return entry.LogFreq
	}
	return 0
}

func paddedLower(sentence []string) []string {
	padded := make([]string, len(sentence)+4)
	padded[0], padded[1] = "<START-2>", "<START-1>"
	for i, tok := range sentence {
		padded[i+2] = strings.ToLower(tok)
	}
	padded[len(padded)-2], padded[len(padded)-1] = "<END+1>", "<END+2>"
	return padded
}

func roundLog(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Round(math.Log(float64(n))))
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
