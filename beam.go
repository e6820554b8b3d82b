package sometag

import (
	"sort"
	"strings"
)

// DefaultBeamWidth and DefaultBeamHistory mirror the reference
// implementation's defaults: a beam of 5 hypotheses, recombined on
// their trailing 2 labels (the window the latent feature extractor
// actually conditions on).
const (
	DefaultBeamWidth   = 5
	DefaultBeamHistory = 2
)

// candidate is one partial-sequence hypothesis carried in the beam: the
// labels hypothesised so far for the sentence, and the cumulative score
// of that path.
type candidate struct {
	labels []string
	score  float64
}

// historyKey returns the trailing min(len(labels), h) labels, joined,
// which is the recombination key: two hypotheses that agree on this
// suffix will score every future extension identically, since the
// extractor's latent features only ever look back h positions.
func historyKey(labels []string, h int) string {
	n := len(labels)
	if n > h {
		n = h
	}
	return strings.Join(labels[len(labels)-n:], "\x1f")
}

// beamStep expands every candidate in beam by one position, scores
// every (candidate, label) extension, recombines hypotheses that share
// the same trailing history, and returns the top beamWidth survivors
// sorted by descending score (ties broken toward the smaller label id,
// per the registry's rarest-first id assignment, and then toward the
// extension of the higher-ranked hypothesis in beam).
func beamStep(beam []candidate, reg *Registry, ext *Extractor, staticScore []float64, staticFeats []string, store *Store, start, pos, beamWidth, historyH int) []candidate {
	type expanded struct {
		candidate
		lastID int
	}
	expansions := make([]expanded, 0, len(beam)*reg.Size())

	for _, c := range beam {
		latentFeats := ext.Latent(start, c.labels, pos)
		extra := make([]float64, reg.Size())
		for _, f := range latentFeats {
			store.addLatentInto(extra, f)
		}
		for id := 0; id < reg.Size(); id++ {
			label := reg.LabelOf(id)
			labels := make([]string, len(c.labels)+1)
			copy(labels, c.labels)
			labels[len(c.labels)] = label
			expansions = append(expansions, expanded{
				candidate: candidate{labels: labels, score: c.score + staticScore[id] + extra[id]},
				lastID:    id,
			})
		}
	}

	best := make(map[string]int, len(expansions))
	for i, e := range expansions {
		key := historyKey(e.labels, historyH)
		j, ok := best[key]
		if !ok || e.score > expansions[j].score || (e.score == expansions[j].score && e.lastID < expansions[j].lastID) {
			best[key] = i
		}
	}

	survivors := make([]expanded, 0, len(best))
	for i, e := range expansions {
		if best[historyKey(e.labels, historyH)] == i {
			survivors = append(survivors, e)
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].score != survivors[j].score {
			return survivors[i].score > survivors[j].score
		}
		return survivors[i].lastID < survivors[j].lastID
	})
	if len(survivors) > beamWidth {
		survivors = survivors[:beamWidth]
	}

	out := make([]candidate, len(survivors))
	for i, e := range survivors {
		out[i] = e.candidate
	}
	return out
}

// computeStaticScores evaluates every label's static-feature score at
// sentence-local position pos, shared by every candidate since static
// features do not depend on label history.
func computeStaticScores(store *Store, feats []string) []float64 {
	vec := store.ScoreStatic(feats)
	out := make([]float64, vec.Len())
	for i := range out {
		out[i] = vec.AtVec(i)
	}
	return out
}

// Decode runs beam search over sentence (whose tokens begin at the
// absolute offset start within the extractor's global token stream)
// and returns the highest-scoring label sequence.
func Decode(store *Store, reg *Registry, ext *Extractor, sentence []string, start, beamWidth, historyH int) []string {
	if len(sentence) == 0 {
		return nil
	}
	beam := []candidate{{labels: nil, score: 0}}
	for pos := range sentence {
		feats := ext.Static(sentence, pos)
		staticScore := computeStaticScores(store, feats)
		beam = beamStep(beam, reg, ext, staticScore, feats, store, start, pos, beamWidth, historyH)
	}
	if len(beam) == 0 {
		return nil
	}
	return beam[0].labels
}

// DecodeTrain runs beam search with early update (Collins & Roark
// 2004): decoding stops as soon as gold[:pos+1] is not a prefix of any
// surviving beam hypothesis, ignore-labeled positions excepted (a
// candidate agrees with gold at an ignore-labeled position regardless
// of what it predicted there). It returns the surviving beam (possibly
// truncated to the fall-off position), the number of positions
// actually decoded before stopping, and whether gold survived the
// entire sentence without falling off.
func DecodeTrain(store *Store, reg *Registry, ext *Extractor, sentence, gold []string, start, beamWidth, historyH int) (beam []candidate, decoded int, matched bool) {
	ignoreLabel, hasIgnore := "", false
	if id, ok := reg.IgnoreID(); ok {
		ignoreLabel, hasIgnore = reg.LabelOf(id), true
	}

	beam = []candidate{{labels: nil, score: 0}}
	for pos := range sentence {
		feats := ext.Static(sentence, pos)
		staticScore := computeStaticScores(store, feats)
		beam = beamStep(beam, reg, ext, staticScore, feats, store, start, pos, beamWidth, historyH)

		goldPrefix := gold[:pos+1]
		survives := false
		for _, c := range beam {
			if matchesIgnoring(c.labels, goldPrefix, ignoreLabel, hasIgnore) {
				survives = true
				break
			}
		}
		if !survives {
			return beam, pos + 1, false
		}
	}
	return beam, len(sentence), true
}

// matchesIgnoring reports whether a equals gold, except that a position
// where gold holds the ignore label is skipped rather than compared:
// per spec, a surviving beam's prefix only needs to agree with gold at
// non-ignored positions
// (someweta/averaged_structured_perceptron.py:149 skips the same way).
func matchesIgnoring(a, gold []string, ignoreLabel string, hasIgnore bool) bool {
	if len(a) != len(gold) {
		return false
	}
	for i := range gold {
		if hasIgnore && gold[i] == ignoreLabel {
			continue
		}
		if a[i] != gold[i] {
			return false
		}
	}
	return true
}

// addLatentInto adds feature f's weight vector (current store plus, if
// attached, prior store) into dst, elementwise, bounds-safe.
func (s *Store) addLatentInto(dst []float64, f string) {
	if vec, ok := s.w[f]; ok {
		n := vec.Len()
		if n > len(dst) {
			n = len(dst)
		}
		for i := 0; i < n; i++ {
			dst[i] += vec.AtVec(i)
		}
	}
	if s.prior != nil {
		if vec, ok := s.prior.w[f]; ok {
			n := vec.Len()
			if n > len(dst) {
				n = len(dst)
			}
			for i := 0; i < n; i++ {
				dst[i] += vec.AtVec(i)
			}
		}
	}
}
