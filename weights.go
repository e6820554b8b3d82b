package sometag

import "gonum.org/v1/gonum/mat"

// Store is a sparse map from feature signature to a dense weight
// vector over the label space, plus a parallel accumulator used for
// lazy averaging (Freund & Schapire 1999; Collins 2002).
//
// A feature absent from the map scores zero for every label. Dense
// inner vectors are deliberately preferred over a nested sparse map
// (feature -> label -> scalar): the label set per decision is small
// and dense, so scoring a feature is a single vector add, while the
// feature axis carries the large, sparse cardinality.
type Store struct {
	w    map[string]*mat.VecDense // current weights
	c    map[string]*mat.VecDense // cumulative-update counters
	size int

	// prior is an optional, read-only model from a previous run. Its
	// vectors are added into every score and folded into w at the end
	// of Average.
	prior *Store
}

// NewStore creates an empty Store sized for a label space of size.
func NewStore(size int) *Store {
	return &Store{
		w:    make(map[string]*mat.VecDense),
		c:    make(map[string]*mat.VecDense),
		size: size,
	}
}

// Size returns the current label-space dimension of every vector in
// the store.
func (s *Store) Size() int { return s.size }

// SetPrior attaches a read-only prior Store whose weights are added
// into every lookup and folded into w at the end of Average.
func (s *Store) SetPrior(prior *Store) { s.prior = prior }

// Prior returns the attached prior store, or nil.
func (s *Store) Prior() *Store { return s.prior }

// Grow extends every existing vector in w and c (but not in the prior
// store, which is read-only) with trailing zeros so its length matches
// newSize. It is a no-op if newSize <= the current size. Called by the
// label Registry's owner whenever registering a fit call's labels
// increases the in-use label count.
func (s *Store) Grow(newSize int) {
	if newSize <= s.size {
		return
	}
	for feat, vec := range s.w {
		s.w[feat] = growVec(vec, newSize)
	}
	for feat, vec := range s.c {
		s.c[feat] = growVec(vec, newSize)
	}
	s.size = newSize
}

func growVec(vec *mat.VecDense, newSize int) *mat.VecDense {
	grown := mat.NewVecDense(newSize, nil)
	n := vec.Len()
	for i := 0; i < n; i++ {
		grown.SetVec(i, vec.AtVec(i))
	}
	return grown
}

// ScoreStatic sums the weight vectors of every static feature that
// fires, plus the prior store's vectors for the same features if a
// prior is attached. Missing features contribute zero.
func (s *Store) ScoreStatic(features []string) *mat.VecDense {
	sum := mat.NewVecDense(s.size, nil)
	s.accumulate(sum, features, s.w)
	if s.prior != nil {
		s.accumulate(sum, features, s.prior.w)
	}
	return sum
}

// ScoreExtend returns a fresh copy of staticScore plus the summed
// contribution of latentFeatures (current store and, if attached,
// prior store).
func (s *Store) ScoreExtend(staticScore *mat.VecDense, latentFeatures []string) *mat.VecDense {
	total := mat.NewVecDense(s.size, nil)
	total.CopyVec(staticScore)
	s.accumulate(total, latentFeatures, s.w)
	if s.prior != nil {
		s.accumulate(total, latentFeatures, s.prior.w)
	}
	return total
}

func (s *Store) accumulate(into *mat.VecDense, features []string, table map[string]*mat.VecDense) {
	for _, feat := range features {
		vec, ok := table[feat]
		if !ok {
			continue
		}
		n := vec.Len()
		if n > into.Len() {
			n = into.Len()
		}
		for i := 0; i < n; i++ {
			into.SetVec(i, into.AtVec(i)+vec.AtVec(i))
		}
	}
}

// ApplyUpdate adjusts four scalars per feature in featureSet:
//
//	W[f][trueID]  += 1        C[f][trueID]  += counter
//	W[f][predID]  -= 1        C[f][predID]  -= counter
//
// If hasPred is false (the null-prediction path for an empty-candidate
// slot), only the true side is touched. Callers are responsible for
// the ignore-label no-op: ApplyUpdate never inspects label identity
// beyond indexing into the dense vector.
func (s *Store) ApplyUpdate(featureSet []string, trueID, predID int, hasPred bool, counter float64) {
	for _, feat := range featureSet {
		w, ok := s.w[feat]
		if !ok {
			w = mat.NewVecDense(s.size, nil)
			s.w[feat] = w
			s.c[feat] = mat.NewVecDense(s.size, nil)
		}
		c := s.c[feat]
		w.SetVec(trueID, w.AtVec(trueID)+1)
		c.SetVec(trueID, c.AtVec(trueID)+counter)
		if hasPred {
			w.SetVec(predID, w.AtVec(predID)-1)
			c.SetVec(predID, c.AtVec(predID)-counter)
		}
	}
}

// ApplyDualUpdate is ApplyUpdate for the common case where the true
// and predicted paths fired different feature sets (since each path's
// latent features depend on its own label history): goldFeats bump
// trueID up, predFeats bump predID down, each against its own set of
// features rather than a shared one.
func (s *Store) ApplyDualUpdate(goldFeats []string, trueID int, predFeats []string, predID int, counter float64) {
	s.bump(goldFeats, trueID, 1, counter)
	s.bump(predFeats, predID, -1, -counter)
}

func (s *Store) bump(featureSet []string, id int, delta, counterDelta float64) {
	for _, feat := range featureSet {
		w, ok := s.w[feat]
		if !ok {
			w = mat.NewVecDense(s.size, nil)
			s.w[feat] = w
			s.c[feat] = mat.NewVecDense(s.size, nil)
		}
		c := s.c[feat]
		w.SetVec(id, w.AtVec(id)+delta)
		c.SetVec(id, c.AtVec(id)+counterDelta)
	}
}

// Average replaces w with its time-average, w <- w - c/totalCounter,
// then folds in the prior store's weights (added, not replaced, since
// a feature may appear in both the trained and the prior model),
// detaches the prior, and discards c. The prior is detached because
// its contribution now lives permanently in w: leaving it attached
// would double-count it on every later ScoreStatic/ScoreExtend call.
// totalCounter must be the final, post-training counter value;
// callers must not call Average more than once per training run.
func (s *Store) Average(totalCounter float64) {
	if totalCounter != 0 {
		for feat, w := range s.w {
			c := s.c[feat]
			n := w.Len()
			for i := 0; i < n; i++ {
				w.SetVec(i, w.AtVec(i)-c.AtVec(i)/totalCounter)
			}
		}
	}
	if s.prior != nil {
		for feat, priorVec := range s.prior.w {
			if w, ok := s.w[feat]; ok {
				n := w.Len()
				for i := 0; i < n; i++ {
					w.SetVec(i, w.AtVec(i)+priorVec.AtVec(i))
				}
			} else {
				cp := mat.NewVecDense(s.size, nil)
				n := priorVec.Len()
				if n > s.size {
					n = s.size
				}
				for i := 0; i < n; i++ {
					cp.SetVec(i, priorVec.AtVec(i))
				}
				s.w[feat] = cp
			}
		}
	}
	s.prior = nil
	s.c = make(map[string]*mat.VecDense)
}

// Weight returns the current weight of feature f for label id, or 0 if
// the feature is unknown. It does not consult the prior store; it is
// meant for inspection and tests, not for scoring.
func (s *Store) Weight(f string, id int) float64 {
	vec, ok := s.w[f]
	if !ok || id >= vec.Len() {
		return 0
	}
	return vec.AtVec(id)
}

// setWeightVec installs vals verbatim as feature f's weight vector,
// bypassing the update/average machinery. Used only by model
// deserialization, which restores an already-averaged model.
func (s *Store) setWeightVec(f string, vals []float64) {
	vec := mat.NewVecDense(len(vals), vals)
	s.w[f] = vec
	if len(vals) > s.size {
		s.size = len(vals)
	}
}

// NumFeatures reports the number of distinct feature signatures
// currently stored in w.
func (s *Store) NumFeatures() int { return len(s.w) }

// Features returns the feature signatures currently stored in w. The
// order is unspecified; callers that need a stable order (e.g.
// serialization) should sort it.
func (s *Store) Features() []string {
	out := make([]string, 0, len(s.w))
	for f := range s.w {
		out = append(out, f)
	}
	return out
}
