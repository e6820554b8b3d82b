package sometag

import (
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
)

// modelFile is the exact on-disk shape: a flat JSON array of 8
// elements, gzip-compressed, in this order: vocabulary, lexicon,
// brown_clusters, word_to_vec, target_mapping, target_size,
// feature_list, weight_vectors (spec §6; someweta/tagger.py:169-203's
// save/load). This layout is compatibility-critical: field identity
// and order, not just element count, must match. Beam width/history
// and the ignore label are deliberately absent - the reference
// implementation never persists them either, since they are supplied
// fresh on every invocation (-b/--ignore-tag). Weight vectors are
// stored as base85 text (see base85.go) rather than a JSON number
// array, matching the reference implementation's compact
// serialization.
type modelFile struct {
	Vocabulary    []string
	Lexicon       map[string][]string
	Brown         map[string]BrownEntry
	WordToVec     map[string][]string
	TargetMapping map[string]int
	TargetSize    int
	Features      []string
	WeightsB85    []string
}

// MarshalJSON renders the model as the flat 8-element array the file
// format expects, instead of a JSON object.
func (m modelFile) MarshalJSON() ([]byte, error) {
	arr := []interface{}{
		m.Vocabulary,
		m.Lexicon,
		m.Brown,
		m.WordToVec,
		m.TargetMapping,
		m.TargetSize,
		m.Features,
		m.WeightsB85,
	}
	return json.Marshal(arr)
}

// UnmarshalJSON parses the flat 8-element array back into a modelFile.
func (m *modelFile) UnmarshalJSON(data []byte) error {
	var arr [8]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("%w: %v", ErrModelMismatch, err)
	}
	fields := []interface{}{
		&m.Vocabulary, &m.Lexicon, &m.Brown, &m.WordToVec,
		&m.TargetMapping, &m.TargetSize, &m.Features, &m.WeightsB85,
	}
	for i, f := range fields {
		if err := json.Unmarshal(arr[i], f); err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrModelMismatch, i, err)
		}
	}
	return nil
}

// encodeVec renders a weight vector as little-endian float64s, then
// base85 text.
func encodeVec(values []float64) string {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return base85Encode(buf)
}

// decodeVec inverts encodeVec.
func decodeVec(s string, length int) ([]float64, error) {
	buf, err := base85DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf) < length*8 {
		return nil, ErrModelMismatch
	}
	out := make([]float64, length)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

// wordToVecToFields splits each stored "v1 v2 ... vN" string back into
// its raw field list, the shape the reference format persists
// word_to_vec entries as (someweta/utils.py's read_word2vec_vectors
// keeps the fields as strings, never parsing them to float).
func wordToVecToFields(vectors map[string]string) map[string][]string {
	if vectors == nil {
		return nil
	}
	out := make(map[string][]string, len(vectors))
	for word, v := range vectors {
		out[word] = splitFields(v)
	}
	return out
}

// wordToVecFromFields inverts wordToVecToFields, rejoining each word's
// fields into the single space-separated string the Extractor expects
// as a feature value.
func wordToVecFromFields(fields map[string][]string) map[string]string {
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for word, f := range fields {
		out[word] = joinFields(f)
	}
	return out
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += f
	}
	return out
}

// SaveModel gzip-compresses and writes a JSON-serialized snapshot of
// reg, store, resources, and the training vocabulary to w, in the
// field order modelFile documents. The coarse-tagset mapping is
// intentionally excluded: the reference implementation never persists
// it either, since it is supplied fresh at tag/evaluate time via
// --mapping.
func SaveModel(w io.Writer, reg *Registry, store *Store, resources Resources, vocab map[string]bool) error {
	vocabulary := make([]string, 0, len(vocab))
	for word := range vocab {
		vocabulary = append(vocabulary, word)
	}
	sort.Strings(vocabulary)

	targetMapping := make(map[string]int)
	for _, label := range reg.Labels() {
		id, _ := reg.IDOf(label)
		targetMapping[label] = id
	}

	features := store.Features()
	sort.Strings(features)
	weights := make([]string, len(features))
	size := store.Size()
	for i, f := range features {
		vals := make([]float64, size)
		for id := 0; id < size; id++ {
			vals[id] = store.Weight(f, id)
		}
		weights[i] = encodeVec(vals)
	}

	mf := modelFile{
		Vocabulary:    vocabulary,
		Lexicon:       resources.Lexicon,
		Brown:         resources.Brown,
		WordToVec:     wordToVecToFields(resources.Vectors),
		TargetMapping: targetMapping,
		TargetSize:    reg.Size(),
		Features:      features,
		WeightsB85:    weights,
	}

	gz := gzip.NewWriter(w)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(mf); err != nil {
		gz.Close()
		return fmt.Errorf("encoding model: %w", err)
	}
	return gz.Close()
}

// LoadModel reads a model previously written by SaveModel, returning a
// freshly constructed Registry (with the exact label->id assignment
// the model was trained with), Store, the persisted Resources
// (everything but the coarse-tagset mapping, which isn't part of the
// file), and the training vocabulary.
func LoadModel(r io.Reader) (reg *Registry, store *Store, resources Resources, vocab map[string]bool, err error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, Resources{}, nil, fmt.Errorf("opening model: %w", err)
	}
	defer gz.Close()

	var mf modelFile
	if err := json.NewDecoder(gz).Decode(&mf); err != nil {
		return nil, nil, Resources{}, nil, fmt.Errorf("decoding model: %w", err)
	}
	if len(mf.WeightsB85) != len(mf.Features) {
		return nil, nil, Resources{}, nil, fmt.Errorf("%w: feature/weight count mismatch", ErrModelMismatch)
	}

	labelsByID := make([]string, len(mf.TargetMapping))
	for label, id := range mf.TargetMapping {
		if id < 0 || id >= len(labelsByID) {
			return nil, nil, Resources{}, nil, fmt.Errorf("%w: target_mapping id %d out of range", ErrModelMismatch, id)
		}
		labelsByID[id] = label
	}

	reg = NewRegistry()
	reg.Register(labelsByID)

	store = NewStore(mf.TargetSize)
	for i, f := range mf.Features {
		vals, err := decodeVec(mf.WeightsB85[i], mf.TargetSize)
		if err != nil {
			return nil, nil, Resources{}, nil, fmt.Errorf("feature %q: %w", f, err)
		}
		store.setWeightVec(f, vals)
	}

	resources = Resources{
		Lexicon: mf.Lexicon,
		Brown:   mf.Brown,
		Vectors: wordToVecFromFields(mf.WordToVec),
	}

	vocab = make(map[string]bool, len(mf.Vocabulary))
	for _, word := range mf.Vocabulary {
		vocab[word] = true
	}

	return reg, store, resources, vocab, nil
}

// LoadPrior reads a model the same way LoadModel does, but returns
// only its Store, intended to be attached via Store.SetPrior on a
// fresh Store being trained from scratch (spec's asymmetric
// prior-model folding: someweta/tagger.py's load_prior_model restores
// only vocabulary, target_mapping, target_size and weights - not
// lexicon, brown_clusters or word_to_vec - so Tagger.LoadPriorModel
// must apply the rest of the fold-in itself).
func LoadPrior(r io.Reader) (*Store, error) {
	_, store, _, _, err := LoadModel(r)
	return store, err
}
