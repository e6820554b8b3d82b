package sometag

import "errors"

// Sentinel errors returned by package sometag. Callers should compare
// with errors.Is, since most are wrapped with additional context.
var (
	// ErrMalformedCorpus is returned when a corpus line does not match
	// the expected token<TAB>label (or token-only) format.
	ErrMalformedCorpus = errors.New("malformed corpus line")

	// ErrUnknownCoarseLabel names the case of a fine label that has no
	// entry in a supplied tagset mapping. No function in this package
	// returns it: the Extractor uses such a label as its own coarse class.
	ErrUnknownCoarseLabel = errors.New("label missing from coarse tagset mapping")

	// ErrModelMismatch is returned when a loaded model's feature
	// vectors don't match its declared target size.
	ErrModelMismatch = errors.New("model weight vector length mismatch")

	// ErrIgnoreLabelCollision names the case of a configured ignore
	// label colliding with a registered label. No function in this
	// package returns it: Register skips labels equal to the ignore
	// label, and SetIgnoreLabel leaves already registered labels as they
	// are.
	ErrIgnoreLabelCollision = errors.New("ignore label collides with a registered label")
)
