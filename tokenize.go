package sometag

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenTester reports whether a candidate token should be treated as
// unsplittable.
type TokenTester func(string) bool

// Tokenizer splits raw, untokenised text into words, for the raw-text
// tagging mode (spec's supplemented feature: tagging input that hasn't
// already been pre-tokenised one-word-per-line).
type Tokenizer struct {
	specialRE      *regexp.Regexp
	sanitizer      *strings.Replacer
	contractions   []string
	splitCases     []string
	suffixes       []string
	prefixes       []string
	emoticons      map[string]struct{}
	isUnsplittable TokenTester
}

// TokenizerOptFunc customises a Tokenizer built by NewTokenizer.
type TokenizerOptFunc func(*Tokenizer)

// UsingIsUnsplittable sets a predicate that marks a candidate token as
// unsplittable regardless of the other splitting rules.
func UsingIsUnsplittable(x TokenTester) TokenizerOptFunc {
	return func(t *Tokenizer) { t.isUnsplittable = x }
}

// UsingSpecialRE overrides the regex that marks a token as unsplittable.
func UsingSpecialRE(x *regexp.Regexp) TokenizerOptFunc {
	return func(t *Tokenizer) { t.specialRE = x }
}

// UsingSanitizer overrides the pre-tokenization character replacer.
func UsingSanitizer(x *strings.Replacer) TokenizerOptFunc {
	return func(t *Tokenizer) { t.sanitizer = x }
}

// UsingSuffixes overrides the list of strippable trailing punctuation.
func UsingSuffixes(x []string) TokenizerOptFunc {
	return func(t *Tokenizer) { t.suffixes = x }
}

// UsingPrefixes overrides the list of strippable leading punctuation.
func UsingPrefixes(x []string) TokenizerOptFunc {
	return func(t *Tokenizer) { t.prefixes = x }
}

// UsingEmoticons overrides the frozen set of unsplittable emoticons.
func UsingEmoticons(x map[string]struct{}) TokenizerOptFunc {
	return func(t *Tokenizer) { t.emoticons = x }
}

// UsingContractions overrides the list of contraction suffixes.
func UsingContractions(x []string) TokenizerOptFunc {
	return func(t *Tokenizer) { t.contractions = x }
}

// NewTokenizer builds a Tokenizer with the package defaults, as
// modified by opts.
func NewTokenizer(opts ...TokenizerOptFunc) *Tokenizer {
	t := &Tokenizer{
		contractions:   contractions,
		emoticons:      emoticons,
		isUnsplittable: func(_ string) bool { return false },
		prefixes:       prefixes,
		sanitizer:      sanitizer,
		specialRE:      internalRE,
		suffixes:       suffixes,
	}
	for _, apply := range opts {
		apply(t)
	}
	t.splitCases = append(t.splitCases, t.contractions...)
	return t
}

func addToken(s string, toks []string) []string {
	if strings.TrimSpace(s) != "" {
		toks = append(toks, s)
	}
	return toks
}

func (t *Tokenizer) isSpecial(token string) bool {
	_, found := t.emoticons[token]
	return found || t.specialRE.MatchString(token) || t.isUnsplittable(token)
}

func (t *Tokenizer) doSplit(token string) []string {
	var tokens []string
	var suffs []string

	last := 0
	for token != "" && utf8.RuneCountInString(token) != last {
		if t.isSpecial(token) {
			tokens = addToken(token, tokens)
			break
		}
		last = utf8.RuneCountInString(token)
		lower := strings.ToLower(token)
		switch {
		case hasAnyPrefix(token, t.prefixes):
			// Remove prefixes -- e.g., $100 -> [$, 100].
			tokens = addToken(string(token[0]), tokens)
			token = token[1:]
		case hasAnyIndex(lower, t.splitCases) > -1:
			// Handle "they'll", "don't", "amount($)".
			idx := hasAnyIndex(lower, t.splitCases)
			tokens = addToken(token[:idx], tokens)
			token = token[idx:]
		case hasAnySuffix(token, t.suffixes):
			// Remove suffixes -- e.g., Well) -> [Well, )].
			suffs = append([]string{string(token[len(token)-1])}, suffs...)
			token = token[:len(token)-1]
		default:
			tokens = addToken(token, tokens)
		}
	}

	return append(tokens, suffs...)
}

// Tokenize splits text into a slice of word tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string

	clean, white := t.sanitizer.Replace(text), false
	length := len(clean)

	start, index := 0, 0
	cache := map[string][]string{}
	for index <= length {
		uc, size := utf8.DecodeRuneInString(clean[index:])
		if size == 0 {
			break
		} else if index == 0 {
			white = unicode.IsSpace(uc)
		}
		if unicode.IsSpace(uc) != white {
			if start < index {
				span := clean[start:index]
				if toks, found := cache[span]; found {
					tokens = append(tokens, toks...)
				} else {
					toks := t.doSplit(span)
					cache[span] = toks
					tokens = append(tokens, toks...)
				}
			}
			if uc == ' ' {
				start = index + 1
			} else {
				start = index
			}
			white = !white
		}
		index += size
	}

	if start < index {
		tokens = append(tokens, t.doSplit(clean[start:index])...)
	}

	return tokens
}

var internalRE = regexp.MustCompile(`^(?:[A-Za-z]\.){2,}$|^[A-Z][a-z]{1,2}\.$`)
var sanitizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"&rsquo;", "'")
var contractions = []string{"'ll", "'s", "'re", "'m", "n't"}
var suffixes = []string{",", ")", `"`, "]", "!", ";", ".", "?", ":", "'"}
var prefixes = []string{"$", "(", `"`, "["}
var emoticons = map[string]struct{}{
	"(-8": {}, "(-;": {}, "(-_-)": {}, "(._.)": {}, "(:": {}, "(=": {},
	"(o:": {}, "(¬_¬)": {}, "(ಠ_ಠ)": {}, "(╯°□°）╯︵┻━┻": {}, "-__-": {},
	"8-)": {}, "8-D": {}, "8D": {}, ":(": {}, ":((": {}, ":(((": {},
	":()": {}, ":)))": {}, ":-)": {}, ":-))": {}, ":-)))": {}, ":-*": {},
	":-/": {}, ":-X": {}, ":-]": {}, ":-o": {}, ":-p": {}, ":-x": {},
	":-|": {}, ":-}": {}, ":0": {}, ":3": {}, ":P": {}, ":]": {},
	":`(": {}, ":`)": {}, ":`-(": {}, ":o": {}, ":o)": {}, "=(": {},
	"=)": {}, "=D": {}, "=|": {}, "@_@": {}, "O.o": {}, "O_o": {},
	"V_V": {}, "XDD": {}, "[-:": {}, "^___^": {}, "o_0": {}, "o_O": {},
	"o_o": {}, "v_v": {}, "xD": {}, "xDD": {}, "¯\\(ツ)/¯": {},
}
