package sometag

import (
	"regexp"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Word shape and word-flag predicates, per spec §4.3.3/§4.3.4. Both are
// pure functions of the raw token string, so both are memoised behind a
// bounded LRU (spec §5: "bounded LRU is sufficient... ~10K entries").

const shapeLongWord = 100

// wordShape maps each rune to X (upper letter), x (lower letter), d
// (digit), or itself, then collapses runs of the same shape character
// to at most 4 repeats. Tokens of length >= 100 collapse to "LONG".
func wordShape(word string) string {
	runes := []rune(word)
	if len(runes) >= shapeLongWord {
		return "LONG"
	}
	var b strings.Builder
	var last rune
	run := 0
	for _, r := range runes {
		var sc rune
		switch {
		case unicode.IsUpper(r):
			sc = 'X'
		case unicode.IsLower(r):
			sc = 'x'
		case unicode.IsDigit(r):
			sc = 'd'
		default:
			sc = r
		}
		if sc == last {
			run++
		} else {
			run = 0
			last = sc
		}
		if run < 4 {
			b.WriteRune(sc)
		}
	}
	return b.String()
}

var (
	emailRE = regexp.MustCompile(`(?i)^[\w.%+-]+(?:@| \[?at\]? )[\w.-]+(?:\.| \[?dot\]? )[a-zA-Z]{2,}$`)
	xmlRE   = regexp.MustCompile(`^</?[^>]+>$`)
	urlRE   = regexp.MustCompile(`(?i)^(?:(?:(?:https?|ftp|svn)://|(?:https?://)?www\.).+)|(?:[\w./-]+\.(?:de|com|org|net|edu|info|jpg|png|gif|log|txt)(?:-\w+)?)$`)
	mentionRE  = regexp.MustCompile(`^@\w+$`)
	hashtagRE  = regexp.MustCompile(`^#\w+$`)
	actwordRE  = regexp.MustCompile(`^[*+][^*]+[*]$`)
	punctRE    = regexp.MustCompile("^[](){}.!?…<>%‰€$£₤¥°@~*„“”‚‘\"'`´»«›‹,;:/*+=&%§~#^−–-]+$")
	ordinalRE  = regexp.MustCompile(`^(?:\d+\.)+$`)
	// Lookaround (?<!\w), (?![.,]?\d) from the reference implementation
	// has no RE2 equivalent; dropped, so this matches a slightly wider
	// set of number-shaped substrings than the original.
	numberRE = regexp.MustCompile(`[−+-]?\d*[.,]?\d+(?:[eE][−+-]?\d+)?|\d+[\d.,]*\d+`)
	// Backreference \1 and lookahead (?!\w) from the reference emoticon
	// regex have no RE2 equivalent; the repeated-mouth-character group
	// is approximated with a bounded quantifier instead of a backref.
	emoticonStructureRE = regexp.MustCompile(`^(?:(?:[:;]|8)[-'oO]?(?:\)+|\(+|[*]|[DPp]{1,3})|xD+|XD+|[:;][ ]+[()]|\^3)$`)
	// Frozen exact face list, longest-first so overlapping entries
	// don't shadow each other (mirrors the reference sort by length).
	emoticonFaces = sortByLengthDesc([]string{
		"(-.-)", "(T_T)", "(\u2665_\u2665)", ")':", ")-:",
		"(-:", ")=", ")o:", ")x", ":'C", ":/", ":<",
		":C", ":[", "=(", "=)", "=D", "=P", ">:",
		"D':", "D:", "\\:", "]:", "x(", "^^", "o.O",
		"oO", "\\O/", "\\m/", ":;))", "_))", "*_*",
		"._.", ":wink:", ">_<", "*<:-)", ":!:",
		":;-))",
	})
	emojiRE = regexp.MustCompile(`^[\x{2600}-\x{27BF}\x{1F300}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F900}-\x{1F9FF}]$`)
)

func sortByLengthDesc(faces []string) []string {
	out := append([]string(nil), faces...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isNumeric(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

func isLower(word string) bool {
	hasCased := false
	for _, r := range word {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			hasCased = true
		}
	}
	return hasCased
}

func isUpper(word string) bool {
	hasCased := false
	for _, r := range word {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

func isTitle(word string) bool {
	runes := []rune(word)
	if len(runes) == 0 {
		return false
	}
	expectUpper := true
	sawCased := false
	for _, r := range runes {
		letter := unicode.IsLetter(r)
		if !letter {
			expectUpper = true
			continue
		}
		if expectUpper {
			if !(unicode.IsUpper(r) || unicode.IsTitle(r)) {
				return false
			}
			sawCased = true
			expectUpper = false
		} else {
			if unicode.IsUpper(r) || unicode.IsTitle(r) {
				return false
			}
		}
	}
	return sawCased
}

func isEmoticon(word string) bool {
	if emoticonStructureRE.MatchString(word) {
		return true
	}
	for _, face := range emoticonFaces {
		if word == face {
			return true
		}
	}
	return false
}

// flagNames returns the names (without position prefix) of every
// word-flag predicate that fires on word.
func flagNames(word string) []string {
	var flags []string
	if isAlpha(word) {
		flags = append(flags, "isalpha")
	}
	if isNumeric(word) {
		flags = append(flags, "isnumeric")
	}
	if isLower(word) {
		flags = append(flags, "islower")
	}
	if isUpper(word) {
		flags = append(flags, "isupper")
	}
	if isTitle(word) {
		flags = append(flags, "istitle")
	}
	if emailRE.MatchString(word) {
		flags = append(flags, "isemail")
	}
	if xmlRE.MatchString(word) {
		flags = append(flags, "isxmltag")
	}
	if urlRE.MatchString(word) {
		flags = append(flags, "isurl")
	}
	if mentionRE.MatchString(word) {
		flags = append(flags, "ismention")
	}
	if hashtagRE.MatchString(word) {
		flags = append(flags, "ishashtag")
	}
	if actwordRE.MatchString(word) {
		flags = append(flags, "isactword")
	}
	if isEmoticon(word) {
		flags = append(flags, "isemoticon")
	}
	if emojiRE.MatchString(word) {
		flags = append(flags, "isemoji")
	}
	if punctRE.MatchString(word) {
		flags = append(flags, "ispunct")
	}
	if ordinalRE.MatchString(word) {
		flags = append(flags, "isordinal")
	}
	if numberRE.MatchString(word) {
		flags = append(flags, "isnumber")
	}
	return flags
}

// caches bundles the bounded LRUs used to memoise shape and flag
// computation, which are pure functions of the raw token.
type caches struct {
	shape *lru.Cache[string, string]
	flags *lru.Cache[string, []string]
}

const defaultCacheSize = 10240

func newCaches() *caches {
	shape, _ := lru.New[string, string](defaultCacheSize)
	flags, _ := lru.New[string, []string](defaultCacheSize)
	return &caches{shape: shape, flags: flags}
}

func (c *caches) shapeOf(word string) string {
	if v, ok := c.shape.Get(word); ok {
		return v
	}
	v := wordShape(word)
	c.shape.Add(word, v)
	return v
}

func (c *caches) flagsOf(word string) []string {
	if v, ok := c.flags.Get(word); ok {
		return v
	}
	v := flagNames(word)
	c.flags.Add(word, v)
	return v
}
