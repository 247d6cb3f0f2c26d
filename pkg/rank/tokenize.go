// Package rank implements the engine's lexical scoring primitives:
// tokenization, Okapi BM25 over a candidate set, and the small math kernel
// (cosine similarity, min-max normalization, clamp) the retrieval pipeline
// fuses against vector scores. Grounded on the teacher's
// pkg/semantic-router/sparse.go tokenize()/BM25Encoder, generalized from a
// fitted bilingual encoder to a stateless scorer over an explicit English
// stopword list, per spec §4.1.
package rank

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// stopwords is the fixed English stopword list dropped during tokenization,
// roughly the size spec §4.1 calls for (~110 words).
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "aren't": {},
	"as": {}, "at": {}, "be": {}, "because": {}, "been": {}, "before": {},
	"being": {}, "below": {}, "between": {}, "both": {}, "but": {}, "by": {},
	"can't": {}, "cannot": {}, "could": {}, "couldn't": {}, "did": {}, "didn't": {},
	"do": {}, "does": {}, "doesn't": {}, "doing": {}, "don't": {}, "down": {},
	"during": {}, "each": {}, "few": {}, "for": {}, "from": {}, "further": {},
	"had": {}, "hadn't": {}, "has": {}, "hasn't": {}, "have": {}, "haven't": {},
	"having": {}, "he": {}, "her": {}, "here": {}, "hers": {}, "herself": {},
	"him": {}, "himself": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "isn't": {}, "it": {}, "its": {}, "itself": {},
	"let's": {}, "me": {}, "more": {}, "most": {}, "mustn't": {}, "my": {},
	"myself": {}, "no": {}, "nor": {}, "not": {}, "of": {}, "off": {}, "on": {},
	"once": {}, "only": {}, "or": {}, "other": {}, "ought": {}, "our": {},
	"ours": {}, "ourselves": {}, "out": {}, "over": {}, "own": {}, "same": {},
	"shan't": {}, "she": {}, "should": {}, "shouldn't": {}, "so": {}, "some": {},
	"such": {}, "than": {}, "that": {}, "that's": {}, "the": {}, "their": {},
	"theirs": {}, "them": {}, "themselves": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "through": {}, "to": {},
	"too": {}, "under": {}, "until": {}, "up": {}, "very": {}, "was": {},
	"wasn't": {}, "we": {}, "were": {}, "weren't": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {},
	"with": {}, "won't": {}, "would": {}, "wouldn't": {}, "you": {}, "you'd": {},
	"you'll": {}, "you're": {}, "you've": {}, "your": {}, "yours": {}, "yourself": {},
	"yourselves": {},
}

// Tokenize lowercases text, replaces non-word/non-space runes with spaces,
// splits on whitespace, and drops stopwords and tokens of length <= 1.
// Order is preserved.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := nonWord.ReplaceAllString(lowered, " ")
	fields := strings.Fields(cleaned)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 1 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
