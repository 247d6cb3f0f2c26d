package rank

import "math"

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Document is a single candidate scored by BM25Score — its raw content,
// which BM25Score tokenizes, plus an id the caller can match results to.
type Document struct {
	ID      string
	Content string
}

// BM25Score scores query against the given candidate documents using Okapi
// BM25 with k1=1.5, b=0.75 (spec §4.1). It is deliberately stateless: the
// teacher's BM25Encoder (pkg/semantic-router/sparse.go) fits IDF once over a
// persistent corpus, but spec §4.1 requires BM25 to be recomputed fresh,
// scoped to the vector-retrieved shortlist, every call. Returns scores
// aligned index-for-index with docs; an empty query or empty docs returns
// all zeros.
func BM25Score(query string, docs []Document) []float64 {
	scores := make([]float64, len(docs))
	if len(docs) == 0 {
		return scores
	}

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return scores
	}

	docTokens := make([][]string, len(docs))
	totalLen := 0
	for i, d := range docs {
		docTokens[i] = Tokenize(d.Content)
		totalLen += len(docTokens[i])
	}
	avgLen := float64(totalLen) / float64(len(docs))
	if avgLen == 0 {
		avgLen = 1
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(queryTerms))
	for _, term := range uniq(queryTerms) {
		df := 0
		for _, toks := range docTokens {
			if containsTerm(toks, term) {
				df++
			}
		}
		idf[term] = math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}

	for i, toks := range docTokens {
		if len(toks) == 0 {
			continue
		}
		tf := termFreq(toks)
		docLen := float64(len(toks))
		var score float64
		for _, term := range queryTerms {
			f, ok := tf[term]
			if !ok {
				continue
			}
			numerator := float64(f) * (bm25K1 + 1)
			denominator := float64(f) + bm25K1*(1-bm25B+bm25B*(docLen/avgLen))
			score += idf[term] * (numerator / denominator)
		}
		scores[i] = score
	}

	return scores
}

func termFreq(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

func containsTerm(tokens []string, term string) bool {
	for _, t := range tokens {
		if t == term {
			return true
		}
	}
	return false
}

func uniq(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
