package vectorize

import (
	"context"
	"math"
	"regexp"
	"sort"
)

// termPattern keeps runs of two or more word characters.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TFIDF fits a term-frequency / inverse-document-frequency model on exactly
// the two documents being compared. Weights are therefore relative to the
// pair: the same document gets a different vector for a different partner.
type TFIDF struct{}

// NewTFIDF creates the per-pair TF-IDF vectorizer.
func NewTFIDF() *TFIDF {
	return &TFIDF{}
}

// Name returns the identifier of this vectorizer.
func (t *TFIDF) Name() string { return "tfidf" }

// VectorizePair fits the model on {a, b} and returns both L2-normalized
// vectors. Empty or disjoint documents yield zero or orthogonal vectors.
func (t *TFIDF) VectorizePair(_ context.Context, a, b string) (Vector, Vector, error) {
	m := fitModel([]string{a, b})
	return m.transform(a), m.transform(b), nil
}

// Corpus is a TF-IDF model fitted once over a whole corpus (the candidate
// plus every reference) so that weights are consistent across comparisons.
// It is read-only after construction.
type Corpus struct {
	model *tfidfModel
}

// NewCorpus fits the model over the provided normalized documents.
func NewCorpus(documents []string) *Corpus {
	return &Corpus{model: fitModel(documents)}
}

// Name returns the identifier of this vectorizer.
func (c *Corpus) Name() string { return "tfidf-global" }

// Dimension returns the size of the fitted vocabulary.
func (c *Corpus) Dimension() int { return len(c.model.idf) }

// VectorizePair projects both texts onto the fitted vocabulary. Terms that
// were not seen during fitting are ignored.
func (c *Corpus) VectorizePair(_ context.Context, a, b string) (Vector, Vector, error) {
	return c.model.transform(a), c.model.transform(b), nil
}

type tfidfModel struct {
	vocabulary map[string]int
	idf        []float64
}

func fitModel(corpus []string) *tfidfModel {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	m := &tfidfModel{
		vocabulary: make(map[string]int, len(vocab)),
		idf:        make([]float64, len(vocab)),
	}
	n := float64(len(corpus))
	for i, term := range vocab {
		m.vocabulary[term] = i
		// smoothed idf, as if one extra document contained every term
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return m
}

func (m *tfidfModel) transform(text string) Vector {
	vec := make(Vector, len(m.idf))
	for _, term := range terms(text) {
		if idx, ok := m.vocabulary[term]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for idx, count := range vec {
		if count == 0 {
			continue
		}
		vec[idx] = count * m.idf[idx]
		norm += vec[idx] * vec[idx]
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func terms(text string) []string {
	return termPattern.FindAllString(text, -1)
}
