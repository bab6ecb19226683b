// Package mapreduce counts tokens per document and looks vocabulary terms up in the counts.
package mapreduce

import "github.com/dtnitsch/doculens/pkg/vocabulary"

// TermCount is the number of times one vocabulary term occurs in one document.
type TermCount struct {
	Term  int // position in the vocabulary
	Count int
	Mean  float64 // Count divided by the document's token total, 0 for empty documents
}

// Map generates a token frequency map for a single document in one pass.
func Map(tokens []string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

// Count looks every vocabulary term up in a document's frequency map.
// The result has one entry per term, in vocabulary order.
func Count(vocab *vocabulary.Vocabulary, freq map[string]int, tokens int) []TermCount {
	terms := vocab.Terms()
	counts := make([]TermCount, len(terms))
	for i, term := range terms {
		n := freq[term.Key]
		counts[i] = TermCount{Term: i, Count: n, Mean: Mean(n, tokens)}
	}
	return counts
}

// Zero returns an all-zero count list for a document that could not be read.
func Zero(vocab *vocabulary.Vocabulary) []TermCount {
	counts := make([]TermCount, vocab.Len())
	for i := range counts {
		counts[i].Term = i
	}
	return counts
}

// Mean divides count by tokens, returning 0 when tokens is 0.
func Mean(count, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(count) / float64(tokens)
}

// Reduce aggregates a slice of frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}
