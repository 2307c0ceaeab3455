// Package fusion merges independently ranked retrieval result sets into
// a single consensus ranking using reciprocal rank fusion. The price
// resolver issues several query variants against the contract knowledge
// base and fuses the per-query rankings before building the answer
// context.
package fusion

import (
	"encoding/json"
	"sort"

	"github.com/sells-group/recon-cli/internal/model"
)

// DefaultK is the rank-smoothing constant in the 1/(rank+k) formula.
const DefaultK = 4

// ScoredDocument is a document with its accumulated fusion score.
type ScoredDocument struct {
	Document model.Document
	Score    float64
}

// Fuse folds multiple ranked lists into one ranking. Each document at
// 0-based position rank in a list contributes 1/(rank+k) to its total;
// structurally identical documents across lists accumulate one combined
// score. Output is sorted by descending score, ties keeping first-seen
// order. A k below 1 falls back to DefaultK. Pure: no I/O, deterministic
// for a given input.
func Fuse(results [][]model.Document, k int) []ScoredDocument {
	if k < 1 {
		k = DefaultK
	}

	scores := make(map[string]float64)
	docs := make(map[string]model.Document)
	var order []string

	for _, ranked := range results {
		for rank, doc := range ranked {
			key := canonicalKey(doc)
			if _, seen := scores[key]; !seen {
				order = append(order, key)
				docs[key] = doc
			}
			scores[key] += 1.0 / float64(rank+k)
		}
	}

	fused := make([]ScoredDocument, 0, len(order))
	for _, key := range order {
		fused = append(fused, ScoredDocument{Document: docs[key], Score: scores[key]})
	}

	// Stable sort preserves insertion order among equal scores.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}

// canonicalKey serializes a document so that structurally identical
// documents retrieved by different queries collapse to one entry.
// encoding/json emits map keys in sorted order, so the key is stable.
func canonicalKey(doc model.Document) string {
	b, err := json.Marshal(doc)
	if err != nil {
		// Document is plain strings and maps; Marshal cannot fail here.
		return doc.PageContent
	}
	return string(b)
}

// Top returns the documents of the first n fused results, or all of
// them when fewer than n exist.
func Top(fused []ScoredDocument, n int) []model.Document {
	if n > len(fused) {
		n = len(fused)
	}
	docs := make([]model.Document, 0, n)
	for _, sd := range fused[:n] {
		docs = append(docs, sd.Document)
	}
	return docs
}
