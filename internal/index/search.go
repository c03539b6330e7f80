package index

import (
	"sort"
	"strings"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// SearchOptions narrows a similarity search.
type SearchOptions struct {
	// Pricing restricts results to documents whose pricing metadata matches
	// (case-insensitive). Empty means no restriction.
	Pricing string
}

// Search returns up to topK documents ranked by descending cosine
// similarity to the query vector. Ties are broken by insertion order, so
// retrieval is deterministic for a fixed index and query. The index is not
// mutated.
func (ix *Index) Search(vector []float64, topK int, opts SearchOptions) ([]domain.SearchResult, error) {
	if ix.Len() == 0 {
		return nil, ErrIndexUnavailable
	}
	if len(vector) != ix.Manifest.Dim {
		return nil, ErrVectorLengthMismatch
	}
	if topK <= 0 {
		topK = 10
	}

	pricing := strings.TrimSpace(opts.Pricing)
	var candidates []int
	for i := range ix.Docs {
		if pricing != "" && !strings.EqualFold(ix.Docs[i].Metadata["pricing"], pricing) {
			continue
		}
		candidates = append(candidates, i)
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		s, err := Cosine(ix.vectorAt(c), vector)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if topK > len(order) {
		topK = len(order)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := order[i]
		results = append(results, domain.SearchResult{Document: ix.Docs[candidates[j]], Score: scores[j]})
	}
	return results, nil
}
