package index

import (
	"context"
	"fmt"
	"time"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// BuildOptions controls index building.
type BuildOptions struct {
	// Progress, if set, is called after each document is embedded.
	Progress func(done, total int)
}

// Build embeds every document and assembles an in-memory index. The build is
// all-or-nothing: any embedding failure aborts with a diagnostic naming the
// failed record, and nothing is persisted. Vectors are L2-normalized so that
// cosine similarity reduces to a dot product at query time.
func Build(ctx context.Context, emb domain.Embedder, docs []domain.Document, opts BuildOptions) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to index")
	}

	var (
		vectors []float64
		dim     int
	)
	for i, doc := range docs {
		vec, err := emb.Embed(ctx, doc.Text)
		if err != nil {
			return nil, fmt.Errorf("embed document %s (%s): %w", doc.ID, doc.Metadata["name"], err)
		}
		if dim == 0 {
			dim = len(vec)
			vectors = make([]float64, 0, len(docs)*dim)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("embedding dim changed mid-run at %s: got %d want %d", doc.ID, len(vec), dim)
		}
		vectors = append(vectors, NormalizeL2(vec)...)
		if opts.Progress != nil {
			opts.Progress(i+1, len(docs))
		}
	}

	manifest := Manifest{
		IndexVersion: CurrentVersion,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ModelID:      emb.ModelID(),
		Dim:          dim,
		Normalize:    true,
		VectorFile:   "vectors.f64",
		DocsFile:     "docs.jsonl",
	}
	return &Index{Manifest: manifest, Docs: docs, Vectors: vectors}, nil
}
