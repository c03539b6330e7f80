package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// fakeEmbedder produces deterministic pseudo-random vectors from the text.
type fakeEmbedder struct {
	dim    int
	failAt int // 1-based call number to fail on; 0 means never
	calls  int
}

func (f *fakeEmbedder) ModelID() string { return "fake:test" }
func (f *fakeEmbedder) Dimension() int  { return f.dim }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, errors.New("quota exceeded")
	}
	return vectorFor(text, f.dim), nil
}

func vectorFor(text string, dim int) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	v := make([]float64, dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float64(seed%1000)/1000.0 + 0.001
	}
	return v
}

func testDocs(n int) []domain.Document {
	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{
			ID:       fmt.Sprintf("tool-%d", i),
			Text:     fmt.Sprintf("Tool Name: Tool%d\n\nDescription: does thing %d", i, i),
			Metadata: map[string]string{"name": fmt.Sprintf("Tool%d", i), "pricing": "Free"},
		}
	}
	return docs
}

func TestBuildSaveLoadQueryRoundTrip(t *testing.T) {
	emb := &fakeEmbedder{dim: 16}
	docs := testDocs(6)
	built, err := Build(context.Background(), emb, docs, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 16, built.Manifest.Dim)
	assert.Equal(t, "fake:test", built.Manifest.ModelID)

	dir := filepath.Join(t.TempDir(), "vectorstore")
	require.NoError(t, Save(dir, built))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.Len())
	assert.Equal(t, built.Manifest.Dim, loaded.Manifest.Dim)

	// Querying with a document's own embedding returns that document first.
	query := vectorFor(docs[3].Text, 16)
	results, err := loaded.Search(query, 3, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "tool-3", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchIsDeterministic(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	ix, err := Build(context.Background(), emb, testDocs(10), BuildOptions{})
	require.NoError(t, err)

	query := vectorFor("free AI image generators", 8)
	a, err := ix.Search(query, 5, SearchOptions{})
	require.NoError(t, err)
	b, err := ix.Search(query, 5, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSearchBoundsResults(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	ix, err := Build(context.Background(), emb, testDocs(4), BuildOptions{})
	require.NoError(t, err)

	query := vectorFor("anything", 8)
	results, err := ix.Search(query, 10, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 4, "never more than the index holds")

	results, err = ix.Search(query, 2, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 2, "never more than K")
}

func TestSearchBreaksTiesByInsertionOrder(t *testing.T) {
	docs := []domain.Document{
		{ID: "a", Text: "same text", Metadata: map[string]string{}},
		{ID: "b", Text: "same text", Metadata: map[string]string{}},
		{ID: "c", Text: "different text", Metadata: map[string]string{}},
	}
	emb := &fakeEmbedder{dim: 8}
	ix, err := Build(context.Background(), emb, docs, BuildOptions{})
	require.NoError(t, err)

	results, err := ix.Search(vectorFor("same text", 8), 3, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "b", results[1].Document.ID)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-12)
}

func TestSearchPricingFilter(t *testing.T) {
	docs := testDocs(6)
	docs[1].Metadata["pricing"] = "Paid"
	docs[4].Metadata["pricing"] = "Paid"
	emb := &fakeEmbedder{dim: 8}
	ix, err := Build(context.Background(), emb, docs, BuildOptions{})
	require.NoError(t, err)

	results, err := ix.Search(vectorFor("anything", 8), 10, SearchOptions{Pricing: "paid"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "Paid", r.Document.Metadata["pricing"])
	}
}

func TestBuildAbortsOnEmbeddingFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")

	// A working snapshot exists.
	good, err := Build(context.Background(), &fakeEmbedder{dim: 8}, testDocs(2), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, Save(dir, good))

	// A rebuild fails mid-run; nothing may be persisted over the old snapshot.
	_, err = Build(context.Background(), &fakeEmbedder{dim: 8, failAt: 3}, testDocs(5), BuildOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool-2", "diagnostic identifies the failed record")

	prior, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, prior.Len(), "prior index untouched")
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	_, err := Build(context.Background(), &fakeEmbedder{dim: 8}, nil, BuildOptions{})
	assert.Error(t, err)
}

func TestSaveReplacesPriorSnapshotAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	first, err := Build(context.Background(), &fakeEmbedder{dim: 8}, testDocs(2), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, Save(dir, first))

	second, err := Build(context.Background(), &fakeEmbedder{dim: 8}, testDocs(5), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, Save(dir, second))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Len())
	_, err = os.Stat(dir + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp dir cleaned up")
	_, err = os.Stat(dir + ".bak")
	assert.True(t, os.IsNotExist(err), "backup cleaned up")
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestLoadVersionMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	ix, err := Build(context.Background(), &fakeEmbedder{dim: 8}, testDocs(2), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, Save(dir, ix))

	m := ix.Manifest
	m.IndexVersion = 99
	mb, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), mb, 0o644))

	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestLoadDetectsVectorSizeMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	ix, err := Build(context.Background(), &fakeEmbedder{dim: 8}, testDocs(3), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, Save(dir, ix))

	// Truncate the vector file so it no longer matches docs*dim.
	path := filepath.Join(dir, ix.Manifest.VectorFile)
	require.NoError(t, os.Truncate(path, 8*8))

	_, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestSearchOnEmptyIndex(t *testing.T) {
	var ix *Index
	_, err := ix.Search(vectorFor("q", 8), 10, SearchOptions{})
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	ix, err := Build(context.Background(), &fakeEmbedder{dim: 8}, testDocs(2), BuildOptions{})
	require.NoError(t, err)
	_, err = ix.Search(vectorFor("q", 4), 10, SearchOptions{})
	assert.ErrorIs(t, err, ErrVectorLengthMismatch)
}
