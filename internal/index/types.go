package index

import "github.com/amalsp220/ai-tools-chatbot/internal/domain"

// CurrentVersion is the index format version this package reads and writes.
const CurrentVersion = 1

// Manifest describes a persisted similarity index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Normalize    bool   `json:"normalize"`
	VectorFile   string `json:"vector_file"`
	DocsFile     string `json:"docs_file"`
}

// Index is a loaded similarity index. Once loaded it is read-only and safe
// to share across sessions.
type Index struct {
	Manifest Manifest
	Docs     []domain.Document
	Vectors  []float64
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.Docs)
}

// vectorAt returns the stored vector for document i.
func (ix *Index) vectorAt(i int) []float64 {
	dim := ix.Manifest.Dim
	return ix.Vectors[i*dim : (i+1)*dim]
}
