package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// Load reads an index snapshot from dir. A missing directory or manifest
// yields ErrIndexUnavailable; a structurally invalid snapshot yields a
// descriptive error rather than garbage results.
func Load(dir string) (*Index, error) {
	manifestPath := filepath.Join(dir, "manifest.json")
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w (looked in %s)", ErrIndexUnavailable, dir)
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.IndexVersion != CurrentVersion {
		return nil, fmt.Errorf("%w: got %d want %d", ErrVersionMismatch, m.IndexVersion, CurrentVersion)
	}
	if m.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}
	if m.VectorFile == "" {
		m.VectorFile = "vectors.f64"
	}
	if m.DocsFile == "" {
		m.DocsFile = "docs.jsonl"
	}

	docs, err := loadDocs(filepath.Join(dir, m.DocsFile))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w (snapshot in %s holds no documents)", ErrIndexUnavailable, dir)
	}
	vectors, err := loadVectors(filepath.Join(dir, m.VectorFile), len(docs), m.Dim)
	if err != nil {
		return nil, err
	}

	return &Index{Manifest: m, Docs: docs, Vectors: vectors}, nil
}

func loadDocs(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open docs file %s: %w", path, err)
	}
	defer f.Close()

	var out []domain.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var d domain.Document
		if err := json.Unmarshal(line, &d); err != nil {
			return nil, fmt.Errorf("invalid docs JSONL %s: %w", path, err)
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read docs file %s: %w", path, err)
	}
	return out, nil
}

func loadVectors(path string, nDocs, dim int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	if st.Size()%8 != 0 {
		return nil, fmt.Errorf("vector file size is not multiple of 8 bytes: %d", st.Size())
	}

	expected := int64(nDocs) * int64(dim) * 8
	if expected != st.Size() {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (docs=%d dim=%d)", st.Size(), expected, nDocs, dim)
	}

	out := make([]float64, nDocs*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}
