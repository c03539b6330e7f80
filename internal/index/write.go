package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save persists the index to dir, atomically replacing any prior snapshot.
// The index is written to a temporary sibling directory first and swapped
// into place only on full success, so a failed write never clobbers a
// working index.
func Save(dir string, ix *Index) error {
	if ix == nil || len(ix.Docs) == 0 {
		return fmt.Errorf("refusing to save empty index")
	}
	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("cannot clear temp dir %s: %w", tmp, err)
	}
	if err := write(tmp, ix); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if err := atomicSwap(tmp, dir); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	return nil
}

// write lays out manifest + docs + vectors under dir.
func write(dir string, ix *Index) error {
	m := ix.Manifest
	if m.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", m.Dim)
	}
	if len(ix.Vectors) != len(ix.Docs)*m.Dim {
		return fmt.Errorf("vector length mismatch: got %d want %d", len(ix.Vectors), len(ix.Docs)*m.Dim)
	}
	if m.VectorFile == "" {
		m.VectorFile = "vectors.f64"
	}
	if m.DocsFile == "" {
		m.DocsFile = "docs.jsonl"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	df, err := os.Create(filepath.Join(dir, m.DocsFile))
	if err != nil {
		return fmt.Errorf("cannot create docs file: %w", err)
	}
	bw := bufio.NewWriter(df)
	for _, doc := range ix.Docs {
		line, err := json.Marshal(doc)
		if err != nil {
			_ = df.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = df.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = df.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = df.Close()
		return err
	}
	if err := df.Close(); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, m.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, ix.Vectors); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	return vf.Close()
}

// atomicSwap replaces destDir with srcDir by renaming, keeping a backup of
// the previous snapshot until the swap succeeds.
func atomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}
