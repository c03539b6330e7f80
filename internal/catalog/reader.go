package catalog

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// ReadCatalog parses the AI tools CSV from r. The first row is the header.
// Rows without a Name are skipped; the second return value is the skip
// count. Structural CSV errors are returned, not swallowed.
func ReadCatalog(r io.Reader) ([]domain.ToolRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, fmt.Errorf("catalog is empty")
		}
		return nil, 0, fmt.Errorf("read catalog header: %w", err)
	}

	var records []domain.ToolRecord
	skipped := 0
	line := 1
	for {
		raw, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, skipped, fmt.Errorf("read catalog row %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = raw[i]
			}
		}
		rec, ok := NormalizeRow(row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
