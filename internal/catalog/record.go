package catalog

import (
	"fmt"
	"strings"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// CSV column names as they appear in the AIToolBuzz dataset.
const (
	colName         = "Name"
	colCategory     = "Category"
	colPrimaryTask  = "Primary Task"
	colDescription  = "Short Description"
	colKeywords     = "Keywords"
	colTechnologies = "technologies"
	colIndustry     = "industry"
	colPricing      = "Pricing"
	colCountry      = "Country"
	colYearFounded  = "Year Founded"
	colWebsite      = "Website"
)

// defaultPricing is used when a record does not state a pricing model.
const defaultPricing = "Not specified"

// NormalizeRow converts one raw CSV row into a ToolRecord. It returns
// ok=false when the row has no Name; such rows are skipped, not an error.
// Missing values become empty strings, except Pricing which defaults to
// "Not specified".
func NormalizeRow(row map[string]string) (domain.ToolRecord, bool) {
	name := strings.TrimSpace(row[colName])
	if name == "" {
		return domain.ToolRecord{}, false
	}
	rec := domain.ToolRecord{
		Name:         name,
		Category:     strings.TrimSpace(row[colCategory]),
		PrimaryTask:  strings.TrimSpace(row[colPrimaryTask]),
		Description:  strings.TrimSpace(row[colDescription]),
		Keywords:     strings.TrimSpace(row[colKeywords]),
		Technologies: strings.TrimSpace(row[colTechnologies]),
		Industry:     strings.TrimSpace(row[colIndustry]),
		Pricing:      strings.TrimSpace(row[colPricing]),
		Country:      strings.TrimSpace(row[colCountry]),
		YearFounded:  strings.TrimSpace(row[colYearFounded]),
		Website:      strings.TrimSpace(row[colWebsite]),
	}
	if rec.Pricing == "" {
		rec.Pricing = defaultPricing
	}
	return rec, true
}

// CanonicalText builds the deterministic labeled text blob that gets
// embedded. The field order is an interface contract: it affects what the
// embedding captures, so it must not change between builds.
func CanonicalText(rec domain.ToolRecord) string {
	var b strings.Builder
	fields := []struct {
		label string
		value string
	}{
		{"Tool Name", rec.Name},
		{"Category", rec.Category},
		{"Primary Task", rec.PrimaryTask},
		{"Description", rec.Description},
		{"Keywords", rec.Keywords},
		{"Technologies", rec.Technologies},
		{"Industry", rec.Industry},
		{"Pricing", rec.Pricing},
		{"Country", rec.Country},
		{"Year Founded", rec.YearFounded},
		{"Website", rec.Website},
	}
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(f.value)
	}
	return b.String()
}

// Metadata extracts the display subset of a ToolRecord.
func Metadata(rec domain.ToolRecord) map[string]string {
	return map[string]string{
		"name":         rec.Name,
		"category":     rec.Category,
		"primary_task": rec.PrimaryTask,
		"pricing":      rec.Pricing,
		"website":      rec.Website,
		"country":      rec.Country,
		"year_founded": rec.YearFounded,
		"technologies": rec.Technologies,
	}
}

// ToDocument derives the immutable indexed document for a record.
func ToDocument(ordinal int, rec domain.ToolRecord) domain.Document {
	return domain.Document{
		ID:       fmt.Sprintf("tool-%d", ordinal),
		Text:     CanonicalText(rec),
		Metadata: Metadata(rec),
	}
}

// Documents converts records into indexed documents, assigning ordinal IDs
// in input order.
func Documents(records []domain.ToolRecord) []domain.Document {
	docs := make([]domain.Document, len(records))
	for i, rec := range records {
		docs[i] = ToDocument(i, rec)
	}
	return docs
}
