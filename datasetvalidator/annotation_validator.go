package datasetvalidator

import (
	"strings"
)

// IssueCSVHeaders is reported when an annotation CSV lacks the expected header
const IssueCSVHeaders = "Unexpected CSV headers"

// AnnotationValidator validates CSV annotation tables.
//
// The header check is a substring match over the whole text, not a strict
// comparison of the first row. Rows and cell values are not inspected.
type AnnotationValidator struct{}

// Extensions returns the filename suffixes this validator handles
func (v *AnnotationValidator) Extensions() []string {
	return []string{".csv"}
}

// Check validates the annotation table text
func (v *AnnotationValidator) Check(filename, text string) Verdict {
	b := newVerdictBuilder()

	if strings.Contains(text, AnnotationHeader) {
		return b.message("CSV file \"%s\" has expected headers.", filename).
			details("Looks like a valid annotation CSV.").
			build()
	}

	return b.message("CSV file \"%s\" might have unexpected headers.", filename).
		details("Expected '" + AnnotationHeader + "'.").
		issue(IssueCSVHeaders).
		build()
}
