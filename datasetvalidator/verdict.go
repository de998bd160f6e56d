package datasetvalidator

import (
	"fmt"
	"strings"
)

// Status classifies a verdict
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
)

// String implements fmt.Stringer
func (s Status) String() string {
	return string(s)
}

// Severity orders statuses from least to most severe. Info ranks below
// success because an unrecognized file is not a defect.
func (s Status) Severity() int {
	switch s {
	case StatusInfo:
		return 0
	case StatusSuccess:
		return 1
	case StatusWarning:
		return 2
	case StatusError:
		return 3
	default:
		return -1
	}
}

// Verdict is the structured result of one validation run.
//
// A Verdict is built fresh for every call and is never merged with an earlier
// one. Issues keeps detection order and is never nil.
type Verdict struct {
	// Status is the overall classification.
	Status Status `json:"status"`

	// Message is a one-line human summary.
	Message string `json:"message"`

	// Details is a secondary explanation, e.g. the parser's error text.
	Details string `json:"details,omitempty"`

	// Issues lists specific defects in the order they were detected.
	Issues []string `json:"issues"`
}

// OK reports whether the verdict is a success
func (v Verdict) OK() bool {
	return v.Status == StatusSuccess
}

// HasIssues returns true if any defect was recorded
func (v Verdict) HasIssues() bool {
	return len(v.Issues) > 0
}

// Clone returns a copy that shares no memory with v
func (v Verdict) Clone() Verdict {
	issues := make([]string, len(v.Issues))
	copy(issues, v.Issues)
	v.Issues = issues
	return v
}

// Summary returns a human-readable multi-line rendering of the verdict
func (v Verdict) Summary() string {
	var b strings.Builder

	switch v.Status {
	case StatusSuccess:
		b.WriteString("✓ ")
	case StatusWarning:
		b.WriteString("! ")
	case StatusError:
		b.WriteString("✗ ")
	default:
		b.WriteString("i ")
	}
	b.WriteString(v.Message)

	if v.Details != "" {
		fmt.Fprintf(&b, "\n  %s", v.Details)
	}
	for _, issue := range v.Issues {
		fmt.Fprintf(&b, "\n  - %s", issue)
	}

	return b.String()
}

// verdictBuilder accumulates a verdict. The status is derived at Build time
// so that a recognized file with no issues is always a success.
type verdictBuilder struct {
	verdict Verdict
	failed  bool
}

func newVerdictBuilder() *verdictBuilder {
	return &verdictBuilder{
		verdict: Verdict{Issues: make([]string, 0)},
	}
}

func (b *verdictBuilder) message(format string, args ...any) *verdictBuilder {
	b.verdict.Message = fmt.Sprintf(format, args...)
	return b
}

func (b *verdictBuilder) details(details string) *verdictBuilder {
	b.verdict.Details = details
	return b
}

// issue records a warning-tier defect
func (b *verdictBuilder) issue(format string, args ...any) *verdictBuilder {
	b.verdict.Issues = append(b.verdict.Issues, fmt.Sprintf(format, args...))
	return b
}

// fail records a terminal defect; the verdict becomes an error
func (b *verdictBuilder) fail(issue string) *verdictBuilder {
	b.failed = true
	b.verdict.Issues = append(b.verdict.Issues, issue)
	return b
}

func (b *verdictBuilder) build() Verdict {
	switch {
	case b.failed:
		b.verdict.Status = StatusError
	case len(b.verdict.Issues) > 0:
		b.verdict.Status = StatusWarning
	default:
		b.verdict.Status = StatusSuccess
	}
	return b.verdict
}

// unrecognized returns the verdict for a file whose extension no validator claims
func unrecognized(filename string, extensions []string) Verdict {
	return Verdict{
		Status:  StatusInfo,
		Message: fmt.Sprintf("File \"%s\" is not a recognized format (%s).", filename, strings.Join(extensions, ", ")),
		Details: "Please upload a JSON or CSV file for validation.",
		Issues:  make([]string, 0),
	}
}
