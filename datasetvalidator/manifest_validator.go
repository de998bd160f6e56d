package datasetvalidator

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// IssueJSONParse is reported when a manifest is not syntactically valid JSON
const IssueJSONParse = "JSON parsing error"

// errNullDocument is reported for a manifest whose top-level value is null
var errNullDocument = errors.New("top-level value is null")

// ManifestValidator validates JSON dataset manifests
type ManifestValidator struct {
	// CrossReferences enables label/class and split/labels consistency checks
	CrossReferences bool

	// TypeChecks enables JSON Schema type checks on the manifest values
	TypeChecks bool
}

// Extensions returns the filename suffixes this validator handles
func (v *ManifestValidator) Extensions() []string {
	return []string{".json"}
}

// Check validates the manifest text. Parse failures are terminal; missing keys
// are reported one issue per key in schema order.
func (v *ManifestValidator) Check(filename, text string) Verdict {
	b := newVerdictBuilder()

	doc, err := decodeJSON(text)
	if err == nil && doc == nil {
		err = errNullDocument
	}
	if err != nil {
		return b.message("Invalid JSON format for file \"%s\".", filename).
			details(err.Error()).
			fail(IssueJSONParse).
			build()
	}

	obj, _ := doc.(map[string]any)
	missing := make(map[string]bool)
	for _, field := range manifestSchema {
		if !field.PresentIn(obj) {
			missing[field.Key] = true
			b.issue("%s", field.MissingIssue())
		}
	}

	if len(missing) > 0 {
		b.message("JSON file \"%s\" might be missing expected dataset keys.", filename).
			details("Expected " + manifestKeyList() + " keys.")
	} else {
		b.message("JSON file \"%s\" seems to have a valid dataset structure.", filename).
			details("Found " + manifestKeyList() + " keys.")
	}

	extended := 0
	if v.TypeChecks {
		issues, err := typeIssues(doc, missing)
		if err != nil {
			issues = []string{"Schema: " + err.Error()}
		}
		for _, issue := range issues {
			b.issue("%s", issue)
		}
		extended += len(issues)
	}
	if v.CrossReferences && len(missing) == 0 {
		issues := crossReferenceIssues(obj)
		for _, issue := range issues {
			b.issue("%s", issue)
		}
		extended += len(issues)
	}

	if extended > 0 && len(missing) == 0 {
		b.message("JSON file \"%s\" has the expected dataset keys but its contents look inconsistent.", filename)
	}

	return b.build()
}

// decodeJSON parses text as a single JSON value. Numbers decode as
// json.Number so integer labels keep their exact form.
func decodeJSON(text string) (any, error) {
	data := []byte(text)

	// Unmarshal checks the whole input, including trailing data.
	if err := json.Unmarshal(data, new(json.RawMessage)); err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// manifestKeyList renders the schema keys as 'a', 'b', 'c', and 'd'
func manifestKeyList() string {
	quoted := make([]string, len(manifestSchema))
	for i, field := range manifestSchema {
		quoted[i] = "'" + field.Key + "'"
	}
	if len(quoted) < 2 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1]
}
