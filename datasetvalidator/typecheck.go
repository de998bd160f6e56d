package datasetvalidator

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed manifest.schema.json
var manifestSchemaJSON string

const manifestSchemaURL = "manifest.schema.json"

var (
	typeSchema     *jsonschema.Schema
	typeSchemaErr  error
	typeSchemaOnce sync.Once
)

// ManifestJSONSchema returns the JSON Schema used for manifest type checks
func ManifestJSONSchema() string {
	return manifestSchemaJSON
}

func compiledTypeSchema() (*jsonschema.Schema, error) {
	typeSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(manifestSchemaURL, strings.NewReader(manifestSchemaJSON)); err != nil {
			typeSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		typeSchema, typeSchemaErr = compiler.Compile(manifestSchemaURL)
		if typeSchemaErr != nil {
			typeSchemaErr = fmt.Errorf("compile schema: %w", typeSchemaErr)
		}
	})
	return typeSchema, typeSchemaErr
}

// typeIssues validates a decoded manifest against the embedded schema and
// returns one issue per leaf violation, sorted. Violations located exactly at
// a key already reported missing are dropped.
func typeIssues(doc any, missing map[string]bool) ([]string, error) {
	schema, err := compiledTypeSchema()
	if err != nil {
		return nil, err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}

	var leaves []*jsonschema.ValidationError
	collectLeaves(ve, &leaves)

	seen := make(map[string]bool, len(leaves))
	issues := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		location := leaf.InstanceLocation
		if missing[strings.TrimPrefix(location, "/")] {
			continue
		}
		if location == "" {
			location = "/"
		}
		issue := fmt.Sprintf("Schema: %s: %s", location, leaf.Message)
		if seen[issue] {
			continue
		}
		seen[issue] = true
		issues = append(issues, issue)
	}
	sort.Strings(issues)

	return issues, nil
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		*out = append(*out, ve)
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}
