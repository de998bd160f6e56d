package datasetvalidator

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTypeChecks(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantStatus   Status
		wantContains []string
		wantCount    int
	}{
		{
			name:       "well typed manifest",
			text:       validManifest,
			wantStatus: StatusSuccess,
		},
		{
			name:         "labels_are_mece not boolean",
			text:         `{"labels_are_mece":"yes","class_names":{"0":"x"},"labels":{"a.mp4":[0]},"splits":{"train":[],"val":[]}}`,
			wantStatus:   StatusWarning,
			wantContains: []string{"Schema: /labels_are_mece: "},
			wantCount:    1,
		},
		{
			name:         "labels with non integer entries",
			text:         `{"labels_are_mece":true,"class_names":{"0":"x"},"labels":{"a.mp4":[0,"one"]},"splits":{"train":[],"val":[]}}`,
			wantStatus:   StatusWarning,
			wantContains: []string{"Schema: /labels/a.mp4/1: "},
			wantCount:    1,
		},
		{
			name:         "class names not strings",
			text:         `{"labels_are_mece":true,"class_names":{"0":1},"labels":{},"splits":{"train":[],"val":[]}}`,
			wantStatus:   StatusWarning,
			wantContains: []string{"Schema: /class_names/0: "},
			wantCount:    1,
		},
		{
			name:         "top level array",
			text:         `[]`,
			wantStatus:   StatusWarning,
			wantContains: []string{`Missing "labels_are_mece" field`, "Schema: /: "},
			wantCount:    5,
		},
		{
			name:         "falsy key reported once as missing",
			text:         `{"labels_are_mece":true,"class_names":false,"labels":{},"splits":{"train":[],"val":[]}}`,
			wantStatus:   StatusWarning,
			wantContains: []string{`Missing "class_names" object`},
			wantCount:    1,
		},
	}

	engine := New(WithTypeChecks(true))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Validate("m.json", tt.text)
			if got.Status != tt.wantStatus {
				t.Fatalf("Status = %q, want %q (issues %v)", got.Status, tt.wantStatus, got.Issues)
			}
			if len(got.Issues) != tt.wantCount {
				t.Errorf("got %d issues %v, want %d", len(got.Issues), got.Issues, tt.wantCount)
			}
			for _, want := range tt.wantContains {
				found := false
				for _, issue := range got.Issues {
					if strings.HasPrefix(issue, want) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("no issue starting with %q in %v", want, got.Issues)
				}
			}
		})
	}
}

func TestTypeChecks_AfterPresenceIssues(t *testing.T) {
	engine := New(WithTypeChecks(true))
	got := engine.Validate("m.json", `{"labels_are_mece":1,"class_names":{"0":"x"},"labels":{"a":[0]}}`)

	if len(got.Issues) != 2 {
		t.Fatalf("got issues %v, want 2", got.Issues)
	}
	if got.Issues[0] != `Missing "splits" object` {
		t.Errorf("first issue = %q, want the missing key", got.Issues[0])
	}
	if !strings.HasPrefix(got.Issues[1], "Schema: /labels_are_mece: ") {
		t.Errorf("second issue = %q, want a schema issue", got.Issues[1])
	}
}

func TestManifestJSONSchema(t *testing.T) {
	var schema map[string]any
	if err := json.Unmarshal([]byte(ManifestJSONSchema()), &schema); err != nil {
		t.Fatalf("embedded schema is not JSON: %v", err)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema has no properties")
	}
	for _, field := range ManifestSchema() {
		if _, ok := props[field.Key]; !ok {
			t.Errorf("schema does not describe %q", field.Key)
		}
	}
	if _, err := compiledTypeSchema(); err != nil {
		t.Errorf("compile schema: %v", err)
	}
}
