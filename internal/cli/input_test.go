package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gobeaver/datasetkit"
)

func TestParseInvocation_Defaults(t *testing.T) {
	inv, err := ParseInvocation([]string{"manifest.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Format != FormatText {
		t.Fatalf("expected text format, got %q", inv.Format)
	}
	if inv.Pattern != "**" {
		t.Fatalf("expected default pattern '**', got %q", inv.Pattern)
	}
	if !reflect.DeepEqual(inv.Paths, []string{"manifest.json"}) {
		t.Fatalf("unexpected paths %v", inv.Paths)
	}
}

func TestParseInvocation_Deterministic(t *testing.T) {
	args := []string{"-driver", "memory", "-format", "JSON", "-crossref", "-r", "-pattern", "*.csv", "a.json", "dir"}

	inv1, err := ParseInvocation(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv2, err := ParseInvocation(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(inv1, inv2) {
		t.Fatalf("expected identical invocations, got\n%#v\n%#v", inv1, inv2)
	}
	if inv1.Format != FormatJSON || !inv1.CrossReferences || !inv1.Recursive || inv1.Pattern != "*.csv" {
		t.Fatalf("flags not applied: %#v", inv1)
	}
}

func TestParseInvocation_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantMsg  string
	}{
		{"no paths", nil, ExitInvalidInvocation, "Please select a file to validate."},
		{"blank path", []string{"  "}, ExitInvalidInvocation, "Please select a file to validate."},
		{"unknown flag", []string{"-nope", "a.json"}, ExitInvalidInvocation, "flag provided but not defined"},
		{"bad format", []string{"-format", "xml", "a.json"}, ExitInvalidInvocation, "invalid -format"},
		{"empty root", []string{"-root", "", "a.json"}, ExitInvalidInvocation, "-root must not be empty"},
		{"empty pattern", []string{"-pattern", "", "a.json"}, ExitInvalidInvocation, "-pattern must not be empty"},
		{"help", []string{"-h"}, ExitSuccess, "usage: datasetkit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInvocation(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := ExitCode(err); code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestInvocationApply_OnlyExplicitFlags(t *testing.T) {
	cfg := &datasetkit.Config{Driver: "s3", LocalBasePath: "/env", TypeChecks: true}

	inv, err := ParseInvocation([]string{"-root", "/flag", "a.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv.Apply(cfg)

	if cfg.Driver != "s3" {
		t.Errorf("driver from env should be kept, got %q", cfg.Driver)
	}
	if cfg.LocalBasePath != "/flag" {
		t.Errorf("root flag should override, got %q", cfg.LocalBasePath)
	}
	if !cfg.TypeChecks {
		t.Error("type checks from env should be kept")
	}
}

func TestInvocationApply_ZipRoot(t *testing.T) {
	cfg := &datasetkit.Config{Driver: "local", LocalBasePath: "/env"}

	inv, err := ParseInvocation([]string{"-driver", "zip", "-root", "data.zip", "a.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv.Apply(cfg)

	if cfg.ZipPath != "data.zip" {
		t.Errorf("root should name the archive, got %q", cfg.ZipPath)
	}
	if cfg.LocalBasePath != "/env" {
		t.Errorf("local base path should be kept, got %q", cfg.LocalBasePath)
	}
}

func TestExitCode_UnknownError(t *testing.T) {
	if code := ExitCode(datasetkit.ErrNotExist); code != ExitInternalError {
		t.Errorf("expected internal error code, got %d", code)
	}
}
