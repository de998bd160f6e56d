package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gobeaver/datasetkit"
)

const (
	ExitSuccess           = 0
	ExitWarning           = 1
	ExitFailure           = 2
	ExitInvalidInvocation = 3
	ExitInternalError     = 4
)

// Format selects how reports are written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Invocation is the parsed command line.
//
// Source settings left unset on the command line keep the values loaded
// from the environment; see Apply.
type Invocation struct {
	Driver          string
	Root            string
	Format          Format
	CrossReferences bool
	TypeChecks      bool
	Watch           bool
	Recursive       bool
	Pattern         string
	Paths           []string

	set map[string]bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// Usage is printed for -h and after invocation errors
const Usage = `usage: datasetkit [flags] <path>...

Validates dataset manifests (.json) and annotation tables (.csv).
Paths are relative to the source root; directories are checked as batches.

flags:
  -driver string    source driver: local|memory|s3|gcs|azure|sftp|zip
                    (env DATASETKIT_DRIVER)
  -root string      local source root, or the archive for -driver zip
                    (env DATASETKIT_LOCAL_BASE_PATH, DATASETKIT_ZIP_PATH)
  -format string    output format: text|json (default "text")
  -crossref         check labels and splits against class_names
  -types            check manifest value types against the JSON Schema
  -r                recurse into directories
  -pattern string   glob selecting files in directories (default "**")
  -watch            re-check matching files whenever they change
`

// ParseInvocation parses CLI flags into an Invocation.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("datasetkit", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var inv Invocation
	var format string

	fs.StringVar(&inv.Driver, "driver", "", "Source driver.")
	fs.StringVar(&inv.Root, "root", "", "Source root or archive path.")
	fs.StringVar(&format, "format", string(FormatText), "Output format: text|json")
	fs.BoolVar(&inv.CrossReferences, "crossref", false, "Cross-reference checks.")
	fs.BoolVar(&inv.TypeChecks, "types", false, "Schema type checks.")
	fs.BoolVar(&inv.Watch, "watch", false, "Watch for changes.")
	fs.BoolVar(&inv.Recursive, "r", false, "Recurse into directories.")
	fs.StringVar(&inv.Pattern, "pattern", "**", "Glob for directory batches.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Invocation{}, &InvocationError{ExitCode: ExitSuccess, Message: Usage}
		}
		// flag package returns errors like: "flag provided but not defined: -x"
		return Invocation{}, invalidInvocationf("%v\n\n%s", err, Usage)
	}

	inv.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { inv.set[f.Name] = true })

	parsedFormat, err := parseFormat(format)
	if err != nil {
		return Invocation{}, err
	}
	inv.Format = parsedFormat

	if inv.set["root"] && strings.TrimSpace(inv.Root) == "" {
		return Invocation{}, invalidInvocationf("-root must not be empty")
	}
	if strings.TrimSpace(inv.Pattern) == "" {
		return Invocation{}, invalidInvocationf("-pattern must not be empty")
	}

	for _, p := range fs.Args() {
		if strings.TrimSpace(p) != "" {
			inv.Paths = append(inv.Paths, p)
		}
	}
	if len(inv.Paths) == 0 {
		return Invocation{}, invalidInvocationf("%s", datasetkit.ErrNoFile.Error())
	}

	return inv, nil
}

func parseFormat(raw string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(raw))
	switch Format(n) {
	case FormatText, FormatJSON:
		return Format(n), nil
	default:
		return "", invalidInvocationf("invalid -format %q (expected text|json)", raw)
	}
}

// Apply overrides cfg with the settings given on the command line
func (inv Invocation) Apply(cfg *datasetkit.Config) {
	if inv.set["driver"] {
		cfg.Driver = inv.Driver
	}
	if inv.set["root"] {
		if cfg.Driver == "zip" {
			cfg.ZipPath = inv.Root
		} else {
			cfg.LocalBasePath = inv.Root
		}
	}
	if inv.set["crossref"] {
		cfg.CrossReferences = inv.CrossReferences
	}
	if inv.set["types"] {
		cfg.TypeChecks = inv.TypeChecks
	}
}

// ExitCode extracts a semantic exit code from a ParseInvocation error.
// If the error is not a known invocation error, it returns ExitInternalError.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		return invErr.ExitCode
	}
	return ExitInternalError
}
