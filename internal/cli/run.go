package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/gobeaver/datasetkit"
	"github.com/gobeaver/datasetkit/datasetvalidator"

	// Source drivers register themselves with datasetkit
	_ "github.com/gobeaver/datasetkit/driver/azure"
	_ "github.com/gobeaver/datasetkit/driver/gcs"
	_ "github.com/gobeaver/datasetkit/driver/local"
	_ "github.com/gobeaver/datasetkit/driver/memory"
	_ "github.com/gobeaver/datasetkit/driver/s3"
	_ "github.com/gobeaver/datasetkit/driver/sftp"
	_ "github.com/gobeaver/datasetkit/driver/zip"
)

// Result is the outcome of Execute
type Result struct {
	ExitCode int
	RunID    string
	Reports  []datasetkit.Report
}

// runOutput is the JSON document written by -format json
type runOutput struct {
	RunID   string              `json:"run_id"`
	Results []datasetkit.Report `json:"results"`
}

// loadConfig is replaced in tests
var loadConfig = datasetkit.GetConfig

// Execute checks every path of inv and writes the reports to out. With
// -watch it then keeps re-checking until ctx is done.
func Execute(ctx context.Context, inv Invocation, out io.Writer) (Result, error) {
	result := Result{ExitCode: ExitInternalError, RunID: uuid.NewString()}

	cfg, err := loadConfig()
	if err != nil {
		return result, fmt.Errorf("load config: %w", err)
	}
	inv.Apply(cfg)

	svc, err := datasetkit.New(cfg)
	if err != nil {
		return result, err
	}

	reports, err := checkPaths(ctx, svc, inv)
	if err != nil {
		return result, err
	}
	result.Reports = reports
	result.ExitCode = exitCodeFor(reports)

	if err := writeReports(out, inv.Format, result.RunID, reports); err != nil {
		return result, err
	}

	if !inv.Watch {
		return result, nil
	}

	err = svc.Watch(ctx, "", inv.Pattern, func(report datasetkit.Report) {
		if werr := writeWatchReport(out, inv.Format, result.RunID, report); werr != nil {
			datasetkit.Logf("datasetkit: write report: %v", werr)
		}
	})
	if err != nil {
		return result, fmt.Errorf("watch: %w", err)
	}

	return result, nil
}

// checkPaths validates files directly and directories as batches
func checkPaths(ctx context.Context, svc *datasetkit.Service, inv Invocation) ([]datasetkit.Report, error) {
	var reports []datasetkit.Report

	for _, p := range inv.Paths {
		info, statErr := svc.Source().Stat(ctx, p)
		if statErr == nil && info.IsDir {
			batch, err := svc.CheckAll(ctx, p, datasetkit.Glob(inv.Pattern), inv.Recursive)
			if err != nil {
				if ctx.Err() != nil {
					return reports, ctx.Err()
				}
				reports = append(reports, datasetkit.Report{Path: p, Err: (&datasetkit.AcquisitionError{Path: p, Err: err}).Error()})
				continue
			}
			reports = append(reports, batch...)
			continue
		}

		// Check reports read failures, including the Stat one, in the report
		report, err := svc.Check(ctx, p)
		if err != nil && ctx.Err() != nil {
			return reports, ctx.Err()
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// exitCodeFor maps the most severe outcome to an exit code
func exitCodeFor(reports []datasetkit.Report) int {
	code := ExitSuccess
	for _, r := range reports {
		switch r.Status() {
		case datasetvalidator.StatusError:
			return ExitFailure
		case datasetvalidator.StatusWarning:
			code = ExitWarning
		}
	}
	return code
}

func writeReports(out io.Writer, format Format, runID string, reports []datasetkit.Report) error {
	if format == FormatJSON {
		if reports == nil {
			reports = []datasetkit.Report{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runOutput{RunID: runID, Results: reports})
	}

	for _, r := range reports {
		if _, err := io.WriteString(out, formatText(r)); err != nil {
			return err
		}
	}
	return nil
}

// writeWatchReport writes one report per line in JSON mode
func writeWatchReport(out io.Writer, format Format, runID string, report datasetkit.Report) error {
	if format == FormatJSON {
		return json.NewEncoder(out).Encode(runOutput{RunID: runID, Results: []datasetkit.Report{report}})
	}
	_, err := io.WriteString(out, formatText(report))
	return err
}

func formatText(r datasetkit.Report) string {
	if r.Verdict == nil {
		return fmt.Sprintf("%s: ✗ %s\n", r.Path, r.Err)
	}
	summary := r.Verdict.Summary()
	if r.Cached {
		first, rest, _ := strings.Cut(summary, "\n")
		summary = first + " (cached)"
		if rest != "" {
			summary += "\n" + rest
		}
	}
	return fmt.Sprintf("%s: %s\n", r.Path, summary)
}
