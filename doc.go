// Package datasetkit checks behavior-analysis dataset files before they are
// used for training: JSON manifests describing labels and splits, and CSV
// annotation tables.
//
// Validation itself is pure and lives in the datasetvalidator package. This
// package adds everything around it: reading files from a source, decoding
// them as text, caching verdicts and driving the interactive select/validate
// workflow.
//
// # Sources
//
// Files are read through a [FileReader]. Drivers register themselves by
// name and are selected with Config.Driver:
//
//   - Local filesystem (github.com/gobeaver/datasetkit/driver/local)
//   - Amazon S3 (github.com/gobeaver/datasetkit/driver/s3)
//   - Google Cloud Storage (github.com/gobeaver/datasetkit/driver/gcs)
//   - Azure Blob Storage (github.com/gobeaver/datasetkit/driver/azure)
//   - SFTP (github.com/gobeaver/datasetkit/driver/sftp)
//   - ZIP archives (github.com/gobeaver/datasetkit/driver/zip)
//   - In-memory (github.com/gobeaver/datasetkit/driver/memory)
//
// A [MountManager] combines several sources into one tree, each under its
// own path.
//
// # Basic Usage
//
//	import _ "github.com/gobeaver/datasetkit/driver/local"
//
//	svc, err := datasetkit.New(&datasetkit.Config{
//	    Driver:        "local",
//	    LocalBasePath: "./datasets",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := svc.Check(ctx, "mice/manifest.json")
//	if err != nil {
//	    // the file could not be read; err reads
//	    // "An unexpected error occurred: ..."
//	}
//	fmt.Println(report.Verdict.Summary())
//
// # Batches and Selectors
//
//	reports, err := svc.CheckAll(ctx, "mice", datasetkit.Glob("**/*.json"), true)
//
// # Configuration
//
// [GetConfig] loads a [Config] from the environment using beaver-kit/config,
// e.g. BEAVER_DATASETKIT_DRIVER, BEAVER_DATASETKIT_CROSS_REFERENCES.
// [WithPrefix] selects a different prefix.
//
// # Watching
//
// Sources implementing [CanWatch] report changes through a [ChangeToken];
// [Service.Watch] re-checks matching files each time one fires.
//
// # Sessions
//
// A [Session] holds the single current result of an interactive workflow.
// Every selection or validation starts a new generation and results for
// older generations are dropped, so a slow read can never overwrite a newer
// verdict.
package datasetkit
