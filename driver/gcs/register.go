package gcs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/datasetkit"
	"google.golang.org/api/option"
)

func init() {
	datasetkit.RegisterDriver("gcs", func(cfg *datasetkit.Config) (datasetkit.FileReader, error) {
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS bucket is required")
		}

		// Uses GOOGLE_APPLICATION_CREDENTIALS or default credentials unless a file is given
		var clientOpts []option.ClientOption
		if cfg.GCSCredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
		}

		client, err := storage.NewClient(context.Background(), clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}

		return New(client, cfg.GCSBucket, adapterOptions(cfg)...), nil
	})
}

func adapterOptions(cfg *datasetkit.Config) []AdapterOption {
	var opts []AdapterOption
	if cfg.GCSPrefix != "" {
		opts = append(opts, WithPrefix(cfg.GCSPrefix))
	}
	if cfg.PollSeconds > 0 {
		opts = append(opts, WithPollInterval(time.Duration(cfg.PollSeconds)*time.Second))
	}
	return opts
}
