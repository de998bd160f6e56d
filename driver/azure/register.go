package azure

import (
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/gobeaver/datasetkit"
)

func init() {
	datasetkit.RegisterDriver("azure", func(cfg *datasetkit.Config) (datasetkit.FileReader, error) {
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure account name and key are required")
		}

		if cfg.AzureContainerName == "" {
			return nil, fmt.Errorf("azure container name is required")
		}

		// Create shared key credential
		cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure credential: %w", err)
		}

		client, err := azblob.NewClientWithSharedKeyCredential(serviceURL(cfg), cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure client: %w", err)
		}

		return New(client, cfg.AzureContainerName, adapterOptions(cfg)...), nil
	})
}

// serviceURL returns the custom endpoint or the account's public blob endpoint
func serviceURL(cfg *datasetkit.Config) string {
	if cfg.AzureEndpoint != "" {
		return cfg.AzureEndpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AzureAccountName)
}

func adapterOptions(cfg *datasetkit.Config) []AdapterOption {
	var opts []AdapterOption
	if cfg.AzurePrefix != "" {
		opts = append(opts, WithPrefix(cfg.AzurePrefix))
	}
	if cfg.PollSeconds > 0 {
		opts = append(opts, WithPollInterval(time.Duration(cfg.PollSeconds)*time.Second))
	}
	return opts
}
