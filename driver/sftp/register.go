package sftp

import (
	"fmt"
	"os"
	"time"

	"github.com/gobeaver/datasetkit"
)

func init() {
	datasetkit.RegisterDriver("sftp", func(cfg *datasetkit.Config) (datasetkit.FileReader, error) {
		sftpConfig, err := configFrom(cfg)
		if err != nil {
			return nil, err
		}

		var opts []AdapterOption
		if cfg.PollSeconds > 0 {
			opts = append(opts, WithPollInterval(time.Duration(cfg.PollSeconds)*time.Second))
		}

		return New(sftpConfig, opts...)
	})
}

// configFrom builds connection settings, loading the private key file if set
func configFrom(cfg *datasetkit.Config) (Config, error) {
	if cfg.SFTPHost == "" {
		return Config{}, fmt.Errorf("SFTP host is required")
	}

	sftpConfig := Config{
		Host:     cfg.SFTPHost,
		Port:     cfg.SFTPPort,
		Username: cfg.SFTPUsername,
		Password: cfg.SFTPPassword,
		BasePath: cfg.SFTPBasePath,
	}

	// Load private key if specified
	if cfg.SFTPPrivateKey != "" {
		keyData, err := os.ReadFile(cfg.SFTPPrivateKey)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read private key: %w", err)
		}
		sftpConfig.PrivateKey = keyData
	}

	return sftpConfig, nil
}
