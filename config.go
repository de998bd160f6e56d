package datasetkit

import (
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Source driver to read dataset files from (local, memory, s3, gcs, azure, sftp, zip)
	Driver string `env:"DATASETKIT_DRIVER,default:local"`

	// Local driver configuration
	LocalBasePath string `env:"DATASETKIT_LOCAL_BASE_PATH,default:."`

	// S3 driver configuration
	S3Region          string `env:"DATASETKIT_S3_REGION,default:us-east-1"`
	S3Bucket          string `env:"DATASETKIT_S3_BUCKET"`
	S3Prefix          string `env:"DATASETKIT_S3_PREFIX"`
	S3Endpoint        string `env:"DATASETKIT_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"DATASETKIT_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"DATASETKIT_S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"DATASETKIT_S3_FORCE_PATH_STYLE,default:false"`

	// GCS (Google Cloud Storage) driver configuration
	GCSBucket          string `env:"DATASETKIT_GCS_BUCKET"`
	GCSPrefix          string `env:"DATASETKIT_GCS_PREFIX"`
	GCSCredentialsFile string `env:"DATASETKIT_GCS_CREDENTIALS_FILE"` // Path to service account JSON

	// Azure Blob Storage driver configuration
	AzureAccountName   string `env:"DATASETKIT_AZURE_ACCOUNT_NAME"`
	AzureAccountKey    string `env:"DATASETKIT_AZURE_ACCOUNT_KEY"`
	AzureContainerName string `env:"DATASETKIT_AZURE_CONTAINER_NAME"`
	AzurePrefix        string `env:"DATASETKIT_AZURE_PREFIX"`
	AzureEndpoint      string `env:"DATASETKIT_AZURE_ENDPOINT"` // Optional custom endpoint

	// SFTP driver configuration
	SFTPHost       string `env:"DATASETKIT_SFTP_HOST"`
	SFTPPort       int    `env:"DATASETKIT_SFTP_PORT,default:22"`
	SFTPUsername   string `env:"DATASETKIT_SFTP_USERNAME"`
	SFTPPassword   string `env:"DATASETKIT_SFTP_PASSWORD"`
	SFTPPrivateKey string `env:"DATASETKIT_SFTP_PRIVATE_KEY"` // Path to private key file
	SFTPBasePath   string `env:"DATASETKIT_SFTP_BASE_PATH"`

	// Polling interval for sources without native change events (s3, gcs, azure)
	PollSeconds int `env:"DATASETKIT_POLL_SECONDS,default:30"`

	// ZIP driver configuration
	ZipPath string `env:"DATASETKIT_ZIP_PATH"`

	// Acquisition limits
	MaxFileSize int64 `env:"DATASETKIT_MAX_FILE_SIZE,default:52428800"` // 50MB default, 0 = unlimited
	RequireUTF8 bool  `env:"DATASETKIT_REQUIRE_UTF8,default:false"`

	// Optional manifest checks beyond key presence
	CrossReferences bool `env:"DATASETKIT_CROSS_REFERENCES,default:false"`
	TypeChecks      bool `env:"DATASETKIT_TYPE_CHECKS,default:false"`

	// Verdict cache
	CacheEnabled    bool `env:"DATASETKIT_CACHE_ENABLED,default:true"`
	CacheTTLSeconds int  `env:"DATASETKIT_CACHE_TTL_SECONDS,default:300"`
}

// CacheTTL returns the verdict cache TTL; zero means entries never expire
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
