package datasetkit

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func defaultConfig() Config {
	return Config{
		Driver:          "local",
		LocalBasePath:   ".",
		S3Region:        "us-east-1",
		SFTPPort:        22,
		PollSeconds:     30,
		MaxFileSize:     52428800,
		CacheEnabled:    true,
		CacheTTLSeconds: 300,
	}
}

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		k := k // capture for closure
		os.Setenv(k, v)
		t.Cleanup(func() { os.Unsetenv(k) })
	}
}

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    func(c *Config)
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want:    func(c *Config) {},
		},
		{
			name: "s3 configuration",
			envVars: map[string]string{
				"BEAVER_DATASETKIT_DRIVER":               "s3",
				"BEAVER_DATASETKIT_S3_BUCKET":            "datasets",
				"BEAVER_DATASETKIT_S3_PREFIX":            "behavior/",
				"BEAVER_DATASETKIT_S3_REGION":            "us-west-2",
				"BEAVER_DATASETKIT_S3_ACCESS_KEY_ID":     "test-key",
				"BEAVER_DATASETKIT_S3_SECRET_ACCESS_KEY": "test-secret",
				"BEAVER_DATASETKIT_S3_ENDPOINT":          "http://localhost:9000",
				"BEAVER_DATASETKIT_S3_FORCE_PATH_STYLE":  "true",
				"BEAVER_DATASETKIT_POLL_SECONDS":         "5",
			},
			want: func(c *Config) {
				c.Driver = "s3"
				c.S3Bucket = "datasets"
				c.S3Prefix = "behavior/"
				c.S3Region = "us-west-2"
				c.S3AccessKeyID = "test-key"
				c.S3SecretAccessKey = "test-secret"
				c.S3Endpoint = "http://localhost:9000"
				c.S3ForcePathStyle = true
				c.PollSeconds = 5
			},
		},
		{
			name: "gcs configuration",
			envVars: map[string]string{
				"BEAVER_DATASETKIT_DRIVER":               "gcs",
				"BEAVER_DATASETKIT_GCS_BUCKET":           "datasets",
				"BEAVER_DATASETKIT_GCS_PREFIX":           "behavior/",
				"BEAVER_DATASETKIT_GCS_CREDENTIALS_FILE": "/etc/gcs.json",
			},
			want: func(c *Config) {
				c.Driver = "gcs"
				c.GCSBucket = "datasets"
				c.GCSPrefix = "behavior/"
				c.GCSCredentialsFile = "/etc/gcs.json"
			},
		},
		{
			name: "azure configuration",
			envVars: map[string]string{
				"BEAVER_DATASETKIT_DRIVER":               "azure",
				"BEAVER_DATASETKIT_AZURE_ACCOUNT_NAME":   "acct",
				"BEAVER_DATASETKIT_AZURE_ACCOUNT_KEY":    "a2V5",
				"BEAVER_DATASETKIT_AZURE_CONTAINER_NAME": "datasets",
			},
			want: func(c *Config) {
				c.Driver = "azure"
				c.AzureAccountName = "acct"
				c.AzureAccountKey = "a2V5"
				c.AzureContainerName = "datasets"
			},
		},
		{
			name: "sftp configuration",
			envVars: map[string]string{
				"BEAVER_DATASETKIT_DRIVER":        "sftp",
				"BEAVER_DATASETKIT_SFTP_HOST":     "files.example.com",
				"BEAVER_DATASETKIT_SFTP_PORT":     "2222",
				"BEAVER_DATASETKIT_SFTP_USERNAME": "labeler",
			},
			want: func(c *Config) {
				c.Driver = "sftp"
				c.SFTPHost = "files.example.com"
				c.SFTPPort = 2222
				c.SFTPUsername = "labeler"
			},
		},
		{
			name: "validation options",
			envVars: map[string]string{
				"BEAVER_DATASETKIT_CROSS_REFERENCES": "true",
				"BEAVER_DATASETKIT_TYPE_CHECKS":      "true",
				"BEAVER_DATASETKIT_REQUIRE_UTF8":     "true",
				"BEAVER_DATASETKIT_MAX_FILE_SIZE":    "1024",
			},
			want: func(c *Config) {
				c.CrossReferences = true
				c.TypeChecks = true
				c.RequireUTF8 = true
				c.MaxFileSize = 1024
			},
		},
		{
			name: "cache configuration",
			envVars: map[string]string{
				"BEAVER_DATASETKIT_CACHE_ENABLED":     "false",
				"BEAVER_DATASETKIT_CACHE_TTL_SECONDS": "0",
			},
			want: func(c *Config) {
				c.CacheEnabled = false
				c.CacheTTLSeconds = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.envVars)

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}

			want := defaultConfig()
			tt.want(&want)
			if diff := cmp.Diff(want, *cfg); diff != "" {
				t.Errorf("GetConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilderPrefix(t *testing.T) {
	setEnv(t, map[string]string{
		"APP_DATASETKIT_DRIVER":         "memory",
		"APP_DATASETKIT_TYPE_CHECKS":    "true",
		"BEAVER_DATASETKIT_TYPE_CHECKS": "false",
	})

	cfg, err := WithPrefix("APP_").Config()
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	if cfg.Driver != "memory" {
		t.Errorf("Driver = %v, want memory", cfg.Driver)
	}
	if !cfg.TypeChecks {
		t.Error("TypeChecks should come from the APP_ prefix")
	}
}

func TestCacheTTL(t *testing.T) {
	tests := []struct {
		seconds int
		want    time.Duration
	}{
		{300, 5 * time.Minute},
		{0, 0},
		{-1, 0},
	}
	for _, tt := range tests {
		cfg := Config{CacheTTLSeconds: tt.seconds}
		if got := cfg.CacheTTL(); got != tt.want {
			t.Errorf("CacheTTL(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"local ok", Config{Driver: "local", LocalBasePath: "."}, false},
		{"memory ok", Config{Driver: "memory"}, false},
		{"s3 ok", Config{Driver: "s3", S3Bucket: "b"}, false},
		{"missing driver", Config{}, true},
		{"local without base path", Config{Driver: "local"}, true},
		{"s3 without bucket", Config{Driver: "s3"}, true},
		{"zip ok", Config{Driver: "zip", ZipPath: "d.zip"}, false},
		{"zip without path", Config{Driver: "zip"}, true},
		{"gcs ok", Config{Driver: "gcs", GCSBucket: "b"}, false},
		{"gcs without bucket", Config{Driver: "gcs"}, true},
		{"azure ok", Config{Driver: "azure", AzureAccountName: "a", AzureAccountKey: "k", AzureContainerName: "c"}, false},
		{"azure without container", Config{Driver: "azure", AzureAccountName: "a", AzureAccountKey: "k"}, true},
		{"azure without credentials", Config{Driver: "azure", AzureContainerName: "c"}, true},
		{"sftp ok", Config{Driver: "sftp", SFTPHost: "h"}, false},
		{"sftp without host", Config{Driver: "sftp"}, true},
		{"negative max size", Config{Driver: "memory", MaxFileSize: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
