package local

import "github.com/gobeaver/datasetkit"

func init() {
	datasetkit.RegisterDriver("local", func(cfg *datasetkit.Config) (datasetkit.FileReader, error) {
		return New(cfg.LocalBasePath)
	})
}
