package memory

import "github.com/gobeaver/datasetkit"

func init() {
	datasetkit.RegisterDriver("memory", func(cfg *datasetkit.Config) (datasetkit.FileReader, error) {
		return New(), nil
	})
}
