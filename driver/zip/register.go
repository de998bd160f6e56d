package zip

import (
	"fmt"

	"github.com/gobeaver/datasetkit"
)

func init() {
	datasetkit.RegisterDriver("zip", func(cfg *datasetkit.Config) (datasetkit.FileReader, error) {
		if cfg.ZipPath == "" {
			return nil, fmt.Errorf("zip driver requires ZipPath to be set to the archive path")
		}

		return Open(cfg.ZipPath)
	})
}
