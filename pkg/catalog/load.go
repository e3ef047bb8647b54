package catalog

import (
	"fmt"

	"github.com/sambabib/portability-analyzer/pkg/datafile"
	"github.com/sambabib/portability-analyzer/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Load reads a catalog document from path. YAML and JSON are accepted, either
// plain or gzip/zstd compressed ("catalog.yaml.gz", "catalog.json.zst").
func Load(path string) (*Catalog, error) {
	r, _, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// JSON is a subset of YAML, so one decoder serves both formats.
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("error parsing catalog %s: %w", path, err)
	}

	c, err := New(&f)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	logger.Debugf("Catalog: loaded %d APIs, %d targets from %s", c.Len(), len(c.Targets()), path)
	return c, nil
}
