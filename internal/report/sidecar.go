// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// sidecar is the YAML payload written next to each processed document.
type sidecar struct {
	FileName string               `yaml:"filename"`
	Path     string               `yaml:"path"`
	Metadata types.MetadataRecord `yaml:"metadata"`
}

// WriteMetadataSidecars writes one resolved-metadata YAML file per record
// into dir, named after the source document (paper.pdf -> paper.yaml).
// Records whose acquisition failed carry no metadata and are skipped.
func WriteMetadataSidecars(dir string, records []types.ExtractionRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	for i := range records {
		rec := &records[i]
		if rec.Status == types.StatusError {
			continue
		}

		name := strings.TrimSuffix(rec.FileName, filepath.Ext(rec.FileName)) + ".yaml"
		data, err := yaml.Marshal(sidecar{
			FileName: rec.FileName,
			Path:     rec.Path,
			Metadata: rec.Metadata,
		})
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", rec.FileName, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing metadata sidecar: %w", err)
		}
	}

	return nil
}
