// Package config loads comparison parameters from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/iqtibas/pkg/iqtibas"
	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
)

// LoadParams reads a YAML parameter file. Fields absent from the file
// keep their defaults; the loaded parameters are validated before
// being returned.
func LoadParams(path string) (iqtibas.ComparisonParams, error) {
	params := iqtibas.DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
