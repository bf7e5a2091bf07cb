package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vtttools/mediastore/internal/errors"
)

// LoadAssets reads a JSON array of asset definitions as written by the
// generation pipeline. Keys match case-insensitively. A missing file
// returns the underlying I/O error.
func LoadAssets(path string) ([]Asset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied definitions file
	if err != nil {
		return nil, errors.New(err).
			Component("taxonomy").
			Category(errors.CategoryFileIO).
			Context("operation", "load_assets").
			Build()
	}

	var assets []Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, errors.New(fmt.Errorf("parse asset definitions: %w", err)).
			Component("taxonomy").
			Category(errors.CategoryFileParsing).
			Context("operation", "load_assets").
			Build()
	}

	if assets == nil {
		assets = []Asset{}
	}
	return assets, nil
}
