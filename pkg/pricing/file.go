package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// catalogueFile is the on-disk layout:
//
//	tariffs:
//	  - id: acme-fix-2024
//	    supplier: Acme
//	    kind: fixed
//	    power_price: {p1: 0.073, p2: 0.0019}
//	    energy_price: [0.18, 0.12, 0.09]
//	    monthly_fee: 4.5
type catalogueFile struct {
	Tariffs []models.TariffCandidate `json:"tariffs" yaml:"tariffs"`
}

// FileProvider loads the catalogue from a YAML or JSON file on every call.
// Wrap it with NewCachedProvider to avoid re-reading.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (f *FileProvider) Name() string {
	return "file"
}

func (f *FileProvider) ListCandidates(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	candidates, err := ParseCatalogue(data, filepath.Ext(f.path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalogue %s: %w", f.path, err)
	}
	return filterByAccessTariff(candidates, accessTariff), nil
}

// ParseCatalogue decodes a catalogue document; ext selects JSON (".json")
// or YAML (anything else). Every entry is validated.
func ParseCatalogue(data []byte, ext string) ([]models.TariffCandidate, error) {
	var doc catalogueFile
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(doc.Tariffs))
	for i := range doc.Tariffs {
		c := &doc.Tariffs[i]
		if c.Kind == "" {
			c.Kind = models.PricingFixed
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("entry %d: duplicate id %s", i, c.ID)
		}
		seen[c.ID] = true
	}
	return doc.Tariffs, nil
}
