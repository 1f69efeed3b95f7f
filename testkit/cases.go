package testkit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCases reads calibration cases from a YAML or JSON file holding either
// a list or a {cases: [...]} document
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases file %s: %w", path, err)
	}

	var doc struct {
		Cases []Case `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		var list []Case
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return nil, fmt.Errorf("failed to parse cases file %s: %w", path, err)
		}
		doc.Cases = list
	}

	for i, tc := range doc.Cases {
		if tc.Name == "" {
			return nil, fmt.Errorf("case %d: name is required", i+1)
		}
		for j, c := range tc.Criteria {
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("case %q criterion %d: %w", tc.Name, j+1, err)
			}
		}
	}
	return doc.Cases, nil
}
