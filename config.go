package nakarushton

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseFitConfig reads a YAML document over DefaultFitConfig. Keys that are
// absent keep their default, so a document may override a single bound:
//
//	init:  {b: 0, gr: 2, gc: 30, n: 2}
//	upper: {gr: 50}
//	max_iterations: 500
//
// Reading the document from disk is the caller's job.
func ParseFitConfig(data []byte) (FitConfig, error) {
	cfg := DefaultFitConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FitConfig{}, fmt.Errorf("parse fit config: %w", err)
	}
	return cfg, nil
}
