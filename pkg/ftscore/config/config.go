// Package config loads the query-side settings the core honors: which
// attributes are searchable, typo tolerance thresholds, the proximity
// cap, and the stop-word list.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TypoToleranceConfig mirrors collector.TypoTolerance in a YAML-friendly
// shape.
type TypoToleranceConfig struct {
	MinWordLenFor1Typo  int `yaml:"min_word_len_for_1_typo"`
	MinWordLenFor2Typos int `yaml:"min_word_len_for_2_typos"`
}

// QueryConfig is the full set of query-side configuration the pipeline
// honors, loaded once per process and shared read-only across queries.
type QueryConfig struct {
	FilterAttributes         []uint16            `yaml:"filter_attributes"`
	SearchableFields         []uint16            `yaml:"searchable_fields"`
	TypoTolerance            TypoToleranceConfig `yaml:"typo_tolerance"`
	MaxProximityPairDistance int                 `yaml:"max_proximity_pair_distance"`
	StopWords                []string            `yaml:"stop_words"`
}

// DefaultQueryConfig returns the configuration used when no file is
// supplied: no attribute filtering, default typo tolerance thresholds,
// the documented proximity cap, and no stop words.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TypoTolerance: TypoToleranceConfig{
			MinWordLenFor1Typo:  4,
			MinWordLenFor2Typos: 8,
		},
		MaxProximityPairDistance: 8,
	}
}

// Load reads a YAML file at path into a QueryConfig, starting from
// DefaultQueryConfig so omitted fields keep their defaults.
func Load(path string) (QueryConfig, error) {
	cfg := DefaultQueryConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// AttributeSet turns a slice of attribute ids into the map shape
// collector.Config expects, or nil if ids is empty (meaning "no
// restriction").
func AttributeSet(ids []uint16) map[uint16]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[uint16]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
