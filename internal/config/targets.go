package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WatchTarget is one geographic area to poll. Exactly one of Pincode or
// DistrictID must be set. Zero-valued overrides fall back to the
// application-level defaults.
type WatchTarget struct {
	Pincode    string `yaml:"pincode"`
	DistrictID string `yaml:"district_id"`

	// MinAge overrides MIN_AGE_LIMIT for this target when > 0.
	MinAge int `yaml:"min_age"`
	// TweetThreshold overrides TWEET_CAPACITY_THRESHOLD when > 0.
	TweetThreshold int `yaml:"tweet_threshold"`
}

// targetsFile is the on-disk shape of the watch-targets YAML.
type targetsFile struct {
	Targets []WatchTarget `yaml:"targets"`
}

// LoadTargets reads and validates the watch-targets YAML file.
func LoadTargets(path string) ([]WatchTarget, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading targets file %q: %w", path, err)
	}

	var tf targetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing targets file %q: %w", path, err)
	}
	if len(tf.Targets) == 0 {
		return nil, fmt.Errorf("targets file %q lists no targets", path)
	}

	for i, t := range tf.Targets {
		if t.Pincode == "" && t.DistrictID == "" {
			return nil, fmt.Errorf("target %d: either pincode or district_id is required", i)
		}
		if t.Pincode != "" && t.DistrictID != "" {
			return nil, fmt.Errorf("target %d: pincode and district_id are mutually exclusive", i)
		}
	}
	return tf.Targets, nil
}
