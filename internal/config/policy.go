package config

import "time"

// RateLimitPolicy is the YAML form of the rate limits a statement may carry.
// Zero fields impose no limit.
type RateLimitPolicy struct {
	Every       int    `yaml:"every,omitempty"`
	AtMostEvery string `yaml:"at_most_every,omitempty"`
	SampleEvery int    `yaml:"sample_every,omitempty"`
}

// Period returns AtMostEvery as a duration. It assumes the policy passed
// validation and returns 0 for an empty or malformed value.
func (p *RateLimitPolicy) Period() time.Duration {
	if p == nil || p.AtMostEvery == "" {
		return 0
	}
	d, err := time.ParseDuration(p.AtMostEvery)
	if err != nil {
		return 0
	}
	return d
}

// IsZero reports whether the policy imposes no limit.
func (p *RateLimitPolicy) IsZero() bool {
	return p == nil || (p.Every <= 1 && p.Period() <= 0 && p.SampleEvery <= 1)
}
