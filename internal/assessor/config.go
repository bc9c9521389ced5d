package assessor

// Config holds runtime settings for the assessor. Keep small.
type Config struct {
	// ScoringVersion is reported on every result so verdicts can be tied to
	// the model build that produced them.
	ScoringVersion string `yaml:"scoring_version" json:"scoring_version"`

	// LookalikeMaxDistance bounds the edit distance at which Explain reports
	// a trusted lookalike. Zero disables the hint.
	LookalikeMaxDistance int `yaml:"lookalike_max_distance" json:"lookalike_max_distance"`

	// LogFeatures logs every computed vector at debug level.
	LogFeatures bool `yaml:"log_features" json:"log_features"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ScoringVersion:       "unversioned",
		LookalikeMaxDistance: 2,
	}
}
