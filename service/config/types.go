package config

// File is the on-disk YAML configuration. Every key is optional.
type File struct {
	Regions              []string      `yaml:"regions"`
	MarkerTags           []string      `yaml:"markerTags"`
	DefaultRetentionDays *int          `yaml:"defaultRetentionDays"`
	ManagedTagKey        string        `yaml:"managedTagKey"`
	Profile              string        `yaml:"profile"`
	DryRun               bool          `yaml:"dryRun"`
	IsolateFailures      bool          `yaml:"isolateFailures"`
	MaxAttempts          int           `yaml:"maxAttempts"`
	Schedule             string        `yaml:"schedule"`
	MetricsAddr          string        `yaml:"metricsAddr"`
	Logging              LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
}
