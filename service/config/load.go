package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/elC0mpa/ami-rotator/model"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load reads the YAML file at path. An empty path yields an empty File so
// the defaults apply.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding $(ENV_VAR) placeholders first.
func Parse(data []byte) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(strings.NewReader(expandEnvVars(string(data))))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	return &file, nil
}

// Resolve merges the file, the defaults and the command line flags into a
// validated model.Config. Flags win over the file.
func Resolve(file *File, flags model.Flags) (model.Config, error) {
	cfg := model.Config{
		Regions:              firstNonEmpty(flags.Regions, file.Regions, DefaultRegions),
		MarkerTags:           firstNonEmpty(nil, file.MarkerTags, DefaultMarkerTags),
		DefaultRetentionDays: DefaultRetentionDays,
		ManagedTagKey:        orDefault(file.ManagedTagKey, DefaultManagedTagKey),
		Profile:              orDefault(flags.Profile, file.Profile),
		DryRun:               boolOverride(flags.DryRun, file.DryRun),
		IsolateFailures:      boolOverride(flags.IsolateFailures, file.IsolateFailures),
		MaxAttempts:          file.MaxAttempts,
		Schedule:             orDefault(flags.Schedule, orDefault(file.Schedule, DefaultSchedule)),
		MetricsAddr:          orDefault(flags.MetricsAddr, orDefault(file.MetricsAddr, DefaultMetricsAddr)),
		LogLevel:             orDefault(flags.LogLevel, orDefault(file.Logging.Level, DefaultLogLevel)),
		LogFormat:            orDefault(flags.LogFormat, orDefault(file.Logging.Format, DefaultLogFormat)),
	}
	if file.DefaultRetentionDays != nil {
		cfg.DefaultRetentionDays = *file.DefaultRetentionDays
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	if err := Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// Validate checks a resolved configuration.
func Validate(cfg model.Config) error {
	var errs []error

	if len(cfg.Regions) == 0 {
		errs = append(errs, errors.New("at least one region is required"))
	}
	for _, region := range cfg.Regions {
		if strings.TrimSpace(region) == "" {
			errs = append(errs, errors.New("region names must not be empty"))
			break
		}
	}
	if len(cfg.MarkerTags) == 0 {
		errs = append(errs, errors.New("at least one marker tag is required"))
	}
	if strings.TrimSpace(cfg.ManagedTagKey) == "" {
		errs = append(errs, errors.New("managedTagKey must not be empty"))
	}
	if cfg.DefaultRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("defaultRetentionDays must be >= 0, got %d", cfg.DefaultRetentionDays))
	}
	if cfg.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("maxAttempts must be >= 0, got %d", cfg.MaxAttempts))
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", cfg.LogFormat))
	}

	return errors.Join(errs...)
}

func firstNonEmpty(candidates ...[]string) []string {
	for _, candidate := range candidates {
		if len(candidate) > 0 {
			return append([]string(nil), candidate...)
		}
	}
	return nil
}

func boolOverride(flag *bool, fallback bool) bool {
	if flag != nil {
		return *flag
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
