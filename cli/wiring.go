package cli

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	awsconfig "github.com/elC0mpa/ami-rotator/service/aws/config"
	awsec2 "github.com/elC0mpa/ami-rotator/service/aws/ec2"
	awssts "github.com/elC0mpa/ami-rotator/service/aws/sts"
	"github.com/elC0mpa/ami-rotator/service/config"
	"github.com/elC0mpa/ami-rotator/service/logging"
	"github.com/elC0mpa/ami-rotator/service/orchestrator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newOrchestrator builds the region driver against AWS. Tests replace it.
var newOrchestrator = func(ctx context.Context, cfg model.Config, logger *logrus.Entry) (orchestrator.OrchestratorService, error) {
	cfgService := awsconfig.NewService()

	var identity service.IdentityService
	awsCfg, err := cfgService.GetAWSCfg(ctx, cfg.Regions[0], cfg.Profile, cfg.MaxAttempts)
	if err != nil {
		logger.WithError(err).Warn("Unable to load AWS config for identity lookup")
	} else {
		identity = awssts.NewService(awsCfg)
	}

	factory := awsec2.NewFactory(cfgService, cfg.Profile, cfg.MaxAttempts)
	return orchestrator.NewService(cfg, clock.New(), logger, identity, factory), nil
}

// loadRuntime resolves the configuration and builds the logger.
func loadRuntime(cmd *cobra.Command, flags *model.Flags) (model.Config, *logrus.Entry, error) {
	var err error
	if flags.DryRun, err = changedBool(cmd, "dry-run"); err != nil {
		return model.Config{}, nil, err
	}
	if flags.IsolateFailures, err = changedBool(cmd, "isolate-failures"); err != nil {
		return model.Config{}, nil, err
	}

	file, err := config.Load(flags.ConfigPath)
	if err != nil {
		return model.Config{}, nil, err
	}

	cfg, err := config.Resolve(file, *flags)
	if err != nil {
		return model.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return model.Config{}, nil, err
	}

	entry := logrus.NewEntry(logger)
	if cfg.DryRun {
		entry = entry.WithField("dryRun", true)
	}
	return cfg, entry, nil
}

// changedBool returns the flag value only when it was set on the command
// line, so an explicit false can override the config file.
func changedBool(cmd *cobra.Command, name string) (*bool, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
