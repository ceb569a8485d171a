package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/cmd/mcp/tools"
	awsconfig "github.com/elC0mpa/ami-rotator/service/aws/config"
	awsec2 "github.com/elC0mpa/ami-rotator/service/aws/ec2"
	awssts "github.com/elC0mpa/ami-rotator/service/aws/sts"
	"github.com/elC0mpa/ami-rotator/service/logging"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging error: %v\n", err)
		os.Exit(1)
	}

	cfgService := awsconfig.NewService()
	deps := tools.Deps{
		Config:  cfg,
		Clock:   clock.New(),
		Logger:  logrus.NewEntry(logger),
		Compute: awsec2.NewFactory(cfgService, cfg.Profile, cfg.MaxAttempts),
	}
	if awsCfg, err := cfgService.GetAWSCfg(context.Background(), cfg.Regions[0], cfg.Profile, cfg.MaxAttempts); err == nil {
		deps.Identity = awssts.NewService(awsCfg)
	}

	s := server.NewMCPServer(
		"ami-rotator-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools.RegisterRotationTools(s, deps)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
