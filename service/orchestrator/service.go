package orchestrator

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/elC0mpa/ami-rotator/service/backup"
	"github.com/elC0mpa/ami-rotator/service/expiry"
	"github.com/sirupsen/logrus"
)

func NewService(cfg model.Config, clk clock.Clock, logger *logrus.Entry, identityService service.IdentityService, computeFactory service.ComputeFactory) *orchestratorService {
	return &orchestratorService{
		cfg:             cfg,
		clock:           clk,
		logger:          logger,
		identityService: identityService,
		computeFactory:  computeFactory,
		backupService:   backup.NewService(cfg, clk, logger),
		expiryService:   expiry.NewService(cfg, clk, logger),
	}
}

// Orchestrate runs backup then expiry for every configured region, in order.
// The partial report is returned alongside a fatal error.
func (s *orchestratorService) Orchestrate(ctx context.Context) (*model.RunReport, error) {
	report := &model.RunReport{
		StartedAt: s.clock.Now(),
		DryRun:    s.cfg.DryRun,
	}
	defer func() {
		report.EndedAt = s.clock.Now()
	}()

	if s.identityService != nil {
		account, err := s.identityService.GetAccountInfo(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Unable to resolve account identity")
		} else {
			report.AccountID = account.AccountID
			s.logger.WithField("account", account.AccountID).Info("Running image rotation")
		}
	}

	for _, region := range s.cfg.Regions {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		regionReport := model.RegionReport{Region: region}
		err := s.runRegion(ctx, region, &regionReport)
		if err != nil {
			regionReport.Fatal = err
		}
		report.Regions = append(report.Regions, regionReport)

		if err != nil {
			if !s.cfg.IsolateFailures {
				return report, err
			}
			s.logger.WithError(err).WithField("region", region).Error("Region failed, continuing with next region")
		}
	}

	return report, nil
}

func (s *orchestratorService) runRegion(ctx context.Context, region string, report *model.RegionReport) error {
	s.logger.WithField("region", region).Info("Processing region")

	compute, err := s.computeFactory(ctx, region)
	if err != nil {
		return fmt.Errorf("failed to create compute client for %s: %w", region, err)
	}

	if err := s.backupService.Run(ctx, compute, report); err != nil {
		return err
	}

	return s.expiryService.Run(ctx, compute, report)
}
