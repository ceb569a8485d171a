package expiry

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/sirupsen/logrus"
)

type expiryService struct {
	cfg    model.Config
	clock  clock.Clock
	logger *logrus.Entry
}

// ExpiryService deregisters managed images past their DeleteAfter date and
// deletes their snapshots
type ExpiryService interface {
	Run(ctx context.Context, compute service.ComputeService, report *model.RegionReport) error
}
