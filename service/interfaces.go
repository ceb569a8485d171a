package service

import (
	"context"

	"github.com/elC0mpa/ami-rotator/model"
)

// IdentityService provides cloud account identity information
type IdentityService interface {
	GetAccountInfo(ctx context.Context) (*model.AccountInfo, error)
}

// ComputeService is the regional compute API the backup and expiry
// procedures run against. Listing calls return model.ErrRegionNotEnabled
// (wrapped) when the region is not opted in for the account.
type ComputeService interface {
	ListInstancesByTagKeys(ctx context.Context, keys []string) ([]model.Instance, error)
	CreateImage(ctx context.Context, input model.CreateImageInput) (string, error)
	CreateTags(ctx context.Context, resourceID string, tags map[string]string) error
	ListOwnedImagesByTagKey(ctx context.Context, key string) ([]model.Image, error)
	DeregisterImage(ctx context.Context, imageID string, dryRun bool) error
	DeleteSnapshot(ctx context.Context, snapshotID string, dryRun bool) error
}

// ComputeFactory builds a ComputeService bound to a region
type ComputeFactory func(ctx context.Context, region string) (ComputeService, error)
