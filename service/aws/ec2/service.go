package awsec2

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/elC0mpa/ami-rotator/model"
	svc "github.com/elC0mpa/ami-rotator/service"
	awsconfig "github.com/elC0mpa/ami-rotator/service/aws/config"
)

const (
	errCodeOptInRequired   = "OptInRequired"
	errCodeDryRunOperation = "DryRunOperation"
)

func NewService(awsconfig aws.Config) *service {
	client := ec2.NewFromConfig(awsconfig)
	return &service{
		client: client,
		region: awsconfig.Region,
	}
}

// NewFactory returns a svc.ComputeFactory that loads the AWS config of
// each region through cfgService.
func NewFactory(cfgService awsconfig.ConfigService, profile string, maxAttempts int) svc.ComputeFactory {
	return func(ctx context.Context, region string) (svc.ComputeService, error) {
		cfg, err := cfgService.GetAWSCfg(ctx, region, profile, maxAttempts)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config for %s: %w", region, err)
		}
		return NewService(cfg), nil
	}
}

func (s *service) Region() string {
	return s.region
}

func (s *service) ListInstancesByTagKeys(ctx context.Context, keys []string) ([]model.Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("tag-key"),
				Values: keys,
			},
		},
	}

	var instances []model.Instance

	paginator := ec2.NewDescribeInstancesPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapError("describe instances", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, toInstance(instance))
			}
		}
	}

	return instances, nil
}

func (s *service) CreateImage(ctx context.Context, input model.CreateImageInput) (string, error) {
	output, err := s.client.CreateImage(ctx, &ec2.CreateImageInput{
		InstanceId:  aws.String(input.InstanceID),
		Name:        aws.String(input.Name),
		Description: aws.String(input.Description),
		NoReboot:    aws.Bool(input.NoReboot),
		DryRun:      aws.Bool(input.DryRun),
	})
	if err != nil {
		if input.DryRun && isErrorCode(err, errCodeDryRunOperation) {
			return "", nil
		}
		return "", wrapError("create image from "+input.InstanceID, err)
	}

	return aws.ToString(output.ImageId), nil
}

func (s *service) CreateTags(ctx context.Context, resourceID string, tags map[string]string) error {
	_, err := s.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{resourceID},
		Tags:      toTags(tags),
	})
	if err != nil {
		return wrapError("tag "+resourceID, err)
	}

	return nil
}

func (s *service) ListOwnedImagesByTagKey(ctx context.Context, key string) ([]model.Image, error) {
	input := &ec2.DescribeImagesInput{
		Owners: []string{"self"},
		Filters: []types.Filter{
			{
				Name:   aws.String("tag-key"),
				Values: []string{key},
			},
		},
	}

	var images []model.Image

	paginator := ec2.NewDescribeImagesPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapError("describe images", err)
		}

		for _, image := range page.Images {
			images = append(images, toImage(image))
		}
	}

	return images, nil
}

func (s *service) DeregisterImage(ctx context.Context, imageID string, dryRun bool) error {
	_, err := s.client.DeregisterImage(ctx, &ec2.DeregisterImageInput{
		ImageId: aws.String(imageID),
		DryRun:  aws.Bool(dryRun),
	})
	if err != nil {
		if dryRun && isErrorCode(err, errCodeDryRunOperation) {
			return nil
		}
		return wrapError("deregister image "+imageID, err)
	}

	return nil
}

func (s *service) DeleteSnapshot(ctx context.Context, snapshotID string, dryRun bool) error {
	_, err := s.client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
		SnapshotId: aws.String(snapshotID),
		DryRun:     aws.Bool(dryRun),
	})
	if err != nil {
		if dryRun && isErrorCode(err, errCodeDryRunOperation) {
			return nil
		}
		return wrapError("delete snapshot "+snapshotID, err)
	}

	return nil
}

func toInstance(instance types.Instance) model.Instance {
	var state string
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	return model.Instance{
		ID:    aws.ToString(instance.InstanceId),
		State: state,
		Tags:  fromTags(instance.Tags),
	}
}

func toImage(image types.Image) model.Image {
	var snapshotIDs []string
	for _, mapping := range image.BlockDeviceMappings {
		// Instance store mappings have no Ebs block
		if mapping.Ebs == nil || mapping.Ebs.SnapshotId == nil {
			continue
		}
		snapshotIDs = append(snapshotIDs, aws.ToString(mapping.Ebs.SnapshotId))
	}

	return model.Image{
		ID:          aws.ToString(image.ImageId),
		Name:        aws.ToString(image.Name),
		Tags:        fromTags(image.Tags),
		SnapshotIDs: snapshotIDs,
	}
}

func fromTags(tags []types.Tag) map[string]string {
	result := make(map[string]string, len(tags))
	for _, tag := range tags {
		result[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return result
}

func toTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]types.Tag, 0, len(keys))
	for _, key := range keys {
		result = append(result, types.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}
	return result
}

// wrapError maps OptInRequired onto model.ErrRegionNotEnabled while keeping
// the API error in the chain.
func wrapError(operation string, err error) error {
	if isErrorCode(err, errCodeOptInRequired) {
		return fmt.Errorf("failed to %s: %w: %w", operation, model.ErrRegionNotEnabled, err)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == code
	}
	return false
}
