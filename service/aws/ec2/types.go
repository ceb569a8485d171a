package awsec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	svc "github.com/elC0mpa/ami-rotator/service"
)

// ec2API is the subset of *ec2.Client used by the service
type ec2API interface {
	ec2.DescribeInstancesAPIClient
	ec2.DescribeImagesAPIClient
	CreateImage(ctx context.Context, params *ec2.CreateImageInput, optFns ...func(*ec2.Options)) (*ec2.CreateImageOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	DeregisterImage(ctx context.Context, params *ec2.DeregisterImageInput, optFns ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error)
	DeleteSnapshot(ctx context.Context, params *ec2.DeleteSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error)
}

type service struct {
	client ec2API
	region string
}

type EC2Service interface {
	svc.ComputeService
	Region() string
}

var _ EC2Service = (*service)(nil)
