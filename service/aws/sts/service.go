package awssts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/elC0mpa/ami-rotator/model"
)

func NewService(awsconfig aws.Config) *service {
	return &service{
		client: sts.NewFromConfig(awsconfig),
	}
}

// GetAccountInfo implements service.IdentityService
func (s *service) GetAccountInfo(ctx context.Context) (*model.AccountInfo, error) {
	output, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}

	return &model.AccountInfo{
		Provider:    "aws",
		AccountID:   aws.ToString(output.Account),
		AccountName: aws.ToString(output.Arn),
	}, nil
}
