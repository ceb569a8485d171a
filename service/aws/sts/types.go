package awssts

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/elC0mpa/ami-rotator/model"
)

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type service struct {
	client stsAPI
}

type STSService interface {
	GetAccountInfo(ctx context.Context) (*model.AccountInfo, error)
}
