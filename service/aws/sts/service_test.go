package awssts

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSTS struct {
	output *sts.GetCallerIdentityOutput
	err    error
}

func (s stubSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return s.output, s.err
}

func TestGetAccountInfo(t *testing.T) {
	t.Parallel()

	svc := &service{client: stubSTS{output: &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/backup"),
	}}}

	info, err := svc.GetAccountInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "aws", info.Provider)
	assert.Equal(t, "123456789012", info.AccountID)
	assert.Equal(t, "arn:aws:iam::123456789012:user/backup", info.AccountName)
}

func TestGetAccountInfo_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("expired token")
	svc := &service{client: stubSTS{err: boom}}

	_, err := svc.GetAccountInfo(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
