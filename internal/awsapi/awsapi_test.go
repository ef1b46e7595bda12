package awsapi_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/awsapi/awsapitest"
)

var fast = awsapi.Policy{Attempts: 3, Interval: time.Millisecond}

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code + " happened"}
}

// ══════════════════════════════════════════════════════════════════════════════
// Errors
// ══════════════════════════════════════════════════════════════════════════════

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{apiErr("NoSuchEntity"), true},
		{apiErr("InvalidVpcID.NotFound"), true},
		{apiErr("InvalidInternetGatewayID.NotFound"), true},
		{fmt.Errorf("wrapped: %w", apiErr("InvalidSubnetID.NotFound")), true},
		{apiErr("UnauthorizedOperation"), false},
		{errors.New("plain"), false},
		{nil, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, awsapi.IsNotFound(tt.err), "%v", tt.err)
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "DryRunOperation: DryRunOperation happened", awsapi.Describe(apiErr("DryRunOperation")))
	assert.Equal(t, "plain", awsapi.Describe(errors.New("plain")))
	assert.Empty(t, awsapi.Describe(nil))
}

// ══════════════════════════════════════════════════════════════════════════════
// Retry
// ══════════════════════════════════════════════════════════════════════════════

func TestRetry_SucceedsAfterNotFound(t *testing.T) {
	calls := 0
	err := awsapi.Retry(context.Background(), fast, "vpc", nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return apiErr("InvalidVpcID.NotFound")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	err := awsapi.Retry(context.Background(), fast, "subnet", nil, func(context.Context) error {
		calls++
		return apiErr("InvalidSubnetID.NotFound")
	})

	var exhausted *awsapi.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "subnet", exhausted.Resource)
	assert.Equal(t, 2*time.Millisecond, exhausted.Wait)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "InvalidSubnetID.NotFound")
}

func TestRetry_PermanentError(t *testing.T) {
	calls := 0
	err := awsapi.Retry(context.Background(), fast, "vpc", nil, func(context.Context) error {
		calls++
		return apiErr("VpcLimitExceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "VpcLimitExceeded", awsapi.ErrorCode(err))
	var exhausted *awsapi.RetryExhaustedError
	assert.False(t, errors.As(err, &exhausted))
}

func TestRetry_CustomRetryable(t *testing.T) {
	calls := 0
	retryable := func(err error) bool { return awsapi.IsCode(err, "InvalidInstanceID") }
	err := awsapi.Retry(context.Background(), fast, "association", retryable, func(context.Context) error {
		calls++
		if calls == 1 {
			return apiErr("InvalidInstanceID")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPolicyWait(t *testing.T) {
	assert.Equal(t, 59*time.Second, awsapi.TagPolicy.Wait())
	assert.Equal(t, 55*time.Second, awsapi.StatePolicy.Wait())
	assert.Zero(t, awsapi.Policy{}.Wait())
}

// ══════════════════════════════════════════════════════════════════════════════
// Tags
// ══════════════════════════════════════════════════════════════════════════════

func TestTagWithRetry(t *testing.T) {
	calls := 0
	mock := &awsapitest.EC2{
		CreateTagsFunc: func(_ context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
			calls++
			assert.Equal(t, []string{"igw-1"}, params.Resources)
			if calls == 1 {
				return nil, apiErr("InvalidInternetGatewayID.NotFound")
			}
			return &ec2.CreateTagsOutput{}, nil
		},
	}

	err := awsapi.TagWithRetry(context.Background(), mock, fast, "internet gateway igw-1", []string{"igw-1"}, awsapi.NamespaceTags("mc"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTagWithRetry_ExhaustionIsFatal(t *testing.T) {
	mock := &awsapitest.EC2{
		CreateTagsFunc: func(context.Context, *ec2.CreateTagsInput, ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
			return nil, apiErr("InvalidRouteTableID.NotFound")
		},
	}

	err := awsapi.TagWithRetry(context.Background(), mock, fast, "route table rtb-1", []string{"rtb-1"}, awsapi.NamespaceTags("mc"))

	var exhausted *awsapi.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Contains(t, err.Error(), "route table rtb-1")
}

func TestTagMap(t *testing.T) {
	tags := awsapi.NamespaceTags("mc", awsapi.NameTagValue("survival"))
	assert.Equal(t, map[string]string{"Namespace": "mc", "Name": "survival"}, awsapi.TagMap(tags))
}

// ══════════════════════════════════════════════════════════════════════════════
// Regions
// ══════════════════════════════════════════════════════════════════════════════

func TestAllowedRegions_Whitelist(t *testing.T) {
	mock := &awsapitest.EC2{}
	regions, err := awsapi.AllowedRegions(context.Background(), mock, []string{"us-west-2", "eu-west-1", "us-west-2"})

	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1", "us-west-2"}, regions)
}

func TestAllowedRegions_DescribeRegions(t *testing.T) {
	mock := &awsapitest.EC2{
		DescribeRegionsFunc: func(context.Context, *ec2.DescribeRegionsInput, ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
			return &ec2.DescribeRegionsOutput{Regions: []ec2types.Region{
				{RegionName: aws.String("us-east-1")},
				{RegionName: aws.String("ap-south-1")},
			}}, nil
		},
	}

	regions, err := awsapi.AllowedRegions(context.Background(), mock, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ap-south-1", "us-east-1"}, regions)
}

func TestAllowedRegions_Error(t *testing.T) {
	mock := &awsapitest.EC2{
		DescribeRegionsFunc: func(context.Context, *ec2.DescribeRegionsInput, ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
			return nil, apiErr("AuthFailure")
		},
	}

	_, err := awsapi.AllowedRegions(context.Background(), mock, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describe regions")
}
