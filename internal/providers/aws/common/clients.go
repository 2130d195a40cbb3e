package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations used by this project. Using narrow
// interfaces instead of the full SDK clients makes mocking in unit tests
// trivial: create a struct that satisfies the interface and return canned data.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS operations used to verify the caller.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// EC2RegionClient is the subset of EC2 operations used for region discovery.
// Inventory EC2 operations are defined in the inventory package.
type EC2RegionClient interface {
	DescribeRegions(
		ctx context.Context,
		params *ec2.DescribeRegionsInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeRegionsOutput, error)
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds the account-level clients for a given profile and region.
// All fields are interfaces so they can be replaced with mocks in tests.
type ClientSet struct {
	STS STSClient
	EC2 EC2RegionClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS: sts.NewFromConfig(cfg),
		EC2: ec2.NewFromConfig(cfg),
	}
}
