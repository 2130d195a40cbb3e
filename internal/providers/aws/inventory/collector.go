package awsinventory

import (
	"context"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
)

// InventoryCollector enumerates the resources of one AWS account and region.
//
// ResolveIdentity is the only fallible method: an unverified caller makes the
// whole run useless. The Collect methods never fail; they log and degrade at
// the narrowest scope and return whatever they gathered. Every returned list
// is non-nil.
type InventoryCollector interface {
	ResolveIdentity(ctx context.Context, profile *common.ProfileConfig) (Identity, error)
	CollectIAMUsers(ctx context.Context, profile *common.ProfileConfig) []models.IAMUserRecord
	CollectInstances(ctx context.Context, profile *common.ProfileConfig) []models.InstanceRecord
	CollectBuckets(ctx context.Context, profile *common.ProfileConfig, provider common.AWSClientProvider) []models.BucketRecord
	CollectSecurityGroups(ctx context.Context, profile *common.ProfileConfig) []models.SecurityGroupRecord
}
