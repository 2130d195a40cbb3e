package awsinventory

import (
	"context"
	"sync"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// DefaultInventoryCollector is the production InventoryCollector. Every
// remote enumeration runs under guard; per-user and per-bucket enrichment is
// capped at concurrency calls in flight.
type DefaultInventoryCollector struct {
	factory     ClientFactory
	guard       *retry.Guard
	concurrency int
}

// NewDefaultInventoryCollector returns a DefaultInventoryCollector wired to
// production AWS SDK clients. A nil guard uses retry.DefaultDelay; a
// non-positive concurrency uses DefaultConcurrency.
func NewDefaultInventoryCollector(guard *retry.Guard, concurrency int) *DefaultInventoryCollector {
	return NewDefaultInventoryCollectorWithFactory(NewClients, guard, concurrency)
}

// NewDefaultInventoryCollectorWithFactory returns a DefaultInventoryCollector
// that uses the supplied factory, allowing tests to inject fake clients.
func NewDefaultInventoryCollectorWithFactory(f ClientFactory, guard *retry.Guard, concurrency int) *DefaultInventoryCollector {
	if guard == nil {
		guard = retry.NewGuard(retry.DefaultDelay, nil)
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &DefaultInventoryCollector{factory: f, guard: guard, concurrency: concurrency}
}

// ResolveIdentity verifies the caller with the profile's STS client.
func (c *DefaultInventoryCollector) ResolveIdentity(ctx context.Context, profile *common.ProfileConfig) (Identity, error) {
	return ResolveIdentity(ctx, profile.Clients.STS, c.guard)
}

// CollectIAMUsers implements InventoryCollector.
func (c *DefaultInventoryCollector) CollectIAMUsers(ctx context.Context, profile *common.ProfileConfig) []models.IAMUserRecord {
	return collectIAMUsers(ctx, c.factory(profile.Config).IAM, c.guard, c.concurrency)
}

// CollectInstances implements InventoryCollector.
func (c *DefaultInventoryCollector) CollectInstances(ctx context.Context, profile *common.ProfileConfig) []models.InstanceRecord {
	return collectInstances(ctx, c.factory(profile.Config).EC2, c.guard)
}

// CollectSecurityGroups implements InventoryCollector.
func (c *DefaultInventoryCollector) CollectSecurityGroups(ctx context.Context, profile *common.ProfileConfig) []models.SecurityGroupRecord {
	return collectSecurityGroups(ctx, c.factory(profile.Config).EC2, c.guard)
}

// CollectBuckets implements InventoryCollector. Object listings go to a
// client scoped to each bucket's own region so cross-region buckets are not
// redirected.
func (c *DefaultInventoryCollector) CollectBuckets(
	ctx context.Context,
	profile *common.ProfileConfig,
	provider common.AWSClientProvider,
) []models.BucketRecord {
	home := c.factory(profile.Config).S3
	return collectBuckets(ctx, home, c.s3ByRegion(profile, provider, home), c.guard, c.concurrency)
}

// s3ByRegion returns a regionalS3 that builds at most one client per region
// and reuses home for the profile's own region.
func (c *DefaultInventoryCollector) s3ByRegion(
	profile *common.ProfileConfig,
	provider common.AWSClientProvider,
	home S3Client,
) regionalS3 {
	var (
		mu      sync.Mutex
		clients = map[string]S3Client{profile.Region: home}
	)
	return func(region string) S3Client {
		mu.Lock()
		defer mu.Unlock()
		if cl, ok := clients[region]; ok {
			return cl
		}
		cl := c.factory(provider.ConfigForRegion(profile, region)).S3
		clients[region] = cl
		return cl
	}
}
