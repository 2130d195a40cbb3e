package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
	awsinventory "github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/inventory"
)

// InventoryEngine is the production implementation of Engine.
// It coordinates region validation, identity verification, collection and
// report assembly. It never calls the AWS SDK directly.
type InventoryEngine struct {
	provider  common.AWSClientProvider
	collector awsinventory.InventoryCollector
	logger    *slog.Logger
	now       clock
}

// NewInventoryEngine constructs an InventoryEngine wired to the supplied
// provider and collector. A nil logger uses slog.Default().
func NewInventoryEngine(
	provider common.AWSClientProvider,
	collector awsinventory.InventoryCollector,
	logger *slog.Logger,
) *InventoryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryEngine{
		provider:  provider,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// RunInventory implements Engine.
//
// An unknown explicit region returns *RegionError and a failed identity check
// returns *awsinventory.IdentityError; nothing is collected in either case.
// Collector failures never fail the run. If ctx is cancelled while the
// collectors run, ctx.Err() is returned instead of a partial report.
func (e *InventoryEngine) RunInventory(ctx context.Context, opts InventoryOptions) (*models.InventoryReport, error) {
	if opts.Region != "" && !common.IsKnownRegion(opts.Region) {
		return nil, &RegionError{Region: opts.Region}
	}

	profile, err := e.provider.LoadProfile(ctx, common.LoadOptions{
		Profile:   opts.Profile,
		Region:    opts.Region,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", opts.Profile, err)
	}

	id, err := e.collector.ResolveIdentity(ctx, profile)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("identity verified", "account", id.AccountID, "arn", id.ARN, "region", profile.Region)

	results := e.collectAll(ctx, profile)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	identity := models.AccountIdentity{
		AccountID:     id.AccountID,
		UserARN:       id.ARN,
		Region:        profile.Region,
		ScanTimestamp: models.FormatTimestamp(e.now()),
	}
	return BuildReport(identity, results), nil
}

// collectAll runs the four collectors concurrently. They share nothing
// mutable; each writes only its own field of the result.
func (e *InventoryEngine) collectAll(ctx context.Context, profile *common.ProfileConfig) CollectorResults {
	var (
		res CollectorResults
		g   errgroup.Group
	)

	g.Go(func() error {
		res.IAMUsers = e.collector.CollectIAMUsers(ctx, profile)
		return nil
	})
	g.Go(func() error {
		res.Instances = e.collector.CollectInstances(ctx, profile)
		return nil
	})
	g.Go(func() error {
		res.Buckets = e.collector.CollectBuckets(ctx, profile, e.provider)
		return nil
	})
	g.Go(func() error {
		res.SecurityGroups = e.collector.CollectSecurityGroups(ctx, profile)
		return nil
	})

	_ = g.Wait()
	return res
}
