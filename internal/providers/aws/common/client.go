package common

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved AWS profile with its SDK configuration and
// initialised service clients. It is the unit passed between provider
// functions and into the engine.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// Region is the region every regional client is scoped to.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration, including the
	// explicit transport timeouts and retryer from TransportOptions.
	Config aws.Config

	// Clients holds initialised service clients scoped to Region.
	Clients *ClientSet
}

// TransportOptions bounds every SDK call. Zero fields fall back to the
// Default* constants so no call ever inherits an unbounded default.
type TransportOptions struct {
	// ConnectTimeout caps TCP dial time.
	ConnectTimeout time.Duration

	// RequestTimeout caps a single HTTP round trip, including reading the body.
	RequestTimeout time.Duration

	// MaxAttempts is the SDK retryer's attempt budget per call. It sits below
	// the inventory's own one-retry guard.
	MaxAttempts int
}

// LoadOptions selects the profile and region to load.
type LoadOptions struct {
	// Profile is the shared-config profile. Empty selects the default chain.
	Profile string

	// Region overrides the profile region. It must already be validated.
	Region string

	Transport TransportOptions
}

// AWSClientProvider loads AWS configurations and resolves regions.
// It is the sole entry point for AWS credential and region management across
// the entire provider layer.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for opts.Profile scoped to
	// opts.Region (or the profile's own region when empty).
	LoadProfile(ctx context.Context, opts LoadOptions) (*ProfileConfig, error)

	// GetActiveRegions returns all regions that are enabled for the account
	// associated with cfg.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)

	// ConfigForRegion clones cfg with the target region set.
	// Use this to obtain a region-scoped aws.Config for SDK client construction.
	ConfigForRegion(cfg *ProfileConfig, region string) aws.Config
}
