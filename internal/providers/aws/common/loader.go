package common

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// Transport defaults applied when TransportOptions leaves a field unset.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxAttempts    = 3

	// FallbackRegion is used when neither the flag nor the profile names a
	// region, so that SDK clients can still be constructed.
	FallbackRegion = "us-east-1"
)

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
// It reads credentials from the standard AWS shared config and credentials files
// (~/.aws/config and ~/.aws/credentials) using the AWS SDK v2.
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f}
}

// ---------------------------------------------------------------------------
// AWSClientProvider implementation
// ---------------------------------------------------------------------------

// LoadProfile loads the AWS SDK config for opts.Profile with an explicit HTTP
// client and standard-mode retryer, and returns the ProfileConfig with
// initialised clients. It performs no remote call; identity is verified
// separately so its failure can be reported distinctly.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, opts LoadOptions) (*ProfileConfig, error) {
	t := opts.Transport.withDefaults()

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(newHTTPClient(t)),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(t.MaxAttempts),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(opts.Profile), err)
	}

	if cfg.Region == "" {
		cfg.Region = FallbackRegion
	}

	return &ProfileConfig{
		ProfileName: profileDisplayName(opts.Profile),
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     p.factory(cfg),
	}, nil
}

// GetActiveRegions returns all AWS regions that are enabled (opted-in) for
// the account associated with cfg. It uses EC2 DescribeRegions, which is a
// global call and works correctly regardless of the client's home region.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false (default) returns only regions the account has
		// opted into; it excludes disabled / not-subscribed regions.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ConfigForRegion returns a copy of cfg.Config with Region set to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config.Copy()
	regional.Region = region
	return regional
}

// DiscoverProfiles returns the deduplicated profile names found in
// ~/.aws/credentials and ~/.aws/config.
func DiscoverProfiles() ([]string, error) {
	names, err := discoverProfileNames()
	if err != nil {
		return nil, fmt.Errorf("discover AWS profiles: %w", err)
	}
	return names, nil
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

func (t TransportOptions) withDefaults() TransportOptions {
	if t.ConnectTimeout <= 0 {
		t.ConnectTimeout = DefaultConnectTimeout
	}
	if t.RequestTimeout <= 0 {
		t.RequestTimeout = DefaultRequestTimeout
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = DefaultMaxAttempts
	}
	return t
}

// newHTTPClient builds the SDK HTTP client with bounded dial, TLS handshake,
// response-header and overall request timeouts.
func newHTTPClient(t TransportOptions) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithTimeout(t.RequestTimeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = t.ConnectTimeout
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tr.TLSHandshakeTimeout = t.ConnectTimeout
			tr.ResponseHeaderTimeout = t.RequestTimeout
		})
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// discoverProfileNames reads ~/.aws/credentials and ~/.aws/config and returns
// the deduplicated list of all profile names found. "default" is always
// normalised to the string "default".
func discoverProfileNames() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	// ~/.aws/credentials: section headers are the bare profile name.
	credProfiles, err := parseProfilesFromFile(filepath.Join(home, ".aws", "credentials"), false)
	if err != nil {
		return nil, err
	}

	// ~/.aws/config: non-default profiles are prefixed with "profile ".
	cfgProfiles, err := parseProfilesFromFile(filepath.Join(home, ".aws", "config"), true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credProfiles, cfgProfiles...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

// parseProfilesFromFile scans path for INI section headers ([...]) and
// returns the profile name from each header. When stripProfilePrefix is true
// the "profile " prefix used in ~/.aws/config is removed. A missing file
// yields nil without an error.
func parseProfilesFromFile(path string, stripProfilePrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var profiles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		name := line[1 : len(line)-1]
		// sso-session sections are not profiles.
		if strings.HasPrefix(name, "sso-session ") || strings.HasPrefix(name, "services ") {
			continue
		}
		if stripProfilePrefix && name != "default" {
			name = strings.TrimPrefix(name, "profile ")
		}
		profiles = append(profiles, strings.TrimSpace(name))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return profiles, nil
}
