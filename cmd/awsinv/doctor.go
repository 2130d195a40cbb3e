package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/awsinv/internal/config"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
	awsinventory "github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/inventory"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// DoctorResult is the structured output of awsinv doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable table
// (default).
type DoctorResult struct {
	AWS struct {
		Profile        string   `json:"profile,omitempty"`
		Credentials    bool     `json:"credentials_ok"`
		AccountID      string   `json:"account_id,omitempty"`
		CallerARN      string   `json:"caller_arn,omitempty"`
		IdentityOK     bool     `json:"identity_ok"`
		Region         string   `json:"region,omitempty"`
		RegionKnown    bool     `json:"region_known"`
		RegionEnabled  bool     `json:"region_enabled"`
		RegionsOK      bool     `json:"regions_ok"`
		EnabledRegions int      `json:"enabled_regions"`
		Profiles       []string `json:"profiles,omitempty"`
		Error          string   `json:"error,omitempty"`
	} `json:"aws"`

	Config struct {
		Path    string   `json:"path"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"config"`

	OverallHealthy bool `json:"overall_healthy"`
}

// doctorOptions selects what doctor checks.
type doctorOptions struct {
	Profile string
	Region  string
	Format  string
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, identity, region and config before an inventory run",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			region, _ := cmd.Flags().GetString("region")
			path, _ := cmd.Flags().GetString("config")

			result, err := runDoctor(
				cmd.Context(),
				common.NewDefaultAWSClientProvider(),
				config.NewFileLoader(path),
				retry.NewGuard(retry.DefaultDelay, slog.New(slog.DiscardHandler)),
				cmd.OutOrStdout(),
				doctorOptions{Profile: profile, Region: region, Format: format},
			)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().String("region", "", "AWS region to check (default: profile region)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures. Callers must inspect
// result.OverallHealthy to determine whether the environment is healthy.
func runDoctor(
	ctx context.Context,
	provider common.AWSClientProvider,
	loader config.Loader,
	guard *retry.Guard,
	w io.Writer,
	opts doctorOptions,
) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, loader, guard, opts)

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(
	ctx context.Context,
	provider common.AWSClientProvider,
	loader config.Loader,
	guard *retry.Guard,
	opts doctorOptions,
) DoctorResult {
	var result DoctorResult

	// Config: an absent file is fine, an unreadable or invalid one is not.
	result.Config.Path = loader.ConfigPath()
	if result.Config.Path != "" {
		if _, err := os.Stat(result.Config.Path); err == nil {
			result.Config.Present = true
		} else if !os.IsNotExist(err) {
			result.Config.Present = true
			result.Config.Errors = []string{err.Error()}
		}
	}
	if result.Config.Present && len(result.Config.Errors) == 0 {
		cfg, err := loader.Load()
		if err != nil {
			result.Config.Errors = []string{err.Error()}
		} else {
			result.Config.Valid = true
			if opts.Profile == "" {
				opts.Profile = cfg.AWS.DefaultProfile
			}
			if opts.Region == "" {
				opts.Region = cfg.AWS.DefaultRegion
			}
		}
	}

	// Discovery failures only affect the informational profile list.
	if profiles, err := common.DiscoverProfiles(); err == nil {
		result.AWS.Profiles = profiles
	}

	// AWS: region name → credentials → STS identity → enabled regions.
	result.AWS.Profile = opts.Profile
	if opts.Region != "" && !common.IsKnownRegion(opts.Region) {
		result.AWS.Region = opts.Region
		result.AWS.Error = fmt.Sprintf("invalid region %q", opts.Region)
		return finishDoctorResult(result)
	}

	profileCfg, err := provider.LoadProfile(ctx, common.LoadOptions{Profile: opts.Profile, Region: opts.Region})
	if err != nil {
		result.AWS.Error = err.Error()
		return finishDoctorResult(result)
	}
	result.AWS.Credentials = true
	result.AWS.Region = profileCfg.Region
	result.AWS.RegionKnown = common.IsKnownRegion(profileCfg.Region)

	id, err := awsinventory.ResolveIdentity(ctx, profileCfg.Clients.STS, guard)
	if err != nil {
		result.AWS.Error = err.Error()
		return finishDoctorResult(result)
	}
	result.AWS.IdentityOK = true
	result.AWS.AccountID = id.AccountID
	result.AWS.CallerARN = id.ARN

	regions, err := provider.GetActiveRegions(ctx, profileCfg)
	if err != nil {
		result.AWS.Error = err.Error()
		return finishDoctorResult(result)
	}
	result.AWS.RegionsOK = true
	result.AWS.EnabledRegions = len(regions)
	for _, r := range regions {
		if r == profileCfg.Region {
			result.AWS.RegionEnabled = true
			break
		}
	}

	return finishDoctorResult(result)
}

func finishDoctorResult(result DoctorResult) DoctorResult {
	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.IdentityOK &&
		result.AWS.RegionKnown &&
		result.AWS.RegionsOK &&
		result.AWS.RegionEnabled &&
		(!result.Config.Present || result.Config.Valid)
	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}

	switch {
	case !result.AWS.Credentials && result.AWS.Region != "":
		doctorPrint(w, "Region", "FAIL", result.AWS.Error)
		doctorPrint(w, "Credentials", "FAIL", "skipped")
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	case !result.AWS.Credentials:
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	default:
		doctorPrint(w, "Credentials", "OK", "")
		if !result.AWS.IdentityOK {
			doctorPrint(w, "STS Identity", "FAIL", result.AWS.Error)
			doctorPrint(w, "Regions API", "FAIL", "skipped")
			break
		}
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		doctorPrint(w, "Caller", "OK", result.AWS.CallerARN)
		if !result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
			break
		}
		doctorPrint(w, "Regions API", "OK", fmt.Sprintf("%d enabled", result.AWS.EnabledRegions))
		switch {
		case !result.AWS.RegionKnown:
			doctorPrint(w, "Region", "FAIL", result.AWS.Region+" is not a known region")
		case !result.AWS.RegionEnabled:
			doctorPrint(w, "Region", "FAIL", result.AWS.Region+" is not enabled for this account")
		default:
			doctorPrint(w, "Region", "OK", result.AWS.Region)
		}
	}
	if len(result.AWS.Profiles) > 0 {
		doctorPrint(w, "Profiles found", fmt.Sprintf("%d", len(result.AWS.Profiles)), "")
	}

	fmt.Fprintln(w, "\nConfig:")
	if !result.Config.Present {
		doctorPrint(w, "Config file", "Not found (optional)", result.Config.Path)
		return
	}
	doctorPrint(w, "Config file", "YES", result.Config.Path)
	if result.Config.Valid {
		doctorPrint(w, "Config valid", "OK", "")
		return
	}
	for _, e := range result.Config.Errors {
		doctorPrint(w, "Config valid", "FAIL", e)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", label, status)
}
