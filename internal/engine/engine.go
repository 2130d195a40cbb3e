package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// ParseReportFormat returns the ReportFormat named by s.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(s); f {
	case ReportFormatJSON, ReportFormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json or table)", s)
	}
}

// InventoryOptions configures a single inventory run.
// It is the sole input to Engine.RunInventory.
type InventoryOptions struct {
	// Profile is the named AWS profile to use. Empty means the default
	// credential chain.
	Profile string

	// Region is the region to inventory. When set it must be a known region
	// code; when empty the profile's configured region is used.
	Region string

	// Transport bounds every SDK call made during the run.
	Transport common.TransportOptions
}

// Engine is the central orchestration interface. It resolves the caller,
// runs every collector and returns the assembled report.
//
// Engine must not call the AWS SDK directly; it delegates to the provider
// and collector interfaces.
type Engine interface {
	RunInventory(ctx context.Context, opts InventoryOptions) (*models.InventoryReport, error)
}

// RegionError reports an explicit region argument that is not a known
// region code. It is raised before any credentials are loaded.
type RegionError struct {
	Region string
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("invalid region %q", e.Region)
}

// clock returns the current time. Tests replace it for stable timestamps.
type clock func() time.Time
