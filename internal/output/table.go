package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
)

// TableOptions controls how RenderTable styles its output.
type TableOptions struct {
	// Colored styles section headings. Default false (CI-safe).
	Colored bool
}

// placeholder is shown for null or empty cells.
const placeholder = "-"

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// truncateField shortens s to at most max runes for ID/label columns.
// A single-rune ellipsis replaces the last rune when truncation occurs.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// orPlaceholder dereferences an optional cell.
func orPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

// column is one fixed-width table column.
type column struct {
	title string
	width int
}

// table writes fixed-width rows under a header and separator line. The last
// column is never padded or truncated.
type table struct {
	w    io.Writer
	cols []column
}

func (t table) header() {
	titles := make([]string, len(t.cols))
	for i, c := range t.cols {
		titles[i] = c.title
	}
	line := t.format(titles)
	fmt.Fprintln(t.w, line)
	fmt.Fprintln(t.w, strings.Repeat("-", len(line)))
}

func (t table) row(cells ...string) {
	fmt.Fprintln(t.w, t.format(cells))
}

func (t table) format(cells []string) string {
	var b strings.Builder
	for i, c := range t.cols {
		if i > 0 {
			b.WriteString("  ")
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(t.cols)-1 {
			b.WriteString(cell)
			continue
		}
		fmt.Fprintf(&b, "%-*s", c.width, truncateField(cell, c.width))
	}
	return strings.TrimRight(b.String(), " ")
}

// RenderTable writes a human-readable projection of report to w: the
// account header followed by one section per resource type. It shows only
// data present in the report.
func RenderTable(w io.Writer, report *models.InventoryReport, opts TableOptions) {
	heading := color.New(color.Bold, color.FgCyan)
	if opts.Colored {
		heading.EnableColor()
	} else {
		heading.DisableColor()
	}

	acc := report.AccountInfo
	fmt.Fprintf(w, "AWS Account: %s (%s)\n", acc.AccountID, acc.Region)
	fmt.Fprintf(w, "Caller:      %s\n", acc.UserARN)
	fmt.Fprintf(w, "Scan Time:   %s\n", acc.ScanTimestamp)

	res, sum := report.Resources, report.Summary

	section(w, heading, fmt.Sprintf("IAM USERS (%s total)", humanize.Comma(int64(sum.TotalUsers))), len(res.IAMUsers) == 0)
	if len(res.IAMUsers) > 0 {
		t := table{w: w, cols: []column{{"USERNAME", 24}, {"CREATED", 20}, {"LAST ACTIVITY", 20}, {"POLICIES", 0}}}
		t.header()
		for _, u := range res.IAMUsers {
			t.row(u.Username, orPlaceholder(u.CreateDate), orPlaceholder(u.LastActivity), policyNames(u.AttachedPolicies))
		}
	}

	section(w, heading, fmt.Sprintf("EC2 INSTANCES (%s total, %s running)",
		humanize.Comma(int64(len(res.EC2Instances))), humanize.Comma(int64(sum.RunningInstances))), len(res.EC2Instances) == 0)
	if len(res.EC2Instances) > 0 {
		t := table{w: w, cols: []column{{"INSTANCE ID", 20}, {"TYPE", 12}, {"STATE", 10}, {"PUBLIC IP", 15}, {"AZ", 12}, {"LAUNCHED", 20}, {"AMI", 0}}}
		t.header()
		for _, i := range res.EC2Instances {
			ami := i.AMIID
			if i.AMIName != nil {
				ami = fmt.Sprintf("%s (%s)", i.AMIID, *i.AMIName)
			}
			t.row(i.InstanceID, i.InstanceType, i.State, orPlaceholder(i.PublicIP), i.AvailabilityZone, orPlaceholder(i.LaunchTime), ami)
		}
	}

	section(w, heading, fmt.Sprintf("S3 BUCKETS (%s total)", humanize.Comma(int64(sum.TotalBuckets))), len(res.S3Buckets) == 0)
	if len(res.S3Buckets) > 0 {
		t := table{w: w, cols: []column{{"BUCKET", 36}, {"REGION", 14}, {"CREATED", 20}, {"OBJECTS", 12}, {"SIZE", 0}}}
		t.header()
		for _, b := range res.S3Buckets {
			t.row(b.BucketName, b.Region, orPlaceholder(b.CreationDate), humanize.Comma(b.ObjectCount), humanize.Bytes(uint64(max(b.TotalSizeBytes, 0))))
		}
	}

	section(w, heading, fmt.Sprintf("SECURITY GROUPS (%s total)", humanize.Comma(int64(sum.SecurityGroups))), len(res.SecurityGroups) == 0)
	for _, g := range res.SecurityGroups {
		line := fmt.Sprintf("%s  %s  %s  %s", g.GroupID, g.GroupName, orPlaceholder(&g.VPCID), ShortenMessage(g.Description, 50))
		fmt.Fprintln(w, strings.TrimRight(line, " "))
		t := table{w: w, cols: []column{{"  DIRECTION", 11}, {"PROTOCOL", 8}, {"PORTS", 11}, {"PEER", 0}}}
		if len(g.InboundRules)+len(g.OutboundRules) == 0 {
			continue
		}
		t.header()
		for _, r := range g.InboundRules {
			t.row("  inbound", r.Protocol, r.PortRange, peer(r.Source))
		}
		for _, r := range g.OutboundRules {
			t.row("  outbound", r.Protocol, r.PortRange, peer(r.Destination))
		}
	}
}

// section prints a blank line and a styled heading, followed by "(none)"
// when the section is empty.
func section(w io.Writer, heading *color.Color, title string, empty bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Sprint(title))
	if empty {
		fmt.Fprintln(w, "  (none)")
	}
}

func policyNames(policies []models.AttachedPolicy) string {
	if len(policies) == 0 {
		return placeholder
	}
	names := make([]string, len(policies))
	for i, p := range policies {
		names[i] = p.PolicyName
	}
	return strings.Join(names, ", ")
}

func peer(cidrs string) string {
	if cidrs == "" {
		return placeholder
	}
	return cidrs
}
