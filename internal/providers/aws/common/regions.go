package common

import "sort"

// knownRegions is the set of region codes a --region argument is checked
// against before any credentials are loaded. It covers the commercial,
// GovCloud, and China partitions.
var knownRegions = map[string]struct{}{
	"af-south-1":     {},
	"ap-east-1":      {},
	"ap-east-2":      {},
	"ap-northeast-1": {},
	"ap-northeast-2": {},
	"ap-northeast-3": {},
	"ap-south-1":     {},
	"ap-south-2":     {},
	"ap-southeast-1": {},
	"ap-southeast-2": {},
	"ap-southeast-3": {},
	"ap-southeast-4": {},
	"ap-southeast-5": {},
	"ap-southeast-6": {},
	"ap-southeast-7": {},
	"ca-central-1":   {},
	"ca-west-1":      {},
	"cn-north-1":     {},
	"cn-northwest-1": {},
	"eu-central-1":   {},
	"eu-central-2":   {},
	"eu-north-1":     {},
	"eu-south-1":     {},
	"eu-south-2":     {},
	"eu-west-1":      {},
	"eu-west-2":      {},
	"eu-west-3":      {},
	"il-central-1":   {},
	"me-central-1":   {},
	"me-south-1":     {},
	"mx-central-1":   {},
	"sa-east-1":      {},
	"us-east-1":      {},
	"us-east-2":      {},
	"us-gov-east-1":  {},
	"us-gov-west-1":  {},
	"us-west-1":      {},
	"us-west-2":      {},
}

// IsKnownRegion reports whether region is a region code this build knows.
func IsKnownRegion(region string) bool {
	_, ok := knownRegions[region]
	return ok
}

// KnownRegions returns the known region codes in sorted order.
func KnownRegions() []string {
	out := make([]string, 0, len(knownRegions))
	for r := range knownRegions {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
