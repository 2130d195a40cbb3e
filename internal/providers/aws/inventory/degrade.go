package awsinventory

import "github.com/pankaj-dahiya-devops/awsinv/internal/models"

// Named values each collector degrades to. Lists are empty and non-nil so
// the report always carries every section.

func noIAMUsers() []models.IAMUserRecord { return []models.IAMUserRecord{} }

func noPolicies() []models.AttachedPolicy { return []models.AttachedPolicy{} }

func noInstances() []models.InstanceRecord { return []models.InstanceRecord{} }

func noBuckets() []models.BucketRecord { return []models.BucketRecord{} }

func noSecurityGroups() []models.SecurityGroupRecord { return []models.SecurityGroupRecord{} }

func noAMINames() map[string]string { return map[string]string{} }

// unknownRegion is the region reported for a bucket whose location lookup
// failed.
const unknownRegion = "unknown"

// noBucketStats is the object tally of a bucket whose listing failed. It is
// also reported when the listing failed part-way: a partial tally is
// indistinguishable from a complete one, so it is dropped.
var noBucketStats = bucketStats{}
