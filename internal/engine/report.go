package engine

import "github.com/pankaj-dahiya-devops/awsinv/internal/models"

// CollectorResults holds the raw output of the four collectors.
type CollectorResults struct {
	IAMUsers       []models.IAMUserRecord
	Instances      []models.InstanceRecord
	Buckets        []models.BucketRecord
	SecurityGroups []models.SecurityGroupRecord
}

// instanceStateRunning is the EC2 state counted by the running_instances
// summary field.
const instanceStateRunning = "running"

// BuildReport assembles the inventory document. It performs no I/O and keeps
// every list in collection order. Nil lists become empty lists and the
// summary is derived from the lists alone.
func BuildReport(identity models.AccountIdentity, res CollectorResults) *models.InventoryReport {
	resources := models.InventoryResources{
		IAMUsers:       nonNil(res.IAMUsers),
		EC2Instances:   nonNil(res.Instances),
		S3Buckets:      nonNil(res.Buckets),
		SecurityGroups: nonNil(res.SecurityGroups),
	}
	return &models.InventoryReport{
		AccountInfo: identity,
		Resources:   resources,
		Summary:     ComputeSummary(resources),
	}
}

// ComputeSummary derives the summary counters from the resource lists.
func ComputeSummary(r models.InventoryResources) models.InventorySummary {
	s := models.InventorySummary{
		TotalUsers:     len(r.IAMUsers),
		TotalBuckets:   len(r.S3Buckets),
		SecurityGroups: len(r.SecurityGroups),
	}
	for _, inst := range r.EC2Instances {
		if inst.State == instanceStateRunning {
			s.RunningInstances++
		}
	}
	return s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
