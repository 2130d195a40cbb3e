package awsinventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/pager"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// collectInstances pages DescribeInstances, flattening reservations into one
// record per instance, then resolves AMI names with a single DescribeImages
// call over the sorted set of unique image IDs.
func collectInstances(ctx context.Context, client EC2Client, guard *retry.Guard) []models.InstanceRecord {
	instances := retry.Degrade(ctx, guard, "ec2:DescribeInstances", nil, func(ctx context.Context) ([]ec2types.Instance, error) {
		paginator := ec2svc.NewDescribeInstancesPaginator(client, &ec2svc.DescribeInstancesInput{})
		instances, err := pager.All(ctx, pager.FromPaginator[ec2svc.Options](paginator, func(out *ec2svc.DescribeInstancesOutput) []ec2types.Instance {
			var page []ec2types.Instance
			for _, r := range out.Reservations {
				page = append(page, r.Instances...)
			}
			return page
		}))
		if err != nil {
			return instances, fmt.Errorf("describe EC2 instances: %w", err)
		}
		return instances, nil
	})
	if len(instances) == 0 {
		return noInstances()
	}

	records := make([]models.InstanceRecord, 0, len(instances))
	seenAMIs := make(map[string]struct{})
	for _, inst := range instances {
		rec := toInstanceRecord(inst)
		if rec.AMIID != "" {
			seenAMIs[rec.AMIID] = struct{}{}
		}
		records = append(records, rec)
	}

	names := resolveAMINames(ctx, client, guard, sortedKeys(seenAMIs))
	for i := range records {
		if name, ok := names[records[i].AMIID]; ok {
			records[i].AMIName = aws.String(name)
		}
	}

	guard.Logger().Debug("collected EC2 instances", "count", len(records), "amis", len(seenAMIs))
	return records
}

// resolveAMINames maps image ID to image name with one batched call. Images
// that no longer exist are absent from the map. On failure the map is empty
// and no per-image fallback is attempted.
func resolveAMINames(ctx context.Context, client EC2Client, guard *retry.Guard, imageIDs []string) map[string]string {
	if len(imageIDs) == 0 {
		return noAMINames()
	}
	return retry.Degrade(ctx, guard, "ec2:DescribeImages", noAMINames(), func(ctx context.Context) (map[string]string, error) {
		out, err := client.DescribeImages(ctx, &ec2svc.DescribeImagesInput{ImageIds: imageIDs})
		if err != nil {
			return noAMINames(), fmt.Errorf("describe %d AMIs: %w", len(imageIDs), err)
		}
		names := make(map[string]string, len(out.Images))
		for _, img := range out.Images {
			if img.ImageId != nil && img.Name != nil {
				names[*img.ImageId] = *img.Name
			}
		}
		return names, nil
	})
}

func toInstanceRecord(inst ec2types.Instance) models.InstanceRecord {
	rec := models.InstanceRecord{
		InstanceID:       aws.ToString(inst.InstanceId),
		InstanceType:     string(inst.InstanceType),
		PublicIP:         inst.PublicIpAddress,
		PrivateIP:        inst.PrivateIpAddress,
		LaunchTime:       models.FormatOptionalTimestamp(inst.LaunchTime),
		AMIID:            aws.ToString(inst.ImageId),
		SecurityGroupIDs: make([]string, 0, len(inst.SecurityGroups)),
		Tags:             make(map[string]string, len(inst.Tags)),
	}
	if inst.State != nil {
		rec.State = string(inst.State.Name)
	}
	if inst.Placement != nil {
		rec.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	for _, sg := range inst.SecurityGroups {
		rec.SecurityGroupIDs = append(rec.SecurityGroupIDs, aws.ToString(sg.GroupId))
	}
	for _, tag := range inst.Tags {
		if tag.Key != nil {
			rec.Tags[*tag.Key] = aws.ToString(tag.Value)
		}
	}
	return rec
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
