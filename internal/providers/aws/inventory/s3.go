package awsinventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/pager"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// bucketStats is the object tally of one bucket.
type bucketStats struct {
	Objects int64
	Bytes   int64
}

// add returns s with one more object of size bytes.
func (s bucketStats) add(obj s3types.Object) bucketStats {
	return bucketStats{Objects: s.Objects + 1, Bytes: s.Bytes + aws.ToInt64(obj.Size)}
}

// regionalS3 returns an S3 client for region. Implementations may return the
// same client for every region.
type regionalS3 func(region string) S3Client

// collectBuckets lists the account's buckets, then resolves every bucket's
// region and object tally concurrently with at most limit buckets in flight.
// A bucket's lookups fail independently of its siblings.
func collectBuckets(ctx context.Context, client S3Client, s3ForRegion regionalS3, guard *retry.Guard, limit int) []models.BucketRecord {
	buckets := retry.Degrade(ctx, guard, "s3:ListBuckets", nil, func(ctx context.Context) ([]s3types.Bucket, error) {
		paginator := s3svc.NewListBucketsPaginator(client, &s3svc.ListBucketsInput{})
		buckets, err := pager.All(ctx, pager.FromPaginator[s3svc.Options](paginator, func(out *s3svc.ListBucketsOutput) []s3types.Bucket {
			return out.Buckets
		}))
		if err != nil {
			return buckets, fmt.Errorf("list S3 buckets: %w", err)
		}
		return buckets, nil
	})
	if len(buckets) == 0 {
		return noBuckets()
	}

	records := make([]models.BucketRecord, len(buckets))
	for i, b := range buckets {
		records[i] = models.BucketRecord{
			BucketName:   aws.ToString(b.Name),
			CreationDate: models.FormatOptionalTimestamp(b.CreationDate),
			Region:       unknownRegion,
		}
	}

	forEachBounded(ctx, len(records), limit, func(i int) {
		name := records[i].BucketName
		region := bucketRegion(ctx, client, guard, name)

		lister := client
		if region != unknownRegion && s3ForRegion != nil {
			lister = s3ForRegion(region)
		}
		stats := bucketObjectStats(ctx, lister, guard, name)

		records[i].Region = region
		records[i].ObjectCount = stats.Objects
		records[i].TotalSizeBytes = stats.Bytes
	})

	guard.Logger().Debug("collected S3 buckets", "count", len(records))
	return records
}

// bucketRegion resolves the bucket's region from its location constraint.
// Any failure yields unknownRegion.
func bucketRegion(ctx context.Context, client S3Client, guard *retry.Guard, bucket string) string {
	return retry.Degrade(ctx, guard, "s3:GetBucketLocation "+bucket, unknownRegion, func(ctx context.Context) (string, error) {
		out, err := client.GetBucketLocation(ctx, &s3svc.GetBucketLocationInput{Bucket: aws.String(bucket)})
		if err != nil {
			return unknownRegion, fmt.Errorf("get location of bucket %s: %w", bucket, err)
		}
		return normaliseLocation(out.LocationConstraint), nil
	})
}

// normaliseLocation maps a location constraint to a region code. Buckets in
// us-east-1 report an empty constraint and old eu-west-1 buckets report "EU".
func normaliseLocation(c s3types.BucketLocationConstraint) string {
	switch c {
	case "":
		return "us-east-1"
	case s3types.BucketLocationConstraintEu:
		return "eu-west-1"
	default:
		return string(c)
	}
}

// bucketObjectStats folds the bucket's full object listing into a tally.
// Any failure, including one after some pages were counted, yields
// noBucketStats.
func bucketObjectStats(ctx context.Context, client S3Client, guard *retry.Guard, bucket string) bucketStats {
	return retry.Degrade(ctx, guard, "s3:ListObjectsV2 "+bucket, noBucketStats, func(ctx context.Context) (bucketStats, error) {
		paginator := s3svc.NewListObjectsV2Paginator(client, &s3svc.ListObjectsV2Input{Bucket: aws.String(bucket)})
		fetch := pager.FromPaginator[s3svc.Options](paginator, func(out *s3svc.ListObjectsV2Output) []s3types.Object {
			return out.Contents
		})
		stats, err := pager.Fold(ctx, fetch, bucketStats{}, bucketStats.add)
		if err != nil {
			return noBucketStats, fmt.Errorf("list objects in bucket %s: %w", bucket, err)
		}
		return stats, nil
	})
}
