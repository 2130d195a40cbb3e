package awsinventory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// IAMClient is the narrow IAM interface used by the user collector. It embeds
// the paginated listings' APIClient interfaces so the SDK paginators can be
// used directly.
type IAMClient interface {
	iamsvc.ListUsersAPIClient
	iamsvc.ListAttachedUserPoliciesAPIClient
	GetUser(ctx context.Context, params *iamsvc.GetUserInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetUserOutput, error)
}

// EC2Client is the narrow EC2 interface shared by the instance and security
// group collectors.
type EC2Client interface {
	ec2svc.DescribeInstancesAPIClient
	ec2svc.DescribeSecurityGroupsAPIClient
	DescribeImages(ctx context.Context, params *ec2svc.DescribeImagesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeImagesOutput, error)
}

// S3Client is the narrow S3 interface used by the bucket collector.
type S3Client interface {
	s3svc.ListBucketsAPIClient
	s3svc.ListObjectsV2APIClient
	GetBucketLocation(ctx context.Context, params *s3svc.GetBucketLocationInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketLocationOutput, error)
}

// Clients bundles the service clients used by the inventory collector.
type Clients struct {
	IAM IAMClient
	EC2 EC2Client
	S3  S3Client
}

// ClientFactory creates Clients from an AWS config.
// Injection point: tests replace this with a function returning fake clients.
type ClientFactory func(cfg aws.Config) *Clients

// NewClients creates production AWS SDK clients from the given config.
func NewClients(cfg aws.Config) *Clients {
	return &Clients{
		IAM: iamsvc.NewFromConfig(cfg),
		EC2: ec2svc.NewFromConfig(cfg),
		S3:  s3svc.NewFromConfig(cfg),
	}
}
