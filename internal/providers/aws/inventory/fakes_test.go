package awsinventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func testGuard() *retry.Guard {
	return retry.NewGuard(0, slog.New(slog.DiscardHandler))
}

func networkErr() error {
	return &smithyhttp.RequestSendError{Err: errors.New("dial tcp: connection refused")}
}

func accessDenied(op string) error {
	return &smithy.OperationError{
		ServiceID:     "test",
		OperationName: op,
		Err:           &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"},
	}
}

// pageIndex decodes the continuation tokens the fakes hand out ("1", "2", ...).
func pageIndex(token *string) int {
	if token == nil {
		return 0
	}
	i, _ := strconv.Atoi(*token)
	return i
}

// nextToken returns the token for the page after i, or nil when i is last.
func nextToken(i, pages int) *string {
	if i+1 >= pages {
		return nil
	}
	return aws.String(strconv.Itoa(i + 1))
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// ── IAM ───────────────────────────────────────────────────────────────────────

type fakeIAM struct {
	mu sync.Mutex

	userPages [][]iamtypes.User
	// listErrPage, when >= 0, makes that ListUsers page fail with listErr.
	listErrPage int
	listErr     error

	passwordLastUsed map[string]*time.Time
	getUserErr       map[string]error

	policyPages map[string][][]iamtypes.AttachedPolicy
	policyErr   map[string]error

	listUsersCalls int
	getUserCalls   int
}

func newFakeIAM() *fakeIAM {
	return &fakeIAM{
		listErrPage:      -1,
		passwordLastUsed: map[string]*time.Time{},
		getUserErr:       map[string]error{},
		policyPages:      map[string][][]iamtypes.AttachedPolicy{},
		policyErr:        map[string]error{},
	}
}

func (f *fakeIAM) ListUsers(_ context.Context, in *iamsvc.ListUsersInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUsersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listUsersCalls++
	i := pageIndex(in.Marker)
	if i == f.listErrPage {
		return nil, f.listErr
	}
	if len(f.userPages) == 0 {
		return &iamsvc.ListUsersOutput{}, nil
	}
	next := nextToken(i, len(f.userPages))
	return &iamsvc.ListUsersOutput{Users: f.userPages[i], IsTruncated: next != nil, Marker: next}, nil
}

func (f *fakeIAM) GetUser(_ context.Context, in *iamsvc.GetUserInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetUserOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUserCalls++
	name := aws.ToString(in.UserName)
	if err := f.getUserErr[name]; err != nil {
		return nil, err
	}
	return &iamsvc.GetUserOutput{User: &iamtypes.User{
		UserName:         in.UserName,
		PasswordLastUsed: f.passwordLastUsed[name],
	}}, nil
}

func (f *fakeIAM) ListAttachedUserPolicies(_ context.Context, in *iamsvc.ListAttachedUserPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedUserPoliciesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.UserName)
	if err := f.policyErr[name]; err != nil {
		return nil, err
	}
	pages := f.policyPages[name]
	if len(pages) == 0 {
		return &iamsvc.ListAttachedUserPoliciesOutput{}, nil
	}
	i := pageIndex(in.Marker)
	next := nextToken(i, len(pages))
	return &iamsvc.ListAttachedUserPoliciesOutput{AttachedPolicies: pages[i], IsTruncated: next != nil, Marker: next}, nil
}

// ── EC2 ───────────────────────────────────────────────────────────────────────

type fakeEC2 struct {
	mu sync.Mutex

	reservationPages [][]ec2types.Reservation
	instancesErr     error

	imageNames map[string]string
	imagesErr  error

	sgPages [][]ec2types.SecurityGroup
	// sgErrPage, when >= 0, makes that DescribeSecurityGroups page fail.
	sgErrPage int
	sgErr     error

	describeInstancesCalls int
	describeImagesCalls    int
	imageIDsRequested      [][]string
}

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{imageNames: map[string]string{}, sgErrPage: -1}
}

func (f *fakeEC2) DescribeInstances(_ context.Context, in *ec2svc.DescribeInstancesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeInstancesCalls++
	if f.instancesErr != nil {
		return nil, f.instancesErr
	}
	if len(f.reservationPages) == 0 {
		return &ec2svc.DescribeInstancesOutput{}, nil
	}
	i := pageIndex(in.NextToken)
	return &ec2svc.DescribeInstancesOutput{
		Reservations: f.reservationPages[i],
		NextToken:    nextToken(i, len(f.reservationPages)),
	}, nil
}

func (f *fakeEC2) DescribeImages(_ context.Context, in *ec2svc.DescribeImagesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeImagesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeImagesCalls++
	f.imageIDsRequested = append(f.imageIDsRequested, append([]string(nil), in.ImageIds...))
	if f.imagesErr != nil {
		return nil, f.imagesErr
	}
	out := &ec2svc.DescribeImagesOutput{}
	for _, id := range in.ImageIds {
		if name, ok := f.imageNames[id]; ok {
			out.Images = append(out.Images, ec2types.Image{ImageId: aws.String(id), Name: aws.String(name)})
		}
	}
	return out, nil
}

func (f *fakeEC2) DescribeSecurityGroups(_ context.Context, in *ec2svc.DescribeSecurityGroupsInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := pageIndex(in.NextToken)
	if i == f.sgErrPage {
		return nil, f.sgErr
	}
	if len(f.sgPages) == 0 {
		return &ec2svc.DescribeSecurityGroupsOutput{}, nil
	}
	return &ec2svc.DescribeSecurityGroupsOutput{
		SecurityGroups: f.sgPages[i],
		NextToken:      nextToken(i, len(f.sgPages)),
	}, nil
}

// ── S3 ────────────────────────────────────────────────────────────────────────

type fakeS3 struct {
	mu sync.Mutex

	name string

	buckets       []s3types.Bucket
	listBucketErr error

	locations   map[string]s3types.BucketLocationConstraint
	locationErr map[string]error

	objectPages map[string][][]s3types.Object
	// objectErrPage maps a bucket to the ListObjectsV2 page that fails with
	// objectErr[bucket]. Pages before it succeed.
	objectErrPage map[string]int
	objectErr     map[string]error

	listObjectsCalls map[string]int
}

func newFakeS3(name string) *fakeS3 {
	return &fakeS3{
		name:             name,
		locations:        map[string]s3types.BucketLocationConstraint{},
		locationErr:      map[string]error{},
		objectPages:      map[string][][]s3types.Object{},
		objectErrPage:    map[string]int{},
		objectErr:        map[string]error{},
		listObjectsCalls: map[string]int{},
	}
}

func (f *fakeS3) ListBuckets(_ context.Context, _ *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listBucketErr != nil {
		return nil, f.listBucketErr
	}
	return &s3svc.ListBucketsOutput{Buckets: f.buckets}, nil
}

func (f *fakeS3) GetBucketLocation(_ context.Context, in *s3svc.GetBucketLocationInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketLocationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := aws.ToString(in.Bucket)
	if err := f.locationErr[b]; err != nil {
		return nil, err
	}
	return &s3svc.GetBucketLocationOutput{LocationConstraint: f.locations[b]}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3svc.ListObjectsV2Input, _ ...func(*s3svc.Options)) (*s3svc.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := aws.ToString(in.Bucket)
	f.listObjectsCalls[b]++
	i := pageIndex(in.ContinuationToken)
	if errPage, ok := f.objectErrPage[b]; ok && i == errPage {
		return nil, f.objectErr[b]
	}
	pages := f.objectPages[b]
	if len(pages) == 0 {
		return &s3svc.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
	}
	next := nextToken(i, len(pages))
	return &s3svc.ListObjectsV2Output{
		Contents:              pages[i],
		IsTruncated:           aws.Bool(next != nil),
		NextContinuationToken: next,
	}, nil
}

func (f *fakeS3) calls(bucket string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listObjectsCalls[bucket]
}

func objects(sizes ...int64) []s3types.Object {
	out := make([]s3types.Object, len(sizes))
	for i, s := range sizes {
		out[i] = s3types.Object{Key: aws.String(fmt.Sprintf("obj-%d", i)), Size: aws.Int64(s)}
	}
	return out
}
