package awsinventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	stssvc "github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/awsinv/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// Identity is the verified caller of the run.
type Identity struct {
	AccountID string
	ARN       string
}

// IdentityError reports that the caller could not be verified. It is fatal.
type IdentityError struct {
	Err error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("verify AWS identity: %v", e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// ResolveIdentity calls STS GetCallerIdentity once, with the guard's single
// retry on network errors. Any failure, including a response without an
// account or ARN, is returned as *IdentityError.
func ResolveIdentity(ctx context.Context, client common.STSClient, guard *retry.Guard) (Identity, error) {
	out, err := retry.Do(ctx, guard, "sts:GetCallerIdentity", func(ctx context.Context) (*stssvc.GetCallerIdentityOutput, error) {
		return client.GetCallerIdentity(ctx, &stssvc.GetCallerIdentityInput{})
	})
	if err != nil {
		return Identity{}, &IdentityError{Err: err}
	}

	var id Identity
	if out != nil {
		id = Identity{AccountID: aws.ToString(out.Account), ARN: aws.ToString(out.Arn)}
	}
	if id.AccountID == "" || id.ARN == "" {
		return Identity{}, &IdentityError{Err: fmt.Errorf("malformed GetCallerIdentity response: account=%q arn=%q", id.AccountID, id.ARN)}
	}
	return id, nil
}
