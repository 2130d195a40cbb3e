package awsinventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/pager"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// collectIAMUsers pages ListUsers and enriches every user with its console
// last-activity time and its attached managed policies. The two enrichments
// fail independently; a failed one leaves only its own field empty.
//
// A listing that fails part-way keeps the users read before the failure.
func collectIAMUsers(ctx context.Context, client IAMClient, guard *retry.Guard, limit int) []models.IAMUserRecord {
	users := retry.Degrade(ctx, guard, "iam:ListUsers", nil, func(ctx context.Context) ([]iamtypes.User, error) {
		paginator := iamsvc.NewListUsersPaginator(client, &iamsvc.ListUsersInput{})
		users, err := pager.All(ctx, pager.FromPaginator[iamsvc.Options](paginator, func(out *iamsvc.ListUsersOutput) []iamtypes.User {
			return out.Users
		}))
		if err != nil {
			return users, fmt.Errorf("list IAM users: %w", err)
		}
		return users, nil
	})
	if len(users) == 0 {
		return noIAMUsers()
	}

	records := make([]models.IAMUserRecord, len(users))
	for i, u := range users {
		records[i] = models.IAMUserRecord{
			Username:         aws.ToString(u.UserName),
			UserID:           aws.ToString(u.UserId),
			ARN:              aws.ToString(u.Arn),
			CreateDate:       models.FormatOptionalTimestamp(u.CreateDate),
			AttachedPolicies: noPolicies(),
		}
	}

	forEachBounded(ctx, len(records), limit, func(i int) {
		name := records[i].Username
		records[i].LastActivity = userLastActivity(ctx, client, guard, name)
		records[i].AttachedPolicies = userAttachedPolicies(ctx, client, guard, name)
	})

	guard.Logger().Debug("collected IAM users", "count", len(records))
	return records
}

// userLastActivity returns the time the user's console password was last
// used, or nil when it never was or the lookup failed.
func userLastActivity(ctx context.Context, client IAMClient, guard *retry.Guard, userName string) *string {
	return retry.Degrade(ctx, guard, "iam:GetUser "+userName, nil, func(ctx context.Context) (*string, error) {
		out, err := client.GetUser(ctx, &iamsvc.GetUserInput{UserName: aws.String(userName)})
		if err != nil {
			return nil, fmt.Errorf("get IAM user %s: %w", userName, err)
		}
		if out.User == nil {
			return nil, nil
		}
		return models.FormatOptionalTimestamp(out.User.PasswordLastUsed), nil
	})
}

// userAttachedPolicies pages ListAttachedUserPolicies for one user. Policies
// read before a mid-listing failure are kept.
func userAttachedPolicies(ctx context.Context, client IAMClient, guard *retry.Guard, userName string) []models.AttachedPolicy {
	policies := retry.Degrade(ctx, guard, "iam:ListAttachedUserPolicies "+userName, nil, func(ctx context.Context) ([]iamtypes.AttachedPolicy, error) {
		paginator := iamsvc.NewListAttachedUserPoliciesPaginator(client, &iamsvc.ListAttachedUserPoliciesInput{
			UserName: aws.String(userName),
		})
		policies, err := pager.All(ctx, pager.FromPaginator[iamsvc.Options](paginator, func(out *iamsvc.ListAttachedUserPoliciesOutput) []iamtypes.AttachedPolicy {
			return out.AttachedPolicies
		}))
		if err != nil {
			return policies, fmt.Errorf("list attached policies for %s: %w", userName, err)
		}
		return policies, nil
	})

	result := noPolicies()
	for _, p := range policies {
		result = append(result, models.AttachedPolicy{
			PolicyName: aws.ToString(p.PolicyName),
			PolicyARN:  aws.ToString(p.PolicyArn),
		})
	}
	return result
}
