package awsinventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
	"github.com/pankaj-dahiya-devops/awsinv/internal/pager"
	"github.com/pankaj-dahiya-devops/awsinv/internal/retry"
)

// allTraffic is the normalised protocol and port range of a rule that
// matches every protocol or every port.
const allTraffic = "all"

// collectSecurityGroups pages DescribeSecurityGroups and normalises inbound
// and outbound permissions separately.
func collectSecurityGroups(ctx context.Context, client EC2Client, guard *retry.Guard) []models.SecurityGroupRecord {
	groups := retry.Degrade(ctx, guard, "ec2:DescribeSecurityGroups", nil, func(ctx context.Context) ([]ec2types.SecurityGroup, error) {
		paginator := ec2svc.NewDescribeSecurityGroupsPaginator(client, &ec2svc.DescribeSecurityGroupsInput{})
		groups, err := pager.All(ctx, pager.FromPaginator[ec2svc.Options](paginator, func(out *ec2svc.DescribeSecurityGroupsOutput) []ec2types.SecurityGroup {
			return out.SecurityGroups
		}))
		if err != nil {
			return groups, fmt.Errorf("describe security groups: %w", err)
		}
		return groups, nil
	})
	if len(groups) == 0 {
		return noSecurityGroups()
	}

	records := make([]models.SecurityGroupRecord, 0, len(groups))
	for _, sg := range groups {
		rec := models.SecurityGroupRecord{
			GroupID:       aws.ToString(sg.GroupId),
			GroupName:     aws.ToString(sg.GroupName),
			Description:   aws.ToString(sg.Description),
			VPCID:         aws.ToString(sg.VpcId),
			InboundRules:  make([]models.InboundRule, 0, len(sg.IpPermissions)),
			OutboundRules: make([]models.OutboundRule, 0, len(sg.IpPermissionsEgress)),
		}
		for _, perm := range sg.IpPermissions {
			rec.InboundRules = append(rec.InboundRules, models.InboundRule{
				Protocol:  formatProtocol(perm.IpProtocol),
				PortRange: formatPortRange(perm.IpProtocol, perm.FromPort, perm.ToPort),
				Source:    joinCIDRs(perm),
			})
		}
		for _, perm := range sg.IpPermissionsEgress {
			rec.OutboundRules = append(rec.OutboundRules, models.OutboundRule{
				Protocol:    formatProtocol(perm.IpProtocol),
				PortRange:   formatPortRange(perm.IpProtocol, perm.FromPort, perm.ToPort),
				Destination: joinCIDRs(perm),
			})
		}
		records = append(records, rec)
	}

	guard.Logger().Debug("collected security groups", "count", len(records))
	return records
}

// isWildcardProtocol reports whether p designates every protocol.
func isWildcardProtocol(p *string) bool {
	v := aws.ToString(p)
	return v == "-1" || strings.EqualFold(v, allTraffic)
}

// formatProtocol returns "all" for the wildcard designator and the protocol
// name or number otherwise.
func formatProtocol(p *string) string {
	if isWildcardProtocol(p) {
		return allTraffic
	}
	return aws.ToString(p)
}

// formatPortRange returns "all" for wildcard protocols, unset ports and a
// -1/-1 pair, the single port when from == to, and "from-to" otherwise.
// For ICMP the pair is (type, code); a lone -1 end renders as "all", so
// echo request with any code is "8-all".
func formatPortRange(protocol *string, from, to *int32) string {
	if isWildcardProtocol(protocol) || from == nil || to == nil {
		return allTraffic
	}
	if *from == -1 && *to == -1 {
		return allTraffic
	}
	if *from == *to {
		return strconv.Itoa(int(*from))
	}
	return portBound(*from) + "-" + portBound(*to)
}

func portBound(p int32) string {
	if p == -1 {
		return allTraffic
	}
	return strconv.Itoa(int(p))
}

// joinCIDRs returns the rule's IPv4 then IPv6 ranges joined with ", ".
// Rules that reference only security groups or prefix lists yield "".
func joinCIDRs(perm ec2types.IpPermission) string {
	cidrs := make([]string, 0, len(perm.IpRanges)+len(perm.Ipv6Ranges))
	for _, r := range perm.IpRanges {
		if r.CidrIp != nil {
			cidrs = append(cidrs, *r.CidrIp)
		}
	}
	for _, r := range perm.Ipv6Ranges {
		if r.CidrIpv6 != nil {
			cidrs = append(cidrs, *r.CidrIpv6)
		}
	}
	return strings.Join(cidrs, ", ")
}
