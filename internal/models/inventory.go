package models

import "time"

// TimestampLayout is the UTC, second-precision layout used for every
// timestamp in the inventory document.
const TimestampLayout = "2006-01-02T15:04:05Z"

// FormatTimestamp renders t in TimestampLayout after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatOptionalTimestamp is FormatTimestamp for SDK pointer fields. A nil
// or zero time yields nil, which serialises as JSON null.
func FormatOptionalTimestamp(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}

// AccountIdentity describes who ran the scan, where, and when. It is built
// once per run from the STS caller identity and never modified afterwards.
type AccountIdentity struct {
	AccountID     string `json:"account_id"`
	UserARN       string `json:"user_arn"`
	Region        string `json:"region"`
	ScanTimestamp string `json:"scan_timestamp"`
}

// AttachedPolicy is a managed policy attached directly to an IAM user.
type AttachedPolicy struct {
	PolicyName string `json:"policy_name"`
	PolicyARN  string `json:"policy_arn"`
}

// IAMUserRecord is one IAM user. CreateDate and LastActivity are nil when
// unknown; LastActivity is the console password's last use. AttachedPolicies
// is empty (never nil) when the user has none or the lookup failed.
type IAMUserRecord struct {
	Username         string           `json:"username"`
	UserID           string           `json:"user_id"`
	ARN              string           `json:"arn"`
	CreateDate       *string          `json:"create_date"`
	LastActivity     *string          `json:"last_activity"`
	AttachedPolicies []AttachedPolicy `json:"attached_policies"`
}

// InstanceRecord is one EC2 instance, flattened out of its reservation.
// AMIName is resolved after the listing in a single batched lookup and is nil
// when the image is gone or the lookup failed.
type InstanceRecord struct {
	InstanceID       string            `json:"instance_id"`
	InstanceType     string            `json:"instance_type"`
	State            string            `json:"state"`
	PublicIP         *string           `json:"public_ip"`
	PrivateIP        *string           `json:"private_ip"`
	AvailabilityZone string            `json:"availability_zone"`
	LaunchTime       *string           `json:"launch_time"`
	AMIID            string            `json:"ami_id"`
	AMIName          *string           `json:"ami_name"`
	SecurityGroupIDs []string          `json:"security_group_ids"`
	Tags             map[string]string `json:"tags"`
}

// BucketRecord is one S3 bucket with its object tally.
//
// Region is "unknown" when the location lookup failed. ObjectCount and
// TotalSizeBytes are both zero when the object listing could not be
// completed; consumers must read (0, 0) as "not collected", not as "empty".
type BucketRecord struct {
	BucketName     string  `json:"bucket_name"`
	CreationDate   *string `json:"creation_date"`
	Region         string  `json:"region"`
	ObjectCount    int64   `json:"object_count"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
}

// InboundRule is one normalised ingress permission of a security group.
type InboundRule struct {
	Protocol  string `json:"protocol"`
	PortRange string `json:"port_range"`
	Source    string `json:"source"`
}

// OutboundRule is one normalised egress permission of a security group.
type OutboundRule struct {
	Protocol    string `json:"protocol"`
	PortRange   string `json:"port_range"`
	Destination string `json:"destination"`
}

// SecurityGroupRecord is one EC2 security group and its rules.
type SecurityGroupRecord struct {
	GroupID       string         `json:"group_id"`
	GroupName     string         `json:"group_name"`
	Description   string         `json:"description"`
	VPCID         string         `json:"vpc_id"`
	InboundRules  []InboundRule  `json:"inbound_rules"`
	OutboundRules []OutboundRule `json:"outbound_rules"`
}

// InventoryResources groups the per-service record lists. Each list keeps the
// order the remote listing returned and is never nil in an assembled report.
type InventoryResources struct {
	IAMUsers       []IAMUserRecord       `json:"iam_users"`
	EC2Instances   []InstanceRecord      `json:"ec2_instances"`
	S3Buckets      []BucketRecord        `json:"s3_buckets"`
	SecurityGroups []SecurityGroupRecord `json:"security_groups"`
}

// InventorySummary holds counters derived from InventoryResources.
type InventorySummary struct {
	TotalUsers       int `json:"total_users"`
	RunningInstances int `json:"running_instances"`
	TotalBuckets     int `json:"total_buckets"`
	SecurityGroups   int `json:"security_groups"`
}

// InventoryReport is the complete snapshot document for one run.
type InventoryReport struct {
	AccountInfo AccountIdentity    `json:"account_info"`
	Resources   InventoryResources `json:"resources"`
	Summary     InventorySummary   `json:"summary"`
}
