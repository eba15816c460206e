package scale

// Resources is the expected count of provisioned resources for a tier.
// Presentation layers read it together with the current scale.
type Resources struct {
	EC2           int `json:"ec2"`
	VPC           int `json:"vpc"`
	Route53       int `json:"route53"`
	S3            int `json:"s3"`
	SecurityGroup int `json:"sg"`
	IAM           int `json:"iam"`
}

// ResourcesFor returns the static resource table entry for s.
// Unknown tiers yield a zero value and false.
func ResourcesFor(s Scale) (Resources, bool) {
	switch s {
	case Small:
		return Resources{EC2: 1, VPC: 1, Route53: 1, S3: 1, SecurityGroup: 1, IAM: 1}, true
	case Medium:
		return Resources{EC2: 4, VPC: 1, Route53: 1, S3: 1, SecurityGroup: 2, IAM: 2}, true
	case Large:
		return Resources{EC2: 8, VPC: 1, Route53: 1, S3: 2, SecurityGroup: 3, IAM: 3}, true
	default:
		return Resources{}, false
	}
}

// AsMap flattens the resource counts keyed by their short names.
func (r Resources) AsMap() map[string]int {
	return map[string]int{
		"ec2":     r.EC2,
		"vpc":     r.VPC,
		"route53": r.Route53,
		"s3":      r.S3,
		"sg":      r.SecurityGroup,
		"iam":     r.IAM,
	}
}
