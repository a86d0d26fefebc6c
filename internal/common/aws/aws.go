// internal/common/aws/aws.go

// Package aws wraps the SES and SNS clients used to deliver batch
// completion notices. Credentials come from the default chain; only
// the region is configured explicitly.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

func loadConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}
