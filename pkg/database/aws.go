package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"
)

// AWSOptions holds the settings shared by every AWS client in the app.
type AWSOptions struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadAWSConfig resolves the base aws.Config once so DynamoDB, S3,
// Rekognition and Bedrock clients all share credentials and region.
// Static credentials win over a named profile; with neither set the
// default credential chain applies.
func LoadAWSConfig(ctx context.Context, opts AWSOptions, logger *zap.Logger) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	switch {
	case opts.AccessKeyID != "" && opts.SecretAccessKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	case opts.Profile != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
		if logger != nil {
			logger.Info("AWS clients using shared profile", zap.String("profile", opts.Profile))
		}
	default:
		if logger != nil {
			logger.Warn("AWS clients using default credential chain")
		}
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
