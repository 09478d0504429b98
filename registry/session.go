package registry

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ecr"
)

const (
	minRetryDelay    = 100 * time.Millisecond
	minThrottleDelay = 500 * time.Millisecond
	maxRetryDelay    = 30 * time.Second
)

type SessionOptions struct {
	Region     string
	Profile    string
	MaxRetries int
}

func (o SessionOptions) config() *aws.Config {
	cfg := aws.NewConfig()
	if o.Region != "" {
		cfg = cfg.WithRegion(o.Region)
	}

	// Throttling and transient errors are retried here and nowhere else.
	cfg.Retryer = client.DefaultRetryer{
		NumMaxRetries:    o.MaxRetries,
		MinRetryDelay:    minRetryDelay,
		MinThrottleDelay: minThrottleDelay,
		MaxRetryDelay:    maxRetryDelay,
		MaxThrottleDelay: maxRetryDelay,
	}
	return cfg
}

// NewECRFromOptions builds an ECR client from the shared AWS configuration
// (environment, ~/.aws/config, instance role) narrowed by opts.
func NewECRFromOptions(opts SessionOptions) (*ECR, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *opts.config(),
		Profile:           opts.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}

	return NewECR(ecr.New(sess)), nil
}
