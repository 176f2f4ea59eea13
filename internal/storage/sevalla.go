package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/chartmuseum/storage"
)

// S3Config encapsulates the connection info for S3-compatible storage.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

func (cfg S3Config) validate(kind string) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("%s endpoint must be provided", kind)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("%s credentials must be provided", kind)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("%s bucket must be provided", kind)
	}
	return nil
}

func (cfg S3Config) region() string {
	if r := strings.TrimSpace(cfg.Region); r != "" {
		return r
	}
	return "us-east-1"
}

// endpointURL adds a scheme to a bare host.
func (cfg S3Config) endpointURL() string {
	if strings.HasPrefix(cfg.Endpoint, "http://") || strings.HasPrefix(cfg.Endpoint, "https://") {
		return cfg.Endpoint
	}
	scheme := "https"
	if !cfg.UseSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(cfg.Endpoint, "//"))
}

// SevallaClient implements ObjectStorage for Sevalla / S3-compatible services.
type SevallaClient struct {
	backendStore
}

// NewSevallaClient builds a client backed by chartmuseum's Amazon storage backend.
func NewSevallaClient(cfg S3Config) (*SevallaClient, error) {
	if err := cfg.validate("sevalla"); err != nil {
		return nil, err
	}
	region := cfg.region()

	// the AWS SDK session behind chartmuseum reads credentials from the environment
	os.Setenv("AWS_ACCESS_KEY_ID", cfg.AccessKey)
	os.Setenv("AWS_SECRET_ACCESS_KEY", cfg.SecretKey)
	os.Setenv("AWS_REGION", region)
	os.Setenv("AWS_DEFAULT_REGION", region)

	backend := storage.NewAmazonS3BackendWithOptions(
		cfg.Bucket,
		"", // no prefix
		region,
		cfg.endpointURL(),
		"",
		&storage.AmazonS3Options{
			S3ForcePathStyle: awsBool(true),
		},
	)

	return &SevallaClient{backendStore{name: "sevalla", backend: backend}}, nil
}

var _ ObjectStorage = (*SevallaClient)(nil)

func awsBool(v bool) *bool {
	return &v
}
