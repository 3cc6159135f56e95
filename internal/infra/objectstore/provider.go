package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"liveclass-admin/internal/config"
)

// Provider defines the behavior for any object storage backend.
type Provider interface {
	Put(ctx context.Context, bucket, key string, body io.ReadSeeker, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
}

// Client binds a provider to the question bucket and its public base URL.
// It implements app.ObjectStore.
type Client struct {
	backend       Provider
	bucket        string
	publicBaseURL string
}

func NewClient(backend Provider, bucket, publicBaseURL string) *Client {
	return &Client{
		backend:       backend,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// New selects the provider named in the config.
func New(cfg config.Config) (*Client, error) {
	oc := cfg.Objects
	switch oc.Provider {
	case "", "local":
		return NewClient(NewLocalProvider(oc.LocalRoot), oc.Bucket, oc.PublicBaseURL), nil
	case "s3":
		awsCfg := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(oc.KeyID, oc.AppKey, ""),
			Region:           aws.String(oc.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		if oc.Endpoint != "" {
			awsCfg.Endpoint = aws.String(oc.Endpoint)
		}
		sess, err := session.NewSession(awsCfg)
		if err != nil {
			return nil, fmt.Errorf("aws session: %w", err)
		}
		return NewClient(NewS3Provider(sess), oc.Bucket, oc.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown object provider %q", oc.Provider)
	}
}

func (c *Client) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) error {
	return c.backend.Put(ctx, c.bucket, key, body, contentType)
}

// Delete removes an object; used to clean up after a failed question write.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.bucket, key)
}

// PublicURL is where browsers fetch the object from.
func (c *Client) PublicURL(key string) string {
	return c.publicBaseURL + "/" + key
}
