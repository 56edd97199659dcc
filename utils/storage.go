package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"posbilling/config"
)

// FileStore keeps generated invoice PDFs. Put returns the location recorded on the bill.
type FileStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, location string) error
}

// ------------------------ Disk ------------------------

type DiskStore struct {
	Dir string
}

func (d DiskStore) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.Dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}
	path := filepath.Join(d.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save PDF: %w", err)
	}
	return path, nil
}

func (d DiskStore) Delete(_ context.Context, location string) error {
	if err := os.Remove(filepath.Join(d.Dir, filepath.Base(location))); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ------------------------ R2 ------------------------

// R2Store uploads to a Cloudflare R2 bucket through its S3-compatible API.
type R2Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewR2Store(ctx context.Context, cfg config.R2Config) (*R2Store, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing required R2 settings")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Store{client: client, bucket: cfg.Bucket, publicBase: cfg.PublicURL}, nil
}

// Put uploads a PDF and returns its public URL.
func (r *R2Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := filepath.Base(name)
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return PublicURL(r.publicBase, key), nil
}

// Delete removes the object named by a URL previously returned from Put.
func (r *R2Store) Delete(ctx context.Context, location string) error {
	key, err := KeyFromURL(location)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete R2 object: %w", err)
	}
	return nil
}

func PublicURL(base, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), url.PathEscape(key))
}

func KeyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	key, err := url.PathUnescape(filepath.Base(u.Path))
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	return key, nil
}
