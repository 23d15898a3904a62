package helper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"writing_marketplace/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader pushes one object and returns the URL it is reachable at.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

func NewUploader(ctx context.Context, cfg config.Storage) (Uploader, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Uploader(ctx, cfg.S3)
	case "cloudinary":
		return NewCloudinaryUploader(cfg.Cloudinary)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Uploader(ctx context.Context, cfg config.S3) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Uploader{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return u.baseURL + "/" + key, nil
}

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cfg config.Cloudinary) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: cfg.Folder}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:       u.folder,
		PublicID:     PublicID(key),
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", key, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", key, res.Error.Message)
	}
	return res.SecureURL, nil
}

// PublicID is the Cloudinary id for a storage key. Cloudinary appends the
// detected format itself, so the extension is dropped.
func PublicID(key string) string {
	key = strings.Trim(key, "/")
	return strings.TrimSuffix(key, filepath.Ext(key))
}
